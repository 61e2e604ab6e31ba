package monitoring

import (
	"fmt"
	"strings"

	"github.com/devclub/formsheets/pkg/config"
)

// validate checks the scrape path. The path must be absolute and must not
// shadow the webhook route.
func validate(cfg *config.MonitoringConfig, webhookPath string) error {
	if cfg.Path == "" {
		return fmt.Errorf("monitoring path cannot be empty")
	}
	if cfg.Path[0] != '/' {
		return fmt.Errorf("monitoring path must start with '/': got %s", cfg.Path)
	}
	if strings.ContainsRune(cfg.Path, '?') {
		return fmt.Errorf("monitoring path cannot contain query parameters")
	}
	if webhookPath != "" && cfg.Path == webhookPath {
		return fmt.Errorf("monitoring path %s collides with the webhook route", cfg.Path)
	}
	return nil
}
