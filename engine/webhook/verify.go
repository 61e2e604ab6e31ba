package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/devclub/formsheets/pkg/config"
)

const (
	StrategyNone     = "none"
	StrategyTypeform = "typeform"
	StrategyHMAC     = "hmac"
)

const (
	HeaderTypeformSignature = "Typeform-Signature"
	prefixEnv               = "env://"
	prefixSHA256            = "sha256="
)

// Verifier validates an incoming webhook request using the given raw body.
type Verifier interface {
	Verify(ctx context.Context, r *http.Request, body []byte) error
}

// NewVerifier builds the verifier selected by cfg.Strategy. Secrets may be
// given inline or as env://NAME.
func NewVerifier(cfg *config.VerifyConfig) (Verifier, error) {
	switch cfg.Strategy {
	case "", StrategyNone:
		return noneVerifier{}, nil
	case StrategyTypeform:
		sec, err := resolveSecret(cfg.Secret.Value())
		if err != nil {
			return nil, err
		}
		return typeformVerifier{secret: sec}, nil
	case StrategyHMAC:
		sec, err := resolveSecret(cfg.Secret.Value())
		if err != nil {
			return nil, err
		}
		if cfg.Header == "" {
			return nil, errors.New("missing signature header name for hmac strategy")
		}
		return hmacVerifier{secret: sec, header: cfg.Header}, nil
	default:
		return nil, fmt.Errorf("unknown verification strategy %q", cfg.Strategy)
	}
}

func resolveSecret(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("empty secret")
	}
	if key, ok := strings.CutPrefix(s, prefixEnv); ok {
		val := os.Getenv(key)
		if val == "" {
			return nil, fmt.Errorf("secret env %q not set", key)
		}
		return []byte(val), nil
	}
	return []byte(s), nil
}

func sign(secret, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}

// SignTypeform returns the Typeform-Signature header value for body.
func SignTypeform(secret string, body []byte) string {
	return prefixSHA256 + base64.StdEncoding.EncodeToString(sign([]byte(secret), body))
}

// SignHex returns a hex HMAC-SHA256 of body.
func SignHex(secret string, body []byte) string {
	return hex.EncodeToString(sign([]byte(secret), body))
}

type noneVerifier struct{}

func (noneVerifier) Verify(_ context.Context, _ *http.Request, _ []byte) error {
	return nil
}

// typeformVerifier checks "sha256=<base64 HMAC-SHA256 of the body>".
type typeformVerifier struct {
	secret []byte
}

func (v typeformVerifier) Verify(_ context.Context, r *http.Request, body []byte) error {
	sig := r.Header.Get(HeaderTypeformSignature)
	if !strings.HasPrefix(sig, prefixSHA256) {
		return errors.New("invalid Typeform-Signature header")
	}
	encoded := strings.TrimSpace(sig[len(prefixSHA256):])
	if encoded == "" {
		return errors.New("missing Typeform signature")
	}
	got, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("invalid Typeform signature encoding: %w", err)
	}
	if !hmac.Equal(sign(v.secret, body), got) {
		return errors.New("signature mismatch")
	}
	return nil
}

type hmacVerifier struct {
	secret []byte
	header string
}

func (v hmacVerifier) Verify(_ context.Context, r *http.Request, body []byte) error {
	sig := r.Header.Get(v.header)
	if sig == "" {
		return errors.New("missing signature header")
	}
	got, err := hex.DecodeString(strings.TrimSpace(strings.TrimPrefix(sig, prefixSHA256)))
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if !hmac.Equal(sign(v.secret, body), got) {
		return errors.New("signature mismatch")
	}
	return nil
}

// SignatureHeader returns the header name and value a sender configured like
// cfg would attach to body. Strategy none yields empty strings.
func SignatureHeader(cfg *config.VerifyConfig, body []byte) (string, string, error) {
	switch cfg.Strategy {
	case "", StrategyNone:
		return "", "", nil
	case StrategyTypeform, StrategyHMAC:
		sec, err := resolveSecret(cfg.Secret.Value())
		if err != nil {
			return "", "", err
		}
		if cfg.Strategy == StrategyTypeform {
			return HeaderTypeformSignature, SignTypeform(string(sec), body), nil
		}
		if cfg.Header == "" {
			return "", "", errors.New("missing signature header name for hmac strategy")
		}
		return cfg.Header, SignHex(string(sec), body), nil
	default:
		return "", "", fmt.Errorf("unknown verification strategy %q", cfg.Strategy)
	}
}
