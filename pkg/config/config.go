package config

import (
	"context"
	"time"

	"github.com/devclub/formsheets/pkg/config/definition"
)

// Config is the complete, validated configuration of the service.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Runtime    RuntimeConfig    `koanf:"runtime"`
	Sheets     SheetsConfig     `koanf:"sheets"`
	OpenAI     OpenAIConfig     `koanf:"openai"`
	WhatsApp   WhatsAppConfig   `koanf:"whatsapp"`
	Form       FormConfig       `koanf:"form"`
	Webhook    WebhookConfig    `koanf:"webhook"`
	Redis      RedisConfig      `koanf:"redis"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"             validate:"required"        env:"SERVER_HOST"`
	Port            int           `koanf:"port"             validate:"min=1,max=65535" env:"PORT"`
	ReadTimeout     time.Duration `koanf:"read_timeout"                                env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `koanf:"write_timeout"                               env:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"                                env:"SERVER_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"                            env:"SERVER_SHUTDOWN_TIMEOUT"`
}

type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production test" env:"APP_ENV"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error disabled"      env:"LOG_LEVEL"`
	LogJSON     bool   `koanf:"log_json"                                                         env:"LOG_JSON"`
	LogSource   bool   `koanf:"log_source"                                                       env:"LOG_SOURCE"`
}

// SheetsConfig points at the spreadsheet that stores one row per submission.
type SheetsConfig struct {
	SpreadsheetID    string        `koanf:"spreadsheet_id"     env:"GOOGLE_SHEET_ID"`
	CredentialsFile  string        `koanf:"credentials_file"   env:"GOOGLE_CREDENTIALS_FILE"`
	SheetName        string        `koanf:"sheet_name"         env:"GOOGLE_SHEET_NAME"               validate:"required,sheet_name"`
	ValueInputOption string        `koanf:"value_input_option" env:"GOOGLE_SHEET_VALUE_INPUT_OPTION" validate:"oneof=USER_ENTERED RAW"`
	Endpoint         string        `koanf:"endpoint"           env:"GOOGLE_SHEETS_ENDPOINT"`
	Timeout          time.Duration `koanf:"timeout"            env:"GOOGLE_SHEETS_TIMEOUT"`
}

// AppendRange is where new rows are appended.
func (s SheetsConfig) AppendRange() string {
	return s.SheetName + "!A2"
}

// HeaderRange is where the header row lives.
func (s SheetsConfig) HeaderRange() string {
	return s.SheetName + "!A1"
}

// OpenAIConfig contains the name normalization provider settings.
type OpenAIConfig struct {
	APIKey      SensitiveString `koanf:"api_key"     env:"OPENAI_API_KEY"     sensitive:"true"`
	BaseURL     string          `koanf:"base_url"    env:"OPENAI_BASE_URL"`
	Model       string          `koanf:"model"       env:"OPENAI_MODEL"       validate:"required"`
	Timeout     time.Duration   `koanf:"timeout"     env:"OPENAI_TIMEOUT"`
	Temperature float64         `koanf:"temperature" env:"OPENAI_TEMPERATURE" validate:"min=0,max=2"`
	MaxTokens   int             `koanf:"max_tokens"  env:"OPENAI_MAX_TOKENS"  validate:"min=1"`
}

// Configured reports whether normalization calls can be made.
func (o OpenAIConfig) Configured() bool {
	return o.APIKey.Value() != ""
}

// WhatsAppConfig contains the UltraMsg messaging settings.
type WhatsAppConfig struct {
	APIURL          string          `koanf:"api_url"          env:"WHATSAPP_API_URL"          validate:"required,url"`
	InstanceID      string          `koanf:"instance_id"      env:"WHATSAPP_INSTANCE_ID"`
	APIKey          SensitiveString `koanf:"api_key"          env:"WHATSAPP_API_KEY"          sensitive:"true"`
	CountryCode     string          `koanf:"country_code"     env:"WHATSAPP_COUNTRY_CODE"     validate:"numeric"`
	Timeout         time.Duration   `koanf:"timeout"          env:"WHATSAPP_TIMEOUT"`
	WelcomeTemplate string          `koanf:"welcome_template" env:"WHATSAPP_WELCOME_TEMPLATE" validate:"required"`
}

// Configured reports whether both the instance and its token are set.
func (w WhatsAppConfig) Configured() bool {
	return w.InstanceID != "" && w.APIKey.Value() != ""
}

// FormConfig holds rendering options for form answers.
type FormConfig struct {
	BooleanTrueLabel  string `koanf:"boolean_true_label"  env:"FORM_BOOLEAN_TRUE_LABEL"`
	BooleanFalseLabel string `koanf:"boolean_false_label" env:"FORM_BOOLEAN_FALSE_LABEL"`
}

type WebhookConfig struct {
	Path    string       `koanf:"path"     env:"WEBHOOK_PATH"     validate:"required,startswith=/"`
	MaxBody int64        `koanf:"max_body" env:"WEBHOOK_MAX_BODY" validate:"min=1"`
	Verify  VerifyConfig `koanf:"verify"`
	Dedupe  DedupeConfig `koanf:"dedupe"`
}

// VerifyConfig selects how inbound webhook signatures are checked.
type VerifyConfig struct {
	Strategy string          `koanf:"strategy" env:"WEBHOOK_VERIFY_STRATEGY" validate:"oneof=none typeform hmac"`
	Secret   SensitiveString `koanf:"secret"   env:"WEBHOOK_SECRET"          sensitive:"true"`
	Header   string          `koanf:"header"   env:"WEBHOOK_SIGNATURE_HEADER"`
}

type DedupeConfig struct {
	Enabled bool          `koanf:"enabled" env:"WEBHOOK_DEDUPE_ENABLED"`
	TTL     time.Duration `koanf:"ttl"     env:"WEBHOOK_DEDUPE_TTL"`
}

type RedisConfig struct {
	URL    SensitiveString `koanf:"url"    env:"REDIS_URL"    sensitive:"true"`
	Prefix string          `koanf:"prefix" env:"REDIS_PREFIX"`
}

type RateLimitConfig struct {
	Enabled bool   `koanf:"enabled" env:"RATELIMIT_ENABLED"`
	Rate    string `koanf:"rate"    env:"RATELIMIT_RATE"`
}

type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" env:"MONITORING_ENABLED"`
	Path    string `koanf:"path"    env:"MONITORING_PATH"    validate:"required,startswith=/"`
}

// Service defines the configuration loading service.
type Service interface {
	// Load loads configuration from the given sources. YAML sources are
	// applied first, then environment variables, then CLI flags.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	Validate(config *Config) error
	// GetSource reports which source provided a configuration key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	Load() (map[string]any, error)
	Type() SourceType
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Load loads configuration from defaults and the environment.
func Load() (*Config, error) {
	return NewService().Load(context.Background())
}

// Default returns a Config populated from the definition registry.
func Default() *Config {
	registry := definition.CreateRegistry()
	return &Config{
		Server:     buildServerConfig(registry),
		Runtime:    buildRuntimeConfig(registry),
		Sheets:     buildSheetsConfig(registry),
		OpenAI:     buildOpenAIConfig(registry),
		WhatsApp:   buildWhatsAppConfig(registry),
		Form:       buildFormConfig(registry),
		Webhook:    buildWebhookConfig(registry),
		Redis:      buildRedisConfig(registry),
		RateLimit:  buildRateLimitConfig(registry),
		Monitoring: buildMonitoringConfig(registry),
	}
}

func getString(registry *definition.Registry, path string) string {
	if s, ok := registry.Default(path).(string); ok {
		return s
	}
	return ""
}

func getInt(registry *definition.Registry, path string) int {
	if i, ok := registry.Default(path).(int); ok {
		return i
	}
	return 0
}

func getInt64(registry *definition.Registry, path string) int64 {
	if i, ok := registry.Default(path).(int64); ok {
		return i
	}
	return 0
}

func getBool(registry *definition.Registry, path string) bool {
	if b, ok := registry.Default(path).(bool); ok {
		return b
	}
	return false
}

func getFloat64(registry *definition.Registry, path string) float64 {
	if f, ok := registry.Default(path).(float64); ok {
		return f
	}
	return 0
}

func getDuration(registry *definition.Registry, path string) time.Duration {
	if d, ok := registry.Default(path).(time.Duration); ok {
		return d
	}
	return 0
}

func buildServerConfig(registry *definition.Registry) ServerConfig {
	return ServerConfig{
		Host:            getString(registry, "server.host"),
		Port:            getInt(registry, "server.port"),
		ReadTimeout:     getDuration(registry, "server.read_timeout"),
		WriteTimeout:    getDuration(registry, "server.write_timeout"),
		IdleTimeout:     getDuration(registry, "server.idle_timeout"),
		ShutdownTimeout: getDuration(registry, "server.shutdown_timeout"),
	}
}

func buildRuntimeConfig(registry *definition.Registry) RuntimeConfig {
	return RuntimeConfig{
		Environment: getString(registry, "runtime.environment"),
		LogLevel:    getString(registry, "runtime.log_level"),
		LogJSON:     getBool(registry, "runtime.log_json"),
		LogSource:   getBool(registry, "runtime.log_source"),
	}
}

func buildSheetsConfig(registry *definition.Registry) SheetsConfig {
	return SheetsConfig{
		SpreadsheetID:    getString(registry, "sheets.spreadsheet_id"),
		CredentialsFile:  getString(registry, "sheets.credentials_file"),
		SheetName:        getString(registry, "sheets.sheet_name"),
		ValueInputOption: getString(registry, "sheets.value_input_option"),
		Endpoint:         getString(registry, "sheets.endpoint"),
		Timeout:          getDuration(registry, "sheets.timeout"),
	}
}

func buildOpenAIConfig(registry *definition.Registry) OpenAIConfig {
	return OpenAIConfig{
		APIKey:      SensitiveString(getString(registry, "openai.api_key")),
		BaseURL:     getString(registry, "openai.base_url"),
		Model:       getString(registry, "openai.model"),
		Timeout:     getDuration(registry, "openai.timeout"),
		Temperature: getFloat64(registry, "openai.temperature"),
		MaxTokens:   getInt(registry, "openai.max_tokens"),
	}
}

func buildWhatsAppConfig(registry *definition.Registry) WhatsAppConfig {
	return WhatsAppConfig{
		APIURL:          getString(registry, "whatsapp.api_url"),
		InstanceID:      getString(registry, "whatsapp.instance_id"),
		APIKey:          SensitiveString(getString(registry, "whatsapp.api_key")),
		CountryCode:     getString(registry, "whatsapp.country_code"),
		Timeout:         getDuration(registry, "whatsapp.timeout"),
		WelcomeTemplate: getString(registry, "whatsapp.welcome_template"),
	}
}

func buildFormConfig(registry *definition.Registry) FormConfig {
	return FormConfig{
		BooleanTrueLabel:  getString(registry, "form.boolean_true_label"),
		BooleanFalseLabel: getString(registry, "form.boolean_false_label"),
	}
}

func buildWebhookConfig(registry *definition.Registry) WebhookConfig {
	return WebhookConfig{
		Path:    getString(registry, "webhook.path"),
		MaxBody: getInt64(registry, "webhook.max_body"),
		Verify: VerifyConfig{
			Strategy: getString(registry, "webhook.verify.strategy"),
			Secret:   SensitiveString(getString(registry, "webhook.verify.secret")),
			Header:   getString(registry, "webhook.verify.header"),
		},
		Dedupe: DedupeConfig{
			Enabled: getBool(registry, "webhook.dedupe.enabled"),
			TTL:     getDuration(registry, "webhook.dedupe.ttl"),
		},
	}
}

func buildRedisConfig(registry *definition.Registry) RedisConfig {
	return RedisConfig{
		URL:    SensitiveString(getString(registry, "redis.url")),
		Prefix: getString(registry, "redis.prefix"),
	}
}

func buildRateLimitConfig(registry *definition.Registry) RateLimitConfig {
	return RateLimitConfig{
		Enabled: getBool(registry, "ratelimit.enabled"),
		Rate:    getString(registry, "ratelimit.rate"),
	}
}

func buildMonitoringConfig(registry *definition.Registry) MonitoringConfig {
	return MonitoringConfig{
		Enabled: getBool(registry, "monitoring.enabled"),
		Path:    getString(registry, "monitoring.path"),
	}
}
