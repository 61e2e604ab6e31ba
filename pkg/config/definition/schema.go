package definition

import (
	"reflect"
	"time"
)

var (
	stringType   = reflect.TypeOf("")
	intType      = reflect.TypeOf(0)
	int64Type    = reflect.TypeOf(int64(0))
	boolType     = reflect.TypeOf(false)
	durationType = reflect.TypeOf(time.Duration(0))
	float64Type  = reflect.TypeOf(float64(0))
)

// DefaultWelcomeTemplate is the WhatsApp greeting sent after a row is stored.
const DefaultWelcomeTemplate = `Olá {{ .Name | default "cliente" }}, recebemos os seus dados 🎉

Seu prêmio foi adicionado ao seu perfil no Dev Club.

Parabéns pelo seu resultado!`

// CreateRegistry creates and populates the configuration registry.
// Every default lives here.
func CreateRegistry() *Registry {
	registry := NewRegistry()
	registerServerFields(registry)
	registerRuntimeFields(registry)
	registerSheetsFields(registry)
	registerOpenAIFields(registry)
	registerWhatsAppFields(registry)
	registerFormFields(registry)
	registerWebhookFields(registry)
	registerRedisFields(registry)
	registerRateLimitFields(registry)
	registerMonitoringFields(registry)
	return registry
}

func registerServerFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "server.host",
		Default: "0.0.0.0",
		CLIFlag: "host",
		EnvVar:  "SERVER_HOST",
		Type:    stringType,
		Help:    "Host interface for the HTTP server",
	})
	registry.Register(&FieldDef{
		Path:      "server.port",
		Default:   3000,
		CLIFlag:   "port",
		Shorthand: "p",
		EnvVar:    "PORT",
		Type:      intType,
		Help:      "Port for the HTTP server",
	})
	registry.Register(&FieldDef{
		Path:    "server.read_timeout",
		Default: 15 * time.Second,
		EnvVar:  "SERVER_READ_TIMEOUT",
		Type:    durationType,
		Help:    "Maximum duration for reading a request",
	})
	registry.Register(&FieldDef{
		Path:    "server.write_timeout",
		Default: 15 * time.Second,
		EnvVar:  "SERVER_WRITE_TIMEOUT",
		Type:    durationType,
		Help:    "Maximum duration before timing out response writes",
	})
	registry.Register(&FieldDef{
		Path:    "server.idle_timeout",
		Default: 60 * time.Second,
		EnvVar:  "SERVER_IDLE_TIMEOUT",
		Type:    durationType,
		Help:    "Keep-alive idle timeout",
	})
	registry.Register(&FieldDef{
		Path:    "server.shutdown_timeout",
		Default: 30 * time.Second,
		EnvVar:  "SERVER_SHUTDOWN_TIMEOUT",
		Type:    durationType,
		Help:    "Grace period for in-flight requests and notifications on shutdown",
	})
}

func registerRuntimeFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "runtime.environment",
		Default: "development",
		EnvVar:  "APP_ENV",
		Type:    stringType,
		Help:    "Deployment environment (development, staging, production, test)",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_level",
		Default: "info",
		CLIFlag: "log-level",
		EnvVar:  "LOG_LEVEL",
		Type:    stringType,
		Help:    "Log level (debug, info, warn, error)",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_json",
		Default: false,
		CLIFlag: "log-json",
		EnvVar:  "LOG_JSON",
		Type:    boolType,
		Help:    "Emit logs as JSON",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_source",
		Default: false,
		CLIFlag: "log-source",
		EnvVar:  "LOG_SOURCE",
		Type:    boolType,
		Help:    "Include caller information in logs",
	})
}

func registerSheetsFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "sheets.spreadsheet_id",
		Default: "",
		CLIFlag: "sheet-id",
		EnvVar:  "GOOGLE_SHEET_ID",
		Type:    stringType,
		Help:    "Target Google spreadsheet ID",
	})
	registry.Register(&FieldDef{
		Path:    "sheets.credentials_file",
		Default: "credentials.json",
		CLIFlag: "credentials",
		EnvVar:  "GOOGLE_CREDENTIALS_FILE",
		Type:    stringType,
		Help:    "Service account credentials file",
	})
	registry.Register(&FieldDef{
		Path:    "sheets.sheet_name",
		Default: "Página1",
		EnvVar:  "GOOGLE_SHEET_NAME",
		Type:    stringType,
		Help:    "Sheet (tab) that receives rows",
	})
	registry.Register(&FieldDef{
		Path:    "sheets.value_input_option",
		Default: "USER_ENTERED",
		EnvVar:  "GOOGLE_SHEET_VALUE_INPUT_OPTION",
		Type:    stringType,
		Help:    "How appended values are interpreted (USER_ENTERED or RAW)",
	})
	registry.Register(&FieldDef{
		Path:    "sheets.endpoint",
		Default: "",
		EnvVar:  "GOOGLE_SHEETS_ENDPOINT",
		Type:    stringType,
		Help:    "Override for the Sheets API endpoint",
	})
	registry.Register(&FieldDef{
		Path:    "sheets.timeout",
		Default: 15 * time.Second,
		EnvVar:  "GOOGLE_SHEETS_TIMEOUT",
		Type:    durationType,
		Help:    "Timeout for a single Sheets API call",
	})
}

func registerOpenAIFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "openai.api_key",
		Default: "",
		EnvVar:  "OPENAI_API_KEY",
		Type:    stringType,
		Help:    "API key for name normalization; empty disables it",
	})
	registry.Register(&FieldDef{
		Path:    "openai.base_url",
		Default: "",
		EnvVar:  "OPENAI_BASE_URL",
		Type:    stringType,
		Help:    "OpenAI-compatible base URL",
	})
	registry.Register(&FieldDef{
		Path:    "openai.model",
		Default: "gpt-3.5-turbo",
		EnvVar:  "OPENAI_MODEL",
		Type:    stringType,
		Help:    "Model used for name normalization",
	})
	registry.Register(&FieldDef{
		Path:    "openai.timeout",
		Default: 5 * time.Second,
		EnvVar:  "OPENAI_TIMEOUT",
		Type:    durationType,
		Help:    "Upper bound for a normalization call",
	})
	registry.Register(&FieldDef{
		Path:    "openai.temperature",
		Default: 0.3,
		EnvVar:  "OPENAI_TEMPERATURE",
		Type:    float64Type,
		Help:    "Sampling temperature",
	})
	registry.Register(&FieldDef{
		Path:    "openai.max_tokens",
		Default: 100,
		EnvVar:  "OPENAI_MAX_TOKENS",
		Type:    intType,
		Help:    "Completion token cap",
	})
}

func registerWhatsAppFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "whatsapp.api_url",
		Default: "https://api.ultramsg.com",
		EnvVar:  "WHATSAPP_API_URL",
		Type:    stringType,
		Help:    "UltraMsg API base URL",
	})
	registry.Register(&FieldDef{
		Path:    "whatsapp.instance_id",
		Default: "",
		EnvVar:  "WHATSAPP_INSTANCE_ID",
		Type:    stringType,
		Help:    "UltraMsg instance identifier",
	})
	registry.Register(&FieldDef{
		Path:    "whatsapp.api_key",
		Default: "",
		EnvVar:  "WHATSAPP_API_KEY",
		Type:    stringType,
		Help:    "UltraMsg token",
	})
	registry.Register(&FieldDef{
		Path:    "whatsapp.country_code",
		Default: "55",
		EnvVar:  "WHATSAPP_COUNTRY_CODE",
		Type:    stringType,
		Help:    "Country calling code prefixed to numbers without '+'",
	})
	registry.Register(&FieldDef{
		Path:    "whatsapp.timeout",
		Default: 10 * time.Second,
		EnvVar:  "WHATSAPP_TIMEOUT",
		Type:    durationType,
		Help:    "Upper bound for one delivery attempt",
	})
	registry.Register(&FieldDef{
		Path:    "whatsapp.welcome_template",
		Default: DefaultWelcomeTemplate,
		EnvVar:  "WHATSAPP_WELCOME_TEMPLATE",
		Type:    stringType,
		Help:    "Go template for the welcome message; .Name is the display name",
	})
}

func registerFormFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "form.boolean_true_label",
		Default: "Sim",
		EnvVar:  "FORM_BOOLEAN_TRUE_LABEL",
		Type:    stringType,
		Help:    "Text written for a true boolean answer",
	})
	registry.Register(&FieldDef{
		Path:    "form.boolean_false_label",
		Default: "Não",
		EnvVar:  "FORM_BOOLEAN_FALSE_LABEL",
		Type:    stringType,
		Help:    "Text written for a false or missing boolean answer",
	})
}

func registerWebhookFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "webhook.path",
		Default: "/webhook",
		EnvVar:  "WEBHOOK_PATH",
		Type:    stringType,
		Help:    "Route that receives form submissions",
	})
	registry.Register(&FieldDef{
		Path:    "webhook.max_body",
		Default: int64(1 << 20),
		EnvVar:  "WEBHOOK_MAX_BODY",
		Type:    int64Type,
		Help:    "Maximum accepted webhook body size in bytes",
	})
	registry.Register(&FieldDef{
		Path:    "webhook.verify.strategy",
		Default: "none",
		EnvVar:  "WEBHOOK_VERIFY_STRATEGY",
		Type:    stringType,
		Help:    "Signature verification (none, typeform, hmac)",
	})
	registry.Register(&FieldDef{
		Path:    "webhook.verify.secret",
		Default: "",
		EnvVar:  "WEBHOOK_SECRET",
		Type:    stringType,
		Help:    "Shared secret used to sign webhook bodies",
	})
	registry.Register(&FieldDef{
		Path:    "webhook.verify.header",
		Default: "X-Signature",
		EnvVar:  "WEBHOOK_SIGNATURE_HEADER",
		Type:    stringType,
		Help:    "Header carrying the hex signature for the hmac strategy",
	})
	registry.Register(&FieldDef{
		Path:    "webhook.dedupe.enabled",
		Default: false,
		EnvVar:  "WEBHOOK_DEDUPE_ENABLED",
		Type:    boolType,
		Help:    "Drop redelivered events by event_id",
	})
	registry.Register(&FieldDef{
		Path:    "webhook.dedupe.ttl",
		Default: 24 * time.Hour,
		EnvVar:  "WEBHOOK_DEDUPE_TTL",
		Type:    durationType,
		Help:    "How long a processed event_id is remembered",
	})
}

func registerRedisFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "redis.url",
		Default: "",
		EnvVar:  "REDIS_URL",
		Type:    stringType,
		Help:    "Redis URL for webhook dedupe and rate limiting; empty starts an embedded server when dedupe is on",
	})
	registry.Register(&FieldDef{
		Path:    "redis.prefix",
		Default: "formsheets:",
		EnvVar:  "REDIS_PREFIX",
		Type:    stringType,
		Help:    "Key prefix for redis entries",
	})
}

func registerRateLimitFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "ratelimit.enabled",
		Default: false,
		EnvVar:  "RATELIMIT_ENABLED",
		Type:    boolType,
		Help:    "Enable per-IP rate limiting outside health and metrics routes",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.rate",
		Default: "120-M",
		EnvVar:  "RATELIMIT_RATE",
		Type:    stringType,
		Help:    "Rate in limiter format, e.g. 120-M",
	})
}

func registerMonitoringFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "monitoring.enabled",
		Default: true,
		EnvVar:  "MONITORING_ENABLED",
		Type:    boolType,
		Help:    "Expose Prometheus metrics",
	})
	registry.Register(&FieldDef{
		Path:    "monitoring.path",
		Default: "/metrics",
		EnvVar:  "MONITORING_PATH",
		Type:    stringType,
		Help:    "Route for the metrics endpoint",
	})
}
