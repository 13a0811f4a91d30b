package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains the settings of the bearer-token identity layer.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=44640"`
}

// Supported LLM providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// LLMConfig contains all LLM integration related settings.
//
// APIKey is intentionally not required here: the provider client constructors
// own that check so a missing credential surfaces as a configuration error
// from the component that needs it.
type LLMConfig struct {
	Provider string `mapstructure:"provider" validate:"required,oneof=openrouter gemini"`
	APIKey   string `mapstructure:"api_key"`
	// Endpoint overrides the provider's default API endpoint.
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
	// Model, Temperature and MaxTokens fall back to the provider client's
	// defaults when unset.
	Model          string   `mapstructure:"model"`
	Temperature    *float64 `mapstructure:"temperature"     validate:"omitempty,gte=0,lte=2"`
	MaxTokens      int      `mapstructure:"max_tokens"      validate:"gte=0"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" validate:"gte=0"`
	// AppURL and AppTitle are sent as attribution headers to OpenRouter.
	AppURL   string `mapstructure:"app_url"   validate:"omitempty,url"`
	AppTitle string `mapstructure:"app_title"`
}
