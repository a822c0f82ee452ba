package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Providers ProvidersConfig `yaml:"providers"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Daily     DailyConfig     `yaml:"daily"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"       env-required:"true"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"pulsepal"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"720h"`
	BcryptCost     int           `yaml:"bcrypt_cost"      env:"AUTH_BCRYPT_COST"      env-default:"10"`
	DemoEnabled    bool          `yaml:"demo_enabled"     env:"AUTH_DEMO_ENABLED"     env-default:"true"`
	DemoEmail      string        `yaml:"demo_email"       env:"AUTH_DEMO_EMAIL"       env-default:"demo@pulsepal.app"`
}

// ProvidersConfig holds model provider credentials and chain order.
type ProvidersConfig struct {
	// OrderRaw is a comma-separated provider chain, highest priority first.
	// Unconfigured providers in the list are skipped at startup.
	OrderRaw string `yaml:"order" env:"PROVIDERS_ORDER" env-default:"airia,gemini,anthropic"`

	Airia     AiriaConfig     `yaml:"airia"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic"`

	// Order is parsed from OrderRaw during validation.
	Order []string `yaml:"-" env:"-"`
}

// AiriaConfig holds Airia agent platform settings.
type AiriaConfig struct {
	BaseURL        string `yaml:"base_url"         env:"AIRIA_BASE_URL"`
	APIKey         string `yaml:"api_key"          env:"AIRIA_API_KEY"`
	MessageAgentID string `yaml:"message_agent_id" env:"AIRIA_AGENT_ID_MESSAGE"`
	DailyAgentID   string `yaml:"daily_agent_id"   env:"AIRIA_AGENT_ID_DAILY"`
}

// Configured reports whether the platform credentials are present.
func (c AiriaConfig) Configured() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// GeminiConfig holds Google Generative Language API settings.
type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model  string `yaml:"model"   env:"GEMINI_MODEL" env-default:"gemini-1.5-flash"`
}

func (c GeminiConfig) Configured() bool { return c.APIKey != "" }

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"    env:"ANTHROPIC_API_KEY"`
	Model     string `yaml:"model"      env:"ANTHROPIC_MODEL"      env-default:"claude-3-5-haiku-latest"`
	MaxTokens int64  `yaml:"max_tokens" env:"ANTHROPIC_MAX_TOKENS" env-default:"2048"`
}

func (c AnthropicConfig) Configured() bool { return c.APIKey != "" }

// PipelineConfig holds message pipeline settings.
type PipelineConfig struct {
	ProviderTimeout time.Duration `yaml:"provider_timeout" env:"PIPELINE_PROVIDER_TIMEOUT" env-default:"8s"`
	RecentMessages  int           `yaml:"recent_messages"  env:"PIPELINE_RECENT_MESSAGES"  env-default:"10"`
	RecentEvents    int           `yaml:"recent_events"    env:"PIPELINE_RECENT_EVENTS"    env-default:"20"`

	// DedupEvents collapses extracted events with identical content
	// within one message's batch. Identity is otherwise per generated id,
	// so duplicates are possible by design.
	DedupEvents bool `yaml:"dedup_events" env:"PIPELINE_DEDUP_EVENTS" env-default:"false"`
}

// DailyConfig holds daily pipeline settings.
type DailyConfig struct {
	WindowDays      int           `yaml:"window_days"       env:"DAILY_WINDOW_DAYS"       env-default:"30"`
	MaxEvents       int           `yaml:"max_events"        env:"DAILY_MAX_EVENTS"        env-default:"200"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"  env:"DAILY_PROVIDER_TIMEOUT"  env-default:"20s"`
	CronSchedule    string        `yaml:"cron_schedule"     env:"DAILY_CRON_SCHEDULE"     env-default:"0 6 * * *"`

	// SuppressWithin skips a scheduled run for users who already received
	// a report within the window. Manual runs bypass it.
	SuppressWithin time.Duration `yaml:"suppress_within" env:"DAILY_SUPPRESS_WITHIN" env-default:"20h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}
