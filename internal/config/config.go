package config

// Config holds all application configuration, organized into logical groups.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	AI       AIConfig       `mapstructure:"ai" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains authentication and token settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
}

// AIConfig contains settings for the inference backend and the admission
// gateway guarding it. MaxQueueSize may be zero, which disables queueing and
// rejects work as soon as all execution slots are busy.
type AIConfig struct {
	BaseURL             string `mapstructure:"base_url" validate:"required,url"`
	Model               string `mapstructure:"model" validate:"required"`
	MaxConcurrent       int    `mapstructure:"max_concurrent" validate:"required,gt=0"`
	MaxQueueSize        int    `mapstructure:"max_queue_size" validate:"gte=0"`
	QueueTimeoutSeconds int    `mapstructure:"queue_timeout_seconds" validate:"required,gt=0"`
}
