package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Messaging MessagingConfig `mapstructure:"messaging" yaml:"messaging"`
	Features  FeaturesConfig  `mapstructure:"features" yaml:"features"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host" yaml:"host"`
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"`
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	User            string        `mapstructure:"user" yaml:"user"`
	Password        string        `mapstructure:"password" yaml:"-"`
	Name            string        `mapstructure:"name" yaml:"name"`
	SSLMode         string        `mapstructure:"sslmode" yaml:"sslmode"`
	Path            string        `mapstructure:"path" yaml:"path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// DSN renders the connection string for the configured driver.
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		if d.Path == "" {
			return "file::memory:?cache=shared"
		}
		return d.Path
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	}
}

type LoggerConfig struct {
	Level            string   `mapstructure:"level" yaml:"level"`
	Encoding         string   `mapstructure:"encoding" yaml:"encoding"`
	OutputPaths      []string `mapstructure:"output_paths" yaml:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths" yaml:"error_output_paths"`
}

type MessagingConfig struct {
	Region   string      `mapstructure:"region" yaml:"region"`
	Endpoint string      `mapstructure:"endpoint" yaml:"endpoint"`
	Queues   QueueConfig `mapstructure:"queues" yaml:"queues"`
	// MessageGroupID orders the durable execution event stream.
	MessageGroupID    string `mapstructure:"message_group_id" yaml:"message_group_id"`
	Workers           int    `mapstructure:"workers" yaml:"workers"`
	MaxMessages       int32  `mapstructure:"max_messages" yaml:"max_messages"`
	WaitTimeSeconds   int32  `mapstructure:"wait_time_seconds" yaml:"wait_time_seconds"`
	VisibilityTimeout int32  `mapstructure:"visibility_timeout" yaml:"visibility_timeout"`
}

type QueueConfig struct {
	BillingEvents       string `mapstructure:"billing_events" yaml:"billing_events"`
	OrderEvents         string `mapstructure:"order_events" yaml:"order_events"`
	ExecutionEvents     string `mapstructure:"execution_events" yaml:"execution_events"`
	ExecutionCompleted  string `mapstructure:"execution_completed" yaml:"execution_completed"`
	ResourceUnavailable string `mapstructure:"resource_unavailable" yaml:"resource_unavailable"`
}

type FeaturesConfig struct {
	RequestIDHeader      string `mapstructure:"request_id_header" yaml:"request_id_header"`
	EnableRequestLogging bool   `mapstructure:"enable_request_logging" yaml:"enable_request_logging"`
	EnableConsumers      bool   `mapstructure:"enable_consumers" yaml:"enable_consumers"`
	EnableEventStream    bool   `mapstructure:"enable_event_stream" yaml:"enable_event_stream"`
}

type AuthConfig struct {
	AdminAPIKey    string   `mapstructure:"admin_api_key" yaml:"-"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type MetricsConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	Path            string `mapstructure:"path" yaml:"path"`
	RefreshSchedule string `mapstructure:"refresh_schedule" yaml:"refresh_schedule"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "execution_service")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.output_paths", []string{"stdout"})
	v.SetDefault("logger.error_output_paths", []string{"stderr"})

	v.SetDefault("messaging.region", "us-east-1")
	v.SetDefault("messaging.endpoint", "")
	v.SetDefault("messaging.queues.billing_events", "")
	v.SetDefault("messaging.queues.order_events", "")
	v.SetDefault("messaging.queues.execution_events", "")
	v.SetDefault("messaging.queues.execution_completed", "")
	v.SetDefault("messaging.queues.resource_unavailable", "")
	v.SetDefault("messaging.message_group_id", "execution-service-events")
	v.SetDefault("messaging.workers", 2)
	v.SetDefault("messaging.max_messages", 10)
	v.SetDefault("messaging.wait_time_seconds", 20)
	v.SetDefault("messaging.visibility_timeout", 30)

	v.SetDefault("features.request_id_header", "X-Request-ID")
	v.SetDefault("features.enable_request_logging", true)
	v.SetDefault("features.enable_consumers", true)
	v.SetDefault("features.enable_event_stream", true)

	v.SetDefault("auth.admin_api_key", "")
	v.SetDefault("auth.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.refresh_schedule", "@every 30s")
}

// Load reads path (when it exists) and applies EXECUTION_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("EXECUTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
