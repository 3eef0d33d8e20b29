// Package config loads askdb settings from defaults, a credentials file, an
// optional YAML file and the environment, in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/filestore"
	"github.com/koustreak/askdb/internal/logger"
)

// Config is the full application configuration. It is built once at start
// up and passed to constructors; nothing else reads the environment.
type Config struct {
	Source    SourceConfig    `yaml:"source" envPrefix:"DB_"`
	Model     ModelConfig     `yaml:"model"`
	Speech    SpeechConfig    `yaml:"speech" envPrefix:"SPEECH_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"MINIO_"`
	Execution ExecutionConfig `yaml:"execution" envPrefix:"ASKDB_EXEC_"`
	Server    ServerConfig    `yaml:"server" envPrefix:"ASKDB_HTTP_"`
	Log       LogConfig       `yaml:"log" envPrefix:"ASKDB_LOG_"`
}

// SourceConfig describes the database server. Name is the database used
// when a request does not pick one. A zero Port selects the driver default.
type SourceConfig struct {
	Driver         string        `yaml:"driver" env:"DRIVER"`
	Host           string        `yaml:"host" env:"HOST"`
	Port           int           `yaml:"port" env:"PORT"`
	User           string        `yaml:"user" env:"USER"`
	Password       string        `yaml:"password" env:"PASSWORD"`
	Name           string        `yaml:"name" env:"NAME"`
	SSLMode        string        `yaml:"sslmode" env:"SSLMODE"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
}

// ModelConfig configures the generation backend.
type ModelConfig struct {
	APIKey  string        `yaml:"api_key" env:"GOOGLE_API_KEY"`
	Name    string        `yaml:"name" env:"GENAI_MODEL"`
	BaseURL string        `yaml:"base_url" env:"GENAI_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"GENAI_TIMEOUT"`
}

// SpeechConfig configures voice input. Model falls back to the generation
// model when empty.
type SpeechConfig struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED"`
	Model   string        `yaml:"model" env:"MODEL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// StorageConfig locates recorded voice clips in object storage. An empty
// endpoint disables "s3://" clip references.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	UseSSL    bool   `yaml:"use_ssl" env:"USE_SSL"`
	Region    string `yaml:"region" env:"REGION"`
	Bucket    string `yaml:"bucket" env:"BUCKET"`
}

// ExecutionConfig controls the execution gateway.
type ExecutionConfig struct {
	Strict       bool          `yaml:"strict" env:"STRICT"`
	Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT"`
	PreviewLimit int           `yaml:"preview_limit" env:"PREVIEW_LIMIT"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	MaxAudioBytes   int64         `yaml:"max_audio_bytes" env:"MAX_AUDIO_BYTES"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns local-development settings.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Driver:         string(database.DriverMySQL),
			Host:           "localhost",
			ConnectTimeout: 10 * time.Second,
		},
		Model: ModelConfig{
			Timeout: 60 * time.Second,
		},
		Speech: SpeechConfig{
			Timeout: 60 * time.Second,
		},
		Execution: ExecutionConfig{
			Strict:       true,
			Timeout:      30 * time.Second,
			PreviewLimit: database.DefaultPreviewLimit,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxAudioBytes:   20 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	driver, err := database.ParseDriver(c.Source.Driver)
	if err != nil {
		return err
	}
	if c.Source.Port == 0 {
		c.Source.Port = database.DefaultPort(driver)
	}

	if c.Source.Host == "" {
		return fmt.Errorf("source.host is required")
	}
	if c.Source.Port < 1 || c.Source.Port > 65535 {
		return fmt.Errorf("source.port %d is out of range", c.Source.Port)
	}

	for name, d := range map[string]time.Duration{
		"source.connect_timeout":  c.Source.ConnectTimeout,
		"model.timeout":           c.Model.Timeout,
		"speech.timeout":          c.Speech.Timeout,
		"execution.timeout":       c.Execution.Timeout,
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	if c.Execution.PreviewLimit < 1 || c.Execution.PreviewLimit > 1000 {
		return fmt.Errorf("execution.preview_limit must be between 1 and 1000")
	}

	if c.Storage.Endpoint != "" && (c.Storage.AccessKey == "" || c.Storage.SecretKey == "") {
		return fmt.Errorf("storage.access_key and storage.secret_key are required with storage.endpoint")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q must be json or console", c.Log.Format)
	}

	return nil
}

// Database converts the source section to a database.Config. Call after
// Validate.
func (c *Config) Database() *database.Config {
	driver, _ := database.ParseDriver(c.Source.Driver)
	return &database.Config{
		Driver:         driver,
		Host:           c.Source.Host,
		Port:           c.Source.Port,
		User:           c.Source.User,
		Password:       c.Source.Password,
		Database:       c.Source.Name,
		SSLMode:        c.Source.SSLMode,
		ConnectTimeout: c.Source.ConnectTimeout,
	}
}

// FileStore converts the storage section to a filestore.Config.
func (c *Config) FileStore() *filestore.Config {
	fc := filestore.DefaultConfig(c.Storage.Endpoint, c.Storage.AccessKey, c.Storage.SecretKey)
	fc.UseSSL = c.Storage.UseSSL
	fc.Region = c.Storage.Region
	fc.Bucket = c.Storage.Bucket
	return fc
}

// Logger converts the log section to a logger.Config.
func (c *Config) Logger() *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = strings.ToLower(c.Log.Level)
	lc.Format = strings.ToLower(c.Log.Format)
	return lc
}

// SpeechModel returns the transcription model, defaulting to the
// generation model.
func (c *Config) SpeechModel() string {
	if c.Speech.Model != "" {
		return c.Speech.Model
	}
	return c.Model.Name
}
