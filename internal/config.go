package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/upload"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Storage   StorageConfig     `yaml:"storage"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Upload    UploadConfig      `yaml:"upload"`
	Ingest    IngestConfig      `yaml:"ingest"`
	Assistant AssistantConfig   `yaml:"assistant"`
	SSE       SSEConfig         `yaml:"sse"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.Storage, &c.SQLite, &c.Upload, &c.Ingest, &c.Assistant, &c.SSE} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig points at the directory holding the JSON collections.
// With Watch set, changes written by another process are picked up.
type StorageConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds the search index database path.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// UploadConfig limits document uploads.
type UploadConfig struct {
	Accept   []string `yaml:"accept"`
	MaxBytes int64    `yaml:"max_bytes"`
}

// Policy returns the upload policy, defaults filled in.
func (c *UploadConfig) Policy() upload.Policy {
	return upload.NewPolicy(c.Accept, c.MaxBytes)
}

// Validate validates the upload configuration.
func (c *UploadConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.MaxBytes, validation.Min(int64(0))),
	); err != nil {
		return err
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

// IngestConfig tunes the text extraction stub.
type IngestConfig struct {
	Latency time.Duration `yaml:"latency"`
}

// Validate validates the ingest configuration.
func (c *IngestConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Latency, validation.Min(time.Duration(0))),
	)
}

// AssistantConfig configures the chat responder. An empty APIKey or the
// placeholder value yields the missing-key reply.
type AssistantConfig struct {
	APIKey  string        `yaml:"api_key"`
	Latency time.Duration `yaml:"latency"`
}

// Validate validates the assistant configuration.
func (c *AssistantConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Latency, validation.Min(time.Duration(0))),
	)
}

// SSEConfig holds the event stream settings.
type SSEConfig struct {
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the SSE configuration.
func (c *SSEConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Path:  "./data",
			Watch: true,
		},
		SQLite: SQLiteConfig{
			Path: "./folio.db",
		},
		Upload: UploadConfig{
			Accept:   upload.DefaultAccept,
			MaxBytes: upload.DefaultMaxBytes,
		},
		Ingest: IngestConfig{
			Latency: 1500 * time.Millisecond,
		},
		Assistant: AssistantConfig{
			Latency: time.Second,
		},
		SSE: SSEConfig{
			Throttle: time.Second,
		},
	}
}
