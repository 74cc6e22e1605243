/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ssargent/boconv/pkg/codec"
	"github.com/ssargent/boconv/pkg/frame"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Storage engines
const (
	EnginePebble = "pebble"
	EngineLog    = "log"
)

// Config represents the boconv configuration
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Port     int      `yaml:"port"`
	Bind     string   `yaml:"bind"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
	Codec    Codec    `yaml:"codec"`
	Storage  Storage  `yaml:"storage"`
}

// Security contains security-related configuration
type Security struct {
	APIKey        string `yaml:"api_key"`
	MaxRecordSize int    `yaml:"max_record_size"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Codec selects wire behavior that differs between deployments
type Codec struct {
	TimestampMode string `yaml:"timestamp_mode"`
	Compression   string `yaml:"compression"`
}

// Storage configures where objects are kept
type Storage struct {
	Engine        string        `yaml:"engine"`
	FsyncInterval time.Duration `yaml:"fsync_interval"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Security: Security{
			MaxRecordSize: 1 << 20,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		Codec: Codec{
			TimestampMode: codec.TimestampModeLegacy.String(),
			Compression:   frame.CompressionNone.String(),
		},
		Storage: Storage{
			Engine: EnginePebble,
		},
	}
}

// LoadConfig loads configuration from the specified path. Keys missing
// from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.Newf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, errors.Wrap(err, "invalid config path")
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// The file may hold the API key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// Validate checks every enumerated setting
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.Newf("port %d out of range", c.Port)
	}
	if c.Security.MaxRecordSize <= 0 {
		return errors.Newf("security.max_record_size must be positive, got %d", c.Security.MaxRecordSize)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return errors.Wrap(err, "logging.level")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return errors.Newf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if _, err := c.Codec.Mode(); err != nil {
		return errors.Wrap(err, "codec.timestamp_mode")
	}
	if _, err := c.Codec.FrameCompression(); err != nil {
		return errors.Wrap(err, "codec.compression")
	}
	switch c.Storage.Engine {
	case EnginePebble, EngineLog:
	default:
		return errors.Newf("storage.engine must be %s or %s, got %q", EnginePebble, EngineLog, c.Storage.Engine)
	}
	if c.Storage.FsyncInterval < 0 {
		return errors.Newf("storage.fsync_interval must not be negative, got %s", c.Storage.FsyncInterval)
	}
	return nil
}

// Mode parses the configured timestamp mode
func (c Codec) Mode() (codec.TimestampMode, error) {
	return codec.ParseTimestampMode(c.TimestampMode)
}

// FrameCompression parses the configured frame compression
func (c Codec) FrameCompression() (frame.Compression, error) {
	return frame.ParseCompression(c.Compression)
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "failed to generate secure key")
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a new configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate API key")
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, errors.Wrap(err, "failed to save bootstrap config")
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./boconv.yaml"
	}

	// For Linux/macOS, use ~/.config/boconv/config.yaml
	return filepath.Join(homeDir, ".config", "boconv", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
