// Package config loads claimassess settings from the config file, the
// environment (CLAIMASSESS_*) and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sprite-ai/claimassess/internal/upload"
	"github.com/sprite-ai/claimassess/internal/wizard"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "CLAIMASSESS"

// Keys understood in the config file.
const (
	KeyAnalysisDelay  = "analysis.delay"
	KeySubmitDelay    = "submit.delay"
	KeySavedAck       = "review.saved_ack"
	KeyUploadMaxBytes = "upload.max_bytes"
	KeyUploadTypes    = "upload.allowed_types"
	KeyServerAddr     = "server.addr"
	KeyServerPort     = "server.port"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyLogFile        = "log.file"
)

// DefaultPort is the port the API server listens on.
const DefaultPort = 6142

// Config is the resolved configuration.
type Config struct {
	AnalysisDelay time.Duration
	SubmitDelay   time.Duration
	SavedAckDelay time.Duration
	Upload        upload.Limits
	Server        Server
	Log           Log
}

// Server holds the listen address of the API server.
type Server struct {
	Addr string
	Port int
}

// Address joins host and port for net.Listen.
func (s Server) Address() string {
	return net.JoinHostPort(s.Addr, strconv.Itoa(s.Port))
}

// Log holds logger settings.
type Log struct {
	Level  string
	Format string
	File   string
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		AnalysisDelay: wizard.DefaultAnalysisDelay,
		SubmitDelay:   wizard.DefaultSubmitDelay,
		SavedAckDelay: wizard.DefaultSavedAckDelay,
		Upload:        upload.DefaultLimits(),
		Server:        Server{Addr: "127.0.0.1", Port: DefaultPort},
		Log:           Log{Level: "info", Format: "console"},
	}
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyAnalysisDelay, d.AnalysisDelay)
	v.SetDefault(KeySubmitDelay, d.SubmitDelay)
	v.SetDefault(KeySavedAck, d.SavedAckDelay)
	v.SetDefault(KeyUploadMaxBytes, d.Upload.MaxBytes)
	v.SetDefault(KeyUploadTypes, d.Upload.AllowedTypes)
	v.SetDefault(KeyServerAddr, d.Server.Addr)
	v.SetDefault(KeyServerPort, d.Server.Port)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)
	v.SetDefault(KeyLogFile, d.Log.File)
}

// ReadIn points v at cfgFile, or at $HOME/.config/claimassess/config.yaml
// when cfgFile is empty, enables environment overrides and reads the file.
// A missing default config file is not an error.
func ReadIn(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".config", "claimassess"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Load resolves every key on v and validates the result.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	cfg := Config{
		AnalysisDelay: v.GetDuration(KeyAnalysisDelay),
		SubmitDelay:   v.GetDuration(KeySubmitDelay),
		SavedAckDelay: v.GetDuration(KeySavedAck),
		Upload: upload.Limits{
			MaxBytes:     v.GetInt64(KeyUploadMaxBytes),
			AllowedTypes: v.GetStringSlice(KeyUploadTypes),
		},
		Server: Server{
			Addr: v.GetString(KeyServerAddr),
			Port: v.GetInt(KeyServerPort),
		},
		Log: Log{
			Level:  strings.ToLower(v.GetString(KeyLogLevel)),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
			File:   v.GetString(KeyLogFile),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	for key, d := range map[string]time.Duration{
		KeyAnalysisDelay: c.AnalysisDelay,
		KeySubmitDelay:   c.SubmitDelay,
		KeySavedAck:      c.SavedAckDelay,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyUploadMaxBytes, c.Upload.MaxBytes)
	}
	if len(c.Upload.AllowedTypes) == 0 {
		return fmt.Errorf("%s must list at least one media type", KeyUploadTypes)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%s out of range: %d", KeyServerPort, c.Server.Port)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

// WizardOptions maps the configuration onto wizard options. The caller
// supplies the scheduler and observer.
func (c Config) WizardOptions() wizard.Options {
	return wizard.Options{
		Limits:        c.Upload,
		AnalysisDelay: c.AnalysisDelay,
		SubmitDelay:   c.SubmitDelay,
		SavedAckDelay: c.SavedAckDelay,
	}
}
