package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeCLI    = "cli"
	ModeServer = "server"

	// Default values
	DefaultPort           = 8080
	DefaultHost           = "127.0.0.1"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 50 * 1024 * 1024 // 50MB
	DefaultConvertTimeout = 60               // seconds
)

// Config holds all configuration for the invoice filler
type Config struct {
	// Server configuration
	Mode string // "cli" or "server"
	Host string
	Port int

	// Template configuration
	TemplatePath string

	// Application configuration
	Version        string
	ServerName     string
	LogLevel       string
	MaxFileSize    int64 // Maximum PDF file size in bytes
	ConvertTimeout int   // LibreOffice conversion timeout in seconds
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:           ModeCLI,
		Host:           DefaultHost,
		Port:           DefaultPort,
		TemplatePath:   "",
		Version:        "1.0.0",
		ServerName:     "invoice-filler",
		LogLevel:       DefaultLogLevel,
		MaxFileSize:    DefaultMaxFileSize,
		ConvertTimeout: DefaultConvertTimeout,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand the template path if needed
	if cfg.TemplatePath != "" {
		if expandedPath, err := filepath.Abs(cfg.TemplatePath); err == nil {
			cfg.TemplatePath = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("INVOICE_FILLER")
	viper.AutomaticEnv()

	// Define flags with Viper
	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("template", cfg.TemplatePath)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("converttimeout", cfg.ConvertTimeout)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'cli' for one-shot conversion, 'server' for the HTTP front end")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("template", cfg.TemplatePath, "Path to the invoice .docx template")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Int("converttimeout", cfg.ConvertTimeout, "PDF conversion timeout in seconds")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("template", pflag.Lookup("template"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("converttimeout", pflag.Lookup("converttimeout"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nInvoice Filler - builds an invoice document from a supplier order PDF\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --template=facture.docx commande.pdf           "+
			"# one-shot conversion (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --template=facture.docx          # HTTP front end\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 --template=facture.docx\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_FILLER_MODE           Run mode\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_FILLER_HOST           Server host\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_FILLER_PORT           Server port\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_FILLER_TEMPLATE       Template path\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_FILLER_LOGLEVEL       Log level\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_FILLER_MAXFILESIZE    Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  INVOICE_FILLER_CONVERTTIMEOUT Conversion timeout (seconds)\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.TemplatePath = viper.GetString("template")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.ConvertTimeout = viper.GetInt("converttimeout")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeCLI && c.Mode != ModeServer {
		return errors.New("mode must be either 'cli' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// A configured template must exist; per-request templates may still be
	// uploaded in server mode, so an empty path is allowed there.
	if c.TemplatePath != "" {
		if _, err := os.Stat(c.TemplatePath); err != nil {
			return fmt.Errorf("cannot access template %s: %w", c.TemplatePath, err)
		}
	} else if c.Mode == ModeCLI {
		return errors.New("cli mode requires a template path")
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate conversion timeout
	if c.ConvertTimeout <= 0 {
		return errors.New("conversion timeout must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, TemplatePath: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.TemplatePath, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the HTTP front end should be started
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsCLIMode returns true for one-shot command line conversion
func (c *Config) IsCLIMode() bool {
	return c.Mode == ModeCLI
}
