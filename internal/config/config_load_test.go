package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to set os.Args for testing
func setArgs(args []string) {
	os.Args = args
}

// Helper function to clear environment variables
func clearEnvVars() {
	os.Unsetenv("INVOICE_FILLER_MODE")
	os.Unsetenv("INVOICE_FILLER_HOST")
	os.Unsetenv("INVOICE_FILLER_PORT")
	os.Unsetenv("INVOICE_FILLER_TEMPLATE")
	os.Unsetenv("INVOICE_FILLER_LOGLEVEL")
	os.Unsetenv("INVOICE_FILLER_MAXFILESIZE")
	os.Unsetenv("INVOICE_FILLER_CONVERTTIMEOUT")
}

func TestLoadFromFlags_DefaultServerConfig(t *testing.T) {
	// Save original args and environment
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	// cli mode needs a template, so the bare default is exercised in
	// server mode.
	setArgs([]string{"invoice-filler", "--mode=server"})
	resetFlags()
	clearEnvVars()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	// Verify default values
	if cfg.Host != "127.0.0.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "127.0.0.1")
	}
	if cfg.Port != 8080 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 8080)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "info")
	}
	if cfg.MaxFileSize != 50*1024*1024 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 50*1024*1024)
	}
	if cfg.ConvertTimeout != DefaultConvertTimeout {
		t.Errorf("LoadFromFlags() ConvertTimeout = %v, want %v", cfg.ConvertTimeout, DefaultConvertTimeout)
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name            string
		argsTemplate    []string
		wantMode        string
		wantHost        string
		wantPort        int
		wantLogLevel    string
		wantMaxFileSize int64
	}{
		{
			name:            "cli mode with template",
			argsTemplate:    []string{"invoice-filler", "--template=%s"},
			wantMode:        "cli",
			wantHost:        "127.0.0.1",
			wantPort:        8080,
			wantLogLevel:    "info",
			wantMaxFileSize: 50 * 1024 * 1024,
		},
		{
			name:            "server mode",
			argsTemplate:    []string{"invoice-filler", "--mode=server", "--template=%s"},
			wantMode:        "server",
			wantHost:        "127.0.0.1",
			wantPort:        8080,
			wantLogLevel:    "info",
			wantMaxFileSize: 50 * 1024 * 1024,
		},
		{
			name:            "server mode with custom host and port",
			argsTemplate:    []string{"invoice-filler", "--mode=server", "--host=0.0.0.0", "--port=9090", "--template=%s"},
			wantMode:        "server",
			wantHost:        "0.0.0.0",
			wantPort:        9090,
			wantLogLevel:    "info",
			wantMaxFileSize: 50 * 1024 * 1024,
		},
		{
			name:            "debug logging",
			argsTemplate:    []string{"invoice-filler", "--loglevel=debug", "--template=%s"},
			wantMode:        "cli",
			wantHost:        "127.0.0.1",
			wantPort:        8080,
			wantLogLevel:    "debug",
			wantMaxFileSize: 50 * 1024 * 1024,
		},
		{
			name:            "custom max file size",
			argsTemplate:    []string{"invoice-filler", "--maxfilesize=10000000", "--template=%s"},
			wantMode:        "cli",
			wantHost:        "127.0.0.1",
			wantPort:        8080,
			wantLogLevel:    "info",
			wantMaxFileSize: 10000000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Save original args and environment
			originalArgs := os.Args
			defer func() {
				os.Args = originalArgs
				resetFlags()
				clearEnvVars()
			}()

			// Create temp template for this test
			template := writeTempTemplate(t)

			// Build args with the template path
			args := make([]string, len(tt.argsTemplate))
			for i, arg := range tt.argsTemplate {
				if arg == "--template=%s" {
					args[i] = "--template=" + template
				} else {
					args[i] = arg
				}
			}

			setArgs(args)
			resetFlags()
			clearEnvVars()

			cfg, err := LoadFromFlags()
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}

			if cfg.Mode != tt.wantMode {
				t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, tt.wantMode)
			}
			if cfg.Host != tt.wantHost {
				t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, tt.wantHost)
			}
			if cfg.Port != tt.wantPort {
				t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, tt.wantPort)
			}
			if cfg.LogLevel != tt.wantLogLevel {
				t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, tt.wantLogLevel)
			}
			if cfg.MaxFileSize != tt.wantMaxFileSize {
				t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, tt.wantMaxFileSize)
			}
			// TemplatePath should be expanded to absolute path
			if cfg.TemplatePath == "" {
				t.Error("LoadFromFlags() TemplatePath should not be empty")
			}
		})
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	// Save original args and environment
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	template := writeTempTemplate(t)

	// Set environment variables
	os.Setenv("INVOICE_FILLER_MODE", "server")
	os.Setenv("INVOICE_FILLER_HOST", "192.168.1.1")
	os.Setenv("INVOICE_FILLER_PORT", "3000")
	os.Setenv("INVOICE_FILLER_TEMPLATE", template)
	os.Setenv("INVOICE_FILLER_LOGLEVEL", "warn")
	os.Setenv("INVOICE_FILLER_MAXFILESIZE", "20000000")

	setArgs([]string{"invoice-filler"})
	resetFlags()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "server" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "server")
	}
	if cfg.Host != "192.168.1.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "192.168.1.1")
	}
	if cfg.Port != 3000 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 3000)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "warn")
	}
	if cfg.MaxFileSize != 20000000 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 20000000)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	// Save original args and environment
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	// Set environment variables
	os.Setenv("INVOICE_FILLER_MODE", "cli")
	os.Setenv("INVOICE_FILLER_HOST", "192.168.1.1")
	os.Setenv("INVOICE_FILLER_PORT", "3000")

	// Set args that should override environment
	setArgs([]string{"invoice-filler", "--mode=server", "--host=localhost", "--port=8888"})
	resetFlags()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	// Flags should override environment variables
	if cfg.Mode != "server" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v (should override env)", cfg.Mode, "server")
	}
	if cfg.Host != "localhost" {
		t.Errorf("LoadFromFlags() Host = %v, want %v (should override env)", cfg.Host, "localhost")
	}
	if cfg.Port != 8888 {
		t.Errorf("LoadFromFlags() Port = %v, want %v (should override env)", cfg.Port, 8888)
	}
}

func TestLoadFromFlags_InvalidMode(t *testing.T) {
	// Save original args
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	template := writeTempTemplate(t)
	setArgs([]string{"invoice-filler", "--mode=invalid", "--template=" + template})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for invalid mode")
	}
	if err != nil && !containsString(err.Error(), "mode must be either 'cli' or 'server'") {
		t.Errorf("LoadFromFlags() error = %v, want error about invalid mode", err)
	}
}

func TestLoadFromFlags_InvalidPort(t *testing.T) {
	// Save original args
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	setArgs([]string{"invoice-filler", "--mode=server", "--port=99999"})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for invalid port")
	}
	if err != nil && !containsString(err.Error(), "port must be between 1 and 65535") {
		t.Errorf("LoadFromFlags() error = %v, want error about invalid port", err)
	}
}

func TestLoadFromFlags_InvalidLogLevel(t *testing.T) {
	// Save original args
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	template := writeTempTemplate(t)
	setArgs([]string{"invoice-filler", "--loglevel=invalid", "--template=" + template})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for invalid log level")
	}
	if err != nil && !containsString(err.Error(), "invalid log level") {
		t.Errorf("LoadFromFlags() error = %v, want error about invalid log level", err)
	}
}

func TestLoadFromFlags_MissingTemplateInCLIMode(t *testing.T) {
	// Save original args
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	setArgs([]string{"invoice-filler", "--mode=cli"})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for missing template in cli mode")
	}
	if err != nil && !containsString(err.Error(), "template") {
		t.Errorf("LoadFromFlags() error = %v, want error about missing template", err)
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	// Save original args
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	setArgs([]string{"invoice-filler", "--version"})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected version error")
	}
	if err != nil && err.Error() != "version requested" {
		t.Errorf("LoadFromFlags() error = %v, want 'version requested'", err)
	}
}

// Helper function to check if a string contains a substring
func containsString(s, substr string) bool {
	return len(s) >= len(substr) &&
		(s == substr ||
			(len(s) > len(substr) &&
				(s[:len(substr)] == substr ||
					s[len(s)-len(substr):] == substr ||
					findSubstring(s, substr))))
}

func findSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
