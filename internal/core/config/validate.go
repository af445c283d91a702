package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration
// including file accessibility and the log destination. The configPath
// argument specifies the config file location to validate (empty string
// skips the config file check). This calls Validate() first for basic
// structural validation.
func (c *Config) ValidateDeep(configPath, logFile string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("log_file", logFile, isWritableFileLocation),
		c.validateTimings(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Server.RequestTimeout > 0 && c.Server.RequestTimeout < time.Second {
		warnings = append(warnings, ValidationWarning{
			Category: "Server",
			Item:     "request_timeout",
			Message:  fmt.Sprintf("%s is very short; slow networks will fail every request", c.Server.RequestTimeout),
		})
	}

	if c.Push.FallbackInterval < 30*time.Second {
		warnings = append(warnings, ValidationWarning{
			Category: "Push",
			Item:     "fallback_interval",
			Message:  fmt.Sprintf("polling every %s puts noticeable load on the server", c.Push.FallbackInterval),
		})
	}

	return warnings
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isWritableFileLocation validates that a log file path is not a directory
// and that its parent is a directory or does not exist yet.
func isWritableFileLocation(path string) error {
	if path == "" {
		return nil
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	parent := filepath.Dir(path)
	info, err := os.Stat(parent)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", parent)
	}
	return nil
}

func (c *Config) validateTimings() error {
	var errs criterio.FieldErrorsBuilder

	if c.Server.RequestTimeout > 0 && c.Server.RequestTimeout >= c.Push.FallbackInterval {
		errs = errs.Append("server.request_timeout",
			fmt.Errorf("%s must be shorter than push.fallback_interval (%s)", c.Server.RequestTimeout, c.Push.FallbackInterval))
	}

	return errs.ToError()
}
