package config

import "fmt"

// ConfigError wraps a configuration-loading failure: missing env var,
// unreadable file, or a failed Validate() pass. Per spec.md §7 this error
// kind is always fatal — the caller should log it and exit 1.
type ConfigError struct {
	Stage string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Stage, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func newConfigError(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigError{Stage: stage, Err: err}
}
