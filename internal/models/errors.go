package models

import (
	"errors"
	"fmt"
)

// ConfigError reports invalid user input: a bad config field, an unsupported
// resource type or an OpenAPI document that cannot be monitored.
type ConfigError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ConfigError) Error() string {
	prefix := "config error"
	if e.Field != "" {
		prefix = fmt.Sprintf("config error: %s", e.Field)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", prefix, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", prefix, e.Msg, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError constructs a ConfigError.
func NewConfigError(field, msg string, err error) error {
	return &ConfigError{Field: field, Msg: msg, Err: err}
}

// IsConfigError reports whether err or any error it wraps is a ConfigError
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
