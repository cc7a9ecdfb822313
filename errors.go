package xlsxturbo

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is wrapped by every configuration error.
	ErrConfig = errors.New("invalid configuration")
	// ErrResource is wrapped by errors about missing or unreadable inputs.
	ErrResource = errors.New("resource unavailable")
	// ErrData is wrapped by errors about malformed input data.
	ErrData = errors.New("malformed data")
)

// ConfigError reports an option that has the wrong shape or value.
type ConfigError struct {
	Option  string
	Value   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: invalid value '%s': %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Option, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

func configErr(option, value, format string, args ...any) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: fmt.Sprintf(format, args...)}
}

// ResourceError reports a file the conversion depends on that could not be read.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to load '%s': %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to load '%s'", e.Path)
}

func (e *ResourceError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrResource, e.Err}
	}
	return []error{ErrResource}
}

// DataError reports a malformed input line. Line is 1-based.
type DataError struct {
	Line    int
	Message string
	Err     error
}

func (e *DataError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("line %d => %s", e.Line, msg)
}

func (e *DataError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrData, e.Err}
	}
	return []error{ErrData}
}
