package model

import (
	"errors"
	"fmt"
)

// ConfigError reports a problem with the workflow document itself: malformed
// structure, a cyclic needs chain, an empty matrix axis, and so on. It is
// fatal and surfaces before any job starts.
type ConfigError struct {
	Job    string // offending job name, if attributable
	Field  string // offending field or block, if attributable
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	switch {
	case e.Job != "" && e.Field != "":
		return fmt.Sprintf("configuration error in job %q, field %q: %s", e.Job, e.Field, e.Reason)
	case e.Job != "":
		return fmt.Sprintf("configuration error in job %q: %s", e.Job, e.Reason)
	default:
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
}

// IsConfigError reports whether err wraps a ConfigError anywhere in its chain.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
