package translator

import "fmt"

// ConfigurationError reports an invalid channel map or engine setting.
// It is only ever returned before any snapshot is processed.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}
