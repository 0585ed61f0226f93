package catalog

import (
	"fmt"
	"strings"
)

// ConfigError reports a request-type catalog that cannot be used. It is fatal:
// no virtual user starts when a catalog fails to build.
type ConfigError struct {
	Issues []string
}

func (e *ConfigError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid request catalog"
	}
	return fmt.Sprintf("invalid request catalog: %s", strings.Join(e.Issues, "; "))
}

func (e *ConfigError) add(format string, args ...interface{}) {
	e.Issues = append(e.Issues, fmt.Sprintf(format, args...))
}

func (e *ConfigError) orNil() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}
