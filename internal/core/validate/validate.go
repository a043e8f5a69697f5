// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"strings"
)

// Subject validates a subject name is non-empty after trimming whitespace.
func Subject(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("subject is required")
	}
	return nil
}
