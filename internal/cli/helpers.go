// Package cli contains the cobra commands for the relay binary. Commands
// are thin: they resolve the project context, call one service through
// wire, and print.
package cli

import (
	"fmt"
	"regexp"

	projctx "github.com/example/relay/internal/context"
)

var projectIDPattern = regexp.MustCompile(`^PROJ-\d+$`)

// resolveProjectID picks the project from the --project flag or, failing
// that, from .relay/config.json in the current directory.
func resolveProjectID(flag string) (string, error) {
	if flag != "" {
		if err := validateProjectID(flag); err != nil {
			return "", err
		}
		return flag, nil
	}
	if id := projctx.GetContextProjectID(); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no project in context: pass --project or run `relay init` in this directory")
}

func validateProjectID(id string) error {
	if !projectIDPattern.MatchString(id) {
		return fmt.Errorf("invalid project ID %q, expected format: PROJ-001", id)
	}
	return nil
}
