package cmd

import (
	"fmt"
	"os"

	"banvic-analytics/pkg/errors"
)

// handleError prints a categorized error and exits with its mapped code.
// Plain errors are passed back to cobra for default handling.
func handleError(err error) error {
	if err == nil {
		return nil
	}

	if analyticsErr, ok := errors.AsAnalyticsError(err); ok {
		fmt.Fprintf(os.Stderr, "Error (%s/%s): %s\n",
			analyticsErr.Category, analyticsErr.Code, analyticsErr.Message)
		if analyticsErr.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "Suggestion: %s\n", analyticsErr.Suggestion)
		}
		os.Exit(analyticsErr.GetExitCode())
	}
	return err
}
