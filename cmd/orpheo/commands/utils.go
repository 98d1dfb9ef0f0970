// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Signal-aware contexts, string truncation and flag validation
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// signalContext is cancelled on interrupt or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveFloat returns error if f is not positive
func validatePositiveFloat(f float64, name string) error {
	if f <= 0 {
		return fmt.Errorf("%s must be positive, got %g", name, f)
	}
	return nil
}
