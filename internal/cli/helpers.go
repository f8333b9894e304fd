package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/delmic/odemis-sub008/internal/config"
	"github.com/delmic/odemis-sub008/internal/logging"
	"github.com/delmic/odemis-sub008/pkg/domain"
)

// CreateLogger configures the application logger.
// Debug overrides the configured level. Records go to Stderr, away from command output.
func CreateLogger(lc config.LogConfig, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithFormat(os.Stderr, level, lc.Format), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnApplyStart: func(ctx context.Context, e *domain.ApplyEvent) {
			logger.Debug("Apply Start", "mode", e.Mode, "target", e.Target, "previous", e.Previous)
		},
		OnApplyEnd: func(ctx context.Context, e *domain.ApplyEvent) {
			if e.Err != nil {
				logger.Debug("Apply End (Error)", "mode", e.Mode, "duration", e.Duration, "err", e.Err)
			} else {
				logger.Debug("Apply End", "mode", e.Mode, "duration", e.Duration)
			}
		},
		OnMoveIssued: func(ctx context.Context, e *domain.MoveEvent) {
			logger.Debug("Move Issued", "component", e.Component, "position", e.Position)
		},
		OnMoveDone: func(ctx context.Context, e *domain.MoveEvent) {
			if e.Err != nil {
				logger.Debug("Move Done (Error)", "component", e.Component, "err", e.Err)
			} else {
				logger.Debug("Move Done", "component", e.Component, "duration", e.Duration)
			}
		},
		OnSuperseded: func(ctx context.Context, e *domain.ApplyEvent) {
			logger.Debug("Request Superseded", "mode", e.Mode)
		},
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// handleExecutionError hides interruptions, so Ctrl-C and end of input exit cleanly.
func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}
