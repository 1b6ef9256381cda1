// Package usecase orchestrates repository calls for single user actions and
// applies the remote event stream to the local cache and the in-memory lists.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"chatsync/internal/repository"

	"github.com/google/uuid"
)

const defaultPerPage = 50

// Options carries the knobs shared by all use cases. Zero values are replaced
// with defaults.
type Options struct {
	CurrentUserID string
	PerPage       int
	Logger        *slog.Logger
	NewID         func() string
	Now           func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PerPage <= 0 {
		o.PerPage = defaultPerPage
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// warnUnlessMissing logs a best-effort local failure. A missing entry is not
// worth a warning.
func warnUnlessMissing(ctx context.Context, logger *slog.Logger, msg string, err error, args ...any) {
	if err == nil {
		return
	}
	level := slog.LevelWarn
	if errors.Is(err, repository.ErrNotFound) {
		level = slog.LevelDebug
	}
	logger.Log(ctx, level, msg, append(args, "error", err)...)
}
