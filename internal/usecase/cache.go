package usecase

import (
	"context"
	"errors"
)

// Clearer empties the local store of one entity kind.
type Clearer interface {
	RemoveAllFromLocal(ctx context.Context) error
}

// ClearCache empties every local store and resets the in-memory lists. It keeps
// going after a failure and returns all failures joined.
func ClearCache(ctx context.Context, dialogs *Dialogs, stores ...Clearer) error {
	var errs []error
	for _, store := range stores {
		if err := store.RemoveAllFromLocal(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	dialogs.list.Clear()
	dialogs.timelines.Reset()
	return errors.Join(errs...)
}
