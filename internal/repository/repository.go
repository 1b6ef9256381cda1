// Package repository unifies the local cache and the remote backend behind one
// read-through/write-back contract per entity kind.
package repository

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"chatsync/internal/models"

	"golang.org/x/sync/singleflight"
)

// Local is the on-device store for one entity kind.
type Local[E models.Entity] interface {
	// Save creates; an existing id is an error.
	Save(ctx context.Context, entity E) error
	Get(ctx context.Context, id string) (E, error)
	// Update creates or overwrites.
	Update(ctx context.Context, entity E) error
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]E, error)
	RemoveAll(ctx context.Context) error
}

// Remote is the backend CRUD surface for one entity kind.
type Remote[E models.Entity] interface {
	Get(ctx context.Context, id string) (E, error)
	Create(ctx context.Context, entity E) (E, error)
	Update(ctx context.Context, entity E) (E, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page models.Pagination, filter url.Values) ([]E, models.Pagination, error)
}

// Repository is stateless per call apart from the in-flight remote fetches it
// coalesces. Every error it returns is an *Error or the caller's own context error.
type Repository[E models.Entity] struct {
	kind    string
	local   Local[E]
	remote  Remote[E]
	logger  *slog.Logger
	flights singleflight.Group
}

func New[E models.Entity](kind string, local Local[E], remote Remote[E], logger *slog.Logger) *Repository[E] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository[E]{
		kind:   kind,
		local:  local,
		remote: remote,
		logger: logger.With("kind", kind),
	}
}

func (r *Repository[E]) validate(entity E) error {
	if err := models.Validate(entity); err != nil {
		return newError(KindIncorrectData, "%s %s: %v", r.kind, entity.EntityID(), err)
	}
	return nil
}

func (r *Repository[E]) GetFromLocal(ctx context.Context, id string) (E, error) {
	entity, err := r.local.Get(ctx, id)
	return entity, fromLocal(err)
}

// GetFromRemote fetches without touching the local store.
func (r *Repository[E]) GetFromRemote(ctx context.Context, id string) (E, error) {
	entity, err := r.remote.Get(ctx, id)
	if err != nil {
		var zero E
		return zero, fromRemote(err)
	}
	if err := r.validate(entity); err != nil {
		var zero E
		return zero, err
	}
	return entity, nil
}

// SaveToLocal is the strict create path: an already cached id is AlreadyExist.
func (r *Repository[E]) SaveToLocal(ctx context.Context, entity E) error {
	if err := r.validate(entity); err != nil {
		return err
	}
	return fromLocal(r.local.Save(ctx, entity))
}

// UpdateInLocal is the forgiving upsert path used by sync and read-through.
func (r *Repository[E]) UpdateInLocal(ctx context.Context, entity E) error {
	if err := r.validate(entity); err != nil {
		return err
	}
	return fromLocal(r.local.Update(ctx, entity))
}

func (r *Repository[E]) DeleteFromLocal(ctx context.Context, id string) error {
	return fromLocal(r.local.Delete(ctx, id))
}

func (r *Repository[E]) GetAllFromLocal(ctx context.Context) ([]E, error) {
	entities, err := r.local.GetAll(ctx)
	return entities, fromLocal(err)
}

func (r *Repository[E]) RemoveAllFromLocal(ctx context.Context) error {
	return fromLocal(r.local.RemoveAll(ctx))
}

func (r *Repository[E]) CreateInRemote(ctx context.Context, entity E) (E, error) {
	if err := r.validate(entity); err != nil {
		var zero E
		return zero, err
	}
	created, err := r.remote.Create(ctx, entity)
	if err != nil {
		var zero E
		return zero, fromRemote(err)
	}
	return created, nil
}

func (r *Repository[E]) UpdateInRemote(ctx context.Context, entity E) (E, error) {
	if err := r.validate(entity); err != nil {
		var zero E
		return zero, err
	}
	updated, err := r.remote.Update(ctx, entity)
	if err != nil {
		var zero E
		return zero, fromRemote(err)
	}
	return updated, nil
}

func (r *Repository[E]) DeleteFromRemote(ctx context.Context, id string) error {
	return fromRemote(r.remote.Delete(ctx, id))
}

// ListFromRemote fetches one page; items failing validation are skipped and logged.
func (r *Repository[E]) ListFromRemote(ctx context.Context, page models.Pagination, filter url.Values) ([]E, models.Pagination, error) {
	items, next, err := r.remote.List(ctx, page, filter)
	if err != nil {
		return nil, page, fromRemote(err)
	}
	valid := items[:0]
	for _, item := range items {
		if err := r.validate(item); err != nil {
			r.logger.Warn("skipping invalid remote item", "id", item.EntityID(), "error", err)
			continue
		}
		valid = append(valid, item)
	}
	return valid, next, nil
}

// Probe looks in the local store only. A miss is reported as ok == false with a
// nil error; any other local failure is returned.
func (r *Repository[E]) Probe(ctx context.Context, id string) (entity E, ok bool, err error) {
	entity, err = r.GetFromLocal(ctx, id)
	switch {
	case err == nil:
		return entity, true, nil
	case errors.Is(err, ErrNotFound):
		var zero E
		return zero, false, nil
	default:
		var zero E
		return zero, false, err
	}
}

// ReadThrough returns the cached entity, or fetches it remotely and caches it.
// Concurrent misses for the same id share a single remote fetch. A failed cache
// write is logged and does not fail the read.
func (r *Repository[E]) ReadThrough(ctx context.Context, id string) (E, error) {
	if err := ctx.Err(); err != nil {
		var zero E
		return zero, err
	}
	entity, ok, err := r.Probe(ctx, id)
	if err != nil || ok {
		return entity, err
	}
	if err := ctx.Err(); err != nil {
		var zero E
		return zero, err
	}
	return r.fetch(ctx, id)
}

// Refresh ignores the cache, fetches remotely and overwrites the cached copy.
func (r *Repository[E]) Refresh(ctx context.Context, id string) (E, error) {
	return r.fetch(ctx, id)
}

// fetch runs at most one remote fetch per id at a time. The shared fetch is
// detached from the caller's cancellation so one caller giving up does not fail
// the others; each caller stops waiting when its own context ends.
func (r *Repository[E]) fetch(ctx context.Context, id string) (E, error) {
	shared := context.WithoutCancel(ctx)
	ch := r.flights.DoChan(id, func() (any, error) {
		entity, err := r.GetFromRemote(shared, id)
		if err != nil {
			return nil, err
		}
		r.writeBack(shared, entity)
		return entity, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero E
			return zero, res.Err
		}
		return res.Val.(E), nil
	case <-ctx.Done():
		var zero E
		return zero, ctx.Err()
	}
}

func (r *Repository[E]) writeBack(ctx context.Context, entity E) {
	if err := r.UpdateInLocal(ctx, entity); err != nil {
		r.logger.Warn("cache write after remote read failed", "id", entity.EntityID(), "error", err)
	}
}
