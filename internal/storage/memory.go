package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"chatsync/internal/models"

	"github.com/c-pro/geche"
)

// Memory is an in-process local store for one entity kind. It satisfies the same
// contract as the bbolt collections and is selected with CHATSYNC_CACHE=memory.
type Memory[E models.Entity] struct {
	items *geche.Locker[string, E]
}

func NewMemory[E models.Entity]() *Memory[E] {
	return &Memory[E]{
		items: geche.NewLocker[string, E](geche.NewMapCache[string, E]()),
	}
}

func (m *Memory[E]) Save(ctx context.Context, entity E) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := m.items.Lock()
	defer tx.Unlock()
	if _, err := tx.Get(entity.EntityID()); err == nil {
		return fmt.Errorf("%s: %w", entity.EntityID(), ErrAlreadyExists)
	}
	tx.Set(entity.EntityID(), entity)
	return nil
}

func (m *Memory[E]) Update(ctx context.Context, entity E) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := m.items.Lock()
	defer tx.Unlock()
	tx.Set(entity.EntityID(), entity)
	return nil
}

func (m *Memory[E]) Get(ctx context.Context, id string) (E, error) {
	var entity E
	if err := ctx.Err(); err != nil {
		return entity, err
	}
	tx := m.items.RLock()
	defer tx.Unlock()
	entity, err := tx.Get(id)
	if errors.Is(err, geche.ErrNotFound) {
		return entity, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return entity, err
}

func (m *Memory[E]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := m.items.Lock()
	defer tx.Unlock()
	if _, err := tx.Get(id); err != nil {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return tx.Del(id)
}

// GetAll returns every entity ordered by id, matching the bbolt key order.
func (m *Memory[E]) GetAll(ctx context.Context) ([]E, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx := m.items.RLock()
	snapshot := tx.Snapshot()
	tx.Unlock()

	entities := make([]E, 0, len(snapshot))
	for _, e := range snapshot {
		entities = append(entities, e)
	}
	slices.SortFunc(entities, func(a, b E) int {
		return strings.Compare(a.EntityID(), b.EntityID())
	})
	return entities, nil
}

func (m *Memory[E]) RemoveAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := m.items.Lock()
	defer tx.Unlock()
	for id := range tx.Snapshot() {
		if err := tx.Del(id); err != nil {
			return err
		}
	}
	return nil
}
