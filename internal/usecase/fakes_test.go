package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chatsync/internal/chat"
	"chatsync/internal/models"
	"chatsync/internal/remote"
	"chatsync/internal/repository"
	"chatsync/internal/storage"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeRemote is an in-memory backend for one entity kind. Items are listed in
// insertion order.
type fakeRemote[E models.Entity] struct {
	mu        sync.Mutex
	items     []E
	match     func(E, url.Values) bool
	createErr error
	deleteErr error
	gets      atomic.Int32
}

func newFakeRemote[E models.Entity](items ...E) *fakeRemote[E] {
	return &fakeRemote[E]{items: items}
}

func (f *fakeRemote[E]) index(id string) int {
	return slices.IndexFunc(f.items, func(e E) bool { return e.EntityID() == id })
}

func (f *fakeRemote[E]) Get(ctx context.Context, id string) (E, error) {
	f.gets.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.index(id); i >= 0 {
		return f.items[i], nil
	}
	var zero E
	return zero, fmt.Errorf("%w: %s", remote.ErrNotFound, id)
}

func (f *fakeRemote[E]) Create(ctx context.Context, entity E) (E, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zero E
	if f.createErr != nil {
		return zero, f.createErr
	}
	if f.index(entity.EntityID()) >= 0 {
		return zero, remote.ErrAlreadyExists
	}
	f.items = append(f.items, entity)
	return entity, nil
}

func (f *fakeRemote[E]) Update(ctx context.Context, entity E) (E, error) {
	f.put(entity)
	return entity, nil
}

func (f *fakeRemote[E]) put(entity E) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.index(entity.EntityID()); i >= 0 {
		f.items[i] = entity
		return
	}
	f.items = append(f.items, entity)
}

func (f *fakeRemote[E]) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	i := f.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", remote.ErrNotFound, id)
	}
	f.items = slices.Delete(f.items, i, i+1)
	return nil
}

func (f *fakeRemote[E]) List(ctx context.Context, page models.Pagination, filter url.Values) ([]E, models.Pagination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []E
	for _, item := range f.items {
		if f.match == nil || f.match(item, filter) {
			matched = append(matched, item)
		}
	}
	page.Total = len(matched)
	start := min(page.Skip, len(matched))
	end := min(start+page.Limit, len(matched))
	return slices.Clone(matched[start:end]), page, nil
}

func (f *fakeRemote[E]) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index(id) >= 0
}

type fakeLeaver struct {
	left []string
	err  error
}

func (l *fakeLeaver) LeaveDialog(ctx context.Context, dialogID string) error {
	if l.err != nil {
		return l.err
	}
	l.left = append(l.left, dialogID)
	return nil
}

type fakeSource struct {
	events chan models.RemoteEvent
	states chan models.ConnectionState
}

func (s *fakeSource) Events() (<-chan models.RemoteEvent, func()) {
	return s.events, func() {}
}

func (s *fakeSource) States() (<-chan models.ConnectionState, func()) {
	return s.states, func() {}
}

type env struct {
	fileRemote    *fakeRemote[models.File]
	userRemote    *fakeRemote[models.User]
	dialogRemote  *fakeRemote[models.Dialog]
	messageRemote *fakeRemote[models.Message]

	fileLocal    *storage.Memory[models.File]
	userLocal    *storage.Memory[models.User]
	dialogLocal  *storage.Memory[models.Dialog]
	messageLocal *storage.Memory[models.Message]

	leaver *fakeLeaver
	source *fakeSource

	files    *Files
	users    *Users
	dialogs  *Dialogs
	messages *Messages
	sync     *Sync

	fileRepo    *repository.Repository[models.File]
	userRepo    *repository.Repository[models.User]
	dialogRepo  *repository.Repository[models.Dialog]
	messageRepo *repository.Repository[models.Message]
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var seq atomic.Int32
	opts := Options{
		CurrentUserID: "me",
		PerPage:       10,
		Logger:        logger,
		NewID:         func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
		Now:           func() time.Time { return t0 },
	}

	e := &env{
		fileRemote:    newFakeRemote[models.File](),
		userRemote:    newFakeRemote[models.User](),
		dialogRemote:  newFakeRemote[models.Dialog](),
		messageRemote: newFakeRemote[models.Message](),
		fileLocal:     storage.NewMemory[models.File](),
		userLocal:     storage.NewMemory[models.User](),
		dialogLocal:   storage.NewMemory[models.Dialog](),
		messageLocal:  storage.NewMemory[models.Message](),
		leaver:        &fakeLeaver{},
		source: &fakeSource{
			events: make(chan models.RemoteEvent, 10),
			states: make(chan models.ConnectionState, 10),
		},
	}
	e.messageRemote.match = func(m models.Message, filter url.Values) bool {
		return filter.Get("dialogId") == "" || m.DialogID == filter.Get("dialogId")
	}

	e.fileRepo = repository.New[models.File]("file", e.fileLocal, e.fileRemote, logger)
	e.userRepo = repository.New[models.User]("user", e.userLocal, e.userRemote, logger)
	e.dialogRepo = repository.New[models.Dialog]("dialog", e.dialogLocal, e.dialogRemote, logger)
	e.messageRepo = repository.New[models.Message]("message", e.messageLocal, e.messageRemote, logger)

	timelines := chat.NewTimelines()
	e.files = NewFiles(e.fileRepo, opts)
	e.users = NewUsers(e.userRepo, opts)
	e.dialogs = NewDialogs(e.dialogRepo, e.leaver, chat.NewDialogList(), timelines, opts)
	e.messages = NewMessages(e.messageRepo, e.dialogs, timelines, opts)
	e.sync = NewSync(e.source, e.dialogs, e.messages, chat.NewTyping(t.Context(), time.Minute), opts)
	return e
}

func dialog(id string, updatedAt time.Time, participants ...string) models.Dialog {
	return models.Dialog{
		ID:           id,
		Type:         models.DialogTypeGroup,
		Name:         "dialog " + id,
		Participants: participants,
		CreatedAt:    t0.Add(-24 * time.Hour),
		UpdatedAt:    updatedAt,
	}
}

func message(id, dialogID, senderID string, sentAt time.Time) models.Message {
	return models.Message{
		ID:       id,
		DialogID: dialogID,
		SenderID: senderID,
		Text:     "hello from " + senderID,
		Type:     models.MessageTypeChat,
		SentAt:   sentAt,
	}
}

func ids[E models.Entity](items []E) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.EntityID()
	}
	return out
}
