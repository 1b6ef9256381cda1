// Package app wires storage, the remote backend, repositories and use cases.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chatsync/internal/chat"
	"chatsync/internal/config"
	"chatsync/internal/filestore"
	"chatsync/internal/models"
	"chatsync/internal/remote"
	"chatsync/internal/repository"
	"chatsync/internal/storage"
	"chatsync/internal/usecase"

	"golang.org/x/sync/errgroup"
)

const typingTTL = 10 * time.Second

type locals struct {
	users    repository.Local[models.User]
	dialogs  repository.Local[models.Dialog]
	messages repository.Local[models.Message]
	files    repository.Local[models.File]
	close    func() error
}

type App struct {
	Files    *usecase.Files
	Users    *usecase.Users
	Dialogs  *usecase.Dialogs
	Messages *usecase.Messages
	Sync     *usecase.Sync
	Stream   *remote.Stream

	clearers []usecase.Clearer
	close    func() error
	logger   *slog.Logger
}

// New builds the application. ctx bounds background helpers such as the typing
// tracker cleanup.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := openLocals(cfg)
	if err != nil {
		return nil, err
	}

	client, err := remote.NewClient(remote.Config{
		BaseURL: cfg.RemoteURL,
		Token:   cfg.RemoteToken,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		_ = store.close()
		return nil, err
	}

	wsURL := cfg.RemoteWSURL
	if wsURL == "" {
		if wsURL, err = remote.StreamURL(cfg.RemoteURL); err != nil {
			_ = store.close()
			return nil, fmt.Errorf("failed to derive event stream url: %w", err)
		}
	}
	stream := remote.NewStream(remote.StreamConfig{
		URL:           wsURL,
		Token:         cfg.RemoteToken,
		CurrentUserID: cfg.CurrentUserID,
		Logger:        logger.With("component", "stream"),
	})

	users := repository.New[models.User]("user", store.users, client.Users(), logger)
	dialogs := repository.New[models.Dialog]("dialog", store.dialogs, client.Dialogs(), logger)
	messages := repository.New[models.Message]("message", store.messages, client.Messages(), logger)
	files := repository.New[models.File]("file", store.files, client.Files(), logger)

	opts := usecase.Options{
		CurrentUserID: cfg.CurrentUserID,
		Logger:        logger,
	}
	timelines := chat.NewTimelines()
	dialogUC := usecase.NewDialogs(dialogs, client, chat.NewDialogList(), timelines, opts)
	messageUC := usecase.NewMessages(messages, dialogUC, timelines, opts)

	return &App{
		Files:    usecase.NewFiles(files, opts),
		Users:    usecase.NewUsers(users, opts),
		Dialogs:  dialogUC,
		Messages: messageUC,
		Sync:     usecase.NewSync(stream, dialogUC, messageUC, chat.NewTyping(ctx, typingTTL), opts),
		Stream:   stream,
		clearers: []usecase.Clearer{users, dialogs, messages, files},
		close:    store.close,
		logger:   logger,
	}, nil
}

func openLocals(cfg *config.Config) (*locals, error) {
	if cfg.Cache == config.CacheMemory {
		return &locals{
			users:    storage.NewMemory[models.User](),
			dialogs:  storage.NewMemory[models.Dialog](),
			messages: storage.NewMemory[models.Message](),
			files:    storage.NewMemory[models.File](),
			close:    func() error { return nil },
		}, nil
	}

	blobs, err := filestore.NewLocalFileStore(cfg.FilesPath)
	if err != nil {
		return nil, err
	}
	bb, err := storage.NewBboltStorage(cfg.DBFile, blobs)
	if err != nil {
		return nil, err
	}
	return &locals{
		users:    bb.Users(),
		dialogs:  bb.Dialogs(),
		messages: bb.Messages(),
		files:    bb.Files(),
		close:    bb.Close,
	}, nil
}

// Run keeps the event stream connected and applies its events until ctx is
// done or the backend rejects the credentials.
func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Sync.Run(gCtx)
	})
	g.Go(func() error {
		return a.Stream.Run(gCtx)
	})

	return g.Wait()
}

// ClearCache empties every local store and the in-memory lists.
func (a *App) ClearCache(ctx context.Context) error {
	return usecase.ClearCache(ctx, a.Dialogs, a.clearers...)
}

func (a *App) Close() error {
	return a.close()
}
