package usecase

import (
	"context"
	"errors"

	"chatsync/internal/content"
	"chatsync/internal/models"
	"chatsync/internal/repository"
)

var ErrEmptyFile = errors.New("file payload is empty")

type Files struct {
	repo *repository.Repository[models.File]
	opts Options
}

func NewFiles(repo *repository.Repository[models.File], opts Options) *Files {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.With("usecase", "files")
	return &Files{repo: repo, opts: opts}
}

// Get returns the cached file or downloads and caches it.
func (f *Files) Get(ctx context.Context, id string) (models.File, error) {
	file, err := f.repo.ReadThrough(ctx, id)
	if err != nil {
		f.opts.Logger.Error("get file", "file_id", id, "error", err)
	}
	return file, err
}

// Upload derives the file metadata from the payload, creates it remotely and
// caches the confirmed file.
func (f *Files) Upload(ctx context.Context, data []byte) (models.File, error) {
	if len(data) == 0 {
		return models.File{}, ErrEmptyFile
	}

	file := content.Describe(models.File{ID: f.opts.NewID(), Data: data})
	created, err := f.repo.CreateInRemote(ctx, file)
	if err != nil {
		f.opts.Logger.Error("upload file", "file_id", file.ID, "error", err)
		return models.File{}, err
	}
	if len(created.Data) == 0 {
		created.Data = data
	}

	if err := f.repo.UpdateInLocal(ctx, created); err != nil {
		f.opts.Logger.Warn("cache uploaded file", "file_id", created.ID, "error", err)
	}
	return created, nil
}

// Remove drops the cached copy, then deletes the file remotely. The local delete
// is best-effort; the remote result is returned as is.
func (f *Files) Remove(ctx context.Context, id string) error {
	warnUnlessMissing(ctx, f.opts.Logger, "remove cached file", f.repo.DeleteFromLocal(ctx, id), "file_id", id)

	if err := f.repo.DeleteFromRemote(ctx, id); err != nil {
		f.opts.Logger.Error("remove file", "file_id", id, "error", err)
		return err
	}
	return nil
}
