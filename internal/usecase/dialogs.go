package usecase

import (
	"context"
	"time"

	"chatsync/internal/chat"
	"chatsync/internal/content"
	"chatsync/internal/models"
	"chatsync/internal/repository"
)

const summaryLength = 80

// Leaver removes the current user from a dialog on the backend.
type Leaver interface {
	LeaveDialog(ctx context.Context, dialogID string) error
}

// Dialogs keeps the ordered dialog list in step with the cache. Every
// read-modify-write of a cached dialog holds that dialog's lock.
type Dialogs struct {
	repo      *repository.Repository[models.Dialog]
	leaver    Leaver
	list      *chat.List[models.Dialog]
	timelines *chat.Timelines
	opts      Options
	locks     keyedMutex
}

func NewDialogs(repo *repository.Repository[models.Dialog], leaver Leaver, list *chat.List[models.Dialog], timelines *chat.Timelines, opts Options) *Dialogs {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.With("usecase", "dialogs")
	return &Dialogs{
		repo:      repo,
		leaver:    leaver,
		list:      list,
		timelines: timelines,
		opts:      opts,
	}
}

func (d *Dialogs) Get(ctx context.Context, id string) (models.Dialog, error) {
	unlock := d.locks.lock(id)
	defer unlock()

	dialog, err := d.repo.ReadThrough(ctx, id)
	if err != nil {
		d.opts.Logger.Error("get dialog", "dialog_id", id, "error", err)
		return dialog, err
	}
	d.list.Upsert(dialog)
	return dialog, nil
}

// List fetches one page of dialogs, caches every item and merges it into the
// ordered list. It returns the whole list and the cursor of the fetched page.
func (d *Dialogs) List(ctx context.Context, page int) ([]models.Dialog, models.Pagination, error) {
	dialogs, next, err := d.repo.ListFromRemote(ctx, models.NewPagination(page, d.opts.PerPage), nil)
	if err != nil {
		d.opts.Logger.Error("list dialogs", "page", page, "error", err)
		return nil, next, err
	}

	for _, dialog := range dialogs {
		d.merge(ctx, dialog)
	}
	return d.list.Items(), next, nil
}

// Leave removes the current user from the dialog remotely and forgets it locally.
func (d *Dialogs) Leave(ctx context.Context, id string) error {
	if err := repository.RemoteError(d.leaver.LeaveDialog(ctx, id)); err != nil {
		d.opts.Logger.Error("leave dialog", "dialog_id", id, "error", err)
		return err
	}
	d.forget(ctx, id)
	return nil
}

// Items returns the ordered dialog list.
func (d *Dialogs) Items() []models.Dialog {
	return d.list.Items()
}

func (d *Dialogs) forget(ctx context.Context, id string) {
	unlock := d.locks.lock(id)
	defer unlock()

	warnUnlessMissing(ctx, d.opts.Logger, "remove cached dialog", d.repo.DeleteFromLocal(ctx, id), "dialog_id", id)
	d.list.Remove(id)
	d.timelines.Drop(id)
}

// refresh merges the remote dialog into the cache.
func (d *Dialogs) refresh(ctx context.Context, id string) {
	dialog, err := d.repo.GetFromRemote(ctx, id)
	if err != nil {
		d.opts.Logger.Warn("refresh dialog", "dialog_id", id, "error", err)
		return
	}
	d.merge(ctx, dialog)
}

// merge stores a remote copy of a dialog. The cached preview and update time
// win when they are newer, so UpdatedAt never moves backwards.
func (d *Dialogs) merge(ctx context.Context, dialog models.Dialog) {
	unlock := d.locks.lock(dialog.ID)
	defer unlock()

	cached, ok, err := d.repo.Probe(ctx, dialog.ID)
	if err != nil {
		d.opts.Logger.Warn("load cached dialog", "dialog_id", dialog.ID, "error", err)
	}
	if ok {
		if cached.LastMessage.SentAt.After(dialog.LastMessage.SentAt) {
			dialog.LastMessage = cached.LastMessage
		}
		dialog.Touch(cached.UpdatedAt)
	}
	d.save(ctx, dialog)
}

// recordMessage moves the dialog to the time of msg and updates its preview.
// A message older than the current preview leaves the preview alone.
func (d *Dialogs) recordMessage(ctx context.Context, msg models.Message, unread bool) {
	unlock := d.locks.lock(msg.DialogID)
	defer unlock()

	dialog, err := d.repo.ReadThrough(ctx, msg.DialogID)
	if err != nil {
		d.opts.Logger.Warn("load dialog for message", "dialog_id", msg.DialogID, "message_id", msg.ID, "error", err)
		return
	}

	if !msg.SentAt.Before(dialog.LastMessage.SentAt) {
		dialog.LastMessage = models.LastMessage{
			ID:       msg.ID,
			SenderID: msg.SenderID,
			Summary:  content.Summary(msg.Text, summaryLength),
			SentAt:   msg.SentAt,
		}
	}
	dialog.Touch(msg.SentAt)
	if unread {
		dialog.UnreadCount++
	}

	d.save(ctx, dialog)
}

// removeParticipant drops a user who left the dialog.
func (d *Dialogs) removeParticipant(ctx context.Context, dialogID, userID string, at time.Time) {
	unlock := d.locks.lock(dialogID)
	defer unlock()

	dialog, ok, err := d.repo.Probe(ctx, dialogID)
	if err != nil || !ok {
		warnUnlessMissing(ctx, d.opts.Logger, "load dialog for leave", err, "dialog_id", dialogID)
		return
	}
	if !dialog.RemoveParticipant(userID) {
		return
	}
	dialog.Touch(at)
	d.save(ctx, dialog)
}

func (d *Dialogs) save(ctx context.Context, dialog models.Dialog) {
	if err := d.repo.UpdateInLocal(ctx, dialog); err != nil {
		d.opts.Logger.Warn("cache dialog", "dialog_id", dialog.ID, "error", err)
	}
	d.list.Upsert(dialog)
}
