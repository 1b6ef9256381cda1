package usecase

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"chatsync/internal/chat"
	"chatsync/internal/content"
	"chatsync/internal/models"
	"chatsync/internal/repository"
)

var ErrEmptyMessage = errors.New("message has neither text nor files")

type Messages struct {
	repo      *repository.Repository[models.Message]
	dialogs   *Dialogs
	timelines *chat.Timelines
	opts      Options
	locks     keyedMutex
}

func NewMessages(repo *repository.Repository[models.Message], dialogs *Dialogs, timelines *chat.Timelines, opts Options) *Messages {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.With("usecase", "messages")
	return &Messages{
		repo:      repo,
		dialogs:   dialogs,
		timelines: timelines,
		opts:      opts,
	}
}

func (m *Messages) Get(ctx context.Context, id string) (models.Message, error) {
	msg, err := m.repo.ReadThrough(ctx, id)
	if err != nil {
		m.opts.Logger.Error("get message", "message_id", id, "error", err)
		return msg, err
	}
	return m.own(msg), nil
}

// Send creates the message remotely and, once confirmed, caches it, places it
// in the dialog timeline and bumps the dialog.
func (m *Messages) Send(ctx context.Context, dialogID, text string, fileIDs ...string) (models.Message, error) {
	text = strings.TrimSpace(content.Sanitize(text))
	if text == "" && len(fileIDs) == 0 {
		return models.Message{}, ErrEmptyMessage
	}

	msg := models.Message{
		ID:       m.opts.NewID(),
		DialogID: dialogID,
		SenderID: m.opts.CurrentUserID,
		Text:     text,
		Type:     models.MessageTypeChat,
		SentAt:   m.opts.Now().UTC(),
		IsOwn:    true,
		FileIDs:  fileIDs,
	}

	created, err := m.repo.CreateInRemote(ctx, msg)
	if err != nil {
		m.opts.Logger.Error("send message", "dialog_id", dialogID, "message_id", msg.ID, "error", err)
		return models.Message{}, err
	}
	created = m.own(created)

	m.store(ctx, created)
	m.dialogs.recordMessage(ctx, created, false)
	return created, nil
}

// List fetches one page of a dialog's history, caches it and merges it into the
// dialog timeline. It returns the whole timeline and the cursor of the page.
func (m *Messages) List(ctx context.Context, dialogID string, page int) ([]models.Message, models.Pagination, error) {
	filter := url.Values{"dialogId": {dialogID}}
	msgs, next, err := m.repo.ListFromRemote(ctx, models.NewPagination(page, m.opts.PerPage), filter)
	if err != nil {
		m.opts.Logger.Error("list messages", "dialog_id", dialogID, "page", page, "error", err)
		return nil, next, err
	}

	for _, msg := range msgs {
		if msg.DialogID != dialogID {
			m.opts.Logger.Warn("message from another dialog in page", "dialog_id", dialogID, "message_id", msg.ID)
			continue
		}
		m.store(ctx, m.own(msg))
	}
	return m.timelines.For(dialogID).Items(), next, nil
}

// Timeline returns the ordered in-memory history of a dialog.
func (m *Messages) Timeline(dialogID string) []models.Message {
	return m.timelines.For(dialogID).Items()
}

// receive applies a message pushed by the backend. A redelivered message does
// not count as unread twice.
func (m *Messages) receive(ctx context.Context, msg models.Message) {
	msg = m.own(msg)
	unlock := m.locks.lock(msg.ID)
	defer unlock()

	_, seen, err := m.repo.Probe(ctx, msg.ID)
	if err != nil {
		m.opts.Logger.Warn("probe received message", "message_id", msg.ID, "error", err)
	}

	m.store(ctx, msg)
	m.dialogs.recordMessage(ctx, msg, !seen && !msg.IsOwn)
}

// receipt adds userID to the read or delivered set of a cached message. Receipts
// for messages that are not cached are ignored.
func (m *Messages) receipt(ctx context.Context, messageID, userID string, read bool) {
	unlock := m.locks.lock(messageID)
	defer unlock()

	msg, ok, err := m.repo.Probe(ctx, messageID)
	if err != nil || !ok {
		warnUnlessMissing(ctx, m.opts.Logger, "load message for receipt", err, "message_id", messageID)
		return
	}

	var changed bool
	if read {
		// A read message is also delivered.
		changed = msg.MarkDelivered(userID)
		changed = msg.MarkRead(userID) || changed
	} else {
		changed = msg.MarkDelivered(userID)
	}
	if changed {
		m.store(ctx, msg)
	}
}

func (m *Messages) own(msg models.Message) models.Message {
	msg.IsOwn = msg.IsOwn || (msg.SenderID != "" && msg.SenderID == m.opts.CurrentUserID)
	return msg
}

func (m *Messages) store(ctx context.Context, msg models.Message) {
	if err := m.repo.UpdateInLocal(ctx, msg); err != nil {
		m.opts.Logger.Warn("cache message", "message_id", msg.ID, "error", err)
	}
	m.timelines.For(msg.DialogID).Upsert(msg)
}
