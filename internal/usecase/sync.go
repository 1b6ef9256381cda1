package usecase

import (
	"context"

	"chatsync/internal/chat"
	"chatsync/internal/models"
)

// EventSource is the subscribable side of the remote event stream.
type EventSource interface {
	Events() (<-chan models.RemoteEvent, func())
	States() (<-chan models.ConnectionState, func())
}

// Sync applies classified remote events to the cache and the in-memory lists.
// It subscribes on construction so nothing published before Run is missed.
type Sync struct {
	events     <-chan models.RemoteEvent
	states     <-chan models.ConnectionState
	stopEvents func()
	stopStates func()
	dialogs    *Dialogs
	messages   *Messages
	typing     *chat.Typing
	opts       Options
}

func NewSync(source EventSource, dialogs *Dialogs, messages *Messages, typing *chat.Typing, opts Options) *Sync {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.With("usecase", "sync")
	s := &Sync{
		dialogs:  dialogs,
		messages: messages,
		typing:   typing,
		opts:     opts,
	}
	s.events, s.stopEvents = source.Events()
	s.states, s.stopStates = source.States()
	return s
}

// Run consumes events until ctx is done or the source closes its streams. The
// subscriptions end with Run.
func (s *Sync) Run(ctx context.Context) error {
	defer s.stopEvents()
	defer s.stopStates()

	events, states := s.events, s.states
	for events != nil || states != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.Apply(ctx, ev)
		case state, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			s.logState(state)
		}
	}
	return nil
}

func (s *Sync) logState(state models.ConnectionState) {
	switch state {
	case models.ConnectionUnauthorized:
		s.opts.Logger.Error("event stream unauthorized")
	case models.ConnectionDisconnected:
		s.opts.Logger.Warn("event stream disconnected")
	default:
		s.opts.Logger.Info("event stream state", "state", state)
	}
}

// Apply handles one event. Failures are logged; an event never stops the sync.
func (s *Sync) Apply(ctx context.Context, ev models.RemoteEvent) {
	s.opts.Logger.Debug("apply event", "kind", ev.Kind, "dialog_id", ev.DialogID, "user_id", ev.UserID)

	switch ev.Kind {
	case models.EventNewMessage:
		s.typing.Stop(ev.DialogID, ev.UserID)
		s.messages.receive(ctx, ev.Message)
	case models.EventRead:
		s.messages.receipt(ctx, ev.Message.ID, ev.UserID, true)
	case models.EventDelivered:
		s.messages.receipt(ctx, ev.Message.ID, ev.UserID, false)
	case models.EventCreate, models.EventUpdate:
		s.dialogs.refresh(ctx, ev.DialogID)
	case models.EventLeave, models.EventRemoved:
		s.dialogs.forget(ctx, ev.DialogID)
	case models.EventUserLeave:
		s.typing.Stop(ev.DialogID, ev.UserID)
		s.dialogs.removeParticipant(ctx, ev.DialogID, ev.UserID, ev.Message.SentAt)
	case models.EventTyping:
		s.typing.Start(ev.DialogID, ev.UserID)
	case models.EventStopTyping:
		s.typing.Stop(ev.DialogID, ev.UserID)
	default:
		s.opts.Logger.Warn("unknown event", "kind", ev.Kind)
	}
}

// Typing returns who is typing in a dialog.
func (s *Sync) Typing(dialogID string) []string {
	return s.typing.Users(dialogID)
}
