// Package events classifies inbound remote messages into conversation events.
package events

import "chatsync/internal/models"

// Classify maps the coarse message type, the fine-grained event type and the
// ownership of the triggering action to exactly one event kind.
// Chat messages are always new messages. A leave is self-initiated when the
// current user owns it. System messages without a recognized event type are
// treated as new messages so they still reach the dialog history.
func Classify(t models.MessageType, et models.EventType, ownedByCurrentUser bool) models.EventKind {
	if t != models.MessageTypeSystem {
		return models.EventNewMessage
	}

	switch et {
	case models.EventTypeCreate:
		return models.EventCreate
	case models.EventTypeUpdate:
		return models.EventUpdate
	case models.EventTypeLeave:
		if ownedByCurrentUser {
			return models.EventLeave
		}
		return models.EventUserLeave
	case models.EventTypeRemove:
		return models.EventRemoved
	case models.EventTypeRead:
		return models.EventRead
	case models.EventTypeDelivered:
		return models.EventDelivered
	case models.EventTypeTyping:
		return models.EventTyping
	case models.EventTypeStopTyping:
		return models.EventStopTyping
	default:
		return models.EventNewMessage
	}
}

// FromMessage classifies msg on behalf of currentUserID and builds the domain event.
func FromMessage(msg models.Message, currentUserID string) models.RemoteEvent {
	owned := msg.IsOwn || (currentUserID != "" && msg.SenderID == currentUserID)
	return models.RemoteEvent{
		Kind:     Classify(msg.Type, msg.EventType, owned),
		DialogID: msg.DialogID,
		UserID:   msg.SenderID,
		Message:  msg,
	}
}
