package storage

import (
	"encoding"
	"time"

	"chatsync/internal/models"

	"github.com/vmihailenco/msgpack/v5"
)

type Storeable interface {
	Key() []byte
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// Timestamps are stored as unix nanoseconds in UTC; zero time is stored as 0.
func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

type DBUser struct {
	ID          string `msgpack:"id"`
	DisplayName string `msgpack:"displayName"`
	AvatarURL   string `msgpack:"avatarUrl"`
	LastSeen    int64  `msgpack:"lastSeen"`
	IsCurrent   bool   `msgpack:"isCurrent"`
}

func newDBUser(u models.User) *DBUser {
	return &DBUser{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		LastSeen:    toNanos(u.LastSeen),
		IsCurrent:   u.IsCurrent,
	}
}

func (u *DBUser) Model() models.User {
	return models.User{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		LastSeen:    fromNanos(u.LastSeen),
		IsCurrent:   u.IsCurrent,
	}
}

func (u *DBUser) Key() []byte {
	return []byte(u.ID)
}

func (u *DBUser) MarshalBinary() (data []byte, err error) {
	type alias DBUser
	return msgpack.Marshal((*alias)(u))
}

func (u *DBUser) UnmarshalBinary(data []byte) error {
	type alias DBUser
	return msgpack.Unmarshal(data, (*alias)(u))
}

type DBDialog struct {
	ID            string   `msgpack:"id"`
	Type          string   `msgpack:"type"`
	Name          string   `msgpack:"name"`
	Participants  []string `msgpack:"participants"`
	LastMessageID string   `msgpack:"lastMessageId"`
	LastSenderID  string   `msgpack:"lastSenderId"`
	LastSummary   string   `msgpack:"lastSummary"`
	LastSentAt    int64    `msgpack:"lastSentAt"`
	UnreadCount   int      `msgpack:"unreadCount"`
	CreatedAt     int64    `msgpack:"createdAt"`
	UpdatedAt     int64    `msgpack:"updatedAt"`
}

func newDBDialog(d models.Dialog) *DBDialog {
	return &DBDialog{
		ID:            d.ID,
		Type:          string(d.Type),
		Name:          d.Name,
		Participants:  d.Participants,
		LastMessageID: d.LastMessage.ID,
		LastSenderID:  d.LastMessage.SenderID,
		LastSummary:   d.LastMessage.Summary,
		LastSentAt:    toNanos(d.LastMessage.SentAt),
		UnreadCount:   d.UnreadCount,
		CreatedAt:     toNanos(d.CreatedAt),
		UpdatedAt:     toNanos(d.UpdatedAt),
	}
}

func (d *DBDialog) Model() models.Dialog {
	return models.Dialog{
		ID:           d.ID,
		Type:         models.DialogType(d.Type),
		Name:         d.Name,
		Participants: d.Participants,
		LastMessage: models.LastMessage{
			ID:       d.LastMessageID,
			SenderID: d.LastSenderID,
			Summary:  d.LastSummary,
			SentAt:   fromNanos(d.LastSentAt),
		},
		UnreadCount: d.UnreadCount,
		CreatedAt:   fromNanos(d.CreatedAt),
		UpdatedAt:   fromNanos(d.UpdatedAt),
	}
}

func (d *DBDialog) Key() []byte {
	return []byte(d.ID)
}

func (d *DBDialog) MarshalBinary() (data []byte, err error) {
	type alias DBDialog
	return msgpack.Marshal((*alias)(d))
}

func (d *DBDialog) UnmarshalBinary(data []byte) error {
	type alias DBDialog
	return msgpack.Unmarshal(data, (*alias)(d))
}

type DBMessage struct {
	ID          string   `msgpack:"id"`
	DialogID    string   `msgpack:"dialogId"`
	SenderID    string   `msgpack:"senderId"`
	Text        string   `msgpack:"text"`
	Type        string   `msgpack:"type"`
	EventType   string   `msgpack:"eventType"`
	SentAt      int64    `msgpack:"sentAt"`
	IsOwn       bool     `msgpack:"isOwn"`
	DeliveredTo []string `msgpack:"deliveredTo"`
	ReadBy      []string `msgpack:"readBy"`
	FileIDs     []string `msgpack:"fileIds"`
}

func newDBMessage(m models.Message) *DBMessage {
	return &DBMessage{
		ID:          m.ID,
		DialogID:    m.DialogID,
		SenderID:    m.SenderID,
		Text:        m.Text,
		Type:        string(m.Type),
		EventType:   string(m.EventType),
		SentAt:      toNanos(m.SentAt),
		IsOwn:       m.IsOwn,
		DeliveredTo: m.DeliveredTo,
		ReadBy:      m.ReadBy,
		FileIDs:     m.FileIDs,
	}
}

func (m *DBMessage) Model() models.Message {
	return models.Message{
		ID:          m.ID,
		DialogID:    m.DialogID,
		SenderID:    m.SenderID,
		Text:        m.Text,
		Type:        models.MessageType(m.Type),
		EventType:   models.EventType(m.EventType),
		SentAt:      fromNanos(m.SentAt),
		IsOwn:       m.IsOwn,
		DeliveredTo: m.DeliveredTo,
		ReadBy:      m.ReadBy,
		FileIDs:     m.FileIDs,
	}
}

func (m *DBMessage) Key() []byte {
	return []byte(m.ID)
}

func (m *DBMessage) MarshalBinary() (data []byte, err error) {
	type alias DBMessage
	return msgpack.Marshal((*alias)(m))
}

func (m *DBMessage) UnmarshalBinary(data []byte) error {
	type alias DBMessage
	return msgpack.Unmarshal(data, (*alias)(m))
}
