package models

import (
	"slices"
	"time"
)

// Entity is anything the repositories can cache: it has a stable id unique within its kind.
type Entity interface {
	EntityID() string
}

type DialogType string

const (
	DialogTypePrivate DialogType = "private"
	DialogTypeGroup   DialogType = "group"
	DialogTypePublic  DialogType = "public"
)

// User represents a chat participant.
type User struct {
	ID          string    `json:"id" validate:"required"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl,omitempty" validate:"omitempty,url"`
	LastSeen    time.Time `json:"lastSeen"`
	IsCurrent   bool      `json:"isCurrent"`
}

func (u User) EntityID() string { return u.ID }

// LastMessage is the dialog list preview of the most recent message.
type LastMessage struct {
	ID       string    `json:"id,omitempty"`
	SenderID string    `json:"senderId,omitempty"`
	Summary  string    `json:"summary,omitempty"`
	SentAt   time.Time `json:"sentAt"`
}

// Dialog represents a conversation. UpdatedAt reflects the most recent mutation
// and is the sort key for dialog lists.
type Dialog struct {
	ID           string      `json:"id" validate:"required"`
	Type         DialogType  `json:"type" validate:"required,oneof=private group public"`
	Name         string      `json:"name"`
	Participants []string    `json:"participants" validate:"dive,required"`
	LastMessage  LastMessage `json:"lastMessage"`
	UnreadCount  int         `json:"unreadCount" validate:"gte=0"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (d Dialog) EntityID() string { return d.ID }

// Touch moves UpdatedAt forward, never backwards.
func (d *Dialog) Touch(at time.Time) {
	if at.After(d.UpdatedAt) {
		d.UpdatedAt = at
	}
}

// RemoveParticipant drops userID from the participant list. Reports whether it was present.
func (d *Dialog) RemoveParticipant(userID string) bool {
	i := slices.Index(d.Participants, userID)
	if i < 0 {
		return false
	}
	d.Participants = slices.Concat(d.Participants[:i], d.Participants[i+1:])
	return true
}

type MessageType string

const (
	// MessageTypeChat is a plain chat message written by a participant.
	MessageTypeChat MessageType = "chat"
	// MessageTypeSystem carries a structural dialog event.
	MessageTypeSystem MessageType = "system"
)

type EventType string

const (
	EventTypeNone       EventType = ""
	EventTypeCreate     EventType = "create"
	EventTypeUpdate     EventType = "update"
	EventTypeLeave      EventType = "leave"
	EventTypeRemove     EventType = "remove"
	EventTypeRead       EventType = "read"
	EventTypeDelivered  EventType = "delivered"
	EventTypeTyping     EventType = "typing"
	EventTypeStopTyping EventType = "stopTyping"
)

// Message belongs to exactly one dialog.
type Message struct {
	ID          string      `json:"id" validate:"required"`
	DialogID    string      `json:"dialogId" validate:"required"`
	SenderID    string      `json:"senderId"`
	Text        string      `json:"text"`
	Type        MessageType `json:"type" validate:"omitempty,oneof=chat system"`
	EventType   EventType   `json:"eventType,omitempty"`
	SentAt      time.Time   `json:"sentAt"`
	IsOwn       bool        `json:"isOwn"`
	DeliveredTo []string    `json:"deliveredTo,omitempty" validate:"unique"`
	ReadBy      []string    `json:"readBy,omitempty" validate:"unique"`
	FileIDs     []string    `json:"fileIds,omitempty"`
}

func (m Message) EntityID() string { return m.ID }

// MarkRead adds userID to the read set. The set only grows and never holds duplicates.
func (m *Message) MarkRead(userID string) bool {
	return addUnique(&m.ReadBy, userID)
}

// MarkDelivered adds userID to the delivered set.
func (m *Message) MarkDelivered(userID string) bool {
	return addUnique(&m.DeliveredTo, userID)
}

func addUnique(set *[]string, id string) bool {
	if id == "" || slices.Contains(*set, id) {
		return false
	}
	*set = append(slices.Clip(*set), id)
	return true
}

type FileKind string

const (
	FileKindImage FileKind = "image"
	FileKindVideo FileKind = "video"
	FileKindAudio FileKind = "audio"
	FileKindFile  FileKind = "file"
)

// File is a binary payload plus metadata. Exactly one of LocalPath and RemoteURL may be set.
type File struct {
	ID        string   `json:"id" validate:"required"`
	Data      []byte   `json:"data"`
	Ext       string   `json:"ext"`
	MimeType  string   `json:"mimeType"`
	Kind      FileKind `json:"kind" validate:"omitempty,oneof=image video audio file"`
	LocalPath string   `json:"localPath,omitempty" validate:"excluded_with=RemoteURL"`
	RemoteURL string   `json:"remoteUrl,omitempty" validate:"omitempty,url"`
}

func (f File) EntityID() string { return f.ID }

type ConnectionState string

const (
	ConnectionUnauthorized ConnectionState = "unauthorized"
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionConnected    ConnectionState = "connected"
)

// EventKind is the classified meaning of an inbound remote message.
type EventKind string

const (
	EventCreate     EventKind = "create"
	EventUpdate     EventKind = "update"
	EventLeave      EventKind = "leave"
	EventUserLeave  EventKind = "userLeave"
	EventRemoved    EventKind = "removed"
	EventNewMessage EventKind = "newMessage"
	EventRead       EventKind = "read"
	EventDelivered  EventKind = "delivered"
	EventTyping     EventKind = "typing"
	EventStopTyping EventKind = "stopTyping"
)

// RemoteEvent is a classified event from the remote event stream.
type RemoteEvent struct {
	Kind     EventKind
	DialogID string
	UserID   string
	Message  Message
}
