package chat

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/c-pro/geche"
)

// Typing tracks who is typing in which dialog. An entry disappears after ttl
// unless it is refreshed, so a lost stopTyping event does not stick.
type Typing struct {
	ttl     time.Duration
	entries geche.Geche[string, time.Time]
	now     func() time.Time
}

func NewTyping(ctx context.Context, ttl time.Duration) *Typing {
	return &Typing{
		ttl:     ttl,
		entries: geche.NewMapTTLCache[string, time.Time](ctx, ttl, ttl),
		now:     time.Now,
	}
}

func typingKey(dialogID, userID string) string {
	return dialogID + "\x00" + userID
}

func (t *Typing) Start(dialogID, userID string) {
	t.entries.Set(typingKey(dialogID, userID), t.now().Add(t.ttl))
}

func (t *Typing) Stop(dialogID, userID string) {
	_ = t.entries.Del(typingKey(dialogID, userID))
}

// Users returns the ids currently typing in dialogID, sorted.
func (t *Typing) Users(dialogID string) []string {
	prefix := dialogID + "\x00"
	now := t.now()

	var users []string
	for key, expires := range t.entries.Snapshot() {
		if !strings.HasPrefix(key, prefix) || !now.Before(expires) {
			continue
		}
		users = append(users, strings.TrimPrefix(key, prefix))
	}
	slices.Sort(users)
	return users
}
