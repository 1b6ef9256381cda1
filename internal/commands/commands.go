package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"chatsync/internal/app"
	"chatsync/internal/models"
)

func GetUser(ctx context.Context, a *app.App, id string, out io.Writer) error {
	user, err := a.Users.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user %s: %w", id, err)
	}

	fmt.Fprintf(out, "ID:           %s\n", user.ID)
	fmt.Fprintf(out, "Display name: %s\n", user.DisplayName)
	if user.AvatarURL != "" {
		fmt.Fprintf(out, "Avatar:       %s\n", user.AvatarURL)
	}
	fmt.Fprintf(out, "Last seen:    %s\n", formatTime(user.LastSeen))
	if user.IsCurrent {
		fmt.Fprintln(out, "This is you.")
	}
	return nil
}

// GetFile prints the file metadata. With a non-nil dest the payload is
// written there as well.
func GetFile(ctx context.Context, a *app.App, id string, out io.Writer, dest io.Writer) error {
	file, err := a.Files.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get file %s: %w", id, err)
	}

	fmt.Fprintf(out, "ID:    %s\n", file.ID)
	fmt.Fprintf(out, "Type:  %s (%s)\n", file.MimeType, file.Kind)
	fmt.Fprintf(out, "Size:  %d bytes\n", len(file.Data))
	if file.RemoteURL != "" {
		fmt.Fprintf(out, "URL:   %s\n", file.RemoteURL)
	}

	if dest != nil {
		if _, err := dest.Write(file.Data); err != nil {
			return fmt.Errorf("failed to write file payload: %w", err)
		}
	}
	return nil
}

func GetMessage(ctx context.Context, a *app.App, id string, out io.Writer) error {
	msg, err := a.Messages.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get message %s: %w", id, err)
	}
	printMessage(out, msg)
	return nil
}

// Dialogs prints the requested page merged into the dialog list.
func Dialogs(ctx context.Context, a *app.App, page int, out io.Writer) error {
	dialogs, cursor, err := a.Dialogs.List(ctx, page)
	if err != nil {
		return fmt.Errorf("failed to list dialogs: %w", err)
	}

	for _, d := range dialogs {
		name := d.Name
		if name == "" {
			name = strings.Join(d.Participants, ", ")
		}
		fmt.Fprintf(out, "%-24s %-8s %3d unread  %s\n", d.ID, d.Type, d.UnreadCount, name)
		if d.LastMessage.ID != "" {
			fmt.Fprintf(out, "    %s: %s\n", d.LastMessage.SenderID, d.LastMessage.Summary)
		}
	}
	if cursor.HasMore() {
		fmt.Fprintf(out, "\nMore dialogs available, use page %d.\n", cursor.Next().Page())
	}
	return nil
}

func ClearCache(ctx context.Context, a *app.App, out io.Writer) error {
	if err := a.ClearCache(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintln(out, "Local cache cleared.")
	return nil
}

func printMessage(out io.Writer, msg models.Message) {
	sender := msg.SenderID
	if msg.IsOwn {
		sender = "you"
	}
	fmt.Fprintf(out, "[%s] %s in %s: %s\n", formatTime(msg.SentAt), sender, msg.DialogID, msg.Text)
	if len(msg.FileIDs) > 0 {
		fmt.Fprintf(out, "    files: %s\n", strings.Join(msg.FileIDs, ", "))
	}
	if len(msg.ReadBy) > 0 {
		fmt.Fprintf(out, "    read by: %s\n", strings.Join(msg.ReadBy, ", "))
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}
