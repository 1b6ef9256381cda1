package content

import (
	"testing"

	"chatsync/internal/models"

	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain text", "Hello World", "Hello World"},
		{"HTML tags", "Hello <b>World</b>", "Hello <b>World</b>"},
		{"Script tag", "<script>alert('xss')</script>Hello", "Hello"},
		{"Complex HTML", "<a href='javascript:alert(1)'>Click me</a>", "Click me"},
		{"Emoji", "I am 🤖", "I am 🤖"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"Plain text", "hello there", 50, "hello there"},
		{"Markdown emphasis", "**bold** and _italic_", 50, "bold and italic"},
		{"Link", "see [docs](https://example.com)", 50, "see docs"},
		{"Entities", "fish & chips", 50, "fish & chips"},
		{"Multiline", "line one\n\nline two", 50, "line one line two"},
		{"Truncated", "abcdefghij", 4, "abcd…"},
		{"No limit", "abcdefghij", 0, "abcdefghij"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summary(tt.input, tt.max); got != tt.expected {
				t.Errorf("Summary() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDetectFile(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d}

	info := DetectFile(png)
	require.Equal(t, "png", info.Ext)
	require.Equal(t, "image/png", info.MimeType)
	require.Equal(t, models.FileKindImage, info.Kind)

	info = DetectFile([]byte("just some text"))
	require.Equal(t, "", info.Ext)
	require.Equal(t, fallbackMime, info.MimeType)
	require.Equal(t, models.FileKindFile, info.Kind)

	f := Describe(models.File{ID: "f1", Data: png})
	require.Equal(t, "png", f.Ext)
	require.Equal(t, models.FileKindImage, f.Kind)
}
