package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name          string
		page, perPage int
		want          Pagination
	}{
		{"First page", 1, 20, Pagination{Skip: 0, Limit: 20}},
		{"Third page", 3, 10, Pagination{Skip: 20, Limit: 10}},
		{"Zero page clamps", 0, 10, Pagination{Skip: 0, Limit: 10}},
		{"Zero size clamps", 2, 0, Pagination{Skip: 1, Limit: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPagination(tt.page, tt.perPage)
			require.Equal(t, tt.want, got)
			if tt.page >= 1 && tt.perPage >= 1 {
				require.Equal(t, tt.page, got.Page())
			}
		})
	}
}

func TestPagination_Next(t *testing.T) {
	p := Pagination{Skip: 0, Limit: 10, Total: 25}
	require.True(t, p.HasMore())

	p = p.Next()
	require.Equal(t, Pagination{Skip: 10, Limit: 10, Total: 25}, p)
	require.True(t, p.HasMore())

	p = p.Next()
	require.Equal(t, 3, p.Page())
	require.False(t, p.HasMore())
}

func TestMessage_ReceiptSets(t *testing.T) {
	var m Message

	require.True(t, m.MarkRead("u1"))
	require.False(t, m.MarkRead("u1"), "duplicate read id must be ignored")
	require.True(t, m.MarkRead("u2"))
	require.False(t, m.MarkRead(""))
	require.Equal(t, []string{"u1", "u2"}, m.ReadBy)

	require.True(t, m.MarkDelivered("u2"))
	require.False(t, m.MarkDelivered("u2"))
	require.Equal(t, []string{"u2"}, m.DeliveredTo)
}

func TestDialog_Touch(t *testing.T) {
	t1 := time.Unix(1700000000, 0).UTC()
	t2 := t1.Add(time.Minute)

	d := Dialog{UpdatedAt: t2}
	d.Touch(t1)
	require.Equal(t, t2, d.UpdatedAt, "Touch must not move UpdatedAt backwards")

	d.Touch(t2.Add(time.Second))
	require.Equal(t, t2.Add(time.Second), d.UpdatedAt)
}

func TestDialog_RemoveParticipant(t *testing.T) {
	d := Dialog{Participants: []string{"a", "b", "c"}}

	require.True(t, d.RemoveParticipant("b"))
	require.Equal(t, []string{"a", "c"}, d.Participants)
	require.False(t, d.RemoveParticipant("b"))
}
