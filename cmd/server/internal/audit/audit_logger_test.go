package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileAuditLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "meetings.jsonl")
	l, err := NewFileAuditLogger(path)
	require.NoError(t, err)
	l.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }

	require.NoError(t, l.LogAction("user-1", ActionCreateMeeting, "1", nil, map[string]string{"title": "Standup"}, "delivered"))
	require.NoError(t, l.LogAction("user-2", ActionDeleteMeeting, "1", map[string]string{"title": "Standup"}, nil, ""))
	require.NoError(t, l.Close())

	entries, err := ReadEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, ActionCreateMeeting, entries[0].Action)
	assert.Equal(t, "user-1", entries[0].Operator)
	assert.Equal(t, "delivered", entries[0].Details)
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
	assert.Nil(t, entries[1].After)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), entries[1].Timestamp)
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "", "b"}, splitLines("a\n\nb"))
	assert.Nil(t, splitLines(""))
}

func TestNopLogger(t *testing.T) {
	var l AuditLogger = NopLogger{}
	assert.NoError(t, l.LogAction("u", ActionUpdateMeeting, "1", nil, nil, ""))
}
