package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/domain"
)

func TestRecentKeepsNewestFirst(t *testing.T) {
	h := New(zap.NewNop(), 3)
	for _, title := range []string{"a", "b", "c", "d"} {
		h.Notify(LevelInfo, title, "")
	}

	got := h.Recent(0)
	require.Len(t, got, 3)
	assert.Equal(t, "d", got[0].Title)
	assert.Equal(t, "b", got[2].Title)

	assert.Len(t, h.Recent(2), 2)
}

func TestSubscribersReceiveNotifications(t *testing.T) {
	h := New(zap.NewNop(), 0)

	var seen []domain.Notification
	handler := func(n domain.Notification) { seen = append(seen, n) }
	require.NoError(t, h.Subscribe(handler))

	sent := h.Notify(LevelWarning, "Low stock", "Cooking Oil 1L has 4 left")
	require.Len(t, seen, 1)
	assert.Equal(t, sent, seen[0])
	assert.NotEmpty(t, sent.ID)

	require.NoError(t, h.Unsubscribe(handler))
	h.Notify(LevelInfo, "Backup", "done")
	assert.Len(t, seen, 1)
	assert.Len(t, h.Recent(0), 2)
}
