package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelaySessionResolution(t *testing.T) {
	db := testDB(t)
	_, _, err := GetOrCreateSession(db, "sess-a")
	require.NoError(t, err)

	require.NoError(t, CreateRelay(db, "sess-a", 1001))

	id, err := RelaySession(db, 1001)
	require.NoError(t, err)
	assert.Equal(t, "sess-a", id)

	id, err = RelaySession(db, 9999)
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

func TestRelayRowsAccumulate(t *testing.T) {
	db := testDB(t)
	_, _, err := GetOrCreateSession(db, "sess-b")
	require.NoError(t, err)

	require.NoError(t, CreateRelay(db, "sess-b", 2001))
	require.NoError(t, CreateRelay(db, "sess-b", 2002))
	require.NoError(t, CreateRelay(db, "sess-b", 2003))

	var n int64
	require.NoError(t, db.Model(&HandoffRelay{}).Where("session_id = ?", "sess-b").Count(&n).Error)
	assert.Equal(t, int64(3), n)

	// every relayed message keeps resolving, not just the latest
	id, err := RelaySession(db, 2001)
	require.NoError(t, err)
	assert.Equal(t, "sess-b", id)
}

func TestMostRecentLiveSession(t *testing.T) {
	db := testDB(t)

	id, err := MostRecentLiveSession(db)
	require.NoError(t, err)
	assert.Equal(t, "", id)

	older, _, err := GetOrCreateSession(db, "sess-older")
	require.NoError(t, err)
	require.NoError(t, MarkHandoffLive(db, older, "First"))

	time.Sleep(10 * time.Millisecond)

	newer, _, err := GetOrCreateSession(db, "sess-newer")
	require.NoError(t, err)
	require.NoError(t, MarkHandoffLive(db, newer, "Second"))

	id, err = MostRecentLiveSession(db)
	require.NoError(t, err)
	assert.Equal(t, "sess-newer", id)
}

func TestSaveContactMessage(t *testing.T) {
	db := testDB(t)

	msg, err := SaveContactMessage(db, "Ada", "ada@example.com", "Let's work together", ContactSourceChat)
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, ContactSourceChat, msg.Source)
	assert.False(t, msg.Read)

	var stored ContactMessage
	require.NoError(t, db.First(&stored, msg.ID).Error)
	assert.Equal(t, "ada@example.com", stored.Email)
}
