package telegram

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"portfolio/models"
)

func testCoordinator(t *testing.T) (*Coordinator, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ChatSession{}, &models.ChatMessage{}, &models.HandoffRelay{},
	))
	return NewCoordinator(db, nil), db
}

func parseUpdate(t *testing.T, raw string) *Update {
	t.Helper()
	var u Update
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	return &u
}

func TestResolveName_Priority(t *testing.T) {
	co, db := testCoordinator(t)
	session, _, err := models.GetOrCreateSession(db, "sess-1")
	require.NoError(t, err)

	// client-supplied name wins
	assert.Equal(t, "Ada", co.ResolveName(context.Background(), session, " Ada ", nil))

	// stored hand-off name is next
	session.HandoffName = "Stored Name"
	assert.Equal(t, "Stored Name", co.ResolveName(context.Background(), session, "", nil))

	// nothing resolvable
	session.HandoffName = ""
	assert.Equal(t, "", co.ResolveName(context.Background(), session, "", nil))
}

func TestRequestHandoff_NameNeeded(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "")
	co, db := testCoordinator(t)
	session, _, err := models.GetOrCreateSession(db, "sess-noname")
	require.NoError(t, err)

	_, err = co.RequestHandoff(context.Background(), session, "", nil)
	assert.ErrorIs(t, err, ErrNameNeeded)
	assert.False(t, session.IsHandoffLive())
}

func TestRequestHandoff_GoesLiveWithoutOperatorChat(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "")
	co, db := testCoordinator(t)
	session, _, err := models.GetOrCreateSession(db, "sess-live")
	require.NoError(t, err)

	name, err := co.RequestHandoff(context.Background(), session, "Ada", nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	var stored models.ChatSession
	require.NoError(t, db.First(&stored, "id = ?", "sess-live").Error)
	assert.Equal(t, models.HandoffLive, stored.HandoffStatus)

	// repeated request keeps the original record
	name, err = co.RequestHandoff(context.Background(), session, "Other Name", nil)
	require.NoError(t, err)
	assert.Equal(t, "Other Name", name)

	require.NoError(t, db.First(&stored, "id = ?", "sess-live").Error)
	assert.Equal(t, "Ada", stored.HandoffName)
}

func TestResolveUpdateSession_ReplyIDWins(t *testing.T) {
	co, db := testCoordinator(t)

	threaded, _, err := models.GetOrCreateSession(db, "sess-threaded")
	require.NoError(t, err)
	require.NoError(t, models.MarkHandoffLive(db, threaded, "Ada"))
	require.NoError(t, models.CreateRelay(db, "sess-threaded", 500))

	recent, _, err := models.GetOrCreateSession(db, "sess-recent")
	require.NoError(t, err)
	require.NoError(t, models.MarkHandoffLive(db, recent, "Bob"))

	u := parseUpdate(t, `{"message":{"message_id":7,"chat":{"id":1,"type":"private"},"text":"hi","reply_to_message":{"message_id":500}}}`)
	assert.Equal(t, "sess-threaded", co.ResolveUpdateSession(u))
}

func TestResolveUpdateSession_FallsBackToMostRecentLive(t *testing.T) {
	co, db := testCoordinator(t)

	session, _, err := models.GetOrCreateSession(db, "sess-only")
	require.NoError(t, err)
	require.NoError(t, models.MarkHandoffLive(db, session, "Ada"))

	u := parseUpdate(t, `{"message":{"message_id":7,"chat":{"id":1,"type":"private"},"text":"unthreaded reply"}}`)
	assert.Equal(t, "sess-only", co.ResolveUpdateSession(u))
}

func TestResolveUpdateSession_NothingLive(t *testing.T) {
	co, _ := testCoordinator(t)

	u := parseUpdate(t, `{"message":{"message_id":7,"chat":{"id":1,"type":"private"},"text":"hello?"}}`)
	assert.Equal(t, "", co.ResolveUpdateSession(u))
}

func TestHandleUpdate_RejectsUnknownChat(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "777")
	co, db := testCoordinator(t)

	session, _, err := models.GetOrCreateSession(db, "sess-auth")
	require.NoError(t, err)
	require.NoError(t, models.MarkHandoffLive(db, session, "Ada"))

	co.HandleUpdate(parseUpdate(t, `{"message":{"message_id":7,"chat":{"id":123,"type":"private"},"text":"stranger"}}`))

	messages, err := models.SessionMessages(db, "sess-auth")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestHandleUpdate_RecordsOperatorReply(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "777")
	co, db := testCoordinator(t)

	session, _, err := models.GetOrCreateSession(db, "sess-op")
	require.NoError(t, err)
	require.NoError(t, models.MarkHandoffLive(db, session, "Ada"))
	require.NoError(t, models.CreateRelay(db, "sess-op", 900))

	co.HandleUpdate(parseUpdate(t, `{"message":{"message_id":8,"chat":{"id":777,"type":"private"},"text":"On my way","reply_to_message":{"message_id":900}}}`))

	messages, err := models.SessionMessages(db, "sess-op")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.SenderHuman, messages[0].Sender)
	assert.Equal(t, "On my way", messages[0].Content)

	var stored models.ChatSession
	require.NoError(t, db.First(&stored, "id = ?", "sess-op").Error)
	assert.True(t, stored.IsHandoffActive())
}
