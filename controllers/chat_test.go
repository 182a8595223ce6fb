package controllers

import (
	"context"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"portfolio/ai"
	"portfolio/controllers/telegram"
	"portfolio/database"
	"portfolio/models"
)

func TestSSEStreamFrames(t *testing.T) {
	rec := httptest.NewRecorder()
	stream, ok := newSSEStream(rec)
	require.True(t, ok)

	stream.chunk("Hello")
	stream.send(map[string]any{"type": "suggest_live_chat", "reason": "hiring", "confidence": 80})
	stream.done()

	resp := rec.Result()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body := rec.Body.String()
	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	require.Len(t, frames, 3)
	assert.Equal(t, `data: {"text":"Hello","type":"chunk"}`, frames[0])
	assert.Contains(t, frames[1], `"type":"suggest_live_chat"`)
	assert.Equal(t, `data: {"type":"done"}`, frames[2])
}

func TestSSEStreamErrorEndsTurn(t *testing.T) {
	rec := httptest.NewRecorder()
	stream, ok := newSSEStream(rec)
	require.True(t, ok)

	stream.fail("Something went wrong. Please try again.")

	body := rec.Body.String()
	assert.Contains(t, body, `"type":"error"`)
	assert.Contains(t, body, `"type":"done"`)
}

func setupChatDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ChatSession{}, &models.ChatMessage{}, &models.UnknownEvent{},
		&models.HandoffRelay{}, &models.ContactMessage{},
		&models.Person{}, &models.About{}, &models.Experience{}, &models.Education{},
		&models.Skill{}, &models.Certification{}, &models.SocialLink{},
		&models.Post{}, &models.Project{},
	))
	old := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = old })
	return db
}

func chatRouter(aiClient *ai.Client, co *telegram.Coordinator) http.Handler {
	r := mux.NewRouter()
	r.Handle("/v1/chat/{session_id}", ChatHandler(aiClient, co)).Methods(http.MethodPost)
	return r
}

func postChat(t *testing.T, router http.Handler, sessionID, body string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/"+sessionID, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Body.String()
}

func textChunk(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
	}
}

func stubStream(chunks ...string) ai.StreamFunc {
	return func(ctx context.Context, system string, contents []*genai.Content, tools []*genai.Tool) iter.Seq2[*genai.GenerateContentResponse, error] {
		return func(yield func(*genai.GenerateContentResponse, error) bool) {
			for _, c := range chunks {
				if !yield(textChunk(c), nil) {
					return
				}
			}
		}
	}
}

func stubPrompt(raw string) ai.PromptFunc {
	return func(ctx context.Context, system, user string) (string, error) {
		return raw, nil
	}
}

func TestChatHandler_ColdSessionStreamsAndPersists(t *testing.T) {
	db := setupChatDB(t)
	aiClient := ai.NewClientFromFuncs(
		stubPrompt(`{"out_of_scope": false, "confidence": 0, "score": 10}`),
		stubStream("Hello, ", "I work on Go services."),
	)
	router := chatRouter(aiClient, telegram.NewCoordinator(db, nil))

	body := postChat(t, router, "sess-cold", `{"prompt":"What do you do?"}`)

	assert.Contains(t, body, `"text":"Hello, "`)
	assert.Contains(t, body, `"type":"done"`)
	assert.NotContains(t, body, `"type":"unknown_question"`)

	messages, err := models.SessionMessages(db, "sess-cold")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "What do you do?", messages[0].Content)
	assert.Equal(t, models.RoleModel, messages[1].Role)
	assert.Equal(t, "Hello, I work on Go services.", messages[1].Content)
}

func TestChatHandler_OutOfScopeStillAnswers(t *testing.T) {
	db := setupChatDB(t)
	aiClient := ai.NewClientFromFuncs(
		stubPrompt(`{"out_of_scope": true, "reason": "unrelated topic", "confidence": 90, "score": 10}`),
		stubStream("I can only talk about the portfolio."),
	)
	router := chatRouter(aiClient, telegram.NewCoordinator(db, nil))

	body := postChat(t, router, "sess-oos", `{"prompt":"What's the weather in Paris?"}`)

	assert.Contains(t, body, `"type":"unknown_question"`)
	assert.Contains(t, body, `"text":"I can only talk about the portfolio."`)
	assert.Contains(t, body, `"type":"done"`)
	// warning frame lands before the answer starts streaming
	assert.Less(t, strings.Index(body, "unknown_question"), strings.Index(body, `"type":"chunk"`))

	var events []models.UnknownEvent
	require.NoError(t, db.Where("session_id = ?", "sess-oos").Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, "What's the weather in Paris?", events[0].Prompt)
	assert.Equal(t, 90, events[0].Confidence)

	messages, err := models.SessionMessages(db, "sess-oos")
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestChatHandler_SubThresholdVerdictRecordsWithoutFrame(t *testing.T) {
	db := setupChatDB(t)
	aiClient := ai.NewClientFromFuncs(
		stubPrompt(`{"out_of_scope": true, "reason": "borderline", "confidence": 50, "score": 10}`),
		stubStream("Here is what I know."),
	)
	router := chatRouter(aiClient, telegram.NewCoordinator(db, nil))

	body := postChat(t, router, "sess-border", `{"prompt":"hmm"}`)

	assert.NotContains(t, body, `"type":"unknown_question"`)
	assert.Contains(t, body, `"text":"Here is what I know."`)

	var events []models.UnknownEvent
	require.NoError(t, db.Where("session_id = ?", "sess-border").Find(&events).Error)
	assert.Len(t, events, 1)
}

func TestChatHandler_NameNeededDoesNotPersistRetriedPrompt(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "")
	db := setupChatDB(t)
	aiClient := ai.NewClientFromFuncs(
		stubPrompt(`{"name": ""}`),
		stubStream(),
	)
	router := chatRouter(aiClient, telegram.NewCoordinator(db, aiClient))

	body := postChat(t, router, "sess-nn", `{"prompt":"I want to talk to a human","forceHandoff":true}`)
	assert.Contains(t, body, `"type":"name_needed"`)

	messages, err := models.SessionMessages(db, "sess-nn")
	require.NoError(t, err)
	assert.Empty(t, messages, "halted hand-off must not commit the visitor message")

	body = postChat(t, router, "sess-nn", `{"prompt":"I want to talk to a human","forceHandoff":true,"userName":"Ada"}`)
	assert.Contains(t, body, `"type":"handoff_initiated"`)

	messages, err = models.SessionMessages(db, "sess-nn")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "I want to talk to a human", messages[0].Content)

	var session models.ChatSession
	require.NoError(t, db.First(&session, "id = ?", "sess-nn").Error)
	assert.Equal(t, models.HandoffLive, session.HandoffStatus)
	assert.Equal(t, "Ada", session.HandoffName)
}

func TestChatHandler_LiveSessionRelaysInsteadOfGenerating(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "")
	db := setupChatDB(t)
	aiClient := ai.NewClientFromFuncs(
		stubPrompt(`{"out_of_scope": false, "confidence": 0, "score": 10}`),
		stubStream("must not stream"),
	)
	router := chatRouter(aiClient, telegram.NewCoordinator(db, nil))

	session, _, err := models.GetOrCreateSession(db, "sess-live")
	require.NoError(t, err)
	require.NoError(t, models.MarkHandoffLive(db, session, "Ada"))

	body := postChat(t, router, "sess-live", `{"prompt":"are you there?"}`)

	assert.Contains(t, body, `"type":"live_relayed"`)
	assert.NotContains(t, body, `"type":"chunk"`)

	messages, err := models.SessionMessages(db, "sess-live")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "are you there?", messages[0].Content)
}
