package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"portfolio/models"
)

func TestHistoryContents_RoleMapping(t *testing.T) {
	msgs := []models.ChatMessage{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleModel, Sender: models.SenderAI, Content: "hello"},
		{Role: models.RoleModel, Sender: models.SenderHuman, Content: "operator here"},
	}

	contents := HistoryContents(msgs)
	require.Len(t, contents, 3)

	assert.EqualValues(t, genai.RoleUser, contents[0].Role)
	assert.EqualValues(t, genai.RoleModel, contents[1].Role)
	// human operator turns read as model turns
	assert.EqualValues(t, genai.RoleModel, contents[2].Role)

	require.NotEmpty(t, contents[0].Parts)
	assert.Equal(t, "hi", contents[0].Parts[0].Text)
}
