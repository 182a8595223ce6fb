package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_FailsSoftOnError(t *testing.T) {
	c := clientWithPrompt(func(ctx context.Context, system, user string) (string, error) {
		return "", errors.New("timeout")
	})

	r := c.Evaluate(context.Background(), "question", "answer")
	assert.Equal(t, 10, r.Score)
}

func TestEvaluate_FailsSoftOnGarbage(t *testing.T) {
	c := clientWithPrompt(func(ctx context.Context, system, user string) (string, error) {
		return "score: pretty good", nil
	})

	r := c.Evaluate(context.Background(), "question", "answer")
	assert.Equal(t, 10, r.Score)
}

func TestEvaluate_ParsesGrade(t *testing.T) {
	c := clientWithPrompt(func(ctx context.Context, system, user string) (string, error) {
		return `{"score": 4, "feedback": "evasive", "revised": "a better answer"}`, nil
	})

	r := c.Evaluate(context.Background(), "question", "answer")
	assert.Equal(t, 4, r.Score)
	assert.Equal(t, "evasive", r.Feedback)
	assert.Equal(t, "a better answer", r.Revised)
	assert.Less(t, r.Score, PassingScore)
}

func TestEvaluate_ClampsScore(t *testing.T) {
	c := clientWithPrompt(func(ctx context.Context, system, user string) (string, error) {
		return `{"score": 0, "feedback": "", "revised": ""}`, nil
	})

	r := c.Evaluate(context.Background(), "q", "a")
	assert.Equal(t, 1, r.Score)
}

func TestClassifyIntent_ParsesVerdict(t *testing.T) {
	c := clientWithPrompt(func(ctx context.Context, system, user string) (string, error) {
		return `{"business": true, "reason": "hiring inquiry", "confidence": 85}`, nil
	})

	r := c.ClassifyIntent(context.Background(), nil)
	assert.True(t, r.Business)
	assert.Equal(t, 85, r.Confidence)
}

func TestClassifyIntent_NoVerdictOnError(t *testing.T) {
	c := clientWithPrompt(func(ctx context.Context, system, user string) (string, error) {
		return "", errors.New("upstream down")
	})

	r := c.ClassifyIntent(context.Background(), nil)
	assert.False(t, r.Business)
	assert.Equal(t, 0, r.Confidence)
}

func TestExtractVisitorName(t *testing.T) {
	c := clientWithPrompt(func(ctx context.Context, system, user string) (string, error) {
		return `{"name": " Ada Lovelace "}`, nil
	})
	assert.Equal(t, "Ada Lovelace", c.ExtractVisitorName(context.Background(), nil))

	c = clientWithPrompt(func(ctx context.Context, system, user string) (string, error) {
		return `{"name": ""}`, nil
	})
	assert.Equal(t, "", c.ExtractVisitorName(context.Background(), nil))
}
