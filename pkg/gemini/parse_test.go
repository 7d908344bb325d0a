package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"zentok/models"
)

func TestParseCommentPool(t *testing.T) {
	text := "```json\n" + `[
		{"user": "lucia.99", "text": "This is amazing ✨", "likes": 42},
		{"user": " x_pablo_x ", "text": "what filter is that?", "likes": -3},
		{"user": "ghost", "text": "   ", "likes": 5},
		{"user": "", "text": "a bit long tbh", "likes": 7.6}
	]` + "\n```"

	pool, err := ParseCommentPool(text)
	require.NoError(t, err)
	assert.Equal(t, []models.CommentCandidate{
		{Author: "lucia.99", Text: "This is amazing ✨", LikeSeed: 42},
		{Author: "x_pablo_x", Text: "what filter is that?", LikeSeed: 0},
		{Author: "", Text: "a bit long tbh", LikeSeed: 7},
	}, pool)
}

func TestParseCommentPoolErrors(t *testing.T) {
	_, err := ParseCommentPool("  ")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = ParseCommentPool(`{"user": "not an array"}`)
	assert.Error(t, err)
}

func TestParseScore(t *testing.T) {
	cases := map[string]int{
		`{"score": 87}`:               87,
		"```\n{\"score\": 12.6}\n```": 13,
		`{"score": 140}`:              100,
		`{"score": -5}`:               0,
		`64`:                          64,
	}
	for in, want := range cases {
		got, err := ParseScore(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseScore(`{"rating": "high"}`)
	assert.Error(t, err)
	_, err = ParseScore("")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `[1]`, stripFences("```json\n[1]\n```"))
	assert.Equal(t, `[1]`, stripFences("```\n[1]```"))
	assert.Equal(t, `[1]`, stripFences("  [1]  "))
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(t.Context(), Config{}, nil)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestCommentSchema(t *testing.T) {
	assert.Equal(t, genai.TypeArray, commentSchema.Type)
	assert.ElementsMatch(t, []string{"user", "text", "likes"}, commentSchema.Items.Required)
	assert.Contains(t, commentPrompt(""), "an authentic video")
}
