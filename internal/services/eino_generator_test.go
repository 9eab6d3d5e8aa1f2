package services

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"alfredoptarigan/interview-analyzer/internal/apperror"
)

type fakeChatModel struct {
	input       []*schema.Message
	temperature *float32
	reply       *schema.Message
	err         error
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.input = input
	f.temperature = model.GetCommonOptions(&model.Options{}, opts...).Temperature
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func TestEinoGenerator_GenerateText(t *testing.T) {
	chat := &fakeChatModel{reply: &schema.Message{Role: schema.Assistant, Content: "\nA solid interview.\n"}}
	g := newEinoGenerator(chat, "gpt-4o-mini", nil, zaptest.NewLogger(t))

	text, err := g.GenerateText(context.Background(), "write the debrief", 0.5)

	require.NoError(t, err)
	assert.Equal(t, "A solid interview.", text)
	require.Len(t, chat.input, 2)
	assert.Equal(t, schema.System, chat.input[0].Role)
	assert.Equal(t, schema.User, chat.input[1].Role)
	assert.Equal(t, "write the debrief", chat.input[1].Content)
	require.NotNil(t, chat.temperature)
	assert.Equal(t, float32(0.5), *chat.temperature)
}

func TestEinoGenerator_Failures(t *testing.T) {
	tests := []struct {
		name string
		chat *fakeChatModel
	}{
		{name: "endpoint error", chat: &fakeChatModel{err: errors.New("429 too many requests")}},
		{name: "empty completion", chat: &fakeChatModel{reply: &schema.Message{Role: schema.Assistant, Content: "  "}}},
		{name: "nil completion", chat: &fakeChatModel{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newEinoGenerator(tt.chat, "gpt-4o-mini", nil, nil)

			_, err := g.GenerateText(context.Background(), "prompt", 0)

			assert.ErrorIs(t, err, apperror.ErrModelInference)
			assert.True(t, apperror.IsRetryable(err))
		})
	}
}

func TestNewOpenAIGenerator_RequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(context.Background(), OpenAIOptions{Model: "gpt-4o-mini"}, nil)

	assert.Error(t, err)
}
