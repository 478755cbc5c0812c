package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmind-poc/server/internal/agent/model"
)

func writerAgent(llm model.LLMProvider) *WriterAgent {
	conv := model.ConversationConfig{}
	conv.Recent.MaxTurns = 4
	return NewWriterAgent(llm,
		model.WriterPromptConfig{BusinessType: "electronics store", BusinessName: "TechHub"},
		conv,
	)
}

// capturingLLM records the prompt it was handed.
type capturingLLM struct {
	text     string
	err      error
	messages []*schema.Message
}

func (c *capturingLLM) Generate(_ context.Context, messages []*schema.Message) (*model.GenerateResult, error) {
	c.messages = messages
	if c.err != nil {
		return nil, c.err
	}
	return &model.GenerateResult{Text: c.text}, nil
}

func (c *capturingLLM) ModelName() string { return "capturing" }

func TestWriterProducesResponse(t *testing.T) {
	t.Parallel()

	llm := &capturingLLM{text: "  Here's my advice.  "}
	state := &model.AgentState{Query: "what should I get?", SessionID: "s1"}

	update, err := writerAgent(llm).Execute(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, "Here's my advice.", update[model.FieldResponse])
	// system prompt carries the business identity
	require.NotEmpty(t, llm.messages)
	assert.Equal(t, schema.System, llm.messages[0].Role)
	assert.Contains(t, llm.messages[0].Content, "TechHub")
	assert.Contains(t, llm.messages[0].Content, "electronics store")
}

func TestWriterIncludesRecentHistoryWindow(t *testing.T) {
	t.Parallel()

	history := []*schema.Message{
		schema.UserMessage("turn one"),
		schema.AssistantMessage("reply one", nil),
		schema.UserMessage("turn two"),
		schema.AssistantMessage("reply two", nil),
		schema.UserMessage("turn three"),
		schema.AssistantMessage("reply three", nil),
	}
	llm := &capturingLLM{text: "ok"}
	state := &model.AgentState{Query: "current", History: history}

	_, err := writerAgent(llm).Execute(context.Background(), state)
	require.NoError(t, err)

	// system + 4-turn window + current query
	require.Len(t, llm.messages, 6)
	assert.Equal(t, "turn two", llm.messages[1].Content)
	assert.Equal(t, "reply three", llm.messages[4].Content)
	assert.Equal(t, "current", llm.messages[5].Content)
}

func TestWriterErrorsOnEmptyGeneration(t *testing.T) {
	t.Parallel()

	llm := &capturingLLM{text: "   \n "}
	state := &model.AgentState{Query: "q"}

	_, err := writerAgent(llm).Execute(context.Background(), state)
	assert.ErrorIs(t, err, errEmptyGeneration)
}

func TestWriterErrorsOnGenerationFailure(t *testing.T) {
	t.Parallel()

	llm := &capturingLLM{err: errors.New("model unavailable")}
	state := &model.AgentState{Query: "q"}

	_, err := writerAgent(llm).Execute(context.Background(), state)
	assert.ErrorContains(t, err, "model unavailable")
}

func TestWriterFallbackMessage(t *testing.T) {
	t.Parallel()

	update := writerAgent(nil).Fallback(errors.New("any"))
	assert.Equal(t, WriterFallbackMessage, update[model.FieldResponse])
}

func TestWriterSystemPromptIncludesMemoryBlock(t *testing.T) {
	t.Parallel()

	llm := &capturingLLM{text: "ok"}
	state := &model.AgentState{
		Query: "what's my budget again?",
		MemoryContext: &model.MemoryContext{
			Facts: []model.Fact{{Key: "budget", Value: "$2000"}},
		},
	}

	_, err := writerAgent(llm).Execute(context.Background(), state)
	require.NoError(t, err)

	assert.Contains(t, llm.messages[0].Content, "<conversation_memory>")
	assert.Contains(t, llm.messages[0].Content, "$2000")
}
