package prompts

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

const shoppingQuestionTemplate = `You are running round {{.Round}} of {{.MaxRounds}} in a short purchase interview.
Read the interview transcript and ask the single most useful follow-up
question to narrow down what to search for. Do not repeat a question that
was already asked.

Reply with ONLY a JSON object, no code fences, of the form:
{"question": "...", "options": ["...", "..."]}

Rules:
- 3 to {{.MaxOptions}} options
- each option is at most 5 words, phrased like a tappable choice
- the question is one sentence`

// ShoppingQuerySystem instructs the model to collapse the interview into a
// single product search query.
const ShoppingQuerySystem = "Read the interview transcript and produce ONE product search query " +
	"capturing every constraint the user gave (type, budget, use, preferences). " +
	"Reply with only the query text on a single line, no quotes, no commentary."

// RenderShoppingQuestion renders the interview-question system prompt.
func RenderShoppingQuestion(ctx context.Context, round, maxRounds, maxOptions int) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(shoppingQuestionTemplate),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Round":      round,
		"MaxRounds":  maxRounds,
		"MaxOptions": maxOptions,
	})
	if err != nil {
		return "", fmt.Errorf("shopping prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("shopping prompt render: empty result")
	}
	return msgs[0].Content, nil
}
