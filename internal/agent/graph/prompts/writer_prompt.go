package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/shopmind-poc/server/internal/agent/model"
)

const writerSystemTemplate = `You are the customer assistant for {{.BusinessName}}, an online {{.BusinessType}}.
Answer the user's message helpfully and concisely. Ground your answer in the
conversation context below; do not invent past conversations.
{{if .VisionNotes}}
The user attached image(s), described as: {{.VisionNotes}}
{{end}}{{if .ShoppingNote}}
{{.ShoppingNote}}
{{end}}{{if .MemoryBlock}}
{{.MemoryBlock}}
{{end}}`

// RenderWriterSystem renders the writer system prompt via the Eino prompt
// component (which also emits prompt callbacks when attached).
func RenderWriterSystem(ctx context.Context, cfg model.WriterPromptConfig, state *model.AgentState) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(writerSystemTemplate),
	)

	shoppingNote := ""
	if state.ShoppingStatus == model.ShoppingComplete {
		shoppingNote = fmt.Sprintf(
			"The user just finished a short shopping interview; their consolidated request is: %q. "+
				"Recommend concrete products that fit it.", state.Query)
	}

	vars := map[string]any{
		"BusinessType": cfg.BusinessType,
		"BusinessName": cfg.BusinessName,
		"VisionNotes":  strings.TrimSpace(state.VisionNotes),
		"ShoppingNote": shoppingNote,
		"MemoryBlock":  FormatMemoryContext(state.MemoryContext),
	}

	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("writer prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("writer prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// FormatMemoryContext flattens the memory bundle into a prompt block. An
// empty bundle renders to an empty string so the template drops the section.
func FormatMemoryContext(mc *model.MemoryContext) string {
	if mc == nil {
		return ""
	}

	var b strings.Builder

	if len(mc.Facts) > 0 {
		b.WriteString("Known facts about the user:\n")
		for _, f := range mc.Facts {
			b.WriteString("- " + f.Key + ": " + f.Value + "\n")
		}
	}

	if len(mc.Summaries) > 0 {
		b.WriteString("Earlier conversation summaries:\n")
		for _, s := range mc.Summaries {
			b.WriteString("- " + s.Text + "\n")
		}
	}

	if len(mc.Similar) > 0 {
		b.WriteString("Related past exchanges:\n")
		for _, s := range mc.Similar {
			b.WriteString(fmt.Sprintf("- [%s] %s\n", s.Role, s.Content))
		}
	}

	if len(mc.Recent) > 0 {
		b.WriteString("Most recent turns:\n")
		for _, r := range mc.Recent {
			b.WriteString(fmt.Sprintf("- [%s] %s\n", r.Role, r.Content))
		}
	}

	out := strings.TrimRight(b.String(), "\n")
	if out == "" {
		return ""
	}
	return "<conversation_memory>\n" + out + "\n</conversation_memory>"
}
