package nodes

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/shopmind-poc/server/internal/agent/model"
)

const visionSystemPrompt = "Describe the attached image(s) for a shopping assistant. " +
	"Focus on products, brands, visible text and anything that clarifies what the user is asking about. " +
	"Reply with a short factual description, no preamble."

// VisionAgent captions image attachments so later stages can disambiguate
// the query text. With no image attachments it is a no-op contributing an
// empty vision_notes string.
type VisionAgent struct {
	llm model.LLMProvider
}

func NewVisionAgent(llm model.LLMProvider) *VisionAgent {
	return &VisionAgent{llm: llm}
}

func (a *VisionAgent) Name() string { return NodeVision }

func (a *VisionAgent) Execute(ctx context.Context, state *model.AgentState) (model.Update, error) {
	parts := imageParts(state.Attachments)
	if len(parts) == 0 {
		return model.Update{model.FieldVisionNotes: ""}, nil
	}

	userMsg := &schema.Message{
		Role: schema.User,
		MultiContent: append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeText,
			Text: fmt.Sprintf("The user asked: %q", state.Query),
		}),
	}

	res, err := a.llm.Generate(ctx, []*schema.Message{
		schema.SystemMessage(visionSystemPrompt),
		userMsg,
	})
	if err != nil {
		return nil, err
	}

	return model.Update{
		model.FieldVisionNotes: strings.TrimSpace(res.Text),
		model.FieldCostUSD:     model.UsageCost(a.llm.ModelName(), res.Usage),
	}, nil
}

func (a *VisionAgent) Fallback(error) model.Update {
	return model.Update{model.FieldVisionNotes: ""}
}

func imageParts(attachments []model.Attachment) []schema.ChatMessagePart {
	var parts []schema.ChatMessagePart
	for _, att := range attachments {
		if !att.IsImage() {
			continue
		}
		url := att.URL
		if url == "" && len(att.Payload) > 0 {
			mime := att.MimeType
			if mime == "" {
				mime = "image/png"
			}
			url = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(att.Payload)
		}
		if url == "" {
			continue
		}
		parts = append(parts, schema.ChatMessagePart{
			Type:     schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{URL: url},
		})
	}
	return parts
}
