package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
)

// Mode selects which branch the conversation graph takes. Set at request
// entry; the shopping node rewrites it back to chat when the interview
// completes so the next turn starts from general framing.
type Mode string

const (
	ModeChat     Mode = "chat"
	ModeShopping Mode = "shopping"
)

// ParseMode normalises a request mode; unknown values fall back to chat.
func ParseMode(v string) Mode {
	if strings.EqualFold(v, string(ModeShopping)) {
		return ModeShopping
	}
	return ModeChat
}

// Intent is the closed set of classification labels.
type Intent string

const (
	IntentGeneral       Intent = "general"
	IntentProductSearch Intent = "product_search"
)

// ShoppingStatus is the state of the shopping interview.
type ShoppingStatus string

const (
	ShoppingQuestion ShoppingStatus = "question"
	ShoppingComplete ShoppingStatus = "complete"
)

// Attachment is a binary input carried with the request. Only image
// attachments gate the vision step.
type Attachment struct {
	Type     string `json:"type"`
	Payload  []byte `json:"payload,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

const AttachmentImage = "image"

func (a Attachment) IsImage() bool {
	return a.Type == AttachmentImage
}

// SimilarExchange is a similarity-retrieved past exchange.
type SimilarExchange struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Similarity float64   `json:"similarity"`
	Timestamp  time.Time `json:"timestamp"`
	SessionID  string    `json:"session_id"`
}

// StoredMessage is a recency-retrieved turn of the current session.
type StoredMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SummaryEntry is one persisted session summary.
type SummaryEntry struct {
	SessionID    string    `json:"session_id"`
	Text         string    `json:"text"`
	MessageCount int       `json:"message_count"`
	Model        string    `json:"model"`
	Timestamp    time.Time `json:"timestamp"`
}

// Fact is a user-scoped key/value memory.
type Fact struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemoryContext is the bundle assembled before response generation.
type MemoryContext struct {
	Similar   []SimilarExchange `json:"similar"`
	Recent    []StoredMessage   `json:"recent"`
	Summaries []SummaryEntry    `json:"summaries"`
	Facts     []Fact            `json:"facts"`
}

// ShoppingResult carries the multiple-choice affordance for a pending
// interview question.
type ShoppingResult struct {
	Options []string `json:"options"`
}

// Citation is a source reference attached to a generated response.
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ProductCard is an external-lookup result surfaced to the UI.
type ProductCard struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	InStock     bool    `json:"in_stock"`
}

// ProductMention is a structured product reference mined from the
// generated response text.
type ProductMention struct {
	Name    string `json:"name"`
	Context string `json:"context,omitempty"`
}

// QueryInput is the public input for one request.
type QueryInput struct {
	UserID      string       `json:"user_id"`
	SessionID   string       `json:"session_id"`
	Query       string       `json:"query"`
	Mode        Mode         `json:"mode"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// AgentState is the single mutable record threaded through the graph for one
// request. It is created fresh per request, mutated only through Apply, and
// discarded after the terminal response is extracted.
//
// Identity (UserID, SessionID), History and Attachments are inputs: they
// have no Field constant, so no node can overwrite them through an Update.
type AgentState struct {
	Query     string
	UserID    string
	SessionID string

	History     []*schema.Message
	Mode        Mode
	Attachments []Attachment

	Intent           Intent
	IntentConfidence float64

	MemoryContext *MemoryContext
	VisionNotes   string

	ShoppingStatus ShoppingStatus
	ShoppingResult *ShoppingResult

	Response           string
	Citations          []Citation
	ProductCards       []ProductCard
	StructuredProducts []ProductMention

	// AgentsUsed accumulates monotonically; the engine appends one entry
	// per visited node.
	AgentsUsed []string

	// TotalCostUSD accumulates LLM usage cost across node invocations.
	TotalCostUSD float64
}

// NewAgentState builds the per-request state from the public input plus the
// loaded conversation history.
func NewAgentState(in QueryInput, history []*schema.Message) *AgentState {
	return &AgentState{
		Query:       in.Query,
		UserID:      in.UserID,
		SessionID:   in.SessionID,
		History:     history,
		Mode:        ParseMode(string(in.Mode)),
		Attachments: in.Attachments,
	}
}

// HasOutput reports whether the state satisfies the terminal invariant:
// either a response is set or a shopping question is pending.
func (s *AgentState) HasOutput() bool {
	return s.Response != "" || s.ShoppingStatus == ShoppingQuestion
}

// Field names the state fields a node may write through a partial update.
type Field string

const (
	FieldQuery              Field = "query"
	FieldMode               Field = "mode"
	FieldIntent             Field = "intent"
	FieldIntentConfidence   Field = "intent_confidence"
	FieldMemoryContext      Field = "memory_context"
	FieldVisionNotes        Field = "vision_notes"
	FieldShoppingStatus     Field = "shopping_status"
	FieldShoppingResult     Field = "shopping_result"
	FieldResponse           Field = "response"
	FieldCitations          Field = "citations"
	FieldProductCards       Field = "product_cards"
	FieldStructuredProducts Field = "structured_products"
	FieldAgentsUsed         Field = "agents_used"
	FieldCostUSD            Field = "cost_usd"
)

// MergePolicy decides how a partial-update value folds into the state.
type MergePolicy int

const (
	// Overwrite replaces the current value.
	Overwrite MergePolicy = iota
	// Append concatenates onto the current list.
	Append
	// Accumulate adds onto the current numeric value.
	Accumulate
)

// MergePolicies is the explicit per-field merge table consulted by Apply.
// Scalar fields overwrite; agents_used appends; cost accumulates.
var MergePolicies = map[Field]MergePolicy{
	FieldQuery:              Overwrite,
	FieldMode:               Overwrite,
	FieldIntent:             Overwrite,
	FieldIntentConfidence:   Overwrite,
	FieldMemoryContext:      Overwrite,
	FieldVisionNotes:        Overwrite,
	FieldShoppingStatus:     Overwrite,
	FieldShoppingResult:     Overwrite,
	FieldResponse:           Overwrite,
	FieldCitations:          Overwrite,
	FieldProductCards:       Overwrite,
	FieldStructuredProducts: Overwrite,
	FieldAgentsUsed:         Append,
	FieldCostUSD:            Accumulate,
}

// Update is the partial state contribution a node returns. Fields absent
// from the map are untouched.
type Update map[Field]any

// Apply folds an update into the state according to MergePolicies. A value
// of the wrong type or an unknown field yields an error; callers treat that
// as a node-local defect and skip the field rather than abort the request.
func Apply(s *AgentState, u Update) error {
	var firstErr error
	fail := func(f Field, v any) {
		if firstErr == nil {
			firstErr = fmt.Errorf("update field %q: unexpected value type %T", f, v)
		}
	}

	for f, v := range u {
		policy, known := MergePolicies[f]
		if !known {
			if firstErr == nil {
				firstErr = fmt.Errorf("update field %q: not mergeable", f)
			}
			continue
		}

		switch f {
		case FieldQuery:
			if t, ok := v.(string); ok {
				s.Query = t
			} else {
				fail(f, v)
			}
		case FieldMode:
			if t, ok := v.(Mode); ok {
				s.Mode = t
			} else {
				fail(f, v)
			}
		case FieldIntent:
			if t, ok := v.(Intent); ok {
				s.Intent = t
			} else {
				fail(f, v)
			}
		case FieldIntentConfidence:
			if t, ok := v.(float64); ok {
				s.IntentConfidence = clamp01(t)
			} else {
				fail(f, v)
			}
		case FieldMemoryContext:
			if t, ok := v.(*MemoryContext); ok {
				s.MemoryContext = t
			} else {
				fail(f, v)
			}
		case FieldVisionNotes:
			if t, ok := v.(string); ok {
				s.VisionNotes = t
			} else {
				fail(f, v)
			}
		case FieldShoppingStatus:
			if t, ok := v.(ShoppingStatus); ok {
				s.ShoppingStatus = t
			} else {
				fail(f, v)
			}
		case FieldShoppingResult:
			if t, ok := v.(*ShoppingResult); ok {
				s.ShoppingResult = t
			} else {
				fail(f, v)
			}
		case FieldResponse:
			if t, ok := v.(string); ok {
				s.Response = t
			} else {
				fail(f, v)
			}
		case FieldCitations:
			if t, ok := v.([]Citation); ok {
				s.Citations = t
			} else {
				fail(f, v)
			}
		case FieldProductCards:
			if t, ok := v.([]ProductCard); ok {
				s.ProductCards = t
			} else {
				fail(f, v)
			}
		case FieldStructuredProducts:
			if t, ok := v.([]ProductMention); ok {
				s.StructuredProducts = t
			} else {
				fail(f, v)
			}
		case FieldAgentsUsed:
			if policy != Append {
				fail(f, v)
				continue
			}
			if t, ok := v.([]string); ok {
				s.AgentsUsed = append(s.AgentsUsed, t...)
			} else {
				fail(f, v)
			}
		case FieldCostUSD:
			if policy != Accumulate {
				fail(f, v)
				continue
			}
			if t, ok := v.(float64); ok {
				s.TotalCostUSD += t
			} else {
				fail(f, v)
			}
		}
	}
	return firstErr
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
