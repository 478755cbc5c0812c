package parsers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	errx "github.com/shopmind-poc/server/internal/core/errorx"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

// basic safety limits to avoid pathological model output
const (
	maxContentLen = 32 * 1024
	maxOptionLen  = 64
	maxOptions    = 8
	// interview options are meant to be tappable chips, at most 5 words
	maxOptionWords = 5
)

// ShoppingTurn is the parsed interview turn from the model.
type ShoppingTurn struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// ParseShoppingTurn extracts a {question, options} object from model output.
// The model is asked for bare JSON but routinely wraps it in code fences or
// prose, so the parser locates the outermost object before unmarshalling.
func ParseShoppingTurn(content string) (turn *ShoppingTurn, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "shopping_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("shopping parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			turn = nil
		}
	}()

	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "shopping_parser").
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}

	raw, ok := extractJSONObject(content)
	if !ok {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var parsed ShoppingTurn
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal interview turn: %w", err)
	}

	parsed.Question = strings.TrimSpace(parsed.Question)
	if parsed.Question == "" {
		return nil, fmt.Errorf("interview turn has empty question")
	}

	cleaned := make([]string, 0, len(parsed.Options))
	for _, opt := range parsed.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" || len(opt) > maxOptionLen {
			continue
		}
		if len(strings.Fields(opt)) > maxOptionWords {
			continue
		}
		cleaned = append(cleaned, opt)
		if len(cleaned) >= maxOptions {
			break
		}
	}
	parsed.Options = cleaned

	return &parsed, nil
}

// extractJSONObject returns the substring spanning the first balanced
// top-level JSON object, tolerating code fences and surrounding prose.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
