package parsers

import (
	"strings"
	"unicode"

	"github.com/shopmind-poc/server/internal/agent/model"
)

const (
	maxMentions   = 8
	minNameLen    = 3
	maxNameLen    = 80
	mentionCtxLen = 120
)

// ExtractProductMentions mines structured product references out of
// generated response text. It is rule-based and deterministic: bolded
// segments and the name part of bullet/numbered list lines are treated as
// product names.
func ExtractProductMentions(text string) []model.ProductMention {
	if len(text) > maxContentLen {
		text = text[:maxContentLen]
	}

	var mentions []model.ProductMention
	seen := make(map[string]struct{})
	add := func(name, ctx string) {
		name = strings.TrimSpace(strings.Trim(name, `*"'`))
		if len(name) < minNameLen || len(name) > maxNameLen {
			return
		}
		if !startsWithLetterOrDigit(name) {
			return
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		mentions = append(mentions, model.ProductMention{
			Name:    name,
			Context: truncateContext(ctx),
		})
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// **Bold** segments anywhere in the line.
		for _, seg := range boldSegments(trimmed) {
			add(seg, trimmed)
			if len(mentions) >= maxMentions {
				return mentions
			}
		}

		// Bullet/numbered lines: the part before a separator is the name.
		if item, ok := listItem(trimmed); ok {
			name := item
			for _, sep := range []string{":", " - ", " – ", " ("} {
				if i := strings.Index(name, sep); i > 0 {
					name = name[:i]
					break
				}
			}
			add(name, trimmed)
			if len(mentions) >= maxMentions {
				return mentions
			}
		}
	}
	return mentions
}

func boldSegments(line string) []string {
	var segs []string
	for {
		start := strings.Index(line, "**")
		if start < 0 {
			break
		}
		rest := line[start+2:]
		end := strings.Index(rest, "**")
		if end < 0 {
			break
		}
		segs = append(segs, rest[:end])
		line = rest[end+2:]
	}
	return segs
}

func listItem(line string) (string, bool) {
	for _, prefix := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	// numbered: "1. Name" / "2) Name"
	i := 0
	for i < len(line) && unicode.IsDigit(rune(line[i])) {
		i++
	}
	if i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && line[i+1] == ' ' {
		return strings.TrimSpace(line[i+2:]), true
	}
	return "", false
}

func startsWithLetterOrDigit(s string) bool {
	r := []rune(s)
	return len(r) > 0 && (unicode.IsLetter(r[0]) || unicode.IsDigit(r[0]))
}

func truncateContext(s string) string {
	if len(s) <= mentionCtxLen {
		return s
	}
	return s[:mentionCtxLen]
}
