package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmind-poc/server/internal/agent/model"
)

func mentionNames(mentions []model.ProductMention) []string {
	names := make([]string, 0, len(mentions))
	for _, m := range mentions {
		names = append(names, m.Name)
	}
	return names
}

func TestExtractProductMentionsFromBold(t *testing.T) {
	t.Parallel()

	text := "I'd suggest the **Featherbook Pro 16** for editing, or the **Swiftbook 15 Gaming** if you game too."
	got := ExtractProductMentions(text)

	assert.Equal(t, []string{"Featherbook Pro 16", "Swiftbook 15 Gaming"}, mentionNames(got))
	assert.Contains(t, got[0].Context, "I'd suggest")
}

func TestExtractProductMentionsFromListItems(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"Here are some options:",
		"- Featherbook Air 13: light and quiet",
		"* Nimbus Pad 12.9 - great stylus support",
		"1. QuietTone XM5 (noise cancelling)",
		"2) EchoBuds Mini",
	}, "\n")
	got := ExtractProductMentions(text)

	assert.Equal(t,
		[]string{"Featherbook Air 13", "Nimbus Pad 12.9", "QuietTone XM5", "EchoBuds Mini"},
		mentionNames(got))
}

func TestExtractProductMentionsDeduplicatesCaseInsensitive(t *testing.T) {
	t.Parallel()

	text := "The **Aurora X1 Pro** is great. Yes, the **aurora x1 pro** again."
	got := ExtractProductMentions(text)

	require.Len(t, got, 1)
	assert.Equal(t, "Aurora X1 Pro", got[0].Name)
}

func TestExtractProductMentionsRejectsJunkNames(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"- ok",                                   // too short
		"- " + strings.Repeat("n", 90) + ": ...", // too long
		"- (parenthetical aside)",                // doesn't start with letter/digit
		"- Valid Product Name: fine",
	}, "\n")
	got := ExtractProductMentions(text)

	assert.Equal(t, []string{"Valid Product Name"}, mentionNames(got))
}

func TestExtractProductMentionsCapped(t *testing.T) {
	t.Parallel()

	var lines []string
	for _, suffix := range []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten"} {
		lines = append(lines, "- Gadget "+suffix+": description")
	}
	got := ExtractProductMentions(strings.Join(lines, "\n"))

	assert.Len(t, got, 8)
}

func TestExtractProductMentionsEmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ExtractProductMentions(""))
	assert.Empty(t, ExtractProductMentions("plain prose with no structure at all"))
}
