package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOverwriteFields(t *testing.T) {
	t.Parallel()

	s := &AgentState{Query: "old", Response: "old reply"}
	err := Apply(s, Update{
		FieldQuery:    "new",
		FieldResponse: "new reply",
		FieldIntent:   IntentProductSearch,
	})

	require.NoError(t, err)
	assert.Equal(t, "new", s.Query)
	assert.Equal(t, "new reply", s.Response)
	assert.Equal(t, IntentProductSearch, s.Intent)
}

func TestApplyAppendsAgentsUsed(t *testing.T) {
	t.Parallel()

	s := &AgentState{}
	require.NoError(t, Apply(s, Update{FieldAgentsUsed: []string{"memory"}}))
	require.NoError(t, Apply(s, Update{FieldAgentsUsed: []string{"vision", "intent"}}))

	assert.Equal(t, []string{"memory", "vision", "intent"}, s.AgentsUsed)
}

func TestApplyAccumulatesCost(t *testing.T) {
	t.Parallel()

	s := &AgentState{}
	require.NoError(t, Apply(s, Update{FieldCostUSD: 0.002}))
	require.NoError(t, Apply(s, Update{FieldCostUSD: 0.0015}))

	assert.InDelta(t, 0.0035, s.TotalCostUSD, 1e-9)
}

func TestApplyClampsConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "above one", in: 1.3, want: 1.0},
		{name: "below zero", in: -0.2, want: 0.0},
		{name: "in range", in: 0.65, want: 0.65},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := &AgentState{}
			require.NoError(t, Apply(s, Update{FieldIntentConfidence: tc.in}))
			assert.InDelta(t, tc.want, s.IntentConfidence, 1e-9)
		})
	}
}

func TestApplyRejectsUnknownField(t *testing.T) {
	t.Parallel()

	s := &AgentState{Query: "keep"}
	err := Apply(s, Update{Field("history"): "x", FieldQuery: "changed"})

	assert.ErrorContains(t, err, "not mergeable")
	// known fields in the same update still land
	assert.Equal(t, "changed", s.Query)
}

func TestApplyRejectsWrongValueType(t *testing.T) {
	t.Parallel()

	s := &AgentState{}
	err := Apply(s, Update{FieldResponse: 42})

	assert.ErrorContains(t, err, "unexpected value type")
	assert.Empty(t, s.Response)
}

func TestHasOutput(t *testing.T) {
	t.Parallel()

	assert.False(t, (&AgentState{}).HasOutput())
	assert.True(t, (&AgentState{Response: "hi"}).HasOutput())
	assert.True(t, (&AgentState{ShoppingStatus: ShoppingQuestion}).HasOutput())
}

func TestNewAgentStateNormalisesMode(t *testing.T) {
	t.Parallel()

	state := NewAgentState(QueryInput{Query: "q", Mode: Mode("SHOPPING")}, nil)
	assert.Equal(t, ModeShopping, state.Mode)

	state = NewAgentState(QueryInput{Query: "q", Mode: Mode("whatever")}, nil)
	assert.Equal(t, ModeChat, state.Mode)
}
