package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicDaily(t *testing.T) {
	entry := DailyEntry{
		MemberName: "Ana",
		Yesterday:  "Shipped the onboarding flow and fixed two review findings.",
		Today:      "Start the billing integration spike.",
		Blockers:   "None",
	}
	out := AnalyzeDaily(nil, entry)
	assert.Equal(t, DailyProductive, out.Status)
	assert.False(t, out.RiskDetected)

	entry.Blockers = "Waiting on credentials from IT since Monday."
	out = AnalyzeDaily(nil, entry)
	assert.Equal(t, DailyAttention, out.Status)
	assert.True(t, out.RiskDetected)

	thin := DailyEntry{MemberName: "Bruno", Yesterday: "stuff", Today: "more"}
	out = AnalyzeDaily(nil, thin)
	assert.Equal(t, DailyAttention, out.Status)
	assert.True(t, out.RiskDetected)
}

func TestIsNegation(t *testing.T) {
	assert.True(t, isNegation("none"))
	assert.True(t, isNegation(" No. "))
	assert.True(t, isNegation("n/a"))
	assert.False(t, isNegation("no access to staging"))
}

func TestHeuristicFeedback(t *testing.T) {
	full := FeedbackEntry{
		Relationship:  RelationshipPeer,
		Communication: "Very clear in standups and writes good summaries.",
		Empathy:       "Checks in when someone is stuck, patient with juniors.",
		Collaboration: "Pairs often and shares context proactively.",
		Conflict:      "Raises disagreements early and keeps them technical.",
	}
	out := AnalyzeFeedback(nil, full)
	assert.Equal(t, HealthGood, out.Health)

	sparse := FeedbackEntry{Relationship: RelationshipPeer, Communication: "fine"}
	out = AnalyzeFeedback(nil, sparse)
	assert.Equal(t, HealthAtRisk, out.Health)
}

func TestHeuristicFeedbackSelfForm(t *testing.T) {
	self := FeedbackEntry{
		Relationship: RelationshipSelf,
		Strengths:    "Backend design and debugging under pressure.",
		Weaknesses:   "I postpone writing documentation.",
		Impact:       "Owned the payment migration end to end.",
		Development:  "Want to practice leading incident reviews.",
	}
	out := AnalyzeFeedback(nil, self)
	assert.Equal(t, HealthGood, out.Health)
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON(` {"a":1} `))
}

func TestDisabledClient(t *testing.T) {
	assert.Nil(t, NewClient(""))
	var c *Client
	assert.False(t, c.Enabled())
}
