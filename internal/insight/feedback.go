package insight

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Relationship tags who the feedback is about, relative to its author.
type Relationship string

const (
	RelationshipSelf Relationship = "SELF"
	RelationshipPeer Relationship = "PEER"
	RelationshipLead Relationship = "LEAD"
)

// FeedbackEntry is one 360-degree review form. Self reviews fill the
// strengths/weaknesses/impact/development block; reviews of others fill the
// four relational questions.
type FeedbackEntry struct {
	Relationship Relationship `json:"relationship"`

	Communication string `json:"communication,omitempty"`
	Empathy       string `json:"empathy,omitempty"`
	Collaboration string `json:"collaboration,omitempty"`
	Conflict      string `json:"conflict,omitempty"`

	Strengths   string `json:"strengths,omitempty"`
	Weaknesses  string `json:"weaknesses,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Development string `json:"development,omitempty"`
}

// RelationshipHealth summarizes where the working relationship stands.
type RelationshipHealth string

const (
	HealthGood      RelationshipHealth = "HEALTHY"
	HealthAtRisk    RelationshipHealth = "AT_RISK"
	HealthNeedsWork RelationshipHealth = "NEEDS_ADJUSTMENT"
)

// FeedbackAnalysis is the judgment returned for one review form.
type FeedbackAnalysis struct {
	EmotionalTone   string             `json:"emotional_tone"`
	SentimentScore  int                `json:"sentiment_score"` // 0-100
	Strengths       []string           `json:"strengths"`
	Gaps            []string           `json:"gaps"`
	Health          RelationshipHealth `json:"health"`
	Recommendations []string           `json:"recommendations"`
}

const feedbackSystem = `You are an organizational psychologist reviewing a
360-degree feedback form. Reply with ONLY a valid JSON object, no markdown
fences, in this shape:
{"emotional_tone": "detected tone, e.g. Constructive", "sentiment_score":
0-100, "strengths": ["..."], "gaps": ["..."], "health":
"HEALTHY"|"AT_RISK"|"NEEDS_ADJUSTMENT", "recommendations": ["..."]}`

// AnalyzeFeedback judges one review form, falling back to a neutral
// deterministic read when the client is disabled or the call fails.
func AnalyzeFeedback(c *Client, e FeedbackEntry) FeedbackAnalysis {
	if !c.Enabled() {
		return heuristicFeedback(e)
	}
	var content string
	if e.Relationship == RelationshipSelf {
		content = fmt.Sprintf("1. Strengths: %s\n2. Areas to improve: %s\n3. Impact: %s\n4. Development plan: %s",
			e.Strengths, e.Weaknesses, e.Impact, e.Development)
	} else {
		content = fmt.Sprintf("1. Communication: %s\n2. Empathy: %s\n3. Collaboration: %s\n4. Conflict handling: %s",
			e.Communication, e.Empathy, e.Collaboration, e.Conflict)
	}
	prompt := fmt.Sprintf("Review type: %s\n%s", e.Relationship, content)

	text, err := c.Complete(feedbackSystem, prompt, 500)
	if err != nil {
		slog.Warn("feedback analysis fell back to heuristic", "error", err)
		return heuristicFeedback(e)
	}
	var out FeedbackAnalysis
	if err := json.Unmarshal([]byte(cleanJSON(text)), &out); err != nil || !validHealth(out.Health) {
		slog.Warn("feedback analysis returned malformed JSON")
		return heuristicFeedback(e)
	}
	return out
}

func validHealth(h RelationshipHealth) bool {
	return h == HealthGood || h == HealthAtRisk || h == HealthNeedsWork
}

// heuristicFeedback is the deterministic read: forms with substance in
// every answered field read as healthy and neutral; mostly empty forms are
// flagged for adjustment since silence is itself a signal.
func heuristicFeedback(e FeedbackEntry) FeedbackAnalysis {
	var fields []string
	if e.Relationship == RelationshipSelf {
		fields = []string{e.Strengths, e.Weaknesses, e.Impact, e.Development}
	} else {
		fields = []string{e.Communication, e.Empathy, e.Collaboration, e.Conflict}
	}
	filled := 0
	for _, f := range fields {
		if len(strings.TrimSpace(f)) >= 10 {
			filled++
		}
	}

	out := FeedbackAnalysis{
		EmotionalTone:   "Neutral",
		SentimentScore:  50,
		Strengths:       []string{},
		Gaps:            []string{},
		Recommendations: []string{"Discuss this review in the next one-on-one."},
	}
	switch {
	case filled == len(fields):
		out.Health = HealthGood
		out.SentimentScore = 60
	case filled >= len(fields)/2:
		out.Health = HealthNeedsWork
		out.Gaps = append(out.Gaps, "Several answers were left empty or very short.")
	default:
		out.Health = HealthAtRisk
		out.SentimentScore = 35
		out.Gaps = append(out.Gaps, "The form is mostly empty; low engagement with the review.")
	}
	return out
}
