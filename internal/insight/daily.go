package insight

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// DailyEntry is one member's standup answers.
type DailyEntry struct {
	MemberName string `json:"member_name"`
	Role       string `json:"role"`
	Date       string `json:"date"`
	Yesterday  string `json:"yesterday"`
	Today      string `json:"today"`
	Blockers   string `json:"blockers"`
}

// DailyStatus grades a standup entry.
type DailyStatus string

const (
	DailyProductive DailyStatus = "PRODUCTIVE"
	DailySteady     DailyStatus = "STEADY"
	DailyAttention  DailyStatus = "ATTENTION"
)

// DailyAnalysis is the judgment returned for one standup entry.
type DailyAnalysis struct {
	Status           DailyStatus `json:"status"`
	Summary          string      `json:"summary"`
	ConsistencyCheck string      `json:"consistency_check"`
	RiskDetected     bool        `json:"risk_detected"`
	RiskDetails      string      `json:"risk_details"`
	Advice           string      `json:"advice"`
	Tags             []string    `json:"tags"`
}

const dailySystem = `You are a squad coach reviewing a daily standup entry.
Grade it: PRODUCTIVE means clear delivery, solid plan, no critical blockers;
STEADY means normal routine activity; ATTENTION means vague answers, serious
blockers, or signs of disengagement.
Reply with ONLY a valid JSON object, no markdown fences, in this shape:
{"status": "PRODUCTIVE"|"STEADY"|"ATTENTION", "summary": "1-2 sentences",
"consistency_check": "brief coherence note", "risk_detected": bool,
"risk_details": "explanation when risk_detected", "advice": "one practical,
encouraging tip", "tags": ["skill", ...]}`

// AnalyzeDaily judges one standup entry. Falls back to a keyword heuristic
// when the client is disabled or the call fails, so standups always get a
// grade.
func AnalyzeDaily(c *Client, e DailyEntry) DailyAnalysis {
	if !c.Enabled() {
		return heuristicDaily(e)
	}
	prompt := fmt.Sprintf("Member: %s\nRole: %s\nDate: %s\n\n1. Did: %s\n2. Will do: %s\n3. Blockers: %s",
		e.MemberName, e.Role, e.Date, e.Yesterday, e.Today, e.Blockers)
	text, err := c.Complete(dailySystem, prompt, 500)
	if err != nil {
		slog.Warn("daily analysis fell back to heuristic", "member", e.MemberName, "error", err)
		return heuristicDaily(e)
	}
	var out DailyAnalysis
	if err := json.Unmarshal([]byte(cleanJSON(text)), &out); err != nil || !validDailyStatus(out.Status) {
		slog.Warn("daily analysis returned malformed JSON", "member", e.MemberName)
		return heuristicDaily(e)
	}
	return out
}

func validDailyStatus(s DailyStatus) bool {
	return s == DailyProductive || s == DailySteady || s == DailyAttention
}

// heuristicDaily is the deterministic grade: substantial answers with no
// blockers are productive, empty or very thin answers need attention,
// everything else is steady.
func heuristicDaily(e DailyEntry) DailyAnalysis {
	blocked := strings.TrimSpace(e.Blockers) != "" && !isNegation(e.Blockers)
	thin := len(strings.TrimSpace(e.Yesterday)) < 10 || len(strings.TrimSpace(e.Today)) < 10

	out := DailyAnalysis{
		Summary:          fmt.Sprintf("%s reported on past work and a plan for today.", e.MemberName),
		ConsistencyCheck: "not assessed",
		Advice:           "Keep the entries specific: name the deliverable, not the activity.",
		Tags:             []string{},
	}
	switch {
	case thin:
		out.Status = DailyAttention
		out.Summary = fmt.Sprintf("%s's entry is too thin to assess.", e.MemberName)
		out.RiskDetected = true
		out.RiskDetails = "Answers are missing or very short."
	case blocked:
		out.Status = DailyAttention
		out.RiskDetected = true
		out.RiskDetails = "A blocker was reported and needs follow-up."
	default:
		out.Status = DailyProductive
	}
	return out
}

// isNegation catches blocker answers that actually mean "none".
func isNegation(s string) bool {
	switch strings.ToLower(strings.TrimRight(strings.TrimSpace(s), ".!")) {
	case "no", "none", "nothing", "n/a", "na", "-", "no blockers":
		return true
	default:
		return false
	}
}

// cleanJSON strips markdown code fences some models wrap JSON in.
func cleanJSON(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
