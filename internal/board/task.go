// Package board holds the Kanban task entity: its status machine, its
// collaboration rule, and its recurrence state. Everything here is pure
// domain data and transitions; persistence and transactions live in the
// engine and store packages.
package board

import (
	"time"

	"github.com/google/uuid"

	"github.com/talgya/guildgrid/internal/scoring"
)

// Status is a Kanban column.
type Status string

const (
	StatusBacklog Status = "BACKLOG"
	StatusTodo    Status = "TODO"
	StatusDoing   Status = "DOING"
	StatusBlocked Status = "BLOCKED"
	StatusReview  Status = "REVIEW"
	StatusDone    Status = "DONE"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{
	StatusBacklog, StatusTodo, StatusDoing,
	StatusBlocked, StatusReview, StatusDone,
}

// Valid reports whether s is a known column.
func (s Status) Valid() bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusDoing, StatusBlocked, StatusReview, StatusDone:
		return true
	default:
		return false
	}
}

// RuleKind is the task collaboration policy.
type RuleKind string

const (
	// RuleIntegrated gives every participant full credit.
	RuleIntegrated RuleKind = "INTEGRATED"
	// RuleNegotiated splits points by an explicit per-participant map.
	RuleNegotiated RuleKind = "NEGOTIATED"
	// RuleFixed is a recurring task template that cycles back to BACKLOG.
	RuleFixed RuleKind = "FIXED"
)

// Valid reports whether k is a known rule kind.
func (k RuleKind) Valid() bool {
	switch k {
	case RuleIntegrated, RuleNegotiated, RuleFixed:
		return true
	default:
		return false
	}
}

// Period tags a deadline-limited recurring task's cadence.
type Period string

const (
	PeriodDaily   Period = "DAILY"
	PeriodWeekly  Period = "WEEKLY"
	PeriodMonthly Period = "MONTHLY"
	PeriodCustom  Period = "CUSTOM"
)

// Valid reports whether p is a known cadence.
func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodCustom:
		return true
	default:
		return false
	}
}

// LimiterKind selects which limiter a FIXED task carries.
type LimiterKind string

const (
	LimitQuantity LimiterKind = "QUANTITY"
	LimitDeadline LimiterKind = "TIME"
)

// Recurrence is the FIXED-task limiter state. Exactly one mode applies:
// quantity (limit + completed-cycle count) or deadline (timestamp + period).
type Recurrence struct {
	Kind     LimiterKind `json:"kind"`
	Limit    int         `json:"limit,omitempty"`    // quantity mode
	Count    int         `json:"count,omitempty"`    // completed cycles
	Deadline time.Time   `json:"deadline,omitzero"`  // deadline mode
	Period   Period      `json:"period,omitempty"`   // deadline mode cadence
}

// LimitReached reports whether the recurrence has exhausted its quota at now.
func (r *Recurrence) LimitReached(now time.Time) bool {
	if r == nil {
		return false
	}
	switch r.Kind {
	case LimitQuantity:
		return r.Count >= r.Limit
	case LimitDeadline:
		return !now.Before(r.Deadline)
	default:
		return false
	}
}

// Outcome holds the ephemeral settlement fields, present only while the task
// sits in DONE and has not been renewed. Cleared as a unit when a FIXED task
// cycles back to BACKLOG so each cycle starts clean.
type Outcome struct {
	Rating        scoring.Rating `json:"rating"`
	Feedback      string         `json:"feedback,omitempty"`
	FinalPoints   int            `json:"final_points"`
	FinalXP       int            `json:"final_xp"`
	FinalCoins    int            `json:"final_coins"`
	EvidenceLink  string         `json:"evidence_link,omitempty"`
	DeliveryNotes string         `json:"delivery_notes,omitempty"`
	Reflections   string         `json:"reflections,omitempty"`
}

// HistoryEntry is the durable record of one settled cycle. For FIXED tasks
// that cycle back to BACKLOG this is the only record of past rewards, so the
// list is append-only and never truncated.
type HistoryEntry struct {
	Timestamp    time.Time      `json:"timestamp"`
	Rating       scoring.Rating `json:"rating"`
	Points       int            `json:"points"`
	XP           int            `json:"xp"`
	Coins        int            `json:"coins"`
	Participants []string       `json:"participants"`
	Feedback     string         `json:"feedback,omitempty"`
	Sprint       int            `json:"sprint"`
}

// Task is one unit of work living inside exactly one building.
type Task struct {
	ID         string    `json:"id"`
	BuildingID string    `json:"building_id"`
	SquadID    string    `json:"squad_id"`
	CreatorID  string    `json:"creator_id"`
	AssigneeID string    `json:"assignee_id,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`

	Status Status `json:"status"`

	Size           int      `json:"size"`
	Complexity     int      `json:"complexity"`
	Rule           RuleKind `json:"rule"`
	RuleMultiplier float64  `json:"rule_multiplier"`

	// Participants always includes the creator. For NEGOTIATED tasks,
	// Distribution maps participant ID → declared point share.
	Participants []string       `json:"participants"`
	Distribution map[string]int `json:"distribution,omitempty"`

	Recurrence *Recurrence `json:"recurrence,omitempty"` // FIXED only
	// RenewalPending marks a FIXED task whose limit was reached at settlement
	// and which awaits the supervisor's renew/finish decision.
	RenewalPending bool `json:"renewal_pending,omitempty"`

	Outcome *Outcome `json:"outcome,omitempty"`

	// SprintHistory is the ordered set of sprint labels during which the task
	// left BACKLOG at least once. Append-only.
	SprintHistory []string       `json:"sprint_history,omitempty"`
	History       []HistoryEntry `json:"history,omitempty"`
}

// New creates a BACKLOG task with the creator enrolled as a participant.
func New(buildingID, squadID, creatorID, content string, size, complexity int, rule RuleKind) *Task {
	return &Task{
		ID:             uuid.NewString(),
		BuildingID:     buildingID,
		SquadID:        squadID,
		CreatorID:      creatorID,
		AssigneeID:     creatorID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
		Status:         StatusBacklog,
		Size:           size,
		Complexity:     complexity,
		Rule:           rule,
		RuleMultiplier: 1,
		Participants:   []string{creatorID},
	}
}

// BasePoints is the task's pre-rating point value.
func (t *Task) BasePoints() int {
	return scoring.BasePoints(t.Size, t.Complexity, t.RuleMultiplier)
}

// EffectiveParticipants returns the participant list, falling back to the
// creator when none were recorded.
func (t *Task) EffectiveParticipants() []string {
	if len(t.Participants) > 0 {
		return t.Participants
	}
	return []string{t.CreatorID}
}

// BaseShare is a participant's pre-rating share. NEGOTIATED tasks read the
// declared distribution (absent entries earn 0); every other rule gives the
// full base value to each participant.
func (t *Task) BaseShare(userID string) int {
	if t.Rule == RuleNegotiated {
		return t.Distribution[userID]
	}
	return t.BasePoints()
}

// DistributionTotal sums the declared NEGOTIATED shares.
func (t *Task) DistributionTotal() int {
	total := 0
	for _, pts := range t.Distribution {
		total += pts
	}
	return total
}

// Terminal reports whether the task can never be settled again.
// DONE is terminal for everything except a FIXED task still awaiting its
// renewal decision.
func (t *Task) Terminal() bool {
	return t.Status == StatusDone && !t.RenewalPending
}
