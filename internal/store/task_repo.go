package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/talgya/guildgrid/internal/board"
	"github.com/talgya/guildgrid/internal/scoring"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// taskRow is the flat SQL shape of a board.Task.
type taskRow struct {
	ID             string     `db:"id"`
	BuildingID     string     `db:"building_id"`
	SquadID        string     `db:"squad_id"`
	CreatorID      string     `db:"creator_id"`
	AssigneeID     *string    `db:"assignee_id"`
	Content        string     `db:"content"`
	CreatedAt      time.Time  `db:"created_at"`
	Status         string     `db:"status"`
	Size           int        `db:"size"`
	Complexity     int        `db:"complexity"`
	Rule           string     `db:"rule"`
	RuleMultiplier float64    `db:"rule_multiplier"`
	Participants   string     `db:"participants_json"`
	Distribution   *string    `db:"distribution_json"`
	LimiterKind    *string    `db:"limiter_kind"`
	QuantityLimit  *int       `db:"quantity_limit"`
	QuantityCount  *int       `db:"quantity_count"`
	Deadline       *time.Time `db:"deadline"`
	Period         *string    `db:"period"`
	RenewalPending bool       `db:"renewal_pending"`
	Rating         *int       `db:"rating"`
	Feedback       *string    `db:"feedback"`
	FinalPoints    *int       `db:"final_points"`
	FinalXP        *int       `db:"final_xp"`
	FinalCoins     *int       `db:"final_coins"`
	EvidenceLink   *string    `db:"evidence_link"`
	DeliveryNotes  *string    `db:"delivery_notes"`
	Reflections    *string    `db:"reflections"`
	SprintHistory  string     `db:"sprint_history_json"`
}

const taskColumns = `id, building_id, squad_id, creator_id, assignee_id, content, created_at,
	status, size, complexity, rule, rule_multiplier, participants_json, distribution_json,
	limiter_kind, quantity_limit, quantity_count, deadline, period, renewal_pending,
	rating, feedback, final_points, final_xp, final_coins,
	evidence_link, delivery_notes, reflections, sprint_history_json`

func (r *taskRow) toTask() (*board.Task, error) {
	t := &board.Task{
		ID:             r.ID,
		BuildingID:     r.BuildingID,
		SquadID:        r.SquadID,
		CreatorID:      r.CreatorID,
		Content:        r.Content,
		CreatedAt:      r.CreatedAt,
		Status:         board.Status(r.Status),
		Size:           r.Size,
		Complexity:     r.Complexity,
		Rule:           board.RuleKind(r.Rule),
		RuleMultiplier: r.RuleMultiplier,
		RenewalPending: r.RenewalPending,
	}
	if r.AssigneeID != nil {
		t.AssigneeID = *r.AssigneeID
	}
	if err := json.Unmarshal([]byte(r.Participants), &t.Participants); err != nil {
		return nil, fmt.Errorf("task %s participants: %w", r.ID, err)
	}
	if r.Distribution != nil && *r.Distribution != "" {
		if err := json.Unmarshal([]byte(*r.Distribution), &t.Distribution); err != nil {
			return nil, fmt.Errorf("task %s distribution: %w", r.ID, err)
		}
	}
	if err := json.Unmarshal([]byte(r.SprintHistory), &t.SprintHistory); err != nil {
		return nil, fmt.Errorf("task %s sprint history: %w", r.ID, err)
	}

	if r.LimiterKind != nil {
		rec := &board.Recurrence{Kind: board.LimiterKind(*r.LimiterKind)}
		if r.QuantityLimit != nil {
			rec.Limit = *r.QuantityLimit
		}
		if r.QuantityCount != nil {
			rec.Count = *r.QuantityCount
		}
		if r.Deadline != nil {
			rec.Deadline = *r.Deadline
		}
		if r.Period != nil {
			rec.Period = board.Period(*r.Period)
		}
		t.Recurrence = rec
	}

	if r.FinalPoints != nil {
		out := &board.Outcome{
			FinalPoints: *r.FinalPoints,
		}
		if r.Rating != nil {
			out.Rating = scoring.Rating(*r.Rating)
		}
		if r.Feedback != nil {
			out.Feedback = *r.Feedback
		}
		if r.FinalXP != nil {
			out.FinalXP = *r.FinalXP
		}
		if r.FinalCoins != nil {
			out.FinalCoins = *r.FinalCoins
		}
		if r.EvidenceLink != nil {
			out.EvidenceLink = *r.EvidenceLink
		}
		if r.DeliveryNotes != nil {
			out.DeliveryNotes = *r.DeliveryNotes
		}
		if r.Reflections != nil {
			out.Reflections = *r.Reflections
		}
		t.Outcome = out
	}

	return t, nil
}

func fromTask(t *board.Task) (*taskRow, error) {
	participants, err := json.Marshal(t.EffectiveParticipants())
	if err != nil {
		return nil, fmt.Errorf("marshal participants: %w", err)
	}
	sprints := t.SprintHistory
	if sprints == nil {
		sprints = []string{}
	}
	sprintJSON, err := json.Marshal(sprints)
	if err != nil {
		return nil, fmt.Errorf("marshal sprint history: %w", err)
	}

	r := &taskRow{
		ID:             t.ID,
		BuildingID:     t.BuildingID,
		SquadID:        t.SquadID,
		CreatorID:      t.CreatorID,
		Content:        t.Content,
		CreatedAt:      t.CreatedAt,
		Status:         string(t.Status),
		Size:           t.Size,
		Complexity:     t.Complexity,
		Rule:           string(t.Rule),
		RuleMultiplier: t.RuleMultiplier,
		Participants:   string(participants),
		RenewalPending: t.RenewalPending,
		SprintHistory:  string(sprintJSON),
	}
	if t.AssigneeID != "" {
		r.AssigneeID = &t.AssigneeID
	}
	if len(t.Distribution) > 0 {
		data, err := json.Marshal(t.Distribution)
		if err != nil {
			return nil, fmt.Errorf("marshal distribution: %w", err)
		}
		s := string(data)
		r.Distribution = &s
	}
	if rec := t.Recurrence; rec != nil {
		kind := string(rec.Kind)
		r.LimiterKind = &kind
		switch rec.Kind {
		case board.LimitQuantity:
			limit, count := rec.Limit, rec.Count
			r.QuantityLimit = &limit
			r.QuantityCount = &count
		case board.LimitDeadline:
			deadline := rec.Deadline
			period := string(rec.Period)
			r.Deadline = &deadline
			r.Period = &period
		}
	}
	if out := t.Outcome; out != nil {
		rating := int(out.Rating)
		r.Rating = &rating
		r.FinalPoints = &out.FinalPoints
		r.FinalXP = &out.FinalXP
		r.FinalCoins = &out.FinalCoins
		if out.Feedback != "" {
			r.Feedback = &out.Feedback
		}
		if out.EvidenceLink != "" {
			r.EvidenceLink = &out.EvidenceLink
		}
		if out.DeliveryNotes != "" {
			r.DeliveryNotes = &out.DeliveryNotes
		}
		if out.Reflections != "" {
			r.Reflections = &out.Reflections
		}
	}
	return r, nil
}

// InsertTask writes a new task.
func InsertTask(ctx context.Context, q Querier, t *board.Task) error {
	r, err := fromTask(t)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.BuildingID, r.SquadID, r.CreatorID, r.AssigneeID, r.Content, r.CreatedAt,
		r.Status, r.Size, r.Complexity, r.Rule, r.RuleMultiplier, r.Participants, r.Distribution,
		r.LimiterKind, r.QuantityLimit, r.QuantityCount, r.Deadline, r.Period, r.RenewalPending,
		r.Rating, r.Feedback, r.FinalPoints, r.FinalXP, r.FinalCoins,
		r.EvidenceLink, r.DeliveryNotes, r.Reflections, r.SprintHistory,
	)
	if err != nil {
		return fmt.Errorf("insert task %s: %w", t.ID, err)
	}
	return nil
}

// UpdateTask rewrites every mutable column of an existing task.
func UpdateTask(ctx context.Context, q Querier, t *board.Task) error {
	r, err := fromTask(t)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `UPDATE tasks SET
		building_id = ?, squad_id = ?, assignee_id = ?, content = ?, status = ?,
		size = ?, complexity = ?, rule = ?, rule_multiplier = ?,
		participants_json = ?, distribution_json = ?,
		limiter_kind = ?, quantity_limit = ?, quantity_count = ?, deadline = ?, period = ?,
		renewal_pending = ?, rating = ?, feedback = ?,
		final_points = ?, final_xp = ?, final_coins = ?,
		evidence_link = ?, delivery_notes = ?, reflections = ?, sprint_history_json = ?
		WHERE id = ?`,
		r.BuildingID, r.SquadID, r.AssigneeID, r.Content, r.Status,
		r.Size, r.Complexity, r.Rule, r.RuleMultiplier,
		r.Participants, r.Distribution,
		r.LimiterKind, r.QuantityLimit, r.QuantityCount, r.Deadline, r.Period,
		r.RenewalPending, r.Rating, r.Feedback,
		r.FinalPoints, r.FinalXP, r.FinalCoins,
		r.EvidenceLink, r.DeliveryNotes, r.Reflections, r.SprintHistory,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update task %s: no such task", t.ID)
	}
	return nil
}

// GetTask loads a task by id; nil when absent.
func GetTask(ctx context.Context, q Querier, id string) (*board.Task, error) {
	var r taskRow
	err := q.GetContext(ctx, &r, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return r.toTask()
}

func selectTasks(ctx context.Context, q Querier, query string, args ...any) ([]*board.Task, error) {
	var rows []taskRow
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	out := make([]*board.Task, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toTask()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// TasksByBuilding lists a building's tasks in creation order.
func TasksByBuilding(ctx context.Context, q Querier, buildingID string) ([]*board.Task, error) {
	return selectTasks(ctx, q,
		`SELECT `+taskColumns+` FROM tasks WHERE building_id = ? ORDER BY created_at, id`, buildingID)
}

// TasksBySquad lists every task tagged with the squad across all buildings.
func TasksBySquad(ctx context.Context, q Querier, squadID string) ([]*board.Task, error) {
	return selectTasks(ctx, q,
		`SELECT `+taskColumns+` FROM tasks WHERE squad_id = ? ORDER BY created_at, id`, squadID)
}

// AllTasks lists every task. Individual-scope roll-ups filter in memory
// because participation lives inside a JSON column.
func AllTasks(ctx context.Context, q Querier) ([]*board.Task, error) {
	return selectTasks(ctx, q,
		`SELECT `+taskColumns+` FROM tasks ORDER BY created_at, id`)
}

// DeleteTask removes a task and its history.
func DeleteTask(ctx context.Context, q Querier, id string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM task_history WHERE task_id = ?", id); err != nil {
		return fmt.Errorf("delete task history %s: %w", id, err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// historyRow is the SQL shape of a board.HistoryEntry.
type historyRow struct {
	TaskID       string    `db:"task_id"`
	TS           time.Time `db:"ts"`
	Rating       int       `db:"rating"`
	Points       int       `db:"points"`
	XP           int       `db:"xp"`
	Coins        int       `db:"coins"`
	Participants string    `db:"participants_json"`
	Feedback     *string   `db:"feedback"`
	Sprint       int       `db:"sprint"`
}

// AppendHistory appends one settlement record for a task. The AUTOINCREMENT
// id keeps replay order identical to settlement order.
func AppendHistory(ctx context.Context, q Querier, taskID string, e board.HistoryEntry) error {
	participants, err := json.Marshal(e.Participants)
	if err != nil {
		return fmt.Errorf("marshal history participants: %w", err)
	}
	var feedback *string
	if e.Feedback != "" {
		feedback = &e.Feedback
	}
	_, err = q.ExecContext(ctx, `INSERT INTO task_history
		(task_id, ts, rating, points, xp, coins, participants_json, feedback, sprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		taskID, e.Timestamp, int(e.Rating), e.Points, e.XP, e.Coins,
		string(participants), feedback, e.Sprint,
	)
	if err != nil {
		return fmt.Errorf("append history for task %s: %w", taskID, err)
	}
	return nil
}

// HistoryByTask returns a task's settlement records, oldest first.
func HistoryByTask(ctx context.Context, q Querier, taskID string) ([]board.HistoryEntry, error) {
	var rows []historyRow
	err := q.SelectContext(ctx, &rows, `SELECT task_id, ts, rating, points, xp, coins,
		participants_json, feedback, sprint
		FROM task_history WHERE task_id = ? ORDER BY id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("history for task %s: %w", taskID, err)
	}
	out := make([]board.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		e := board.HistoryEntry{
			Timestamp: r.TS,
			Rating:    scoring.Rating(r.Rating),
			Points:    r.Points,
			XP:        r.XP,
			Coins:     r.Coins,
			Sprint:    r.Sprint,
		}
		if r.Feedback != nil {
			e.Feedback = *r.Feedback
		}
		if err := json.Unmarshal([]byte(r.Participants), &e.Participants); err != nil {
			return nil, fmt.Errorf("history participants for task %s: %w", taskID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// HistoryTotals sums recorded points and XP for one task across all cycles.
func HistoryTotals(ctx context.Context, q Querier, taskID string) (points, xp int, err error) {
	var totals struct {
		Points int `db:"points"`
		XP     int `db:"xp"`
	}
	err = q.GetContext(ctx, &totals, `SELECT COALESCE(SUM(points), 0) AS points,
		COALESCE(SUM(xp), 0) AS xp FROM task_history WHERE task_id = ?`, taskID)
	if err != nil {
		return 0, 0, fmt.Errorf("history totals for task %s: %w", taskID, err)
	}
	return totals.Points, totals.XP, nil
}
