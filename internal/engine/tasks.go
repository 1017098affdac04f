package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/talgya/guildgrid/internal/board"
	"github.com/talgya/guildgrid/internal/scoring"
	"github.com/talgya/guildgrid/internal/store"
	"github.com/talgya/guildgrid/internal/town"
)

// CreateTaskInput is the task creation form.
type CreateTaskInput struct {
	BuildingID   string         `json:"building_id"`
	CreatorID    string         `json:"creator_id"`
	AssigneeID   string         `json:"assignee_id"`
	Content      string         `json:"content"`
	Size         int            `json:"size"`
	Complexity   int            `json:"complexity"`
	Rule         board.RuleKind `json:"rule"`
	Participants []string       `json:"participants"`
	Distribution map[string]int `json:"distribution"`

	// FIXED tasks carry exactly one limiter.
	QuantityLimit int          `json:"quantity_limit"`
	Deadline      time.Time    `json:"deadline"`
	Period        board.Period `json:"period"`
}

func (in *CreateTaskInput) validate() error {
	if in.Content == "" {
		return &ValidationError{Reason: "task content is required"}
	}
	if in.CreatorID == "" {
		return &ValidationError{Reason: "task creator is required"}
	}
	if !scoring.ValidSize(in.Size) {
		return &ValidationError{Reason: fmt.Sprintf("size %d is not on the estimation scale", in.Size)}
	}
	if in.Complexity < scoring.MinComplexity || in.Complexity > scoring.MaxComplexity {
		return &ValidationError{Reason: fmt.Sprintf("complexity %d out of range [%d, %d]",
			in.Complexity, scoring.MinComplexity, scoring.MaxComplexity)}
	}
	if !in.Rule.Valid() {
		return &ValidationError{Reason: fmt.Sprintf("unknown rule %q", in.Rule)}
	}
	hasQuantity := in.QuantityLimit > 0
	hasDeadline := !in.Deadline.IsZero()
	if in.Rule == board.RuleFixed {
		if hasQuantity == hasDeadline {
			return &ValidationError{Reason: "a recurring task needs exactly one limiter: a repeat count or a deadline"}
		}
		if hasDeadline && !in.Period.Valid() {
			return &ValidationError{Reason: fmt.Sprintf("unknown period %q", in.Period)}
		}
	} else if hasQuantity || hasDeadline {
		return &ValidationError{Reason: "only recurring tasks carry a limiter"}
	}
	return nil
}

// CreateTask validates and stores a new BACKLOG task inside a building.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*board.Task, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var task *board.Task
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		building, err := store.GetBuilding(ctx, q, in.BuildingID)
		if err != nil {
			return err
		}
		if building == nil {
			return &NotFoundError{Kind: "building", ID: in.BuildingID}
		}
		switch building.Type {
		case town.TypeResidential, town.TypeDecoration:
			return &ValidationError{Reason: fmt.Sprintf("%s buildings do not hold tasks", building.Type)}
		}

		task = board.New(building.ID, building.SquadID, in.CreatorID, in.Content,
			in.Size, in.Complexity, in.Rule)
		if in.AssigneeID != "" {
			task.AssigneeID = in.AssigneeID
		}
		task.Participants = mergeParticipants(in.CreatorID, in.Participants)

		if in.Rule == board.RuleNegotiated && len(in.Distribution) > 0 {
			if err := checkDistribution(task.Participants, in.Distribution); err != nil {
				return err
			}
			task.Distribution = in.Distribution
		}
		if in.Rule == board.RuleFixed {
			if in.QuantityLimit > 0 {
				task.Recurrence = &board.Recurrence{Kind: board.LimitQuantity, Limit: in.QuantityLimit}
			} else {
				task.Recurrence = &board.Recurrence{
					Kind:     board.LimitDeadline,
					Deadline: in.Deadline.UTC(),
					Period:   in.Period,
				}
			}
		}

		return store.InsertTask(ctx, q, task)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("task created", "task", task.ID, "building", task.BuildingID, "rule", string(task.Rule))
	return task, nil
}

// mergeParticipants returns the creator plus the extra participants, deduped
// in input order.
func mergeParticipants(creatorID string, extra []string) []string {
	out := []string{creatorID}
	seen := map[string]bool{creatorID: true}
	for _, id := range extra {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// checkDistribution ensures every declared share belongs to a participant
// and no share is negative. The sum is checked later, when the task moves
// into REVIEW, because negotiation may continue while the work is in flight.
func checkDistribution(participants []string, dist map[string]int) error {
	onTask := make(map[string]bool, len(participants))
	for _, id := range participants {
		onTask[id] = true
	}
	for id, share := range dist {
		if !onTask[id] {
			return &ValidationError{Reason: fmt.Sprintf("distribution names %s, who is not on the task", id)}
		}
		if share < 0 {
			return &ValidationError{Reason: fmt.Sprintf("negative share for %s", id)}
		}
	}
	return nil
}

// UpdateTaskInput carries the editable task fields. Nil pointers leave a
// field unchanged.
type UpdateTaskInput struct {
	Content      *string         `json:"content"`
	AssigneeID   *string         `json:"assignee_id"`
	Size         *int            `json:"size"`
	Complexity   *int            `json:"complexity"`
	Participants []string        `json:"participants"`
	Distribution *map[string]int `json:"distribution"`
}

// UpdateTask edits a task's content, estimation, or crew. Settled tasks and
// tasks awaiting a renewal decision are frozen.
func (s *Service) UpdateTask(ctx context.Context, buildingID, taskID string, in UpdateTaskInput) (*board.Task, error) {
	var task *board.Task
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		var err error
		task, err = store.GetTask(ctx, q, taskID)
		if err != nil {
			return err
		}
		if task == nil || task.BuildingID != buildingID {
			return &NotFoundError{Kind: "task", ID: taskID}
		}
		if task.Status == board.StatusDone {
			return &StateError{TaskID: taskID, Status: task.Status, Reason: "settled tasks cannot be edited"}
		}

		if in.Content != nil {
			if *in.Content == "" {
				return &ValidationError{Reason: "task content is required"}
			}
			task.Content = *in.Content
		}
		if in.AssigneeID != nil {
			task.AssigneeID = *in.AssigneeID
		}
		if in.Size != nil {
			if !scoring.ValidSize(*in.Size) {
				return &ValidationError{Reason: fmt.Sprintf("size %d is not on the estimation scale", *in.Size)}
			}
			task.Size = *in.Size
		}
		if in.Complexity != nil {
			if *in.Complexity < scoring.MinComplexity || *in.Complexity > scoring.MaxComplexity {
				return &ValidationError{Reason: fmt.Sprintf("complexity %d out of range [%d, %d]",
					*in.Complexity, scoring.MinComplexity, scoring.MaxComplexity)}
			}
			task.Complexity = *in.Complexity
		}
		if in.Participants != nil {
			task.Participants = mergeParticipants(task.CreatorID, in.Participants)
		}
		if in.Distribution != nil {
			if task.Rule != board.RuleNegotiated {
				return &ValidationError{Reason: "only split-credit tasks carry a distribution"}
			}
			if err := checkDistribution(task.Participants, *in.Distribution); err != nil {
				return err
			}
			task.Distribution = *in.Distribution
		}

		return store.UpdateTask(ctx, q, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// MoveTask drags a task to another column. Transitions are free-form with
// two exceptions: a task awaiting a renewal decision is pinned until the
// decision lands, and a finished task never leaves DONE (its points are
// already in the building's settled total). A split-credit task may enter
// REVIEW only once its declared shares sum to the task's base value.
func (s *Service) MoveTask(ctx context.Context, buildingID, taskID string, to board.Status) (*board.Task, error) {
	if !to.Valid() {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown status %q", to)}
	}

	var task *board.Task
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		var err error
		task, err = store.GetTask(ctx, q, taskID)
		if err != nil {
			return err
		}
		if task == nil || task.BuildingID != buildingID {
			return &NotFoundError{Kind: "task", ID: taskID}
		}
		if task.RenewalPending {
			return &StateError{TaskID: taskID, Status: task.Status, Reason: "resolve the renewal decision first"}
		}
		if task.Terminal() {
			return &StateError{TaskID: taskID, Status: task.Status, Reason: "finished tasks cannot move"}
		}
		if to == board.StatusDone {
			return &StateError{TaskID: taskID, Status: task.Status, Reason: "tasks reach DONE through grading, not drag"}
		}
		if to == board.StatusReview && task.Rule == board.RuleNegotiated {
			if total, base := task.DistributionTotal(), task.BasePoints(); total != base {
				return &ValidationError{Reason: fmt.Sprintf(
					"declared shares sum to %d but the task is worth %d", total, base)}
			}
		}

		cycle, _, err := s.currentSprint(ctx, q)
		if err != nil {
			return err
		}
		board.Move(task, to, sprintLabel(cycle))
		return store.UpdateTask(ctx, q, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task and its history. Supervisor-only at the API
// boundary; settled points already credited to players and buildings stay.
func (s *Service) DeleteTask(ctx context.Context, buildingID, taskID string) error {
	return s.store.WithTx(ctx, func(q store.Querier) error {
		task, err := store.GetTask(ctx, q, taskID)
		if err != nil {
			return err
		}
		if task == nil || task.BuildingID != buildingID {
			return &NotFoundError{Kind: "task", ID: taskID}
		}
		return store.DeleteTask(ctx, q, taskID)
	})
}

// Task loads one task with its settlement history attached.
func (s *Service) Task(ctx context.Context, buildingID, taskID string) (*board.Task, error) {
	task, err := store.GetTask(ctx, s.store.DB(), taskID)
	if err != nil {
		return nil, err
	}
	if task == nil || task.BuildingID != buildingID {
		return nil, &NotFoundError{Kind: "task", ID: taskID}
	}
	task.History, err = store.HistoryByTask(ctx, s.store.DB(), taskID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Board returns a building's tasks grouped by column.
func (s *Service) Board(ctx context.Context, buildingID string) (map[board.Status][]*board.Task, error) {
	building, err := store.GetBuilding(ctx, s.store.DB(), buildingID)
	if err != nil {
		return nil, err
	}
	if building == nil {
		return nil, &NotFoundError{Kind: "building", ID: buildingID}
	}
	tasks, err := store.TasksByBuilding(ctx, s.store.DB(), buildingID)
	if err != nil {
		return nil, err
	}
	columns := make(map[board.Status][]*board.Task, len(board.Statuses))
	for _, st := range board.Statuses {
		columns[st] = []*board.Task{}
	}
	for _, t := range tasks {
		columns[t.Status] = append(columns[t.Status], t)
	}
	return columns, nil
}
