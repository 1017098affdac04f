package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/talgya/guildgrid/internal/board"
	"github.com/talgya/guildgrid/internal/progression"
	"github.com/talgya/guildgrid/internal/scoring"
	"github.com/talgya/guildgrid/internal/store"
)

// renewalExtension is how far a renewed deadline-limited task's deadline
// moves forward.
const renewalExtension = 7 * 24 * time.Hour

// Estimate previews the reward for a task shape at every possible rating.
// It runs the same scoring math settlement runs, so the preview can never
// diverge from the settled value.
type Estimate struct {
	BasePoints int                               `json:"base_points"`
	ByRating   map[scoring.Rating]scoring.Reward `json:"by_rating"`
}

// EstimatePoints computes the reward table for a size/complexity/rule shape.
func EstimatePoints(size, complexity int, ruleMultiplier float64) (*Estimate, error) {
	if !scoring.ValidSize(size) {
		return nil, &ValidationError{Reason: fmt.Sprintf("size %d is not on the estimation scale", size)}
	}
	if complexity < scoring.MinComplexity || complexity > scoring.MaxComplexity {
		return nil, &ValidationError{Reason: fmt.Sprintf("complexity %d out of range [%d, %d]",
			complexity, scoring.MinComplexity, scoring.MaxComplexity)}
	}
	base := scoring.BasePoints(size, complexity, ruleMultiplier)
	byRating := make(map[scoring.Rating]scoring.Reward, 4)
	for r := scoring.RatingHarmful; r <= scoring.RatingOutstanding; r++ {
		byRating[r] = scoring.RewardFor(base, r)
	}
	return &Estimate{BasePoints: base, ByRating: byRating}, nil
}

// SettleInput is the supervisor's grading form.
type SettleInput struct {
	Rating        scoring.Rating `json:"rating"`
	Feedback      string         `json:"feedback"`
	EvidenceLink  string         `json:"evidence_link"`
	DeliveryNotes string         `json:"delivery_notes"`
	Reflections   string         `json:"reflections"`
}

// SettlementResult reports what one grading produced.
type SettlementResult struct {
	TaskID      string         `json:"task_id"`
	Rating      scoring.Rating `json:"rating"`
	BasePoints  int            `json:"base_points"`
	FinalPoints int            `json:"final_points"`
	FinalXP     int            `json:"final_xp"`
	FinalCoins  int            `json:"final_coins"`
	// Rewards is what each participant's profile was credited with.
	Rewards map[string]scoring.Reward `json:"rewards"`
	Status  board.Status              `json:"status"`
	// RenewalPending is set when a FIXED task hit its limit and now awaits
	// the renew/finish decision.
	RenewalPending bool `json:"renewal_pending"`
	Sprint         int  `json:"sprint"`
}

// Settle grades a task. The whole operation runs in one transaction:
// the task must sit in REVIEW, the building must have room for the task's
// base value, and on success every participant's profile is credited, one
// history record is appended, and the building's settled-point total grows
// by the final value. FIXED tasks either cycle back to BACKLOG or, once
// their limiter is exhausted, land in DONE awaiting a renewal decision.
func (s *Service) Settle(ctx context.Context, buildingID, taskID string, in SettleInput) (*SettlementResult, error) {
	if !in.Rating.Valid() {
		return nil, &ValidationError{Reason: fmt.Sprintf("rating %d out of range [0, 3]", in.Rating)}
	}

	var result *SettlementResult
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		task, err := store.GetTask(ctx, q, taskID)
		if err != nil {
			return err
		}
		if task == nil || task.BuildingID != buildingID {
			return &NotFoundError{Kind: "task", ID: taskID}
		}
		building, err := store.GetBuilding(ctx, q, task.BuildingID)
		if err != nil {
			return err
		}
		if building == nil {
			return &NotFoundError{Kind: "building", ID: task.BuildingID}
		}
		if task.Status != board.StatusReview {
			return &StateError{TaskID: taskID, Status: task.Status, Reason: "only tasks in REVIEW can be graded"}
		}

		base := task.BasePoints()
		if building.ConcludedPoints+base > building.Capacity() {
			return &CapacityError{
				BuildingID: building.ID,
				Level:      building.Level,
				Capacity:   building.Capacity(),
				Accrued:    building.ConcludedPoints,
				Attempted:  base,
			}
		}

		now := s.now()
		participants := task.EffectiveParticipants()
		rewards := make(map[string]scoring.Reward, len(participants))
		taskPoints := 0
		for _, id := range participants {
			rw := scoring.RewardFor(task.BaseShare(id), in.Rating)
			rewards[id] = rw
			if task.Rule == board.RuleNegotiated {
				// Split tasks settle for the sum of the declared shares.
				taskPoints += rw.Points
			}
		}
		if task.Rule != board.RuleNegotiated {
			// Shared-credit tasks settle once at full value no matter how
			// many people were on them.
			taskPoints = scoring.FinalPoints(base, in.Rating)
		}
		taskXP := taskPoints * scoring.XPPerPoint
		taskCoins := taskPoints

		for _, id := range participants {
			if err := s.creditPlayer(ctx, q, id, rewards[id], in.Rating); err != nil {
				return err
			}
		}

		cycle, _, err := s.currentSprint(ctx, q)
		if err != nil {
			return err
		}
		entry := board.HistoryEntry{
			Timestamp:    now,
			Rating:       in.Rating,
			Points:       taskPoints,
			XP:           taskXP,
			Coins:        taskCoins,
			Participants: participants,
			Feedback:     in.Feedback,
			Sprint:       cycle,
		}
		if err := store.AppendHistory(ctx, q, task.ID, entry); err != nil {
			return err
		}

		renewalPending := false
		if task.Rule == board.RuleFixed && task.Recurrence != nil {
			rec := task.Recurrence
			if rec.Kind == board.LimitQuantity {
				rec.Count++
			}
			if rec.LimitReached(now) {
				renewalPending = true
			}
		}

		if task.Rule == board.RuleFixed && !renewalPending {
			// Cycle back for the next round. The history entry above is the
			// durable record of this cycle; no outcome sticks to the task.
			board.ClearOutcome(task)
			board.Move(task, board.StatusBacklog, sprintLabel(cycle))
		} else {
			task.Outcome = &board.Outcome{
				Rating:        in.Rating,
				Feedback:      in.Feedback,
				FinalPoints:   taskPoints,
				FinalXP:       taskXP,
				FinalCoins:    taskCoins,
				EvidenceLink:  in.EvidenceLink,
				DeliveryNotes: in.DeliveryNotes,
				Reflections:   in.Reflections,
			}
			task.RenewalPending = renewalPending
			board.Move(task, board.StatusDone, sprintLabel(cycle))
		}

		if err := store.UpdateTask(ctx, q, task); err != nil {
			return err
		}
		if err := store.AddConcludedPoints(ctx, q, building.ID, taskPoints); err != nil {
			return err
		}

		result = &SettlementResult{
			TaskID:         task.ID,
			Rating:         in.Rating,
			BasePoints:     base,
			FinalPoints:    taskPoints,
			FinalXP:        taskXP,
			FinalCoins:     taskCoins,
			Rewards:        rewards,
			Status:         task.Status,
			RenewalPending: task.RenewalPending,
			Sprint:         cycle,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("task settled",
		"task", result.TaskID, "rating", int(result.Rating),
		"points", result.FinalPoints, "status", string(result.Status))
	return result, nil
}

// creditPlayer applies one participant's reward to their profile. A
// participant without a stored profile is skipped with a warning rather
// than failing the whole settlement.
func (s *Service) creditPlayer(ctx context.Context, q store.Querier, playerID string, rw scoring.Reward, rating scoring.Rating) error {
	p, err := store.GetPlayer(ctx, q, playerID)
	if err != nil {
		return err
	}
	if p == nil {
		s.log.Warn("participant has no player profile, reward dropped", "player", playerID)
		return nil
	}
	p.Level, p.CurrentXP, p.NextLevelXP = progression.ApplyXP(p.Level, p.CurrentXP, rw.XP)
	p.TotalPoints += rw.Points
	p.Coins += rw.Coins
	p.Reputation = progression.UpdateReputation(p.Reputation, rating)
	if rating >= scoring.RatingBasic {
		p.Streak++
	} else {
		p.Streak = 0
	}
	return store.UpdatePlayerProgress(ctx, q, p)
}

// ResolveRenewal settles the renew/finish decision for a FIXED task whose
// limiter ran out. Renewing resets the quantity count (or pushes the
// deadline out a week) and cycles the task back to BACKLOG with a clean
// outcome; finishing makes DONE terminal. Either way the pending flag
// clears, so grading the task again without a new cycle is impossible.
func (s *Service) ResolveRenewal(ctx context.Context, buildingID, taskID string, renew bool) (*board.Task, error) {
	var out *board.Task
	err := s.store.WithTx(ctx, func(q store.Querier) error {
		task, err := store.GetTask(ctx, q, taskID)
		if err != nil {
			return err
		}
		if task == nil || task.BuildingID != buildingID {
			return &NotFoundError{Kind: "task", ID: taskID}
		}
		if !task.RenewalPending {
			return &StateError{TaskID: taskID, Status: task.Status, Reason: "no renewal decision pending"}
		}

		task.RenewalPending = false
		if renew {
			if rec := task.Recurrence; rec != nil {
				switch rec.Kind {
				case board.LimitQuantity:
					rec.Count = 0
				case board.LimitDeadline:
					rec.Deadline = rec.Deadline.Add(renewalExtension)
				}
			}
			board.ClearOutcome(task)
			cycle, _, err := s.currentSprint(ctx, q)
			if err != nil {
				return err
			}
			board.Move(task, board.StatusBacklog, sprintLabel(cycle))
		}

		if err := store.UpdateTask(ctx, q, task); err != nil {
			return err
		}
		out = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("renewal resolved", "task", taskID, "renewed", renew)
	return out, nil
}
