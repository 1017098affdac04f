package board

// Move transitions a task between columns. Transitions are free-form
// drag/drop; the settlement-only rules (grading requires REVIEW, renewal
// requires a pending decision) are enforced by the engine, not here.
//
// The first time a task leaves BACKLOG within a sprint, the sprint label is
// stamped onto SprintHistory. The stamp is idempotent: a task bouncing
// BACKLOG→DOING→BACKLOG→DOING in one sprint records the label once.
func Move(t *Task, to Status, sprintLabel string) {
	if t.Status == StatusBacklog && to != StatusBacklog {
		StampSprint(t, sprintLabel)
	}
	t.Status = to
}

// StampSprint appends the sprint label to the task's sprint history unless
// it is already present.
func StampSprint(t *Task, label string) {
	if label == "" {
		return
	}
	for _, s := range t.SprintHistory {
		if s == label {
			return
		}
	}
	t.SprintHistory = append(t.SprintHistory, label)
}

// ClearOutcome drops the ephemeral settlement fields so a new cycle starts
// from a clean slate. Recurrence count/deadline and History are untouched.
func ClearOutcome(t *Task) {
	t.Outcome = nil
}
