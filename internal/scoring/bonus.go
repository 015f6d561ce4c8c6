package scoring

import (
	"github.com/paddockpicks/paddock/internal/models"
)

// BonusStatus is the scored state of one bonus question response.
type BonusStatus string

// BonusStatus constants. Pending means the question has no answer configured yet.
const (
	BonusCorrect   BonusStatus = "correct"
	BonusIncorrect BonusStatus = "incorrect"
	BonusPending   BonusStatus = "pending"
)

// BonusVerdict is the outcome of scoring one response.
type BonusVerdict struct {
	QuestionID   uint        `json:"question_id"`
	Status       BonusStatus `json:"status"`
	PointsEarned int         `json:"points_earned"`
	Selected     []uint      `json:"selected"`
}

// SelectionLimit returns how many options a response to q may keep.
func SelectionLimit(q *models.BonusQuestion) int {
	if q.Kind != models.QuestionKindMulti {
		return 1
	}
	if q.MaxSelections > 0 {
		return q.MaxSelections
	}
	return len(q.Options)
}

// SanitizeSelection drops option ids that do not belong to q, collapses repeats
// and truncates to the question's selection limit, keeping submission order.
func SanitizeSelection(q *models.BonusQuestion, selected []uint) []uint {
	known := make(map[uint]struct{}, len(q.Options))
	for _, o := range q.Options {
		known[o.ID] = struct{}{}
	}

	limit := SelectionLimit(q)
	seen := make(map[uint]struct{}, len(selected))
	clean := make([]uint, 0, len(selected))
	for _, id := range selected {
		if len(clean) >= limit {
			break
		}
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		clean = append(clean, id)
	}
	return clean
}

// ScoreBonusQuestion scores a user's selection against the configured correct set.
// Single-select needs the one selected option to equal the one correct option;
// multi-select needs exact set equality. There is no partial credit.
func ScoreBonusQuestion(q *models.BonusQuestion, correct, selected []uint) BonusVerdict {
	v := BonusVerdict{QuestionID: q.ID, Selected: SanitizeSelection(q, selected)}

	if len(correct) == 0 {
		v.Status = BonusPending
		return v
	}

	v.Status = BonusIncorrect
	if sameSet(v.Selected, correct) && (q.Kind == models.QuestionKindMulti || len(v.Selected) == 1) {
		v.Status = BonusCorrect
		v.PointsEarned = q.Points
	}
	return v
}

func sameSet(a, b []uint) bool {
	left := make(map[uint]struct{}, len(a))
	for _, id := range a {
		left[id] = struct{}{}
	}
	right := make(map[uint]struct{}, len(b))
	for _, id := range b {
		right[id] = struct{}{}
	}
	if len(left) != len(right) {
		return false
	}
	for id := range right {
		if _, ok := left[id]; !ok {
			return false
		}
	}
	return true
}
