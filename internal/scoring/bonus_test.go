package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paddockpicks/paddock/internal/models"
)

func multiQuestion() *models.BonusQuestion {
	return &models.BonusQuestion{
		ID:            10,
		Kind:          models.QuestionKindMulti,
		MaxSelections: 3,
		Points:        20,
		Options:       []models.BonusOption{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}},
	}
}

func singleQuestion() *models.BonusQuestion {
	return &models.BonusQuestion{
		ID:      11,
		Kind:    models.QuestionKindSingle,
		Points:  5,
		Options: []models.BonusOption{{ID: 5}, {ID: 6}},
	}
}

func TestScoreBonusQuestion_MultiSelectExactness(t *testing.T) {
	correct := []uint{1, 2}

	tests := []struct {
		name     string
		selected []uint
		status   BonusStatus
		points   int
	}{
		{"exact set", []uint{1, 2}, BonusCorrect, 20},
		{"exact set reordered", []uint{2, 1}, BonusCorrect, 20},
		{"subset", []uint{1}, BonusIncorrect, 0},
		{"superset", []uint{1, 2, 3}, BonusIncorrect, 0},
		{"disjoint", []uint{3, 4}, BonusIncorrect, 0},
		{"empty", nil, BonusIncorrect, 0},
		{"unknown option dropped", []uint{1, 99, 2}, BonusCorrect, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ScoreBonusQuestion(multiQuestion(), correct, tt.selected)
			assert.Equal(t, tt.status, v.Status)
			assert.Equal(t, tt.points, v.PointsEarned)
		})
	}
}

func TestScoreBonusQuestion_SingleSelect(t *testing.T) {
	q := singleQuestion()

	v := ScoreBonusQuestion(q, []uint{6}, []uint{6})
	assert.Equal(t, BonusCorrect, v.Status)
	assert.Equal(t, 5, v.PointsEarned)

	v = ScoreBonusQuestion(q, []uint{6}, []uint{5})
	assert.Equal(t, BonusIncorrect, v.Status)

	// Extra selections beyond the single allowed one are truncated, first one wins.
	v = ScoreBonusQuestion(q, []uint{6}, []uint{5, 6})
	assert.Equal(t, BonusIncorrect, v.Status)
	assert.Equal(t, []uint{5}, v.Selected)

	v = ScoreBonusQuestion(q, []uint{6}, []uint{6, 5})
	assert.Equal(t, BonusCorrect, v.Status)
}

func TestScoreBonusQuestion_PendingWithoutAnswer(t *testing.T) {
	v := ScoreBonusQuestion(multiQuestion(), nil, []uint{1, 2})
	assert.Equal(t, BonusPending, v.Status)
	assert.Zero(t, v.PointsEarned)
	assert.NotEqual(t, BonusIncorrect, v.Status)
}

func TestSanitizeSelection(t *testing.T) {
	q := multiQuestion()
	q.MaxSelections = 2

	assert.Equal(t, []uint{3, 1}, SanitizeSelection(q, []uint{3, 42, 1, 2}))
	assert.Equal(t, []uint{4, 2}, SanitizeSelection(q, []uint{4, 4, 2}))
	assert.Empty(t, SanitizeSelection(q, []uint{42}))

	q.MaxSelections = 0
	assert.Equal(t, 4, SelectionLimit(q))
	assert.Equal(t, 1, SelectionLimit(singleQuestion()))
}
