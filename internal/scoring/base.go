package scoring

import (
	"strconv"

	"github.com/paddockpicks/paddock/internal/models"
)

// noDNFLabel is the display value for a "no retirements" pick.
const noDNFLabel = "none"

// CategoryVerdict is the scored outcome of one category.
type CategoryVerdict struct {
	Key             Category `json:"key"`
	PredictedValue  string   `json:"predicted_value"`
	ActualValue     string   `json:"actual_value"`
	Correct         bool     `json:"correct"`
	PointsEarned    int      `json:"points_earned"`
	PointsAvailable int      `json:"points_available"`
}

// SlateScore is the base score of one prediction.
type SlateScore struct {
	Categories []CategoryVerdict `json:"categories"`
	Total      int               `json:"total"`
}

// Correct reports whether the given category was predicted correctly.
func (s SlateScore) Correct(c Category) bool {
	for _, v := range s.Categories {
		if v.Key == c {
			return v.Correct
		}
	}
	return false
}

// PerfectPodium reports whether winner, second and third were all correct.
func (s SlateScore) PerfectPodium() bool {
	return s.Correct(CategoryWinner) && s.Correct(CategorySecond) && s.Correct(CategoryThird)
}

// PerfectSlate reports whether every base category was correct.
func (s SlateScore) PerfectSlate() bool {
	return s.Total == MaxBaseScore()
}

// ScoreSlate scores the base categories of a prediction against a result.
// Categories are independent and additive; a missing pick is incorrect.
func ScoreSlate(p *models.RacePrediction, r *models.RaceResult) SlateScore {
	score := SlateScore{Categories: make([]CategoryVerdict, 0, len(BaseRules))}

	for _, rule := range BaseRules {
		v := CategoryVerdict{Key: rule.Category, PointsAvailable: rule.Points}

		switch rule.Category {
		case CategoryPole:
			v.PredictedValue, v.ActualValue, v.Correct = matchID(p.PoleDriverID, r.PoleDriverID)
		case CategoryWinner:
			v.PredictedValue, v.ActualValue, v.Correct = matchID(p.WinnerDriverID, r.WinnerDriverID)
		case CategorySecond:
			v.PredictedValue, v.ActualValue, v.Correct = matchID(p.SecondDriverID, r.SecondDriverID)
		case CategoryThird:
			v.PredictedValue, v.ActualValue, v.Correct = matchID(p.ThirdDriverID, r.ThirdDriverID)
		case CategoryFastestLap:
			v.PredictedValue, v.ActualValue, v.Correct = matchID(p.FastestLapDriverID, r.FastestLapDriverID)
		case CategoryFastestPit:
			v.PredictedValue, v.ActualValue, v.Correct = matchID(p.FastestPitTeamID, r.FastestPitTeamID)
		case CategoryDNF:
			v.PredictedValue, v.ActualValue, v.Correct = matchDNF(p, r)
		case CategorySafetyCar:
			v.PredictedValue, v.ActualValue, v.Correct = matchBool(p.SafetyCar, r.SafetyCar)
		case CategoryMargin:
			v.PredictedValue, v.ActualValue, v.Correct = matchID(p.WinningMargin, r.WinningMargin)
		}

		if v.Correct {
			v.PointsEarned = rule.Points
			score.Total += rule.Points
		}
		score.Categories = append(score.Categories, v)
	}

	return score
}

// WildcardVerdict is the scored outcome of the wildcard question.
type WildcardVerdict struct {
	PredictedValue string `json:"predicted_value"`
	ActualValue    string `json:"actual_value"`
	Correct        bool   `json:"correct"`
	PointsEarned   int    `json:"points_earned"`
}

// ScoreWildcard scores the wildcard answer independently of the base slate.
// A result without a wildcard answer awards nothing.
func ScoreWildcard(p *models.RacePrediction, r *models.RaceResult) WildcardVerdict {
	var v WildcardVerdict
	if p.Wildcard != nil {
		v.PredictedValue = strconv.FormatBool(*p.Wildcard)
	}
	if r.Wildcard == nil {
		return v
	}
	v.ActualValue = strconv.FormatBool(*r.Wildcard)
	if p.Wildcard != nil && *p.Wildcard == *r.Wildcard {
		v.Correct = true
		v.PointsEarned = WildcardPoints
	}
	return v
}

// matchID compares a picked identifier (driver, team or margin bucket) by exact equality.
func matchID(predicted *string, actual string) (string, string, bool) {
	if predicted == nil || *predicted == "" {
		return "", actual, false
	}
	return *predicted, actual, actual != "" && *predicted == actual
}

func matchBool(predicted *bool, actual bool) (string, string, bool) {
	actualStr := strconv.FormatBool(actual)
	if predicted == nil {
		return "", actualStr, false
	}
	return strconv.FormatBool(*predicted), actualStr, *predicted == actual
}

// matchDNF scores the two mutually exclusive DNF branches. A "no DNF" pick
// asserts that nobody retired, so it can never also match a named retirement.
func matchDNF(p *models.RacePrediction, r *models.RaceResult) (string, string, bool) {
	pickedNone := p.NoDNF != nil && *p.NoDNF

	predicted := ""
	switch {
	case pickedNone:
		predicted = noDNFLabel
	case p.FirstDNFDriverID != nil:
		predicted = *p.FirstDNFDriverID
	}

	if r.NoDNF {
		return predicted, noDNFLabel, pickedNone
	}

	actual := ""
	if r.FirstDNFDriverID != nil {
		actual = *r.FirstDNFDriverID
	}
	if pickedNone || p.FirstDNFDriverID == nil || *p.FirstDNFDriverID == "" || actual == "" {
		return predicted, actual, false
	}
	return predicted, actual, *p.FirstDNFDriverID == actual
}

// RaceScore is the full score of one race prediction.
type RaceScore struct {
	Slate    SlateScore      `json:"slate"`
	Wildcard WildcardVerdict `json:"wildcard"`
}

// BaseScore returns the slate total without the wildcard.
func (s RaceScore) BaseScore() int { return s.Slate.Total }

// WildcardScore returns the wildcard points.
func (s RaceScore) WildcardScore() int { return s.Wildcard.PointsEarned }

// Total returns base plus wildcard points.
func (s RaceScore) Total() int { return s.Slate.Total + s.Wildcard.PointsEarned }

// ScoreRace scores the slate and the wildcard of a prediction.
func ScoreRace(p *models.RacePrediction, r *models.RaceResult) RaceScore {
	return RaceScore{Slate: ScoreSlate(p, r), Wildcard: ScoreWildcard(p, r)}
}
