package orchestrator

import (
	"github.com/paddockpicks/paddock/internal/models"
	"github.com/paddockpicks/paddock/internal/scoring"
)

var categoryBadges = map[scoring.Category]string{
	scoring.CategoryPole:       models.BadgePolePosition,
	scoring.CategoryWinner:     models.BadgeRaceWinner,
	scoring.CategorySecond:     models.BadgeSecondPlace,
	scoring.CategoryThird:      models.BadgeThirdPlace,
	scoring.CategoryFastestLap: models.BadgeFastestLap,
	scoring.CategoryFastestPit: models.BadgeFastestPit,
	scoring.CategoryDNF:        models.BadgeDNF,
	scoring.CategorySafetyCar:  models.BadgeSafetyCar,
	scoring.CategoryMargin:     models.BadgeMargin,
}

// RaceBadges returns the names of every badge a race score earns: one per
// correct category, then the compound badges.
func RaceBadges(score scoring.RaceScore) []string {
	var names []string
	for _, v := range score.Slate.Categories {
		if !v.Correct {
			continue
		}
		if name, ok := categoryBadges[v.Key]; ok {
			names = append(names, name)
		}
	}

	if score.Slate.PerfectPodium() {
		names = append(names, models.BadgePerfectPodium)
	}
	if score.BaseScore() >= scoring.HalfCenturyThreshold {
		names = append(names, models.BadgeHalfCentury)
	}
	if score.Slate.PerfectSlate() {
		names = append(names, models.BadgePerfectSlate)
	}
	if score.Wildcard.Correct {
		names = append(names, models.BadgeWildcard)
	}
	if score.Slate.PerfectSlate() && score.Wildcard.Correct {
		names = append(names, models.BadgeGrandPrix)
	}
	return names
}
