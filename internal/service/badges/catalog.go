package badges

import (
	"github.com/paddockpicks/paddock/internal/config"
	"github.com/paddockpicks/paddock/internal/models"
)

// DefaultCatalog returns the badges race scoring can grant.
func DefaultCatalog() []models.Badge {
	return []models.Badge{
		{Name: models.BadgePolePosition, Description: "Called pole position", Icon: "stopwatch"},
		{Name: models.BadgeRaceWinner, Description: "Called the race winner", Icon: "checkered_flag"},
		{Name: models.BadgeSecondPlace, Description: "Called second place", Icon: "second_place_medal"},
		{Name: models.BadgeThirdPlace, Description: "Called third place", Icon: "third_place_medal"},
		{Name: models.BadgeFastestLap, Description: "Called the fastest lap", Icon: "zap"},
		{Name: models.BadgeFastestPit, Description: "Called the fastest pit stop", Icon: "wrench"},
		{Name: models.BadgeDNF, Description: "Called the first retirement, or that nobody retired", Icon: "boom"},
		{Name: models.BadgeSafetyCar, Description: "Called whether the safety car came out", Icon: "rotating_light"},
		{Name: models.BadgeMargin, Description: "Called the winning margin", Icon: "straight_ruler"},
		{Name: models.BadgePerfectPodium, Description: "Called the exact podium", Icon: "trophy"},
		{Name: models.BadgeHalfCentury, Description: "Scored at least 50 base points in a race", Icon: "fire"},
		{Name: models.BadgePerfectSlate, Description: "Called every base category of a race", Icon: "star2"},
		{Name: models.BadgeWildcard, Description: "Answered the wildcard question correctly", Icon: "black_joker"},
		{Name: models.BadgeGrandPrix, Description: "Perfect slate plus the wildcard", Icon: "crown"},
	}
}

// CatalogFromConfig merges configured badges over the default catalog by name.
func CatalogFromConfig(cfg []config.BadgeConfig) []models.Badge {
	catalog := DefaultCatalog()
	index := make(map[string]int, len(catalog))
	for i, b := range catalog {
		index[b.Name] = i
	}

	for _, c := range cfg {
		b := models.Badge{Name: c.Name, Description: c.Description, Icon: c.Icon}
		if i, ok := index[c.Name]; ok {
			catalog[i] = b
			continue
		}
		index[c.Name] = len(catalog)
		catalog = append(catalog, b)
	}
	return catalog
}
