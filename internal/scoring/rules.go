// Package scoring holds the pure scoring rules: race slate categories, bonus
// questions, submission deduplication and per-item outcome records.
// Nothing in this package touches storage.
package scoring

// Category identifies one scored dimension of a race prediction.
type Category string

// Race slate categories.
const (
	CategoryPole       Category = "pole"
	CategoryWinner     Category = "winner"
	CategorySecond     Category = "second"
	CategoryThird      Category = "third"
	CategoryFastestLap Category = "fastest_lap"
	CategoryFastestPit Category = "fastest_pit"
	CategoryDNF        Category = "dnf"
	CategorySafetyCar  Category = "safety_car"
	CategoryMargin     Category = "margin"
)

// Rule maps a category to the points it is worth.
type Rule struct {
	Category Category
	Points   int
}

// BaseRules is the core slate, in display order. The points sum to MaxBaseScore.
var BaseRules = []Rule{
	{Category: CategoryPole, Points: 15},
	{Category: CategoryWinner, Points: 15},
	{Category: CategorySecond, Points: 10},
	{Category: CategoryThird, Points: 10},
	{Category: CategoryFastestLap, Points: 10},
	{Category: CategoryFastestPit, Points: 10},
	{Category: CategoryDNF, Points: 10},
	{Category: CategorySafetyCar, Points: 10},
	{Category: CategoryMargin, Points: 10},
}

// WildcardPoints is awarded on top of the base slate for a correct wildcard answer.
const WildcardPoints = 10

// HalfCenturyThreshold is the base score from which the "Half Century" badge is earned.
const HalfCenturyThreshold = 50

// MaxBaseScore returns the sum of all base rule points.
func MaxBaseScore() int {
	total := 0
	for _, r := range BaseRules {
		total += r.Points
	}
	return total
}

// PointsFor returns the points available for a category, 0 if unknown.
func PointsFor(c Category) int {
	for _, r := range BaseRules {
		if r.Category == c {
			return r.Points
		}
	}
	return 0
}

// MarginBuckets are the winning-margin buckets offered to players.
var MarginBuckets = []string{"0-5s", "5-10s", "10-20s", "20s+"}
