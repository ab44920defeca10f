// Package tier classifies seasonal leaderboard standing into reward tiers
// and maintains the "highest tier achieved" ratchet.
//
// Tiers form a fixed ordered set iron < bronze < gold < diamond <
// holographic. Beta is a distinct administrative tier that never
// participates in ordering comparisons: it is granted out of band and is
// never produced by classification.
//
// The ratchet has two regimes. Below the diamond band the highest tier only
// ever rises. Diamond and holographic reflect current standing, not a
// historical peak, so entering that band overwrites the highest tier with
// the current one — including downwards, when a user falls from the top 3
// to the top 10, or out of the top 10 entirely.
package tier

import (
	"sort"

	"github.com/stakecraft/econ-engine/internal/model"
)

// Tier is a discrete reward classification.
type Tier string

const (
	Iron        Tier = "iron"
	Bronze      Tier = "bronze"
	Gold        Tier = "gold"
	Diamond     Tier = "diamond"
	Holographic Tier = "holographic"

	// Beta is excluded from the ordered set; see package doc.
	Beta Tier = "beta"
)

// Classification thresholds.
const (
	holographicMaxRank = 3
	diamondMaxRank     = 10
	goldMinPoints      = 25000
	bronzeMinPoints    = 10000
)

var ordinals = map[Tier]int{
	Iron:        0,
	Bronze:      1,
	Gold:        2,
	Diamond:     3,
	Holographic: 4,
}

// Ordinal returns a tier's position in the ordered set. The second return
// is false for beta and for unknown values, which are not comparable.
func (t Tier) Ordinal() (int, bool) {
	ord, ok := ordinals[t]
	return ord, ok
}

// Valid reports whether t is a known tier, including beta.
func (t Tier) Valid() bool {
	_, ok := ordinals[t]
	return ok || t == Beta
}

// AtLeast reports whether t sits at or above other in the ordered set.
// Always false when either side is not comparable (beta or unknown).
func (t Tier) AtLeast(other Tier) bool {
	a, okA := t.Ordinal()
	b, okB := other.Ordinal()
	return okA && okB && a >= b
}

// Classify maps a leaderboard rank and season score to a tier. Rules are
// evaluated strictly in order, first match wins. Rank is 1-based; a rank
// of 0 means the user is absent from the leaderboard.
func Classify(rank int, points int64) Tier {
	switch {
	case rank >= 1 && rank <= holographicMaxRank:
		return Holographic
	case rank >= 1 && rank <= diamondMaxRank:
		return Diamond
	case points >= goldMinPoints:
		return Gold
	case points >= bronzeMinPoints:
		return Bronze
	default:
		return Iron
	}
}

// Ratchet computes the updated highest-achieved tier and whether the result
// is a newly unlocked tier.
//
// When either the new tier or the previous highest sits in the diamond band
// (diamond or holographic) the highest becomes newTier exactly, regression
// included: the band reflects current standing, and falling out of it drops
// the highest to the current tier, from which normal ratcheting resumes.
// Otherwise the highest is whichever of prev and newTier orders greater,
// ties keeping prev. With no previous value the highest is simply newTier.
//
// isNew is true when there was no previous highest, or when the highest
// strictly rose and newTier is not iron (reaching iron never counts as an
// unlock).
func Ratchet(prev Tier, hasPrev bool, newTier Tier) (highest Tier, isNew bool) {
	if !hasPrev {
		return newTier, true
	}

	newOrd, _ := newTier.Ordinal()
	prevOrd, prevComparable := prev.Ordinal()
	diamondOrd, _ := Diamond.Ordinal()

	if newOrd >= diamondOrd || (prevComparable && prevOrd >= diamondOrd) {
		highest = newTier
	} else if prevComparable && prevOrd >= newOrd {
		highest = prev
	} else {
		highest = newTier
	}

	highOrd, _ := highest.Ordinal()
	isNew = prevComparable && highOrd > prevOrd && newTier != Iron
	return highest, isNew
}

// Assignment pairs a participant with the rank and tier produced by the
// retroactive batch classification.
type Assignment struct {
	UserID string
	Rank   int
	Tier   Tier
}

// AssignRanks runs the one-shot seasonal distribution over a full
// leaderboard: entries are ordered by points descending, rank = position+1,
// and each row is classified by the same rank/score rules. No previous card
// state is consulted; idempotence is the persistence layer's skip-existing
// rule, not this function's concern.
func AssignRanks(entries []model.SeasonLeaderboardEntry) []Assignment {
	sorted := make([]model.SeasonLeaderboardEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Points > sorted[j].Points
	})

	assignments := make([]Assignment, len(sorted))
	for i, e := range sorted {
		rank := i + 1
		assignments[i] = Assignment{
			UserID: e.UserID,
			Rank:   rank,
			Tier:   Classify(rank, e.Points),
		}
	}
	return assignments
}

// RankOf returns the 1-based rank of userID within entries ordered by points
// descending, or 0 if the user is absent.
func RankOf(entries []model.SeasonLeaderboardEntry, userID string) int {
	for _, a := range AssignRanks(entries) {
		if a.UserID == userID {
			return a.Rank
		}
	}
	return 0
}
