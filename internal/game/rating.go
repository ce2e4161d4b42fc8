package game

import "math"

// kFactor returns the K-factor for a side with the given rating and game count.
func kFactor(rating, totalGames int) float64 {
	if totalGames < 30 {
		return 40
	}
	if rating >= 2400 {
		return 10
	}
	return 20
}

func expectedScore(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// roundHalfAwayFromZero matches the reference implementation's rounding mode.
func roundHalfAwayFromZero(v float64) int {
	if v >= 0 {
		return int(math.Floor(v + 0.5))
	}
	return int(math.Ceil(v - 0.5))
}

// CalculateRating computes the post-match ratings for both sides of a match,
// outcome being the player-one perspective result in {0.0, 0.5, 1.0}.
func CalculateRating(p1Rating, p1Games, p2Rating, p2Games int, outcome float64) (int, int) {
	e1 := expectedScore(p1Rating, p2Rating)
	e2 := 1 - e1

	k1 := kFactor(p1Rating, p1Games)
	k2 := kFactor(p2Rating, p2Games)

	newP1 := roundHalfAwayFromZero(float64(p1Rating) + k1*(outcome-e1))
	newP2 := roundHalfAwayFromZero(float64(p2Rating) + k2*((1-outcome)-e2))

	if newP1 < 0 {
		newP1 = 0
	}
	if newP2 < 0 {
		newP2 = 0
	}

	return newP1, newP2
}
