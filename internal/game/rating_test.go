package game

import "testing"

func TestCalculateRatingEqualEloWin(t *testing.T) {
	p1, p2 := CalculateRating(1000, 0, 1000, 0, 1.0)
	if p1 != 1020 || p2 != 980 {
		t.Errorf("got (%d, %d), want (1020, 980)", p1, p2)
	}
}

func TestCalculateRatingEqualEloDraw(t *testing.T) {
	p1, p2 := CalculateRating(1000, 0, 1000, 0, 0.5)
	if p1 != 1000 || p2 != 1000 {
		t.Errorf("got (%d, %d), want (1000, 1000)", p1, p2)
	}
}

func TestCalculateRatingHigherEloLoses(t *testing.T) {
	p1, p2 := CalculateRating(1400, 50, 1000, 50, 0.0)
	if !(p1 < 1400 && p2 > 1000) {
		t.Errorf("got (%d, %d), expected favorite to lose rating and underdog to gain", p1, p2)
	}
}

func TestCalculateRatingSymmetry(t *testing.T) {
	x, y := CalculateRating(1200, 10, 1500, 60, 1.0)
	y2, x2 := CalculateRating(1500, 60, 1200, 10, 0.0)
	if x != x2 || y != y2 {
		t.Errorf("symmetry broken: (%d,%d) vs swapped (%d,%d)", x, y, x2, y2)
	}
}

func TestCalculateRatingNeverNegative(t *testing.T) {
	p1, p2 := CalculateRating(5, 0, 2000, 0, 0.0)
	if p1 < 0 || p2 < 0 {
		t.Errorf("got (%d, %d), ratings must clamp to >= 0", p1, p2)
	}
}

func TestCalculateRatingHighEloReducedKFactor(t *testing.T) {
	p1, _ := CalculateRating(2500, 200, 1000, 200, 1.0)
	if p1-2500 > 10 {
		t.Errorf("expected K-factor of 10 for high-rated veteran, delta was %d", p1-2500)
	}
}
