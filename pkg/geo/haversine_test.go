package geo

import (
	"math"
	"testing"
)

func TestDistanceKmZeroForSamePoint(t *testing.T) {
	p := Point{Latitude: 6.5244, Longitude: 3.3792}
	if got := DistanceKm(p, p); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestDistanceKmIsSymmetric(t *testing.T) {
	lagos := Point{Latitude: 6.5244, Longitude: 3.3792}
	abuja := Point{Latitude: 9.0765, Longitude: 7.3986}
	if DistanceKm(lagos, abuja) != DistanceKm(abuja, lagos) {
		t.Fatalf("distance should not depend on argument order")
	}
}

func TestDistanceKmKnownPair(t *testing.T) {
	lagos := Point{Latitude: 6.5244, Longitude: 3.3792}
	abuja := Point{Latitude: 9.0765, Longitude: 7.3986}

	got := DistanceKm(lagos, abuja)
	// Great-circle distance Lagos to Abuja is roughly 523 km.
	if math.Abs(got-523) > 5 {
		t.Fatalf("unexpected distance %v", got)
	}
}

func TestDistanceKmRoundsToTwoDecimals(t *testing.T) {
	a := Point{Latitude: 6.5244, Longitude: 3.3792}
	b := Point{Latitude: 6.5250, Longitude: 3.3800}
	got := DistanceKm(a, b)
	if got != round2(got) {
		t.Fatalf("expected two-decimal rounding, got %v", got)
	}
	if got <= 0 || got > 1 {
		t.Fatalf("nearby points should be under a kilometre apart, got %v", got)
	}
}
