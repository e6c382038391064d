package geo

import "testing"

func TestHaversineKm(t *testing.T) {
	// San Francisco to Oakland ~ 13-14 km
	d := HaversineKm(37.7749, -122.4194, 37.8044, -122.2712)
	if d < 10 || d > 18 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestHaversineMSmallDisplacement(t *testing.T) {
	// ~50 m north of the origin point
	d := HaversineM(37.7749, -122.4194, 37.77535, -122.4194)
	if d < 45 || d > 55 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestHaversineZero(t *testing.T) {
	if d := HaversineM(37.7749, -122.4194, 37.7749, -122.4194); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}
