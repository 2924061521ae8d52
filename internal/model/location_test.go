package model

import (
	"testing"
)

func TestNewLocation(t *testing.T) {
	tests := []struct {
		name  string
		world string
		x     float64
		y     float64
		z     float64
		want  Location
	}{
		{
			name:  "zero values",
			world: "world",
			want:  Location{World: "world"},
		},
		{
			name:  "positive coordinates",
			world: "world",
			x:     100,
			y:     200,
			z:     300,
			want:  Location{World: "world", X: 100, Y: 200, Z: 300},
		},
		{
			name:  "negative coordinates",
			world: "world_nether",
			x:     -100.5,
			y:     -200,
			z:     -300,
			want:  Location{World: "world_nether", X: -100.5, Y: -200, Z: -300},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewLocation(tt.world, tt.x, tt.y, tt.z)
			if got != tt.want {
				t.Errorf("NewLocation() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLocation_WithCoordinates(t *testing.T) {
	orig := NewLocation("world", 1, 2, 3)
	moved := orig.WithCoordinates(10, 20, 30)

	if orig.X != 1 || orig.Y != 2 || orig.Z != 3 {
		t.Errorf("original modified: %+v", orig)
	}
	want := Location{World: "world", X: 10, Y: 20, Z: 30}
	if moved != want {
		t.Errorf("WithCoordinates() = %+v, want %+v", moved, want)
	}
}

func TestLocation_DistanceSquared(t *testing.T) {
	tests := []struct {
		name string
		a, b Location
		want float64
	}{
		{"same point", NewLocation("w", 5, 5, 5), NewLocation("w", 5, 5, 5), 0},
		{"x axis", NewLocation("w", 0, 0, 0), NewLocation("w", 3, 0, 0), 9},
		{"3-4-5", NewLocation("w", 0, 0, 0), NewLocation("w", 3, 4, 0), 25},
		{"all axes", NewLocation("w", 1, 2, 3), NewLocation("w", -1, -2, -3), 56},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.DistanceSquared(tt.b); got != tt.want {
				t.Errorf("DistanceSquared() = %v, want %v", got, tt.want)
			}
			if got := tt.b.DistanceSquared(tt.a); got != tt.want {
				t.Errorf("DistanceSquared() not symmetric: %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocation_SameWorld(t *testing.T) {
	a := NewLocation("world", 0, 0, 0)
	if !a.SameWorld(NewLocation("world", 100, 0, 0)) {
		t.Error("expected same world")
	}
	if a.SameWorld(NewLocation("world_nether", 0, 0, 0)) {
		t.Error("expected different worlds")
	}
}
