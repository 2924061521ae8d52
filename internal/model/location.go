package model

import "fmt"

// Location представляет координаты в игровом мире.
// Value type, передаётся по значению (immutable).
type Location struct {
	World string  `json:"world"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
}

// NewLocation создаёт Location с указанными координатами.
func NewLocation(world string, x, y, z float64) Location {
	return Location{World: world, X: x, Y: y, Z: z}
}

// WithCoordinates возвращает новый Location с обновлёнными координатами (immutable pattern).
func (l Location) WithCoordinates(x, y, z float64) Location {
	l.X = x
	l.Y = y
	l.Z = z
	return l
}

// SameWorld reports whether both locations are in the same world.
func (l Location) SameWorld(other Location) bool {
	return l.World == other.World
}

// DistanceSquared возвращает квадрат расстояния до другой точки (без sqrt для производительности).
// World is ignored; check SameWorld first.
func (l Location) DistanceSquared(other Location) float64 {
	dx := l.X - other.X
	dy := l.Y - other.Y
	dz := l.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// String returns "world(x, y, z)".
func (l Location) String() string {
	return fmt.Sprintf("%s(%.1f, %.1f, %.1f)", l.World, l.X, l.Y, l.Z)
}
