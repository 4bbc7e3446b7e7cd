package model

import "math"

// Position is a point in world space
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are real numbers
func (p Position) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Credential is a persisted login record.
// The hash is written once at sign-up and never updated.
type Credential struct {
	Username     string
	PasswordHash string
}

// Valid reports whether both fields are set
func (c Credential) Valid() bool {
	return c.Username != "" && c.PasswordHash != ""
}

// PlayerPosition is a player's last known location
type PlayerPosition struct {
	Username string
	Position Position
}

// Valid reports whether the record names a player and a finite point
func (p PlayerPosition) Valid() bool {
	return p.Username != "" && p.Position.Finite()
}

// SpawnBounds is the half-open rectangle [MinX, MaxX) x [MinY, MaxY)
// used to place players who have never spawned before
type SpawnBounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// DefaultSpawnBounds returns the 400x400 box anchored at the origin
func DefaultSpawnBounds() SpawnBounds {
	return SpawnBounds{MinX: 0, MinY: 0, MaxX: 400, MaxY: 400}
}

// Contains reports whether p lies inside the bounds
func (b SpawnBounds) Contains(p Position) bool {
	return p.X >= b.MinX && p.X < b.MaxX && p.Y >= b.MinY && p.Y < b.MaxY
}

// Width returns the horizontal extent
func (b SpawnBounds) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the vertical extent
func (b SpawnBounds) Height() float64 {
	return b.MaxY - b.MinY
}
