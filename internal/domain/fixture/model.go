package fixture

import (
	"strings"
	"time"
)

// Fixture represents one scheduled match. KickoffAt is fixed at catalog load.
type Fixture struct {
	ID        string
	HomeTeam  string
	AwayTeam  string
	Round     string
	KickoffAt time.Time
}

// IsOpen reports whether picks are still accepted by the clock alone.
func (f Fixture) IsOpen(now time.Time) bool {
	return now.Before(f.KickoffAt)
}

func (f Fixture) Title() string {
	return f.HomeTeam + " vs " + f.AwayTeam
}

func normalizeRound(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
