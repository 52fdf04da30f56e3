package fixture

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrMalformed = errors.New("malformed fixture data")

// Catalog is the immutable fixture list of a tournament run.
type Catalog struct {
	fixtures []Fixture
	byID     map[string]int
	rounds   []string
}

// NewCatalog validates fixtures and orders them by kickoff, round and id.
func NewCatalog(fixtures []Fixture) (*Catalog, error) {
	ordered := make([]Fixture, 0, len(fixtures))
	seen := make(map[string]struct{}, len(fixtures))
	for i, item := range fixtures {
		item.ID = strings.TrimSpace(item.ID)
		item.HomeTeam = strings.TrimSpace(item.HomeTeam)
		item.AwayTeam = strings.TrimSpace(item.AwayTeam)
		item.Round = strings.TrimSpace(item.Round)

		switch {
		case item.ID == "":
			return nil, fmt.Errorf("%w: record %d: fixture id is required", ErrMalformed, i+1)
		case item.HomeTeam == "":
			return nil, fmt.Errorf("%w: fixture=%s: home team is required", ErrMalformed, item.ID)
		case item.AwayTeam == "":
			return nil, fmt.Errorf("%w: fixture=%s: away team is required", ErrMalformed, item.ID)
		case item.KickoffAt.IsZero():
			return nil, fmt.Errorf("%w: fixture=%s: kickoff time is required", ErrMalformed, item.ID)
		}
		if _, exists := seen[item.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate fixture id %s", ErrMalformed, item.ID)
		}
		seen[item.ID] = struct{}{}

		item.KickoffAt = item.KickoffAt.UTC()
		ordered = append(ordered, item)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.KickoffAt.Equal(b.KickoffAt) {
			return a.KickoffAt.Before(b.KickoffAt)
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		return a.ID < b.ID
	})

	c := &Catalog{
		fixtures: ordered,
		byID:     make(map[string]int, len(ordered)),
	}
	roundSeen := make(map[string]struct{})
	for i, item := range ordered {
		c.byID[item.ID] = i
		if item.Round == "" {
			continue
		}
		key := normalizeRound(item.Round)
		if _, ok := roundSeen[key]; ok {
			continue
		}
		roundSeen[key] = struct{}{}
		c.rounds = append(c.rounds, item.Round)
	}

	return c, nil
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.fixtures)
}

func (c *Catalog) Get(id string) (Fixture, bool) {
	if c == nil {
		return Fixture{}, false
	}
	idx, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Fixture{}, false
	}
	return c.fixtures[idx], true
}

func (c *Catalog) List() []Fixture {
	if c == nil {
		return nil
	}
	return append([]Fixture(nil), c.fixtures...)
}

// ListByRound matches round labels case-insensitively. An empty round lists all fixtures.
func (c *Catalog) ListByRound(round string) []Fixture {
	key := normalizeRound(round)
	if key == "" {
		return c.List()
	}
	if c == nil {
		return nil
	}
	out := make([]Fixture, 0)
	for _, item := range c.fixtures {
		if normalizeRound(item.Round) == key {
			out = append(out, item)
		}
	}
	return out
}

// Rounds lists distinct round labels in first-kickoff order.
func (c *Catalog) Rounds() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.rounds...)
}

// IsOpen is false for unknown fixtures.
func (c *Catalog) IsOpen(id string, now time.Time) bool {
	item, ok := c.Get(id)
	if !ok {
		return false
	}
	return item.IsOpen(now)
}
