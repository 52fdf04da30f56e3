package outcome

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Category is the coarse match outcome a pick or result commits to.
type Category string

const (
	CategoryHomeWin Category = "HOME_WIN"
	CategoryDraw    Category = "DRAW"
	CategoryAwayWin Category = "AWAY_WIN"
)

var ErrInvalid = errors.New("invalid outcome")

// Score is an exact final score.
type Score struct {
	Home int
	Away int
}

func (s Score) Category() Category {
	switch {
	case s.Home > s.Away:
		return CategoryHomeWin
	case s.Home < s.Away:
		return CategoryAwayWin
	default:
		return CategoryDraw
	}
}

func (s Score) GoalDifference() int {
	return s.Home - s.Away
}

func (s Score) String() string {
	return fmt.Sprintf("%d-%d", s.Home, s.Away)
}

// Outcome is a category optionally paired with an exact score. Picks and
// results share this shape.
type Outcome struct {
	Category Category
	Score    *Score
}

// ParseCategory accepts the canonical names and the short forms H, D, A.
func ParseCategory(value string) (Category, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case string(CategoryHomeWin), "HOME", "H", "1":
		return CategoryHomeWin, true
	case string(CategoryDraw), "D", "X":
		return CategoryDraw, true
	case string(CategoryAwayWin), "AWAY", "A", "2":
		return CategoryAwayWin, true
	default:
		return "", false
	}
}

// New builds a validated outcome. When only a score is given the category is
// derived from it; when both are given they must agree.
func New(category string, score *Score) (Outcome, error) {
	category = strings.TrimSpace(category)
	if category == "" && score == nil {
		return Outcome{}, fmt.Errorf("%w: category or score is required", ErrInvalid)
	}

	var out Outcome
	if category != "" {
		parsed, ok := ParseCategory(category)
		if !ok {
			return Outcome{}, fmt.Errorf("%w: unknown category %q", ErrInvalid, category)
		}
		out.Category = parsed
	}
	if score != nil {
		copied := *score
		out.Score = &copied
		if out.Category == "" {
			out.Category = copied.Category()
		}
	}

	if err := out.Validate(); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// ScoreFromNumbers converts loosely typed input (JSON numbers, form values)
// into a Score, rejecting negative or fractional goals.
func ScoreFromNumbers(home, away float64) (*Score, error) {
	h, err := goals(home)
	if err != nil {
		return nil, fmt.Errorf("%w: home goals %v", ErrInvalid, home)
	}
	a, err := goals(away)
	if err != nil {
		return nil, fmt.Errorf("%w: away goals %v", ErrInvalid, away)
	}
	return &Score{Home: h, Away: a}, nil
}

func goals(value float64) (int, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 || value != math.Trunc(value) || value > math.MaxInt32 {
		return 0, ErrInvalid
	}
	return int(value), nil
}

func (o Outcome) Validate() error {
	switch o.Category {
	case CategoryHomeWin, CategoryDraw, CategoryAwayWin:
	default:
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, o.Category)
	}
	if o.Score == nil {
		return nil
	}
	if o.Score.Home < 0 || o.Score.Away < 0 {
		return fmt.Errorf("%w: negative score %s", ErrInvalid, o.Score)
	}
	if derived := o.Score.Category(); derived != o.Category {
		return fmt.Errorf("%w: score %s contradicts %s", ErrInvalid, o.Score, o.Category)
	}
	return nil
}

func (o Outcome) HasScore() bool {
	return o.Score != nil
}

// Clone returns a deep copy so callers never share the score pointer.
func (o Outcome) Clone() Outcome {
	if o.Score == nil {
		return o
	}
	score := *o.Score
	return Outcome{Category: o.Category, Score: &score}
}

func (o Outcome) String() string {
	if o.Score == nil {
		return string(o.Category)
	}
	return string(o.Category) + " " + o.Score.String()
}
