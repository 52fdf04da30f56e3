package fixturecsv

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/prediction-pool/internal/domain/fixture"
	"go.uber.org/multierr"
)

// DefaultTimeLayout is the kickoff format of the tournament sheet, in UTC.
const DefaultTimeLayout = "2006-01-02 15:04"

const (
	columnID      = "id"
	columnHome    = "home"
	columnAway    = "away"
	columnKickoff = "kickoff"
	columnRound   = "round"
)

var headerAliases = map[string]string{
	"match_id":    columnID,
	"fixture_id":  columnID,
	"id":          columnID,
	"home":        columnHome,
	"home_team":   columnHome,
	"away":        columnAway,
	"away_team":   columnAway,
	"kickoff_utc": columnKickoff,
	"kickoff":     columnKickoff,
	"kickoff_at":  columnKickoff,
	"stage":       columnRound,
	"round":       columnRound,
}

// A round column must exist, though its values may be blank.
var requiredColumns = []string{columnID, columnHome, columnAway, columnKickoff, columnRound}

// Loader reads fixtures from a CSV file. It implements fixture.Source.
type Loader struct {
	path   string
	layout string
}

func NewLoader(path, layout string) *Loader {
	if strings.TrimSpace(layout) == "" {
		layout = DefaultTimeLayout
	}
	return &Loader{path: path, layout: layout}
}

func (l *Loader) Load(_ context.Context) ([]fixture.Fixture, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, crerr.Wrapf(err, "open fixtures csv %q", l.path)
	}
	defer file.Close()

	return Parse(file, l.layout)
}

// Parse reads every record and reports all malformed rows together. Any
// malformed row fails the whole load.
func Parse(r io.Reader, layout string) ([]fixture.Fixture, error) {
	if strings.TrimSpace(layout) == "" {
		layout = DefaultTimeLayout
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, crerr.Wrap(fixture.ErrMalformed, "empty fixtures file")
		}
		return nil, crerr.Wrapf(fixture.ErrMalformed, "read header: %v", err)
	}

	index, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	var (
		out  []fixture.Fixture
		errs error
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			errs = multierr.Append(errs, crerr.Wrapf(fixture.ErrMalformed, "%v", err))
			continue
		}
		if isBlank(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		item, err := parseRecord(record, index, layout)
		if err != nil {
			errs = multierr.Append(errs, crerr.Wrapf(err, "line %d", line))
			continue
		}
		out = append(out, item)
	}

	if errs != nil {
		return nil, errs
	}
	return out, nil
}

func indexHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
		canonical, ok := headerAliases[key]
		if !ok {
			continue
		}
		if _, exists := index[canonical]; !exists {
			index[canonical] = i
		}
	}

	var missing []string
	for _, column := range requiredColumns {
		if _, ok := index[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, crerr.Wrapf(fixture.ErrMalformed, "missing columns %s", strings.Join(missing, ", "))
	}
	return index, nil
}

func parseRecord(record []string, index map[string]int, layout string) (fixture.Fixture, error) {
	field := func(column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	item := fixture.Fixture{
		ID:       field(columnID),
		HomeTeam: field(columnHome),
		AwayTeam: field(columnAway),
		Round:    field(columnRound),
	}
	switch {
	case item.ID == "":
		return fixture.Fixture{}, crerr.Wrap(fixture.ErrMalformed, "fixture id is required")
	case item.HomeTeam == "":
		return fixture.Fixture{}, crerr.Wrapf(fixture.ErrMalformed, "fixture=%s: home team is required", item.ID)
	case item.AwayTeam == "":
		return fixture.Fixture{}, crerr.Wrapf(fixture.ErrMalformed, "fixture=%s: away team is required", item.ID)
	}

	kickoff, err := parseKickoff(field(columnKickoff), layout)
	if err != nil {
		return fixture.Fixture{}, crerr.Wrapf(fixture.ErrMalformed, "fixture=%s: %v", item.ID, err)
	}
	item.KickoffAt = kickoff
	return item, nil
}

// parseKickoff reads naive timestamps as UTC and falls back to RFC3339.
func parseKickoff(value, layout string) (time.Time, error) {
	if value == "" || strings.EqualFold(value, "nan") {
		return time.Time{}, crerr.New("kickoff time is required")
	}
	if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	return time.Time{}, crerr.Newf("unparsable kickoff time %q, expected layout %q", value, layout)
}

func isBlank(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
