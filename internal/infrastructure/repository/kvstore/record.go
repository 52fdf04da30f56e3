package kvstore

import (
	"net/url"
	"strings"
	"time"

	"github.com/riskibarqy/prediction-pool/internal/domain/outcome"
	"github.com/riskibarqy/prediction-pool/internal/domain/pick"
	"github.com/riskibarqy/prediction-pool/internal/domain/result"
)

const (
	pickPrefix   = "picks/"
	resultPrefix = "results/"
)

func pickKey(fixtureID, participantID string) string {
	return pickPrefix + url.PathEscape(fixtureID) + "/" + url.PathEscape(participantID)
}

func pickFixturePrefix(fixtureID string) string {
	return pickPrefix + url.PathEscape(fixtureID) + "/"
}

func resultKey(fixtureID string) string {
	return resultPrefix + url.PathEscape(fixtureID)
}

// participantFromPickKey returns the escaped participant segment of a pick key.
func participantFromPickKey(key string) string {
	idx := strings.LastIndexByte(key, '/')
	if idx < 0 {
		return ""
	}
	return key[idx+1:]
}

type outcomeRecord struct {
	Category  string `json:"category"`
	HomeGoals *int   `json:"home_goals,omitempty"`
	AwayGoals *int   `json:"away_goals,omitempty"`
}

type pickRecord struct {
	ParticipantID string        `json:"participant_id"`
	DisplayName   string        `json:"display_name"`
	FixtureID     string        `json:"fixture_id"`
	Outcome       outcomeRecord `json:"outcome"`
	SubmittedAt   time.Time     `json:"submitted_at"`
}

type resultRecord struct {
	FixtureID  string        `json:"fixture_id"`
	Outcome    outcomeRecord `json:"outcome"`
	RecordedAt time.Time     `json:"recorded_at"`
}

func outcomeToRecord(o outcome.Outcome) outcomeRecord {
	rec := outcomeRecord{Category: string(o.Category)}
	if o.Score != nil {
		home, away := o.Score.Home, o.Score.Away
		rec.HomeGoals = &home
		rec.AwayGoals = &away
	}
	return rec
}

func outcomeFromRecord(rec outcomeRecord) (outcome.Outcome, error) {
	var score *outcome.Score
	if rec.HomeGoals != nil && rec.AwayGoals != nil {
		score = &outcome.Score{Home: *rec.HomeGoals, Away: *rec.AwayGoals}
	}
	return outcome.New(rec.Category, score)
}

func pickToRecord(p pick.Pick) pickRecord {
	return pickRecord{
		ParticipantID: p.ParticipantID,
		DisplayName:   p.DisplayName,
		FixtureID:     p.FixtureID,
		Outcome:       outcomeToRecord(p.Outcome),
		SubmittedAt:   p.SubmittedAt.UTC(),
	}
}

func pickFromRecord(rec pickRecord) (pick.Pick, error) {
	out, err := outcomeFromRecord(rec.Outcome)
	if err != nil {
		return pick.Pick{}, err
	}
	return pick.Pick{
		ParticipantID: rec.ParticipantID,
		DisplayName:   rec.DisplayName,
		FixtureID:     rec.FixtureID,
		Outcome:       out,
		SubmittedAt:   rec.SubmittedAt,
	}, nil
}

func resultToRecord(r result.Result) resultRecord {
	return resultRecord{
		FixtureID:  r.FixtureID,
		Outcome:    outcomeToRecord(r.Outcome),
		RecordedAt: r.RecordedAt.UTC(),
	}
}

func resultFromRecord(rec resultRecord) (result.Result, error) {
	out, err := outcomeFromRecord(rec.Outcome)
	if err != nil {
		return result.Result{}, err
	}
	return result.Result{
		FixtureID:  rec.FixtureID,
		Outcome:    out,
		RecordedAt: rec.RecordedAt,
	}, nil
}
