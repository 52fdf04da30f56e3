package httpapi

import (
	"time"

	"github.com/riskibarqy/prediction-pool/internal/domain/outcome"
	"github.com/riskibarqy/prediction-pool/internal/domain/pick"
	"github.com/riskibarqy/prediction-pool/internal/domain/result"
	"github.com/riskibarqy/prediction-pool/internal/domain/scoring"
	"github.com/riskibarqy/prediction-pool/internal/domain/standings"
	"github.com/riskibarqy/prediction-pool/internal/usecase"
)

// outcomeRequest accepts a category, an exact score, or both. Goals decode
// as floats so 1.5 is rejected as an invalid outcome, not as bad JSON.
type outcomeRequest struct {
	Outcome   string   `json:"outcome" validate:"omitempty,max=16"`
	HomeGoals *float64 `json:"home_goals"`
	AwayGoals *float64 `json:"away_goals"`
}

func (r outcomeRequest) toInput() usecase.OutcomeInput {
	return usecase.OutcomeInput{
		Category:  r.Outcome,
		HomeGoals: r.HomeGoals,
		AwayGoals: r.AwayGoals,
	}
}

// batchEntry is one fixture of a batch pick or result request.
type batchEntry struct {
	FixtureID string   `json:"fixture_id" validate:"required,max=64"`
	Outcome   string   `json:"outcome" validate:"omitempty,max=16"`
	HomeGoals *float64 `json:"home_goals"`
	AwayGoals *float64 `json:"away_goals"`
}

func (e batchEntry) toInput() usecase.OutcomeInput {
	return outcomeRequest{Outcome: e.Outcome, HomeGoals: e.HomeGoals, AwayGoals: e.AwayGoals}.toInput()
}

type batchPickRequest struct {
	Picks []batchEntry `json:"picks" validate:"required,min=1,max=200,dive"`
}

type batchResultRequest struct {
	Results []batchEntry `json:"results" validate:"required,min=1,max=200,dive"`
}

type outcomeDTO struct {
	Outcome   string `json:"outcome"`
	HomeGoals *int   `json:"home_goals,omitempty"`
	AwayGoals *int   `json:"away_goals,omitempty"`
	Display   string `json:"display"`
}

type fixtureDTO struct {
	ID           string      `json:"id"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Round        string      `json:"round,omitempty"`
	KickoffAt    string      `json:"kickoff_at"`
	KickoffLocal string      `json:"kickoff_local,omitempty"`
	State        string      `json:"state"`
	Result       *outcomeDTO `json:"result,omitempty"`
}

type pickDTO struct {
	ParticipantID string     `json:"participant_id"`
	DisplayName   string     `json:"display_name"`
	FixtureID     string     `json:"fixture_id"`
	Outcome       outcomeDTO `json:"outcome"`
	SubmittedAt   string     `json:"submitted_at"`
}

type batchPickResultDTO struct {
	FixtureID string           `json:"fixture_id"`
	Accepted  bool             `json:"accepted"`
	Pick      *pickDTO         `json:"pick,omitempty"`
	Error     *googleErrorItem `json:"error,omitempty"`
}

type resultDTO struct {
	FixtureID  string     `json:"fixture_id"`
	Outcome    outcomeDTO `json:"outcome"`
	RecordedAt string     `json:"recorded_at"`
}

type batchResultItemDTO struct {
	FixtureID string           `json:"fixture_id"`
	Accepted  bool             `json:"accepted"`
	Result    *resultDTO       `json:"result,omitempty"`
	Error     *googleErrorItem `json:"error,omitempty"`
}

type batchResultDTO struct {
	Results   []batchResultItemDTO `json:"results"`
	Standings []standingRowDTO     `json:"standings"`
}

type recordResultDTO struct {
	Result    resultDTO        `json:"result"`
	Standings []standingRowDTO `json:"standings"`
}

type standingRowDTO struct {
	Rank          int    `json:"rank"`
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Points        int    `json:"points"`
	ExactHits     int    `json:"exact_hits"`
	CategoryHits  int    `json:"category_hits"`
	ScoredPicks   int    `json:"scored_picks"`
}

type scoredPickDTO struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	FixtureID     string `json:"fixture_id"`
	Points        int    `json:"points"`
	Tier          string `json:"tier"`
}

func outcomeToDTO(v outcome.Outcome) outcomeDTO {
	out := outcomeDTO{
		Outcome: string(v.Category),
		Display: v.String(),
	}
	if v.Score != nil {
		home, away := v.Score.Home, v.Score.Away
		out.HomeGoals = &home
		out.AwayGoals = &away
	}
	return out
}

func (h *Handler) fixtureToDTO(status usecase.FixtureStatus) fixtureDTO {
	item := status.Fixture
	out := fixtureDTO{
		ID:        item.ID,
		HomeTeam:  item.HomeTeam,
		AwayTeam:  item.AwayTeam,
		Round:     item.Round,
		KickoffAt: item.KickoffAt.UTC().Format(time.RFC3339),
		State:     string(status.State),
	}
	if h.displayTZ != nil {
		out.KickoffLocal = item.KickoffAt.In(h.displayTZ).Format(time.RFC3339)
	}
	if status.Result != nil {
		res := outcomeToDTO(status.Result.Outcome)
		out.Result = &res
	}
	return out
}

func pickToDTO(v pick.Pick) pickDTO {
	return pickDTO{
		ParticipantID: v.ParticipantID,
		DisplayName:   v.DisplayName,
		FixtureID:     v.FixtureID,
		Outcome:       outcomeToDTO(v.Outcome),
		SubmittedAt:   v.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

func resultToDTO(v result.Result) resultDTO {
	return resultDTO{
		FixtureID:  v.FixtureID,
		Outcome:    outcomeToDTO(v.Outcome),
		RecordedAt: v.RecordedAt.UTC().Format(time.RFC3339),
	}
}

func standingRowsToDTO(rows []standings.Row) []standingRowDTO {
	out := make([]standingRowDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, standingRowDTO{
			Rank:          row.Rank,
			ParticipantID: row.ParticipantID,
			DisplayName:   row.DisplayName,
			Points:        row.Points,
			ExactHits:     row.ExactHits,
			CategoryHits:  row.CategoryHits,
			ScoredPicks:   row.ScoredPicks,
		})
	}
	return out
}

func scoredPickToDTO(v scoring.ScoredPick) scoredPickDTO {
	return scoredPickDTO{
		ParticipantID: v.ParticipantID,
		DisplayName:   v.DisplayName,
		FixtureID:     v.FixtureID,
		Points:        v.Points,
		Tier:          string(v.Tier),
	}
}
