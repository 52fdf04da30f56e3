package httpapi

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/riskibarqy/prediction-pool/internal/domain/pick"
	"github.com/riskibarqy/prediction-pool/internal/domain/scoring"
	"github.com/riskibarqy/prediction-pool/internal/domain/standings"
	"github.com/valyala/bytebufferpool"
)

const exportTimeLayout = "2006-01-02 15:04"

var (
	standingsCSVHeader = []string{"rank", "participant_id", "display_name", "points", "exact_hits", "category_hits", "scored_picks"}
	picksCSVHeader     = []string{"fixture_id", "round", "home_team", "away_team", "kickoff_utc", "kickoff_local", "outcome", "home_goals", "away_goals", "submitted_at", "points", "tier"}
)

func (h *Handler) ExportStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ExportStandings")
	defer span.End()

	rows, err := h.pool.Standings(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "export standings failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	h.writeCSVExport(ctx, w, "standings.csv", func(cw *csv.Writer) error {
		return writeStandingsCSV(cw, rows)
	})
}

func (h *Handler) ExportParticipantPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ExportParticipantPicks")
	defer span.End()

	participantID := r.PathValue("participantID")
	picks, err := h.pool.PicksFor(ctx, participantID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	scored, err := h.pool.ScoredPicks(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "export picks failed", "participant_id", participantID, "error", err)
		writeError(ctx, w, err)
		return
	}

	filename := "picks.csv"
	if len(picks) > 0 {
		filename = "picks-" + picks[0].ParticipantID + ".csv"
	}
	h.writeCSVExport(ctx, w, filename, func(cw *csv.Writer) error {
		return h.writePicksCSV(cw, picks, scored)
	})
}

func (h *Handler) writeCSVExport(ctx context.Context, w http.ResponseWriter, filename string, fill func(*csv.Writer) error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	cw := csv.NewWriter(buf)
	if err := fill(cw); err != nil {
		h.logger.ErrorContext(ctx, "encode csv export failed", "file", filename, "error", err)
		writeInternalError(ctx, w)
		return
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.ErrorContext(ctx, "flush csv export failed", "file", filename, "error", err)
		writeInternalError(ctx, w)
		return
	}

	writeCSV(ctx, w, filename, buf.B)
}

func writeStandingsCSV(cw *csv.Writer, rows []standings.Row) error {
	if err := cw.Write(standingsCSVHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Rank),
			row.ParticipantID,
			row.DisplayName,
			strconv.Itoa(row.Points),
			strconv.Itoa(row.ExactHits),
			strconv.Itoa(row.CategoryHits),
			strconv.Itoa(row.ScoredPicks),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) writePicksCSV(cw *csv.Writer, picks []pick.Pick, scored []scoring.ScoredPick) error {
	type scoreKey struct{ participant, fixture string }
	byKey := make(map[scoreKey]scoring.ScoredPick, len(scored))
	for _, item := range scored {
		byKey[scoreKey{item.ParticipantID, item.FixtureID}] = item
	}

	if err := cw.Write(picksCSVHeader); err != nil {
		return err
	}
	for _, p := range picks {
		item, err := h.pool.Fixture(p.FixtureID)
		if err != nil {
			return err
		}

		kickoffLocal := ""
		if h.displayTZ != nil {
			kickoffLocal = item.KickoffAt.In(h.displayTZ).Format(exportTimeLayout + " MST")
		}
		homeGoals, awayGoals := "", ""
		if p.Outcome.Score != nil {
			homeGoals = strconv.Itoa(p.Outcome.Score.Home)
			awayGoals = strconv.Itoa(p.Outcome.Score.Away)
		}
		points, tier := "", ""
		if sp, ok := byKey[scoreKey{p.ParticipantID, p.FixtureID}]; ok {
			points = strconv.Itoa(sp.Points)
			tier = string(sp.Tier)
		}

		record := []string{
			item.ID,
			item.Round,
			item.HomeTeam,
			item.AwayTeam,
			item.KickoffAt.UTC().Format(exportTimeLayout),
			kickoffLocal,
			string(p.Outcome.Category),
			homeGoals,
			awayGoals,
			p.SubmittedAt.UTC().Format(time.RFC3339),
			points,
			tier,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write pick row fixture=%s: %w", item.ID, err)
		}
	}
	return nil
}
