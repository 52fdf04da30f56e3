package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/prediction-pool/internal/domain/pick"
	"github.com/riskibarqy/prediction-pool/internal/platform/logging"
	"github.com/riskibarqy/prediction-pool/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

type Handler struct {
	pool      *usecase.PoolService
	displayTZ *time.Location
	logger    *logging.Logger
	validator *validator.Validate
}

// NewHandler builds the pool API. displayTZ adds local kickoff times to
// fixture and export output; nil shows UTC only.
func NewHandler(pool *usecase.PoolService, displayTZ *time.Location, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		pool:      pool,
		displayTZ: displayTZ,
		logger:    logger.Named("httpapi.handler"),
		validator: validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, dst)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListRounds(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRounds")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.pool.Rounds())
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	round := strings.TrimSpace(r.URL.Query().Get("round"))
	statuses, err := h.pool.FixtureStatuses(ctx, round)
	if err != nil {
		h.logger.ErrorContext(ctx, "list fixtures failed", "round", round, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]fixtureDTO, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, h.fixtureToDTO(status))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFixture")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	status, err := h.pool.FixtureStatus(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "get fixture failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, h.fixtureToDTO(status))
}

func (h *Handler) SubmitPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPick")
	defer span.End()

	var req outcomeRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	participantID := r.PathValue("participantID")
	fixtureID := r.PathValue("fixtureID")
	p, err := h.pool.SubmitPick(ctx, participantID, fixtureID, req.toInput())
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pickToDTO(p))
}

func (h *Handler) SubmitPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPicks")
	defer span.End()

	var req batchPickRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	entries := make([]usecase.PickEntry, 0, len(req.Picks))
	for _, item := range req.Picks {
		entries = append(entries, usecase.PickEntry{FixtureID: item.FixtureID, Outcome: item.toInput()})
	}

	outcomes, err := h.pool.SubmitPicks(ctx, r.PathValue("participantID"), entries)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]batchPickResultDTO, 0, len(outcomes))
	for _, item := range outcomes {
		out := batchPickResultDTO{FixtureID: item.FixtureID, Accepted: item.Err == nil}
		if item.Err != nil {
			out.Error = entryError(item.Err)
		} else {
			p := pickToDTO(item.Pick)
			out.Pick = &p
		}
		items = append(items, out)
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListParticipantPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListParticipantPicks")
	defer span.End()

	participantID := r.PathValue("participantID")
	picks, err := h.pool.PicksFor(ctx, participantID)
	if err != nil {
		h.logger.WarnContext(ctx, "list picks failed", "participant_id", participantID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]pickDTO, 0, len(picks))
	for _, item := range picks {
		items = append(items, pickToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) RecordResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordResult")
	defer span.End()

	secret, ok := adminSecretFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: admin secret is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req outcomeRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	fixtureID := r.PathValue("fixtureID")
	res, err := h.pool.RecordResult(ctx, secret, fixtureID, req.toInput())
	if err != nil {
		h.logger.WarnContext(ctx, "record result failed", "fixture_id", fixtureID, "client_ip", resolveClientIP(r), "error", err)
		writeError(ctx, w, err)
		return
	}

	rows, err := h.pool.Standings(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, recordResultDTO{
		Result:    resultToDTO(res),
		Standings: standingRowsToDTO(rows),
	})
}

// RecordResults saves a batch of results, e.g. a whole stage. Entries are
// applied independently and reported one by one.
func (h *Handler) RecordResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordResults")
	defer span.End()

	secret, ok := adminSecretFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: admin secret is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req batchResultRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	entries := make([]usecase.ResultEntry, 0, len(req.Results))
	for _, item := range req.Results {
		entries = append(entries, usecase.ResultEntry{FixtureID: item.FixtureID, Outcome: item.toInput()})
	}

	outcomes, err := h.pool.RecordResults(ctx, secret, entries)
	if err != nil {
		h.logger.WarnContext(ctx, "record results failed", "entries", len(entries), "client_ip", resolveClientIP(r), "error", err)
		writeError(ctx, w, err)
		return
	}

	rows, err := h.pool.Standings(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]batchResultItemDTO, 0, len(outcomes))
	for _, item := range outcomes {
		out := batchResultItemDTO{FixtureID: item.FixtureID, Accepted: item.Err == nil}
		if item.Err != nil {
			out.Error = entryError(item.Err)
		} else {
			res := resultToDTO(item.Result)
			out.Result = &res
		}
		items = append(items, out)
	}

	writeSuccess(ctx, w, http.StatusOK, batchResultDTO{
		Results:   items,
		Standings: standingRowsToDTO(rows),
	})
}

func entryError(err error) *googleErrorItem {
	mapped := mapError(err)
	return &googleErrorItem{Domain: errorDomain, Reason: mapped.Reason, Message: err.Error()}
}

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStandings")
	defer span.End()

	rows, err := h.pool.Standings(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get standings failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standingRowsToDTO(rows))
}

func (h *Handler) ListScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListScores")
	defer span.End()

	scored, err := h.pool.ScoredPicks(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list scores failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	participant := ""
	if raw := r.URL.Query().Get("participant"); strings.TrimSpace(raw) != "" {
		key, _, err := pick.NormalizeParticipant(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
			return
		}
		participant = key
	}
	items := make([]scoredPickDTO, 0, len(scored))
	for _, item := range scored {
		if participant != "" && item.ParticipantID != participant {
			continue
		}
		items = append(items, scoredPickToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
