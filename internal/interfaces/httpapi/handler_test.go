package httpapi

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/prediction-pool/internal/domain/fixture"
	"github.com/riskibarqy/prediction-pool/internal/domain/kv"
	"github.com/riskibarqy/prediction-pool/internal/domain/scoring"
	"github.com/riskibarqy/prediction-pool/internal/domain/standings"
	"github.com/riskibarqy/prediction-pool/internal/infrastructure/repository/kvstore"
	"github.com/riskibarqy/prediction-pool/internal/infrastructure/repository/memory"
	kvmock "github.com/riskibarqy/prediction-pool/internal/mocks/domain/kv"
	"github.com/riskibarqy/prediction-pool/internal/platform/cache"
	"github.com/riskibarqy/prediction-pool/internal/platform/logging"
	"github.com/riskibarqy/prediction-pool/internal/usecase"
	"github.com/stretchr/testify/mock"
)

const testAdminSecret = "referee"

var testKickoff = time.Date(2025, 9, 16, 19, 0, 0, 0, time.UTC)

type testEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data"`
	Error      *googleErrorBody `json:"error"`
}

func newTestServer(t *testing.T, store kv.Store) (http.Handler, *clock.Mock) {
	t.Helper()

	catalog, err := fixture.NewCatalog([]fixture.Fixture{
		{ID: "F1", HomeTeam: "Peru", AwayTeam: "Chile", Round: "Group A", KickoffAt: testKickoff},
		{ID: "F2", HomeTeam: "Brazil", AwayTeam: "Argentina", Round: "Group B", KickoffAt: testKickoff.Add(24 * time.Hour)},
	})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	picks := kvstore.NewPickRepository(store)
	results := kvstore.NewResultRepository(store)
	clk := clock.NewMock()
	clk.Set(testKickoff.Add(-time.Hour))

	pool, err := usecase.NewPoolService(
		usecase.PoolConfig{Rules: scoring.DefaultRules(), RebuildWorkers: 2},
		catalog,
		usecase.NewPickStore(catalog, picks, results),
		usecase.NewResultStore(catalog, results),
		usecase.NewAdminAuthorizer(testAdminSecret, ""),
		clk,
		cache.NewStore[[]standings.Row](time.Minute, clk),
		logging.NewNop(),
	)
	if err != nil {
		t.Fatalf("new pool service: %v", err)
	}

	lima, err := time.LoadLocation("America/Lima")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return NewRouter(NewHandler(pool, lima, logging.NewNop()), logging.NewNop(), []string{"*"}), clk
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) testEnvelope {
	t.Helper()

	var env testEnvelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal response body %q: %v", rec.Body.String(), err)
	}
	if data != nil && env.Data != nil {
		raw, err := sonic.Marshal(env.Data)
		if err != nil {
			t.Fatalf("marshal data: %v", err)
		}
		if err := sonic.Unmarshal(raw, data); err != nil {
			t.Fatalf("unmarshal data: %v", err)
		}
	}
	return env
}

func adminHeaders() map[string]string {
	return map[string]string{adminSecretHeader: testAdminSecret}
}

func TestHandler_SubmitPickAndStandings(t *testing.T) {
	router, clk := newTestServer(t, memory.NewKVStore())

	rec := doRequest(t, router, http.MethodPut, "/v1/fixtures/F1/picks/Ana", `{"home_goals":2,"away_goals":1}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var submitted pickDTO
	decodeEnvelope(t, rec, &submitted)
	if submitted.ParticipantID != "ana" || submitted.DisplayName != "Ana" || submitted.Outcome.Outcome != "HOME_WIN" {
		t.Fatalf("unexpected pick: %+v", submitted)
	}

	rec = doRequest(t, router, http.MethodPut, "/v1/fixtures/F1/picks/Beto", `{"outcome":"HOME_WIN"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	clk.Set(testKickoff.Add(2 * time.Hour))
	rec = doRequest(t, router, http.MethodPut, "/v1/admin/fixtures/F1/result", `{"outcome":"HOME_WIN","home_goals":2,"away_goals":1}`, adminHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var recorded recordResultDTO
	decodeEnvelope(t, rec, &recorded)
	if len(recorded.Standings) != 2 || recorded.Standings[0].ParticipantID != "ana" || recorded.Standings[0].Points != 3 {
		t.Fatalf("unexpected standings after result: %+v", recorded.Standings)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/standings", "", nil)
	var rows []standingRowDTO
	decodeEnvelope(t, rec, &rows)
	if len(rows) != 2 || rows[1].ParticipantID != "beto" || rows[1].Points != 1 || rows[1].Rank != 2 {
		t.Fatalf("unexpected standings: %+v", rows)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/scores?participant=ANA", "", nil)
	var scores []scoredPickDTO
	decodeEnvelope(t, rec, &scores)
	if len(scores) != 1 || scores[0].Tier != string(scoring.TierExact) {
		t.Fatalf("unexpected scores: %+v", scores)
	}
}

func TestHandler_SubmitPickErrors(t *testing.T) {
	router, clk := newTestServer(t, memory.NewKVStore())

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		reason string
	}{
		{name: "unknown fixture", path: "/v1/fixtures/F9/picks/ana", body: `{"outcome":"DRAW"}`, status: http.StatusNotFound, reason: "unknownFixture"},
		{name: "fractional goals", path: "/v1/fixtures/F1/picks/ana", body: `{"home_goals":1.5,"away_goals":0}`, status: http.StatusBadRequest, reason: "invalidOutcome"},
		{name: "unknown category", path: "/v1/fixtures/F1/picks/ana", body: `{"outcome":"WIN"}`, status: http.StatusBadRequest, reason: "invalidOutcome"},
		{name: "unknown field", path: "/v1/fixtures/F1/picks/ana", body: `{"winner":"home"}`, status: http.StatusBadRequest, reason: "invalidInput"},
		{name: "bad json", path: "/v1/fixtures/F1/picks/ana", body: `{`, status: http.StatusBadRequest, reason: "invalidInput"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPut, tt.path, tt.body, nil)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d body=%s", tt.status, rec.Code, rec.Body.String())
			}
			env := decodeEnvelope(t, rec, nil)
			if env.Error == nil || env.Error.Errors[0].Reason != tt.reason {
				t.Fatalf("expected reason %s, got %+v", tt.reason, env.Error)
			}
		})
	}

	clk.Set(testKickoff)
	rec := doRequest(t, router, http.MethodPut, "/v1/fixtures/F1/picks/ana", `{"outcome":"DRAW"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 at kickoff, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandler_RecordResultAuthorization(t *testing.T) {
	router, _ := newTestServer(t, memory.NewKVStore())

	rec := doRequest(t, router, http.MethodPut, "/v1/admin/fixtures/F1/result", `{"outcome":"DRAW"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPut, "/v1/admin/fixtures/F1/result", `{"outcome":"DRAW"}`, map[string]string{adminSecretHeader: "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong secret, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPut, "/v1/admin/fixtures/F1/result", `{"outcome":"DRAW"}`, map[string]string{"Authorization": "Bearer " + testAdminSecret})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer secret, got %d body=%s", rec.Code, rec.Body.String())
	}

	// A result locks the fixture before kickoff.
	rec = doRequest(t, router, http.MethodPut, "/v1/fixtures/F1/picks/ana", `{"outcome":"DRAW"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 after result, got %d", rec.Code)
	}
}

func TestHandler_ListFixturesWithState(t *testing.T) {
	router, _ := newTestServer(t, memory.NewKVStore())

	rec := doRequest(t, router, http.MethodPut, "/v1/admin/fixtures/F2/result", `{"home_goals":0,"away_goals":0}`, adminHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("record result: %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/fixtures", "", nil)
	var items []fixtureDTO
	decodeEnvelope(t, rec, &items)
	if len(items) != 2 {
		t.Fatalf("expected 2 fixtures, got %+v", items)
	}
	if items[0].ID != "F1" || items[0].State != string(fixture.StateOpen) || items[0].KickoffLocal != "2025-09-16T14:00:00-05:00" {
		t.Fatalf("unexpected first fixture: %+v", items[0])
	}
	if items[1].State != string(fixture.StateScored) || items[1].Result == nil || items[1].Result.Outcome != "DRAW" {
		t.Fatalf("unexpected second fixture: %+v", items[1])
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/fixtures?round=group%20b", "", nil)
	items = nil
	decodeEnvelope(t, rec, &items)
	if len(items) != 1 || items[0].ID != "F2" {
		t.Fatalf("unexpected round filter result: %+v", items)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/fixtures/F9", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_SubmitPicksBatch(t *testing.T) {
	router, _ := newTestServer(t, memory.NewKVStore())

	body := `{"picks":[{"fixture_id":"F1","outcome":"AWAY_WIN"},{"fixture_id":"F9","outcome":"DRAW"},{"fixture_id":"F2","home_goals":1}]}`
	rec := doRequest(t, router, http.MethodPost, "/v1/participants/ana/picks", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var items []batchPickResultDTO
	decodeEnvelope(t, rec, &items)
	if len(items) != 3 || !items[0].Accepted || items[1].Accepted || items[2].Accepted {
		t.Fatalf("unexpected batch result: %+v", items)
	}
	if items[1].Error.Reason != "unknownFixture" || items[2].Error.Reason != "invalidOutcome" {
		t.Fatalf("unexpected batch errors: %+v %+v", items[1].Error, items[2].Error)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/participants/ana/picks", `{"picks":[]}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/participants/ANA/picks", "", nil)
	var picks []pickDTO
	decodeEnvelope(t, rec, &picks)
	if len(picks) != 1 || picks[0].FixtureID != "F1" {
		t.Fatalf("unexpected picks: %+v", picks)
	}
}

func TestHandler_RecordResultsBatch(t *testing.T) {
	router, _ := newTestServer(t, memory.NewKVStore())

	rec := doRequest(t, router, http.MethodPut, "/v1/fixtures/F1/picks/ana", `{"home_goals":1,"away_goals":0}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit pick: %d body=%s", rec.Code, rec.Body.String())
	}

	body := `{"results":[{"fixture_id":"F1","home_goals":1,"away_goals":0},{"fixture_id":"missing","outcome":"DRAW"},{"fixture_id":"F2","outcome":"NOPE"}]}`
	rec = doRequest(t, router, http.MethodPost, "/v1/admin/results", body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/admin/results", body, adminHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var got batchResultDTO
	decodeEnvelope(t, rec, &got)
	if len(got.Results) != 3 || !got.Results[0].Accepted || got.Results[1].Accepted || got.Results[2].Accepted {
		t.Fatalf("unexpected batch result: %+v", got.Results)
	}
	if got.Results[0].Result == nil || got.Results[0].Result.Outcome.HomeGoals == nil || *got.Results[0].Result.Outcome.HomeGoals != 1 {
		t.Fatalf("unexpected recorded result: %+v", got.Results[0].Result)
	}
	if got.Results[1].Error.Reason != "unknownFixture" || got.Results[2].Error.Reason != "invalidOutcome" {
		t.Fatalf("unexpected batch errors: %+v %+v", got.Results[1].Error, got.Results[2].Error)
	}
	if len(got.Standings) != 1 || got.Standings[0].ParticipantID != "ana" || got.Standings[0].Points != 3 {
		t.Fatalf("unexpected standings: %+v", got.Standings)
	}

	// F2 was rejected, so it stays open for picks.
	rec = doRequest(t, router, http.MethodPut, "/v1/fixtures/F2/picks/ana", `{"outcome":"DRAW"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected F2 to stay open, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/admin/results", `{"results":[]}`, adminHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", rec.Code)
	}
}

func TestHandler_CSVExports(t *testing.T) {
	router, clk := newTestServer(t, memory.NewKVStore())

	doRequest(t, router, http.MethodPut, "/v1/fixtures/F1/picks/Ana", `{"home_goals":1,"away_goals":0}`, nil)
	clk.Set(testKickoff.Add(3 * time.Hour))
	doRequest(t, router, http.MethodPut, "/v1/admin/fixtures/F1/result", `{"home_goals":1,"away_goals":0}`, adminHeaders())

	rec := doRequest(t, router, http.MethodGet, "/v1/standings.csv", "", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected standings export: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse standings csv: %v", err)
	}
	if len(records) != 2 || records[1][1] != "ana" || records[1][3] != "3" {
		t.Fatalf("unexpected standings csv: %v", records)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/participants/ana/picks.csv", "", nil)
	records, err = csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse picks csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("unexpected picks csv: %v", records)
	}
	row := records[1]
	if row[0] != "F1" || row[4] != "2025-09-16 19:00" || row[5] != "2025-09-16 14:00 -05" || row[10] != "3" || row[11] != "EXACT" {
		t.Fatalf("unexpected picks csv row: %v", row)
	}
}

func TestHandler_PersistenceUnavailable(t *testing.T) {
	store := kvmock.NewStore(t)
	store.On("Get", mock.Anything, mock.Anything).Return(nil, false, kv.ErrUnavailable)

	router, _ := newTestServer(t, store)
	rec := doRequest(t, router, http.MethodPut, "/v1/fixtures/F1/picks/ana", `{"outcome":"DRAW"}`, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandler_Healthz(t *testing.T) {
	router, _ := newTestServer(t, memory.NewKVStore())

	rec := doRequest(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRecoverPanic(t *testing.T) {
	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
