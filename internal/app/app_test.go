package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/prediction-pool/internal/config"
	"github.com/riskibarqy/prediction-pool/internal/domain/scoring"
	"github.com/riskibarqy/prediction-pool/internal/platform/logging"
	"github.com/riskibarqy/prediction-pool/internal/usecase"
)

func testConfig(fixturesPath string) config.Config {
	return config.Config{
		HTTPAddr:           ":0",
		ReadTimeout:        time.Second,
		WriteTimeout:       time.Second,
		StorageBackend:     config.StorageMemory,
		FixturesCSV:        fixturesPath,
		FixturesTimeLayout: "2006-01-02 15:04",
		Scoring:            scoring.DefaultRules(),
		RebuildWorkers:     2,
		CacheTTL:           time.Minute,
	}
}

func TestNew_MemoryBackend(t *testing.T) {
	cfg := testConfig(filepath.Join("..", "infrastructure", "fixturecsv", "testdata", "fixtures.csv"))

	a, err := New(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rounds", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Matchday 1") || !strings.Contains(body, "Matchday 2") {
		t.Fatalf("unexpected rounds body: %s", body)
	}
	if got := len(a.Pool.Fixtures("")); got != 5 {
		t.Fatalf("expected 5 fixtures, got %d", got)
	}
}

func TestNew_MalformedFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.csv")
	content := "match_id,stage,kickoff_utc,home,away\n1,Matchday 1,not-a-date,A,B\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixtures: %v", err)
	}

	_, err := New(context.Background(), testConfig(path), logging.NewNop())
	if !errors.Is(err, usecase.ErrMalformedFixtureData) {
		t.Fatalf("expected ErrMalformedFixtureData, got %v", err)
	}
}

func TestNew_RequiresAddr(t *testing.T) {
	cfg := testConfig("unused.csv")
	cfg.HTTPAddr = ""
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
