package standings

import (
	"testing"

	"github.com/riskibarqy/prediction-pool/internal/domain/scoring"
)

func TestCompute_ExactHitsBreakPointTies(t *testing.T) {
	scored := []scoring.ScoredPick{
		// p2: three category hits = 3 points.
		{ParticipantID: "p2", FixtureID: "f1", Points: 1, Tier: scoring.TierCategory},
		{ParticipantID: "p2", FixtureID: "f2", Points: 1, Tier: scoring.TierCategory},
		{ParticipantID: "p2", FixtureID: "f3", Points: 1, Tier: scoring.TierCategory},
		// p1: one exact hit = 3 points.
		{ParticipantID: "p1", FixtureID: "f1", Points: 3, Tier: scoring.TierExact},
		{ParticipantID: "p1", FixtureID: "f2", Points: 0, Tier: scoring.TierNone},
	}

	rows := Compute(scored)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ParticipantID != "p1" || rows[0].Rank != 1 {
		t.Fatalf("expected p1 first with rank 1, got %+v", rows[0])
	}
	if rows[1].ParticipantID != "p2" || rows[1].Rank != 2 {
		t.Fatalf("expected p2 strictly below p1, got %+v", rows[1])
	}
	if rows[0].Points != rows[1].Points {
		t.Fatalf("expected equal totals, got %d and %d", rows[0].Points, rows[1].Points)
	}
}

func TestCompute_ParticipantIDBreaksRemainingTies(t *testing.T) {
	scored := []scoring.ScoredPick{
		{ParticipantID: "carla", DisplayName: "Carla", FixtureID: "f1", Points: 1, Tier: scoring.TierCategory},
		{ParticipantID: "bruno", DisplayName: "Bruno", FixtureID: "f1", Points: 1, Tier: scoring.TierCategory},
		{ParticipantID: "ana", DisplayName: "Ana", FixtureID: "f1", Points: 3, Tier: scoring.TierExact},
		{ParticipantID: "dani", FixtureID: "f1", Points: 0, Tier: scoring.TierNone},
	}

	rows := Compute(scored)
	want := []struct {
		id   string
		rank int
	}{{"ana", 1}, {"bruno", 2}, {"carla", 3}, {"dani", 4}}
	for i, w := range want {
		if rows[i].ParticipantID != w.id || rows[i].Rank != w.rank {
			t.Fatalf("row %d: want %s/%d got %s/%d", i, w.id, w.rank, rows[i].ParticipantID, rows[i].Rank)
		}
	}
	if rows[3].DisplayName != "dani" {
		t.Fatalf("expected display name to fall back to id, got %q", rows[3].DisplayName)
	}
}

func TestCompute_IsDeterministic(t *testing.T) {
	scored := []scoring.ScoredPick{
		{ParticipantID: "x", FixtureID: "f1", Points: 1, Tier: scoring.TierCategory},
		{ParticipantID: "y", FixtureID: "f1", Points: 1, Tier: scoring.TierCategory},
		{ParticipantID: "z", FixtureID: "f1", Points: 3, Tier: scoring.TierExact},
		{ParticipantID: "w", FixtureID: "f1", Points: 1, Tier: scoring.TierCategory},
	}
	reversed := make([]scoring.ScoredPick, len(scored))
	for i := range scored {
		reversed[len(scored)-1-i] = scored[i]
	}

	first := Compute(scored)
	for run := 0; run < 20; run++ {
		again := Compute(reversed)
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("run %d row %d differs: %+v vs %+v", run, i, first[i], again[i])
			}
		}
	}
}

func TestCompute_Empty(t *testing.T) {
	if rows := Compute(nil); len(rows) != 0 {
		t.Fatalf("expected no rows, got %+v", rows)
	}
}
