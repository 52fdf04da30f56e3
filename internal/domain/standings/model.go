package standings

import (
	"sort"

	"github.com/riskibarqy/prediction-pool/internal/domain/scoring"
)

// Row is one participant's line in the standings table.
type Row struct {
	Rank          int
	ParticipantID string
	DisplayName   string
	Points        int
	ExactHits     int
	CategoryHits  int
	ScoredPicks   int
}

// Compute folds scored picks into ranked rows. Order is points desc, exact
// hits desc, participant id asc; a rank is shared only when that whole key
// ties.
func Compute(scored []scoring.ScoredPick) []Row {
	byParticipant := make(map[string]*Row)
	for _, item := range scored {
		row, ok := byParticipant[item.ParticipantID]
		if !ok {
			row = &Row{ParticipantID: item.ParticipantID, DisplayName: item.DisplayName}
			byParticipant[item.ParticipantID] = row
		}
		if row.DisplayName == "" {
			row.DisplayName = item.DisplayName
		}
		row.Points += item.Points
		row.ScoredPicks++
		switch item.Tier {
		case scoring.TierExact:
			row.ExactHits++
		case scoring.TierCategory, scoring.TierGoalDifference:
			row.CategoryHits++
		}
	}

	rows := make([]Row, 0, len(byParticipant))
	for _, row := range byParticipant {
		if row.DisplayName == "" {
			row.DisplayName = row.ParticipantID
		}
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return less(rows[i], rows[j])
	})

	for i := range rows {
		if i > 0 && sameKey(rows[i-1], rows[i]) {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}
	return rows
}

func less(a, b Row) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.ExactHits != b.ExactHits {
		return a.ExactHits > b.ExactHits
	}
	return a.ParticipantID < b.ParticipantID
}

func sameKey(a, b Row) bool {
	return a.Points == b.Points && a.ExactHits == b.ExactHits && a.ParticipantID == b.ParticipantID
}
