package pick

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeParticipant(t *testing.T) {
	key, display, err := NormalizeParticipant("  Ana   María ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "ana maría" || display != "Ana María" {
		t.Fatalf("unexpected normalization key=%q display=%q", key, display)
	}

	if _, _, err := NormalizeParticipant("   "); !errors.Is(err, ErrInvalidParticipant) {
		t.Fatalf("expected ErrInvalidParticipant for blank id, got %v", err)
	}
	if _, _, err := NormalizeParticipant(strings.Repeat("x", MaxParticipantIDLength+1)); !errors.Is(err, ErrInvalidParticipant) {
		t.Fatalf("expected ErrInvalidParticipant for long id, got %v", err)
	}
	if _, _, err := NormalizeParticipant(strings.Repeat("ñ", MaxParticipantIDLength)); err != nil {
		t.Fatalf("expected multibyte id at limit to pass, got %v", err)
	}
}
