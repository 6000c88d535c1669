package jobtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseTextProductEditBoundaries(t *testing.T) {
	tests := []struct {
		progress int
		want     string
	}{
		{progress: 0, want: PhaseAnalyzing},
		{progress: 19, want: PhaseAnalyzing},
		{progress: 20, want: PhaseLoading},
		{progress: 39, want: PhaseLoading},
		{progress: 40, want: PhaseApplying},
		{progress: 59, want: PhaseApplying},
		{progress: 60, want: PhaseUpdating},
		{progress: 79, want: PhaseUpdating},
		{progress: 80, want: PhaseMedia},
		{progress: 99, want: PhaseMedia},
		{progress: 100, want: PhaseFinalizing},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PhaseText(KindProductEdit, tt.progress), "progress %d", tt.progress)
	}
}

func TestPhaseTextStoreCreation(t *testing.T) {
	assert.Equal(t, PhasePreparing, PhaseText(KindStoreCreation, 0))
	assert.Equal(t, PhaseInProgress, PhaseText(KindStoreCreation, 10))
	assert.Equal(t, PhaseInProgress, PhaseText(KindStoreCreation, 45))
	assert.Equal(t, PhaseFinalizing, PhaseText(KindStoreCreation, 100))
}

func TestPhaseIndexIsMonotonic(t *testing.T) {
	for _, kind := range []JobKind{KindStoreCreation, KindProductEdit} {
		prev := PhaseIndex(kind, 0)
		for p := 0; p <= 100; p++ {
			idx := PhaseIndex(kind, p)
			if idx < prev {
				t.Fatalf("%s: phase index went from %d to %d at progress %d", kind, prev, idx, p)
			}
			if PhaseText(kind, p) == "" {
				t.Fatalf("%s: empty label at progress %d", kind, p)
			}
			prev = idx
		}
	}
}

func TestPhaseTextUnknownKind(t *testing.T) {
	assert.Equal(t, phaseUnknownLabel, PhaseText(JobKind("bogus"), 50))
}
