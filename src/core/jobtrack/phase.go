package jobtrack

// Phase labels shared with the console views.
const (
	PhasePreparing    = "preparing"
	PhaseInProgress   = "in progress"
	PhaseAnalyzing    = "analyzing changes"
	PhaseLoading      = "loading current state"
	PhaseApplying     = "applying updates"
	PhaseUpdating     = "updating remote store"
	PhaseMedia        = "generating media"
	PhaseFinalizing   = "finalizing"
	PhaseCompleted    = "completed"
	phaseUnknownLabel = "working"
)

type band struct {
	upper int // exclusive
	label string
}

var phaseBands = map[JobKind][]band{
	KindStoreCreation: {
		{upper: 10, label: PhasePreparing},
		{upper: 100, label: PhaseInProgress},
	},
	KindProductEdit: {
		{upper: 20, label: PhaseAnalyzing},
		{upper: 40, label: PhaseLoading},
		{upper: 60, label: PhaseApplying},
		{upper: 80, label: PhaseUpdating},
		{upper: 100, label: PhaseMedia},
	},
}

// PhaseText maps a progress percentage to the label of the first band whose
// exclusive upper bound lies above it. Values at or above 100 are finalizing.
func PhaseText(kind JobKind, progress int) string {
	_, label := phaseOf(kind, progress)
	return label
}

// PhaseIndex returns the ordinal of the band PhaseText would pick.
func PhaseIndex(kind JobKind, progress int) int {
	idx, _ := phaseOf(kind, progress)
	return idx
}

func phaseOf(kind JobKind, progress int) (int, string) {
	bands, ok := phaseBands[kind]
	if !ok {
		return 0, phaseUnknownLabel
	}
	for i, b := range bands {
		if progress < b.upper {
			return i, b.label
		}
	}
	return len(bands), PhaseFinalizing
}
