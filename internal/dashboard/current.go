package dashboard

import (
	"sync"
	"time"

	"github.com/agrosense/irrigation-server/internal/decision"
	"github.com/agrosense/irrigation-server/internal/telemetry"
	"github.com/agrosense/irrigation-server/internal/weather"
)

// LiveState is one coherent result of a refresh cycle.
type LiveState struct {
	Moisture  telemetry.CurrentMoisture
	Weather   weather.Snapshot
	Decision  decision.Decision
	UpdatedAt time.Time
}

// CurrentView holds the latest live state. Refresh cycles apply results
// tagged with a monotonic sequence number; a result carrying a sequence
// lower than one already applied is stale and is discarded, so a slow
// cycle can never overwrite a newer one.
type CurrentView struct {
	mu      sync.RWMutex
	seq     uint64
	applied uint64
	state   LiveState
	ok      bool
}

// NewCurrentView creates an empty live view.
func NewCurrentView() *CurrentView {
	return &CurrentView{}
}

// NextSeq reserves the sequence number for a refresh cycle about to run.
func (v *CurrentView) NextSeq() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	return v.seq
}

// Apply installs a cycle result. It reports whether the result was
// accepted; false means a newer cycle already landed.
func (v *CurrentView) Apply(seq uint64, state LiveState) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ok && seq <= v.applied {
		return false
	}
	v.applied = seq
	v.state = state
	v.ok = true
	return true
}

// Get returns the latest live state. The second return is false until
// the first cycle completes.
func (v *CurrentView) Get() (LiveState, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state, v.ok
}
