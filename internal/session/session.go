// Package session keeps the presentation layer's editable planning inputs
// in memory. Every update re-normalizes the whole snapshot, so bounded
// controls (ube carton count, lead bottle count) are re-clamped the moment
// any upstream input changes and stale out-of-range values never reach the
// planners.
package session

import (
	"errors"
	"sync"

	"github.com/marisolv/brewplanner/internal/packing"
	"github.com/marisolv/brewplanner/internal/planner"
	"github.com/marisolv/brewplanner/internal/recipe"
)

var (
	// ErrInvalidFlavor indicates a lead flavor outside the two known flavors.
	ErrInvalidFlavor = errors.New("lead flavor must be tikiChata or dirtyUbe")
	// ErrInvalidMode indicates an unknown planning mode.
	ErrInvalidMode = errors.New("mode must be directSplit or containerSplit")
)

// Mode selects which planner derives the current plan.
type Mode string

const (
	// ModeDirectSplit allocates whole cartons per flavor.
	ModeDirectSplit Mode = "directSplit"
	// ModeContainerSplit allocates bottle capacity with a lead flavor.
	ModeContainerSplit Mode = "containerSplit"
)

// Inputs is one complete, normalized snapshot of the planning controls.
type Inputs struct {
	TotalCartons   int           `json:"totalCartons"`
	ContainerSize  float64       `json:"containerSize"`
	Mode           Mode          `json:"mode"`
	LeadFlavor     recipe.Flavor `json:"leadFlavor"`
	UbeCartons     int           `json:"ubeCartons"`
	LeadContainers int           `json:"leadContainers"`
}

// Patch carries partial updates; nil fields leave the current value alone.
type Patch struct {
	TotalCartons   *int           `json:"totalCartons"`
	ContainerSize  *float64       `json:"containerSize"`
	Mode           *Mode          `json:"mode"`
	LeadFlavor     *recipe.Flavor `json:"leadFlavor"`
	UbeCartons     *int           `json:"ubeCartons"`
	LeadContainers *int           `json:"leadContainers"`
}

// Plan is the derived output for the current mode.
type Plan struct {
	Mode       Mode                        `json:"mode"`
	Direct     *planner.DirectSplitPlan    `json:"directSplit,omitempty"`
	Containers *planner.ContainerSplitPlan `json:"containerSplit,omitempty"`
}

// Session provides access to the planning inputs and their derived plan.
type Session interface {
	Snapshot() Inputs
	Apply(p Patch) (Inputs, error)
	Plan() Plan
}

// Memory keeps the inputs in-memory and guards access with a RWMutex.
type Memory struct {
	mu     sync.RWMutex
	inputs Inputs
}

// NewMemory initialises a session with default inputs: one carton, 12 oz
// bottles, direct split, dirtyUbe as lead.
func NewMemory() *Memory {
	return &Memory{inputs: normalize(defaultInputs())}
}

func defaultInputs() Inputs {
	return Inputs{
		TotalCartons:  1,
		ContainerSize: packing.DefaultContainerSize,
		Mode:          ModeDirectSplit,
		LeadFlavor:    recipe.DirtyUbe,
	}
}

// Snapshot returns the current normalized inputs.
func (m *Memory) Snapshot() Inputs {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputs
}

// Apply merges the patch, re-normalizes the full snapshot, and stores it.
// Enum fields are validated; numeric fields are clamped, never rejected.
func (m *Memory) Apply(p Patch) (Inputs, error) {
	if p.LeadFlavor != nil && !recipe.Valid(*p.LeadFlavor) {
		return Inputs{}, ErrInvalidFlavor
	}
	if p.Mode != nil && *p.Mode != ModeDirectSplit && *p.Mode != ModeContainerSplit {
		return Inputs{}, ErrInvalidMode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.inputs
	if p.TotalCartons != nil {
		next.TotalCartons = *p.TotalCartons
	}
	if p.ContainerSize != nil {
		next.ContainerSize = *p.ContainerSize
	}
	if p.Mode != nil {
		next.Mode = *p.Mode
	}
	if p.LeadFlavor != nil {
		next.LeadFlavor = *p.LeadFlavor
	}
	if p.UbeCartons != nil {
		next.UbeCartons = *p.UbeCartons
	}
	if p.LeadContainers != nil {
		next.LeadContainers = *p.LeadContainers
	}

	m.inputs = normalize(next)
	return m.inputs, nil
}

// Plan derives the mode-appropriate plan from a fresh snapshot.
func (m *Memory) Plan() Plan {
	in := m.Snapshot()

	if in.Mode == ModeContainerSplit {
		p := planner.PlanClampedContainers(float64(in.TotalCartons), in.ContainerSize, in.LeadFlavor, in.LeadContainers)
		return Plan{Mode: in.Mode, Containers: &p}
	}

	p := planner.PlanDirectSplit(in.TotalCartons, in.UbeCartons, in.ContainerSize)
	return Plan{Mode: in.Mode, Direct: &p}
}

// normalize clamps every control into its currently valid range. The bounds
// of the two lead controls depend on the other inputs, so it always runs on
// the complete snapshot.
func normalize(in Inputs) Inputs {
	if in.TotalCartons < 0 {
		in.TotalCartons = 0
	}
	in.ContainerSize = packing.ClampSize(in.ContainerSize)
	if in.Mode != ModeDirectSplit && in.Mode != ModeContainerSplit {
		in.Mode = ModeDirectSplit
	}
	if !recipe.Valid(in.LeadFlavor) {
		in.LeadFlavor = recipe.DirtyUbe
	}

	if in.UbeCartons < 0 {
		in.UbeCartons = 0
	}
	if in.UbeCartons > in.TotalCartons {
		in.UbeCartons = in.TotalCartons
	}

	capacity := packing.Pack(float64(in.TotalCartons)*recipe.PerCartonVolume, in.ContainerSize).FullContainers
	if in.LeadContainers < 0 {
		in.LeadContainers = 0
	}
	if in.LeadContainers > capacity {
		in.LeadContainers = capacity
	}

	return in
}
