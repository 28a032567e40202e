package planner

import (
	"math"

	"github.com/marisolv/brewplanner/internal/packing"
	"github.com/marisolv/brewplanner/internal/recipe"
)

// FlavorAllocation is one flavor's share of a clamped container split: the
// bottles it fills, the volume those bottles consume, and the fractional
// carton-equivalent batch that produces exactly that volume.
type FlavorAllocation struct {
	Flavor     recipe.Flavor      `json:"flavor"`
	Containers int                `json:"containers"`
	UsedVolume float64            `json:"usedVolume"`
	Factor     float64            `json:"factor"`
	Batch      recipe.ScaledBatch `json:"batch"`
}

// ContainerSplitPlan allocates total bottle capacity between a lead flavor
// and the other flavor. The lead's bottle count is the control, clamped to
// capacity; the other flavor absorbs the remaining capacity.
type ContainerSplitPlan struct {
	TotalCartons       float64 `json:"totalCartons"`
	ContainerSize      float64 `json:"containerSize"`
	CapacityVolume     float64 `json:"capacityVolume"`
	CapacityContainers int     `json:"capacityContainers"`

	Lead  FlavorAllocation `json:"lead"`
	Other FlavorAllocation `json:"other"`

	// ResidualVolume is capacity that fills no whole bottle; always in
	// [0, ContainerSize) because both counts are floors of capacity.
	ResidualVolume float64 `json:"residualVolume"`
}

// PlanClampedContainers splits floor(totalCartons*166/containerSize) bottles
// of capacity between lead and the other flavor. requestedLead is clamped
// into [0, capacity]; the other flavor takes capacity minus lead. Each side's
// ingredient batch is back-derived from the volume its bottles consume, so
// allocations rarely align to whole cartons and go through the fractional
// scaling path.
//
// Swapping which flavor is lead is not a pure relabeling: the clamp and the
// remaining-capacity subtraction are always relative to the current lead, so
// the same numeric request under the other lead can produce a different
// split. Known asymmetry, kept deliberately.
func PlanClampedContainers(totalCartons, containerSize float64, lead recipe.Flavor, requestedLead int) ContainerSplitPlan {
	if math.IsNaN(totalCartons) || totalCartons < 0 {
		totalCartons = 0
	}
	containerSize = packing.ClampSize(containerSize)
	if !recipe.Valid(lead) {
		lead = recipe.DirtyUbe
	}

	capacityVolume := totalCartons * recipe.PerCartonVolume
	capacityContainers := packing.Pack(capacityVolume, containerSize).FullContainers

	leadContainers := requestedLead
	if leadContainers < 0 {
		leadContainers = 0
	}
	if leadContainers > capacityContainers {
		leadContainers = capacityContainers
	}
	otherContainers := capacityContainers - leadContainers

	leadAlloc := allocate(lead, leadContainers, containerSize)
	otherAlloc := allocate(recipe.Other(lead), otherContainers, containerSize)

	residual := capacityVolume - (leadAlloc.UsedVolume + otherAlloc.UsedVolume)
	if residual < 0 {
		residual = 0
	}

	return ContainerSplitPlan{
		TotalCartons:       totalCartons,
		ContainerSize:      containerSize,
		CapacityVolume:     capacityVolume,
		CapacityContainers: capacityContainers,
		Lead:               leadAlloc,
		Other:              otherAlloc,
		ResidualVolume:     residual,
	}
}

func allocate(f recipe.Flavor, containers int, containerSize float64) FlavorAllocation {
	used := float64(containers) * containerSize
	factor := used / recipe.PerCartonVolume
	return FlavorAllocation{
		Flavor:     f,
		Containers: containers,
		UsedVolume: used,
		Factor:     factor,
		Batch:      recipe.ScaleByFraction(f, factor),
	}
}
