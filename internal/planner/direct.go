// Package planner splits a production run between the two flavors. Direct
// splits allocate whole cartons per flavor; clamped container splits allocate
// bottle capacity with one lead flavor's bottle count as the control.
package planner

import (
	"github.com/marisolv/brewplanner/internal/packing"
	"github.com/marisolv/brewplanner/internal/recipe"
)

// FlavorRun is one flavor's share of a direct split: its scaled batch and
// how that batch packs into bottles on its own.
type FlavorRun struct {
	Batch recipe.ScaledBatch  `json:"batch"`
	Yield packing.YieldResult `json:"yield"`
}

// DirectSplitPlan allocates a whole-carton production run between the two
// flavors. Each flavor brews in whole cartons; the two brews' leftover
// volumes are pooled and topped off into extra bottles.
type DirectSplitPlan struct {
	TotalCartons  int     `json:"totalCartons"`
	UbeCartons    int     `json:"ubeCartons"`
	TikiCartons   int     `json:"tikiCartons"`
	ContainerSize float64 `json:"containerSize"`

	Ube  FlavorRun `json:"dirtyUbe"`
	Tiki FlavorRun `json:"tikiChata"`

	TotalFullContainers int                  `json:"totalFullContainers"`
	CombinedRemainder   float64              `json:"combinedRemainder"`
	TopOff              packing.TopOffResult `json:"topOff"`
}

// PlanDirectSplit splits totalCartons whole cartons between the two flavors,
// with ubeCartons as the control value. ubeCartons is re-clamped into
// [0, totalCartons] on every call, so a total that shrank below an earlier
// choice still yields a valid plan; the tiki side always gets the rest.
func PlanDirectSplit(totalCartons, ubeCartons int, containerSize float64) DirectSplitPlan {
	if totalCartons < 0 {
		totalCartons = 0
	}
	if ubeCartons < 0 {
		ubeCartons = 0
	}
	if ubeCartons > totalCartons {
		ubeCartons = totalCartons
	}
	tikiCartons := totalCartons - ubeCartons
	containerSize = packing.ClampSize(containerSize)

	ube := recipe.ScaleByCartons(recipe.DirtyUbe, ubeCartons)
	tiki := recipe.ScaleByCartons(recipe.TikiChata, tikiCartons)

	ubeYield := packing.Pack(ube.TotalVolume, containerSize)
	tikiYield := packing.Pack(tiki.TotalVolume, containerSize)

	combined := ubeYield.Remainder + tikiYield.Remainder

	return DirectSplitPlan{
		TotalCartons:        totalCartons,
		UbeCartons:          ubeCartons,
		TikiCartons:         tikiCartons,
		ContainerSize:       containerSize,
		Ube:                 FlavorRun{Batch: ube, Yield: ubeYield},
		Tiki:                FlavorRun{Batch: tiki, Yield: tikiYield},
		TotalFullContainers: ubeYield.FullContainers + tikiYield.FullContainers,
		CombinedRemainder:   combined,
		TopOff:              packing.TopOff(combined, containerSize),
	}
}
