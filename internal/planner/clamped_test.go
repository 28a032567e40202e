package planner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marisolv/brewplanner/internal/recipe"
)

func TestPlanClampedContainersCapacityLaw(t *testing.T) {
	t.Parallel()

	// one carton at 12 oz bottles: 166 oz = 13 bottles + 10 oz residual
	plan := PlanClampedContainers(1, 12, recipe.DirtyUbe, 13)

	require.Equal(t, 13, plan.CapacityContainers)
	require.InDelta(t, 166, plan.CapacityVolume, 1e-9)
	require.Equal(t, 13, plan.Lead.Containers)
	require.Equal(t, 0, plan.Other.Containers)
	require.InDelta(t, 10, plan.ResidualVolume, 1e-9)
}

func TestPlanClampedContainersSplit(t *testing.T) {
	t.Parallel()

	plan := PlanClampedContainers(1, 12, recipe.DirtyUbe, 5)

	require.Equal(t, recipe.DirtyUbe, plan.Lead.Flavor)
	require.Equal(t, recipe.TikiChata, plan.Other.Flavor)
	require.Equal(t, 5, plan.Lead.Containers)
	require.Equal(t, 8, plan.Other.Containers)

	// used volume and back-derived factors
	require.InDelta(t, 60, plan.Lead.UsedVolume, 1e-9)
	require.InDelta(t, 96, plan.Other.UsedVolume, 1e-9)
	require.InDelta(t, 60.0/166.0, plan.Lead.Factor, 1e-12)
	require.InDelta(t, 96.0/166.0, plan.Other.Factor, 1e-12)

	// the fractional batch reproduces exactly the allocated volume
	require.InDelta(t, plan.Lead.UsedVolume, plan.Lead.Batch.TotalVolume, 1e-9)
	require.InDelta(t, plan.Other.UsedVolume, plan.Other.Batch.TotalVolume, 1e-9)

	// concentrate scales with the ube side only
	require.InDelta(t, 1.5*60.0/166.0, plan.Lead.Batch.Concentrate, 1e-9)
	require.Zero(t, plan.Other.Batch.Concentrate)
}

func TestPlanClampedContainersConservation(t *testing.T) {
	t.Parallel()

	cartons := []float64{0, 0.5, 1, 2, 3.25, 7}
	sizes := []float64{1, 8, 12, 16.9}

	for _, total := range cartons {
		for _, size := range sizes {
			for req := -1; req <= 40; req += 3 {
				plan := PlanClampedContainers(total, size, recipe.TikiChata, req)

				capacity := int(math.Floor(total * recipe.PerCartonVolume / size))
				require.Equal(t, capacity, plan.CapacityContainers,
					"total=%v size=%v req=%d", total, size, req)
				require.Equal(t, capacity, plan.Lead.Containers+plan.Other.Containers)
				require.GreaterOrEqual(t, plan.Lead.Containers, 0)
				require.GreaterOrEqual(t, plan.Other.Containers, 0)
				require.GreaterOrEqual(t, plan.ResidualVolume, 0.0)
				require.Less(t, plan.ResidualVolume, size)
			}
		}
	}
}

func TestPlanClampedContainersZeroCartons(t *testing.T) {
	t.Parallel()

	plan := PlanClampedContainers(0, 12, recipe.DirtyUbe, 10)

	require.Zero(t, plan.CapacityContainers)
	require.Zero(t, plan.Lead.Containers)
	require.Zero(t, plan.Other.Containers)
	require.Zero(t, plan.Lead.UsedVolume)
	require.Zero(t, plan.Other.UsedVolume)
	require.Zero(t, plan.ResidualVolume)
}

func TestPlanClampedContainersClampsRequest(t *testing.T) {
	t.Parallel()

	plan := PlanClampedContainers(1, 12, recipe.TikiChata, 99)
	require.Equal(t, 13, plan.Lead.Containers)
	require.Equal(t, 0, plan.Other.Containers)

	plan = PlanClampedContainers(1, 12, recipe.TikiChata, -5)
	require.Equal(t, 0, plan.Lead.Containers)
	require.Equal(t, 13, plan.Other.Containers)
}

// Re-running the same numeric request with the lead swapped is not a pure
// relabeling: the clamp is always relative to the current lead. Pins the
// documented asymmetry.
func TestPlanClampedContainersLeadSwapAsymmetry(t *testing.T) {
	t.Parallel()

	a := PlanClampedContainers(1, 12, recipe.DirtyUbe, 99)
	require.Equal(t, 13, a.Lead.Containers) // ube takes everything

	b := PlanClampedContainers(1, 12, recipe.TikiChata, 99)
	require.Equal(t, 13, b.Lead.Containers) // now tiki takes everything

	require.NotEqual(t,
		[2]int{a.Lead.Containers, a.Other.Containers},
		[2]int{b.Other.Containers, b.Lead.Containers},
		"swap produced a mirrored split; asymmetry no longer holds for clamped requests")
}

func TestPlanClampedContainersUnknownLeadDefaults(t *testing.T) {
	t.Parallel()

	plan := PlanClampedContainers(1, 12, recipe.Flavor("matcha"), 4)
	require.Equal(t, recipe.DirtyUbe, plan.Lead.Flavor)
	require.Equal(t, recipe.TikiChata, plan.Other.Flavor)
}

func TestPlanClampedContainersIdempotent(t *testing.T) {
	t.Parallel()

	a := PlanClampedContainers(2.5, 12, recipe.DirtyUbe, 7)
	b := PlanClampedContainers(2.5, 12, recipe.DirtyUbe, 7)
	require.Equal(t, a, b)
}
