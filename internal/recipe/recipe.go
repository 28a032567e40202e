package recipe

import "math"

// Flavor identifies one of the two beverage variants.
type Flavor string

const (
	// TikiChata is the coconut horchata cold brew.
	TikiChata Flavor = "tikiChata"
	// DirtyUbe is the ube variant, same base with ube concentrate added.
	DirtyUbe Flavor = "dirtyUbe"
)

// Per-carton quantities shared by both variants. Volumes are fluid ounces;
// the concentrate is tablespoons and never counts toward volume.
const (
	CoconutMilkPerCarton = 32.0
	HorchataMixPerCarton = 16.0
	ColdBrewPerCarton    = 59.0
	WaterPerCarton       = 59.0

	// PerCartonVolume is the mixed volume one carton yields (concentrate excluded).
	PerCartonVolume = CoconutMilkPerCarton + HorchataMixPerCarton + ColdBrewPerCarton + WaterPerCarton

	ubeConcentratePerCarton = 1.5
)

// Recipe is the immutable per-carton ingredient ratio for one flavor.
type Recipe struct {
	Flavor      Flavor  `json:"flavor"`
	CoconutMilk float64 `json:"coconutMilk"`
	HorchataMix float64 `json:"horchataMix"`
	ColdBrew    float64 `json:"coldBrew"`
	Water       float64 `json:"water"`
	Concentrate float64 `json:"concentrate"`
}

var recipes = map[Flavor]Recipe{
	TikiChata: {
		Flavor:      TikiChata,
		CoconutMilk: CoconutMilkPerCarton,
		HorchataMix: HorchataMixPerCarton,
		ColdBrew:    ColdBrewPerCarton,
		Water:       WaterPerCarton,
		Concentrate: 0,
	},
	DirtyUbe: {
		Flavor:      DirtyUbe,
		CoconutMilk: CoconutMilkPerCarton,
		HorchataMix: HorchataMixPerCarton,
		ColdBrew:    ColdBrewPerCarton,
		Water:       WaterPerCarton,
		Concentrate: ubeConcentratePerCarton,
	},
}

// Get returns the recipe for a flavor. ok is false for anything outside the
// two known flavors.
func Get(f Flavor) (Recipe, bool) {
	r, ok := recipes[f]
	return r, ok
}

// All returns both recipes in a stable order.
func All() []Recipe {
	return []Recipe{recipes[TikiChata], recipes[DirtyUbe]}
}

// Other returns the flavor that is not f. Unknown flavors map to TikiChata's
// counterpart so planners stay total.
func Other(f Flavor) Flavor {
	if f == DirtyUbe {
		return TikiChata
	}
	return DirtyUbe
}

// Valid reports whether f is one of the two known flavors.
func Valid(f Flavor) bool {
	_, ok := recipes[f]
	return ok
}

// ScaledBatch holds a recipe scaled by a carton-equivalent factor.
// TotalVolume sums the four volume ingredients; the concentrate is a
// flavoring additive, not a diluting volume, and is excluded.
type ScaledBatch struct {
	Flavor      Flavor  `json:"flavor"`
	Factor      float64 `json:"factor"`
	CoconutMilk float64 `json:"coconutMilk"`
	HorchataMix float64 `json:"horchataMix"`
	ColdBrew    float64 `json:"coldBrew"`
	Water       float64 `json:"water"`
	Concentrate float64 `json:"concentrate"`
	TotalVolume float64 `json:"totalVolume"`
}

// ScaleByCartons scales a flavor's recipe by a whole carton count.
// Negative counts clamp to zero.
func ScaleByCartons(f Flavor, cartons int) ScaledBatch {
	if cartons < 0 {
		cartons = 0
	}
	return ScaleByFraction(f, float64(cartons))
}

// ScaleByFraction scales a flavor's recipe by an arbitrary non-negative
// carton-equivalent. NaN and negative factors clamp to zero.
func ScaleByFraction(f Flavor, k float64) ScaledBatch {
	if math.IsNaN(k) || k < 0 {
		k = 0
	}

	r := recipes[f]
	b := ScaledBatch{
		Flavor:      f,
		Factor:      k,
		CoconutMilk: r.CoconutMilk * k,
		HorchataMix: r.HorchataMix * k,
		ColdBrew:    r.ColdBrew * k,
		Water:       r.Water * k,
		Concentrate: r.Concentrate * k,
	}
	b.TotalVolume = b.CoconutMilk + b.HorchataMix + b.ColdBrew + b.Water
	return b
}

// BasesSummary splits a batch into its two physical pre-mixes. The horchata
// base is brewed from coconut milk and horchata mix, the cold brew base from
// coffee and water; together they account for the whole mix.
type BasesSummary struct {
	HorchataBase float64 `json:"horchataBase"`
	ColdBrewBase float64 `json:"coldBrewBase"`
	TotalMix     float64 `json:"totalMix"`
}

// Bases projects a scaled batch onto its two pre-mix bases.
func Bases(b ScaledBatch) BasesSummary {
	return BasesSummary{
		HorchataBase: b.CoconutMilk + b.HorchataMix,
		ColdBrewBase: b.ColdBrew + b.Water,
		TotalMix:     b.TotalVolume,
	}
}
