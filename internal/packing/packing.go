package packing

import "math"

// DefaultContainerSize is the standard bottle volume in fluid ounces.
const DefaultContainerSize = 12.0

// YieldResult describes how a volume packs into whole containers.
type YieldResult struct {
	FullContainers int     `json:"fullContainers"`
	Remainder      float64 `json:"remainderVolume"`
}

// TopOffResult describes how many additional containers a pooled leftover
// volume fills, and what remains after.
type TopOffResult struct {
	ExtraContainers int     `json:"extraContainers"`
	Leftover        float64 `json:"leftoverVolume"`
}

// ClampSize normalizes a container size: anything non-positive or NaN
// floors at 1.
func ClampSize(size float64) float64 {
	if math.IsNaN(size) || size < 1 {
		return 1
	}
	return size
}

// Pack fills whole containers of the given size from volume and reports the
// remainder. Total over non-negative reals: negative volume clamps to zero,
// size floors at 1. The packing law full*size + remainder == volume holds up
// to floating rounding, with remainder in [0, size).
func Pack(volume, size float64) YieldResult {
	full, rem := split(volume, size)
	return YieldResult{FullContainers: full, Remainder: rem}
}

// TopOff applies the packing law to a residual volume, consolidating pooled
// leftovers into extra containers.
func TopOff(volume, size float64) TopOffResult {
	full, rem := split(volume, size)
	return TopOffResult{ExtraContainers: full, Leftover: rem}
}

func split(volume, size float64) (int, float64) {
	if math.IsNaN(volume) || volume < 0 {
		volume = 0
	}
	size = ClampSize(size)

	full := int(math.Floor(volume / size))
	rem := volume - float64(full)*size
	if rem < 0 {
		// float division can land exactly on a container boundary from above
		rem = 0
	}
	return full, rem
}
