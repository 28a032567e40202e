// Package selfcheck runs a fixed battery of arithmetic assertions over the
// recipe, packing, and planner components at known literal inputs. It runs at
// startup and is exposed over the API; a failing check is reported, never
// fatal.
package selfcheck

import (
	"fmt"
	"math"

	"github.com/marisolv/brewplanner/internal/packing"
	"github.com/marisolv/brewplanner/internal/planner"
	"github.com/marisolv/brewplanner/internal/recipe"
	"github.com/marisolv/brewplanner/internal/units"
)

const tolerance = 1e-9

// Result is the outcome of a single check.
type Result struct {
	Name   string `json:"name"`
	Pass   bool   `json:"pass"`
	Detail string `json:"detail,omitempty"`
}

type check struct {
	name string
	run  func() error
}

// Run executes the full battery and returns one result per check.
func Run() []Result {
	results := make([]Result, 0, len(battery))
	for _, c := range battery {
		r := Result{Name: c.name, Pass: true}
		if err := c.run(); err != nil {
			r.Pass = false
			r.Detail = err.Error()
		}
		results = append(results, r)
	}
	return results
}

// AllPass reports whether every result passed.
func AllPass(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

var battery = []check{
	{
		name: "one tikiChata carton scales to 32/16/59/59, total 166",
		run: func() error {
			b := recipe.ScaleByCartons(recipe.TikiChata, 1)
			return expectBatch(b, 32, 16, 59, 59, 0, 166)
		},
	},
	{
		name: "two dirtyUbe cartons carry 3 tbsp concentrate, total 332",
		run: func() error {
			b := recipe.ScaleByCartons(recipe.DirtyUbe, 2)
			if err := approx("concentrate", b.Concentrate, 3); err != nil {
				return err
			}
			return approx("totalVolume", b.TotalVolume, 332)
		},
	},
	{
		name: "half a dirtyUbe carton scales fractionally",
		run: func() error {
			b := recipe.ScaleByFraction(recipe.DirtyUbe, 0.5)
			if err := approx("concentrate", b.Concentrate, 0.75); err != nil {
				return err
			}
			return approx("totalVolume", b.TotalVolume, 83)
		},
	},
	{
		name: "whole-carton and fractional scaling agree at integers",
		run: func() error {
			for k := 0; k <= 8; k++ {
				whole := recipe.ScaleByCartons(recipe.TikiChata, k)
				frac := recipe.ScaleByFraction(recipe.TikiChata, float64(k))
				if err := approx(fmt.Sprintf("totalVolume at k=%d", k), frac.TotalVolume, whole.TotalVolume); err != nil {
					return err
				}
			}
			return nil
		},
	},
	{
		name: "166 oz packs into 13 twelve-oz bottles plus 10 oz",
		run: func() error {
			got := packing.Pack(166, 12)
			if got.FullContainers != 13 {
				return fmt.Errorf("fullContainers: got %d, want 13", got.FullContainers)
			}
			return approx("remainder", got.Remainder, 10)
		},
	},
	{
		name: "22 oz of pooled leftovers tops off one bottle, 10 oz left",
		run: func() error {
			got := packing.TopOff(22, 12)
			if got.ExtraContainers != 1 {
				return fmt.Errorf("extraContainers: got %d, want 1", got.ExtraContainers)
			}
			return approx("leftover", got.Leftover, 10)
		},
	},
	{
		name: "one carton splits into 48 oz horchata base and 118 oz cold brew base",
		run: func() error {
			got := recipe.Bases(recipe.ScaleByCartons(recipe.TikiChata, 1))
			if err := approx("horchataBase", got.HorchataBase, 48); err != nil {
				return err
			}
			if err := approx("coldBrewBase", got.ColdBrewBase, 118); err != nil {
				return err
			}
			if err := approx("totalMix", got.TotalMix, 166); err != nil {
				return err
			}
			return approx("base sum", got.HorchataBase+got.ColdBrewBase, got.TotalMix)
		},
	},
	{
		name: "one carton of capacity is 13 bottles with 10 oz unbottled",
		run: func() error {
			plan := planner.PlanClampedContainers(1, 12, recipe.DirtyUbe, 0)
			if plan.CapacityContainers != 13 {
				return fmt.Errorf("capacityContainers: got %d, want 13", plan.CapacityContainers)
			}
			return approx("residual", plan.ResidualVolume, 10)
		},
	},
	{
		name: "clamped split conserves capacity and bounds the residual",
		run: func() error {
			for req := 0; req <= 20; req += 5 {
				plan := planner.PlanClampedContainers(2, 12, recipe.TikiChata, req)
				if plan.Lead.Containers+plan.Other.Containers != plan.CapacityContainers {
					return fmt.Errorf("req %d: containers %d+%d != capacity %d",
						req, plan.Lead.Containers, plan.Other.Containers, plan.CapacityContainers)
				}
				if plan.ResidualVolume < 0 || plan.ResidualVolume >= plan.ContainerSize {
					return fmt.Errorf("req %d: residual %v out of [0, %v)", req, plan.ResidualVolume, plan.ContainerSize)
				}
			}
			return nil
		},
	},
	{
		name: "direct split conserves cartons even when the total shrinks",
		run: func() error {
			plan := planner.PlanDirectSplit(2, 5, 12)
			if plan.UbeCartons+plan.TikiCartons != plan.TotalCartons {
				return fmt.Errorf("cartons %d+%d != total %d", plan.UbeCartons, plan.TikiCartons, plan.TotalCartons)
			}
			if plan.UbeCartons != 2 || plan.TikiCartons != 0 {
				return fmt.Errorf("expected 2/0 after clamp, got %d/%d", plan.UbeCartons, plan.TikiCartons)
			}
			return nil
		},
	},
	{
		name: "unit conversions hold at one quart",
		run: func() error {
			if err := approx("quarts", units.Quarts(32), 1); err != nil {
				return err
			}
			return approx("milliliters", units.Milliliters(1), 29.5735)
		},
	},
	{
		name: "plans recompute identically from identical inputs",
		run: func() error {
			a := planner.PlanClampedContainers(1.5, 12, recipe.DirtyUbe, 7)
			b := planner.PlanClampedContainers(1.5, 12, recipe.DirtyUbe, 7)
			if a != b {
				return fmt.Errorf("two recomputations differ: %+v vs %+v", a, b)
			}
			return nil
		},
	},
}

func expectBatch(b recipe.ScaledBatch, coconut, horchata, coldBrew, water, concentrate, total float64) error {
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"coconutMilk", b.CoconutMilk, coconut},
		{"horchataMix", b.HorchataMix, horchata},
		{"coldBrew", b.ColdBrew, coldBrew},
		{"water", b.Water, water},
		{"concentrate", b.Concentrate, concentrate},
		{"totalVolume", b.TotalVolume, total},
	}
	for _, c := range checks {
		if err := approx(c.name, c.got, c.want); err != nil {
			return err
		}
	}
	return nil
}

func approx(name string, got, want float64) error {
	if math.Abs(got-want) > tolerance {
		return fmt.Errorf("%s: got %v, want %v", name, got, want)
	}
	return nil
}
