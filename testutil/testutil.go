package testutil

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/hupe1980/kanon/loss"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: NewRand(seed),
		seed: seed,
	}
}

// NewRand returns a deterministic, non thread-safe source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = NewRand(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// UniformTable generates num records of attrs values in [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformTable(num, attrs int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*attrs)
	rows := make([][]float64, num)
	for i := range num {
		row := data[i*attrs : (i+1)*attrs]
		for j := range row {
			row[j] = r.rand.Float64()
		}
		rows[i] = row
	}
	return rows
}

// ClusteredTable generates groups·perGroup records scattered around one
// random center per group. Record i belongs to group i / perGroup. Centers
// are at least 10 apart per attribute while spread scales the noise.
func (r *RNG) ClusteredTable(groups, perGroup, attrs int, spread float64) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([][]float64, 0, groups*perGroup)
	for g := range groups {
		center := make([]float64, attrs)
		for j := range center {
			center[j] = float64(g)*10 + r.rand.Float64()
		}
		for range perGroup {
			row := make([]float64, attrs)
			for j := range row {
				row[j] = center[j] + r.rand.NormFloat64()*spread
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// CategoricalTable generates num records with an age and a zip code
// attribute together with their generalization hierarchies.
func (r *RNG) CategoricalTable(num int) ([][]string, []loss.Hierarchy) {
	ages := AgeHierarchy()
	zips := ZipHierarchy()

	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([][]string, num)
	for i := range rows {
		rows[i] = []string{
			ages[r.rand.IntN(len(ages))][0],
			zips[r.rand.IntN(len(zips))][0],
		}
	}
	return rows, []loss.Hierarchy{ages, zips}
}

// AgeHierarchy returns a four level hierarchy over the ages 20 to 59.
func AgeHierarchy() loss.Hierarchy {
	h := make(loss.Hierarchy, 0, 40)
	for age := 20; age < 60; age++ {
		lo5 := age / 5 * 5
		lo10 := age / 10 * 10
		h = append(h, []string{
			fmt.Sprint(age),
			fmt.Sprintf("%d-%d", lo5, lo5+4),
			fmt.Sprintf("%d-%d", lo10, lo10+9),
			"*",
		})
	}
	return h
}

// ZipHierarchy returns a hierarchy over 27 five digit zip codes that
// suppresses one trailing digit per level.
func ZipHierarchy() loss.Hierarchy {
	h := make(loss.Hierarchy, 0, 27)
	for a := range 3 {
		for b := range 3 {
			for c := range 3 {
				zip := fmt.Sprintf("130%d%d%d", a, b, c)[1:]
				h = append(h, []string{
					zip,
					zip[:4] + "*",
					zip[:3] + "**",
					zip[:2] + "***",
					"*****",
				})
			}
		}
	}
	return h
}
