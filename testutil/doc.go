// Package testutil provides testing utilities for kanon.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded random sources and synthetic tables.
//
// # Numeric Tables
//
//	rng := testutil.NewRNG(seed)
//	data := rng.UniformTable(100, 3)          // uniform [0, 1)
//	data = rng.ClusteredTable(4, 25, 3, 0.1) // 4 groups of 25 records
//
// # Categorical Tables
//
//	data, hierarchies := rng.CategoricalTable(100)
//	oracle, _ := loss.NewHierarchical(data, hierarchies)
package testutil
