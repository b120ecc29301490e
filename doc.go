// Package kanon anonymizes tabular data by clustering records into groups of
// at least k members and replacing every record with its group's
// generalized tuple (k-anonymity by microaggregation).
//
// The optimizer is the local search of Tassa et al.: it starts from a random
// partition into clusters of about alpha·k records, repeatedly moves single
// records to the cluster where they add the least information loss and
// splits clusters that grow beyond omega·k, and finally merges clusters
// smaller than k until every cluster is large enough.
//
// What "information loss" and "generalized tuple" mean is defined by a
// cluster.Oracle. Package loss ships two:
//
//   - loss.NewVariance: numeric attributes, loss is the within-cluster sum
//     of squared deviations, tuples are per-attribute means
//   - loss.NewHierarchical: categorical attributes with generalization
//     hierarchies, tuples are the lowest common ancestors
//
// # Quick Start
//
//	oracle, err := loss.NewVariance(rows)
//	if err != nil { ... }
//
//	a, err := kanon.New(oracle, 5,
//	    kanon.WithSeed(42),
//	    kanon.WithLogger(kanon.NewJSONLogger(slog.LevelInfo)),
//	)
//	res, err := a.Execute(ctx, 1.0, 2.0)
//
//	for i, row := range res.Output { ... } // generalized rows, input order
//	fmt.Println(res.Statistics)
//
// # Multiple Starts
//
// The result depends on the random initial partition. RunBest executes
// several seeded runs concurrently and keeps the one with the lowest loss:
//
//	best, total, err := kanon.RunBest(ctx, oracle, 5, 1.0, 2.0, 8, 4, kanon.WithSeed(42))
//
// # Snapshots
//
// Results can be persisted to any blobstore.Store (memory, local directory,
// MinIO, S3), compressed with LZ4 or Zstandard:
//
//	err = res.Save(ctx, blobstore.NewLocalStore("./runs"), "adult-k5.kans", kanon.CompressionZSTD)
//	res, err = kanon.LoadSnapshot[float64](ctx, store, "adult-k5.kans")
//
// # Errors
//
// Invalid parameters yield *ErrInvalidParameter (errors.Is ErrInvalidConfig)
// before any state changes. Violated algorithm invariants, which point at a
// faulty oracle, yield *ErrInternal (errors.Is ErrInconsistent). A run that
// exhausts WithMaxRounds, WithTimeBudget or WithStallRounds still returns a
// finalized result with Statistics.Converged unset. WithRequireFixpoint turns
// that case into ErrNotConverged.
// Context cancellation is returned as the context's error.
package kanon
