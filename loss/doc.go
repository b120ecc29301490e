// Package loss provides reference information-loss oracles for kanon.
//
// Two oracles are included:
//
//   - Variance: numeric microaggregation. The loss of a cluster is the
//     within-cluster sum of squared deviations summed over attributes, and
//     the generalized value of an attribute is the cluster mean.
//   - Hierarchical: categorical generalization over value hierarchies. The
//     loss of a cluster is its size times the mean normalized width of the
//     lowest common ancestor of its values, and the generalized value is the
//     label of that ancestor.
//
// Both losses never decrease when a record is added, which the optimizer
// relies on. Cluster membership is kept in roaring bitmaps, and every loss
// query is answered from incremental aggregates.
//
// Oracles only read their input table, so one oracle may back several
// concurrent optimizer runs. Clusters are not safe for concurrent use.
package loss
