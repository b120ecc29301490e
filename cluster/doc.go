// Package cluster defines the contract between the kanon optimizer and the
// information-loss model that scores groups of records.
//
// # Identity Types
//
//   - Record: a dense index 0..NumRecords()-1 into the input table
//   - Cluster: a mutable group of records that is generalized as one unit
//   - Pair: a transient best-candidate result returned by search routines
//
// # Implementing an Oracle
//
// The optimizer never looks at attribute values. Everything it knows about a
// group of records comes from the Cluster methods below, so an Oracle fully
// determines both the loss being minimised and the generalized output:
//
//	type Oracle[V any] interface {
//	    NumRecords() int
//	    NumAttributes() int
//	    NewCluster(records []int) Cluster[V]
//	}
//
// LossIfAdded must never report less than Loss for any record (adding a
// record never makes a cluster cheaper). The optimizer treats a negative
// marginal cost as a broken oracle and aborts the run.
//
// The loss package ships two reference oracles (numeric microaggregation
// and hierarchy-based generalization).
package cluster
