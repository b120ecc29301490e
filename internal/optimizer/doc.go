// Package optimizer implements the local-search clustering loop behind kanon.
//
// A run walks through five phases:
//
//	INITIALIZE     random partition into clusters of floor(alpha·k) records,
//	               or a caller-supplied seed partition
//	MOVE_RECORDS   relocate each record to the cluster where it is cheapest
//	SPLIT_CLUSTERS split every cluster larger than omega·k
//	FINALIZE       merge clusters smaller than k
//	DONE           write each cluster's tuple into its records' output rows
//
// MOVE_RECORDS and SPLIT_CLUSTERS alternate until a full round changes
// nothing. Clusters live in a partition arena and are addressed by
// generation-tagged handles, so a stale handle can never alias a cluster
// created later in the same slot.
//
// An Optimizer is single-threaded and is not safe for concurrent use.
package optimizer
