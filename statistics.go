package kanon

import (
	"fmt"
	"time"

	"github.com/hupe1980/kanon/internal/optimizer"
)

// Statistics describes one run, or several runs after Merge.
//
// Losses are normalized: the total loss of all clusters divided by the
// number of records.
type Statistics struct {
	RecordsMoved     int           `json:"recordsMoved"`
	ClustersSplit    int           `json:"clustersSplit"`
	ClustersMerged   int           `json:"clustersMerged"`
	InitialLoss      float64       `json:"initialLoss"`
	FinalLoss        float64       `json:"finalLoss"`
	NumberOfClusters int           `json:"numberOfClusters"`
	Rounds           int           `json:"rounds"`
	ExecutionTime    time.Duration `json:"executionTime"`
	// TooFewRecords is set when the table has fewer than k records, so the
	// single output cluster is smaller than k.
	TooFewRecords bool `json:"tooFewRecords,omitempty"`
	// Converged is false when the round cap, the time budget or the stall
	// check ended the search. StopReason names the limit.
	Converged  bool   `json:"converged"`
	StopReason string `json:"stopReason,omitempty"`
}

func statisticsFrom(c optimizer.Counters) Statistics {
	return Statistics{
		RecordsMoved:     c.RecordsMoved,
		ClustersSplit:    c.ClustersSplit,
		ClustersMerged:   c.ClustersMerged,
		InitialLoss:      c.InitialLoss,
		FinalLoss:        c.FinalLoss,
		NumberOfClusters: c.Clusters,
		Rounds:           c.Rounds,
		ExecutionTime:    c.Elapsed,
		TooFewRecords:    c.Undersized,
		Converged:        c.Converged,
		StopReason:       c.StopReason,
	}
}

// Merge accumulates the counters and execution time of other into s and
// takes the final loss, cluster count and convergence state from other.
func (s *Statistics) Merge(other Statistics) {
	s.RecordsMoved += other.RecordsMoved
	s.ClustersSplit += other.ClustersSplit
	s.ClustersMerged += other.ClustersMerged
	s.Rounds += other.Rounds
	s.ExecutionTime += other.ExecutionTime
	s.FinalLoss = other.FinalLoss
	s.NumberOfClusters = other.NumberOfClusters
	s.TooFewRecords = s.TooFewRecords || other.TooFewRecords
	s.Converged = other.Converged
	s.StopReason = other.StopReason
}

// String returns a string representation of the Statistics.
func (s Statistics) String() string {
	return fmt.Sprintf(
		"Statistics{recordsMoved=%d, clustersSplit=%d, clustersMerged=%d, initialLoss=%g, finalLoss=%g, clusters=%d, rounds=%d, converged=%t, time=%s}",
		s.RecordsMoved, s.ClustersSplit, s.ClustersMerged, s.InitialLoss, s.FinalLoss, s.NumberOfClusters, s.Rounds, s.Converged, s.ExecutionTime,
	)
}
