package main

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/hupe1980/kanon"
	"github.com/hupe1980/kanon/blobstore"
	"github.com/hupe1980/kanon/codec"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// summary is the inspect output.
type summary struct {
	Name        string       `yaml:"name" json:"name"`
	ID          string       `yaml:"id" json:"id"`
	Bytes       int          `yaml:"bytes" json:"bytes"`
	Compression string       `yaml:"compression" json:"compression"`
	Codec       string       `yaml:"codec" json:"codec"`
	K           int          `yaml:"k" json:"k"`
	Alpha       float64      `yaml:"alpha" json:"alpha"`
	Omega       float64      `yaml:"omega" json:"omega"`
	Records     int          `yaml:"records" json:"records"`
	Attributes  int          `yaml:"attributes" json:"attributes"`
	Statistics  statsSummary `yaml:"statistics" json:"statistics"`
	Clusters    [][]int      `yaml:"clusters,omitempty" json:"clusters,omitempty"`
}

type statsSummary struct {
	Clusters       int     `yaml:"clusters" json:"clusters"`
	Rounds         int     `yaml:"rounds" json:"rounds"`
	RecordsMoved   int     `yaml:"recordsMoved" json:"recordsMoved"`
	ClustersSplit  int     `yaml:"clustersSplit" json:"clustersSplit"`
	ClustersMerged int     `yaml:"clustersMerged" json:"clustersMerged"`
	InitialLoss    float64 `yaml:"initialLoss" json:"initialLoss"`
	FinalLoss      float64 `yaml:"finalLoss" json:"finalLoss"`
	ExecutionTime  string  `yaml:"executionTime" json:"executionTime"`
	TooFewRecords  bool    `yaml:"tooFewRecords,omitempty" json:"tooFewRecords,omitempty"`
	Converged      bool    `yaml:"converged" json:"converged"`
	StopReason     string  `yaml:"stopReason,omitempty" json:"stopReason,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := storeFromFlag(cmd, "store")
	if err != nil {
		return err
	}
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}
	names, err := store.List(cmd.Context(), prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	withClusters, _ := cmd.Flags().GetBool("clusters")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	store, err := storeFromFlag(cmd, "store")
	if err != nil {
		return err
	}
	data, err := blobstore.ReadAll(cmd.Context(), store, args[0])
	if err != nil {
		return err
	}
	h, err := kanon.ReadSnapshotHeader(data)
	if err != nil {
		return err
	}
	res, err := kanon.DecodeSnapshot[any](data)
	if err != nil {
		return err
	}

	s := summarize(args[0], len(data), h, res)
	if !withClusters {
		s.Clusters = nil
	}

	var out []byte
	if format == "json" {
		out, err = json.MarshalIndent(s, "", "  ")
		out = append(out, '\n')
	} else {
		out, err = yaml.Marshal(s)
	}
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func runConvert(cmd *cobra.Command, args []string) error {
	compressionName, _ := cmd.Flags().GetString("compression")
	codecName, _ := cmd.Flags().GetString("codec")
	compression, err := parseCompression(compressionName)
	if err != nil {
		return err
	}
	c, ok := codec.ByName(codecName)
	if !ok {
		return fmt.Errorf("unknown codec %q", codecName)
	}

	source, err := storeFromFlag(cmd, "store")
	if err != nil {
		return err
	}
	target := source
	if t, _ := cmd.Flags().GetString("target-store"); t != "" {
		if target, err = storeFromFlag(cmd, "target-store"); err != nil {
			return err
		}
	}

	data, err := blobstore.ReadAll(cmd.Context(), source, args[0])
	if err != nil {
		return err
	}
	res, err := kanon.DecodeSnapshot[any](data)
	if err != nil {
		return err
	}
	out, err := res.EncodeSnapshot(compression, c)
	if err != nil {
		return err
	}
	put := target.Put
	if noClobber, _ := cmd.Flags().GetBool("no-clobber"); noClobber {
		put = func(ctx context.Context, name string, data []byte) error {
			return blobstore.PutIfAbsent(ctx, target, name, data)
		}
	}
	if err := put(cmd.Context(), args[1], out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes) -> %s (%s, %s, %d bytes)\n", args[0], len(data), args[1], compression, c.Name(), len(out))
	return nil
}

func summarize(name string, size int, h kanon.SnapshotHeader, res *kanon.Result[any]) summary {
	attrs := 0
	if len(res.Output) > 0 {
		attrs = len(res.Output[0])
	}
	st := res.Statistics
	return summary{
		Name:        name,
		ID:          res.ID.String(),
		Bytes:       size,
		Compression: h.Compression.String(),
		Codec:       h.Codec,
		K:           res.K,
		Alpha:       res.Alpha,
		Omega:       res.Omega,
		Records:     len(res.Output),
		Attributes:  attrs,
		Statistics: statsSummary{
			Clusters:       st.NumberOfClusters,
			Rounds:         st.Rounds,
			RecordsMoved:   st.RecordsMoved,
			ClustersSplit:  st.ClustersSplit,
			ClustersMerged: st.ClustersMerged,
			InitialLoss:    st.InitialLoss,
			FinalLoss:      st.FinalLoss,
			ExecutionTime:  st.ExecutionTime.Round(time.Microsecond).String(),
			TooFewRecords:  st.TooFewRecords,
			Converged:      st.Converged,
			StopReason:     st.StopReason,
		},
		Clusters: res.Clusters,
	}
}

func parseCompression(name string) (kanon.Compression, error) {
	for _, c := range []kanon.Compression{kanon.CompressionNone, kanon.CompressionLZ4, kanon.CompressionZSTD} {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown compression %q", name)
}
