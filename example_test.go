package kanon_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/kanon"
	"github.com/hupe1980/kanon/blobstore"
	"github.com/hupe1980/kanon/loss"
)

// Example demonstrates microaggregation of a numeric column.
func Example() {
	rows := [][]float64{{1}, {2}, {3}, {4}, {5}, {101}, {102}, {103}, {104}, {105}}
	oracle, err := loss.NewVariance(rows)
	if err != nil {
		log.Fatal(err)
	}

	a, err := kanon.New(oracle, 5, kanon.WithSeed(42))
	if err != nil {
		log.Fatal(err)
	}
	res, err := a.Execute(context.Background(), 1.0, 2.0)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res.Clusters)
	fmt.Println(res.Output[0], res.Output[9])
	// Output:
	// [[0 1 2 3 4] [5 6 7 8 9]]
	// [3] [103]
}

// Example_hierarchical demonstrates generalization of categorical values.
func Example_hierarchical() {
	age := loss.Hierarchy{
		{"31", "30-34", "30-39", "*"},
		{"33", "30-34", "30-39", "*"},
		{"36", "35-39", "30-39", "*"},
		{"38", "35-39", "30-39", "*"},
		{"42", "40-44", "40-49", "*"},
		{"47", "45-49", "40-49", "*"},
	}
	sex := loss.Hierarchy{{"m", "*"}, {"f", "*"}}
	rows := [][]string{
		{"31", "m"}, {"33", "m"}, {"36", "f"}, {"38", "f"},
		{"42", "m"}, {"47", "f"}, {"31", "f"},
	}

	oracle, err := loss.NewHierarchical(rows, []loss.Hierarchy{age, sex})
	if err != nil {
		log.Fatal(err)
	}
	a, err := kanon.New(oracle, 5, kanon.WithSeed(7))
	if err != nil {
		log.Fatal(err)
	}
	res, err := a.Execute(context.Background(), 1.0, 2.0)
	if err != nil {
		log.Fatal(err)
	}

	// Seven records cannot form two clusters of five.
	fmt.Println(len(res.Clusters), res.Output[0])
	// Output: 1 [* *]
}

// ExampleResult_Save demonstrates persisting a result.
func ExampleResult_Save() {
	oracle, err := loss.NewVariance([][]float64{{1}, {2}, {9}, {10}})
	if err != nil {
		log.Fatal(err)
	}
	a, err := kanon.New(oracle, 2, kanon.WithSeed(1))
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	res, err := a.Execute(ctx, 1.0, 2.0)
	if err != nil {
		log.Fatal(err)
	}

	store := blobstore.NewMemoryStore()
	if err := res.Save(ctx, store, "run.kans", kanon.CompressionZSTD); err != nil {
		log.Fatal(err)
	}
	loaded, err := kanon.LoadSnapshot[float64](ctx, store, "run.kans")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(loaded.ID == res.ID, len(loaded.Output))
	// Output: true 4
}
