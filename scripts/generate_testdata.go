//go:build ignore

// generate_testdata.go creates outline datasets for benchmarking and manual
// testing of large trees.
// Usage: go run scripts/generate_testdata.go
//
// Creates, per size, a YAML outline, a JSON outline and a SQLite database:
//
//	testdata/benchmark/small.{yaml,json,db}   (100 entries)
//	testdata/benchmark/medium.{yaml,json,db}  (1000 entries)
//	testdata/benchmark/large.{yaml,json,db}   (10000 entries)
//	testdata/benchmark/huge.{yaml,json,db}    (100000 entries)
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/treelist/internal/datasource"
)

type datasetSpec struct {
	name    string
	size    int
	fanout  int
	hideOne int // every hideOne-th entry is hidden
}

var datasets = []datasetSpec{
	{"small", 100, 4, 25},
	{"medium", 1000, 6, 50},
	{"large", 10000, 8, 100},
	{"huge", 100000, 12, 500},
}

var texts = []string{
	"Groceries", "Chores", "Reading list", "Project ideas", "Travel",
	"Garden", "Recipes", "Gifts", "Repairs", "Music",
}

var notes = []string{
	"",
	"# Details\n\n- Step 1: Research\n- Step 2: Implement\n- Step 3: Review",
	"Remember to **double check** before ticking this off.",
}

func main() {
	outputDir := "testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d entries)...\n", ds.name, ds.size)
		root := generate(ds)

		for _, format := range []datasource.Format{datasource.FormatYAML, datasource.FormatJSON} {
			data, err := datasource.EncodeOutline(root, format)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode %s: %v\n", ds.name, err)
				os.Exit(1)
			}
			outputPath := filepath.Join(outputDir, ds.name+"."+string(format))
			if err := os.WriteFile(outputPath, data, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
				os.Exit(1)
			}
			fmt.Printf("  Written %s (%d bytes)\n", outputPath, len(data))
		}

		dbPath := filepath.Join(outputDir, ds.name+".db")
		if err := writeSQLite(dbPath, root); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", dbPath, err)
			os.Exit(1)
		}
		fmt.Printf("  Written %s\n", dbPath)
	}

	fmt.Println("\nDone! Test datasets created in", outputDir)
}

// generate builds a breadth-first outline of ds.size entries below a root.
func generate(ds datasetSpec) *datasource.Outline {
	rng := rand.New(rand.NewSource(int64(ds.size))) // Reproducible per-size
	root := &datasource.Outline{Text: ds.name, Expanded: true}
	queue := []*datasource.Outline{root}
	for count := 0; count < ds.size; {
		parent := queue[0]
		queue = queue[1:]
		kids := 1 + rng.Intn(ds.fanout)
		for i := 0; i < kids && count < ds.size; i++ {
			count++
			child := &datasource.Outline{
				Text:      fmt.Sprintf("%s #%d", texts[count%len(texts)], count),
				Note:      notes[count%len(notes)],
				Hidden:    count%ds.hideOne == 0,
				Expanded:  rng.Intn(4) == 0,
				Checkable: count%3 != 0,
			}
			child.Checked = child.Checkable && rng.Intn(2) == 0
			parent.Children = append(parent.Children, child)
			queue = append(queue, child)
		}
		if len(queue) == 0 {
			break
		}
	}
	return root
}

func writeSQLite(path string, root *datasource.Outline) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	ctx := context.Background()
	db, err := datasource.OpenSQLite(ctx, path, false)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Import(ctx, root.Children)
}
