// Command generate_sample writes a JSON dataset that exercises CSV escaping,
// decimal separators and sparse records.
// Usage: go run cmd/generate_sample/main.go [-out path/to/people.json] [-rows 100]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mrlokans/csvexport/internal/csvbuild"
)

const defaultSamplePath = "./sample/people.json"

type sampleBook struct {
	Title  string
	Author string
	Year   int
	Rating float64
}

var sampleBooks = []sampleBook{
	{"Pride and Prejudice", "Jane Austen", 1813, 4.3},
	{"Moby-Dick; or, The Whale", "Herman Melville", 1851, 3.5},
	{"The Adventures of \"Sherlock Holmes\"", "Arthur Conan Doyle", 1892, 4.3},
	{"Frankenstein", "Mary Shelley", 1818, 3.9},
	{"A Tale of Two Cities", "Charles Dickens", 1859, 3.9},
	{"Walden\nor, Life in the Woods", "Henry David Thoreau", 1854, 3.8},
}

func main() {
	out := flag.String("out", defaultSamplePath, "path of the JSON dataset to write")
	rows := flag.Int("rows", len(sampleBooks), "number of records to generate")
	flag.Parse()

	records := make([]csvbuild.Record, 0, *rows)
	for i := 0; i < *rows; i++ {
		book := sampleBooks[i%len(sampleBooks)]
		fields := []csvbuild.Field{
			{Key: "id", Value: i + 1},
			{Key: "title", Value: book.Title},
			{Key: "author", Value: book.Author},
			{Key: "year", Value: book.Year},
			{Key: "rating", Value: book.Rating},
		}
		// Every third record lacks a rating and has a flag instead
		if i%3 == 2 {
			fields = append(fields[:4], csvbuild.Field{Key: "favourite", Value: true})
		}
		records = append(records, csvbuild.Fields(fields...))
	}

	data, err := json.MarshalIndent(csvbuild.NewDataset(records...), "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode dataset: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		log.Fatalf("Failed to write dataset: %v", err)
	}

	log.Printf("Wrote %d records to %s", len(records), *out)
	fmt.Printf("\nTry it:\n  go run . export -input %s -header -sep semicolon -decimal ,\n", *out)
}
