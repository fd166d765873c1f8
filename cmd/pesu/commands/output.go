package commands

import (
	"encoding/json"
	"os"
	"slices"
	"strconv"

	"pesuacademy/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(header)
	t.SetStyle(table.StyleRounded)
	return t
}

func printJSON(value any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(value)
	if err != nil {
		serviceutil.Fatal("failed to encode output", err)
	}
}

// jsonSemesters turns a semester keyed map into something with string keys
// in the same order as the tables.
func jsonSemesters[T any](values map[int]T) map[string]T {
	out := make(map[string]T, len(values))
	for k, v := range values {
		out[strconv.Itoa(k)] = v
	}
	return out
}

func sortedSemesters[T any](values map[int]T) []int {
	keys := make([]int, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
