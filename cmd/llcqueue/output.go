package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"llcqueue/internal/status"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, colorize bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if colorize {
		tw.SetStyle(table.StyleColoredBright)
	} else {
		tw.SetStyle(table.StyleRounded)
	}

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var titleCaser = cases.Title(language.Und)

// processLabel turns "post_processing" into "Post Processing" for headings.
func processLabel(process string) string {
	return titleCaser.String(strings.ReplaceAll(process, "_", " "))
}

// formatIDs renders identifiers compactly, folding consecutive runs into
// ranges: [1 2 3 7] becomes "1-3, 7".
func formatIDs(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var parts []string
	start, prev := sorted[0], sorted[0]
	flush := func() {
		if start == prev {
			parts = append(parts, strconv.FormatInt(start, 10))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, id := range sorted[1:] {
		if id == prev+1 {
			prev = id
			continue
		}
		flush()
		start, prev = id, id
	}
	flush()
	return strings.Join(parts, ", ")
}

// joinIDs renders identifiers in list order.
func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, " ")
}

type pairJSON struct {
	Pending    []int64 `json:"pending"`
	InProgress []int64 `json:"in_progress"`
	Completed  []int64 `json:"completed"`
}

func toPairJSON(vs *status.VariableStatus) pairJSON {
	out := pairJSON{Pending: []int64{}, InProgress: []int64{}, Completed: []int64{}}
	if vs == nil {
		return out
	}
	out.Pending = append(out.Pending, vs.Pending...)
	out.InProgress = append(out.InProgress, vs.InProgress...)
	out.Completed = append(out.Completed, vs.Completed...)
	return out
}

func documentJSON(doc *status.Document) map[string]map[string]pairJSON {
	out := make(map[string]map[string]pairJSON)
	for _, key := range doc.Keys() {
		vs, _ := doc.Lookup(key)
		if out[key.Process] == nil {
			out[key.Process] = make(map[string]pairJSON)
		}
		out[key.Process][key.Variable] = toPairJSON(vs)
	}
	return out
}
