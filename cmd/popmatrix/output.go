package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// tableWriter emits rows either as aligned text or as CSV, per the
// global --csv flag. Errors stick; flush surfaces the first one.
type tableWriter struct {
	csvW *csv.Writer
	tabW *tabwriter.Writer
	err  error
}

func newTableWriter(cmd *cobra.Command) *tableWriter {
	if asCSV, _ := cmd.Flags().GetBool("csv"); asCSV {
		return &tableWriter{csvW: csv.NewWriter(os.Stdout)}
	}

	return &tableWriter{tabW: tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)}
}

func (w *tableWriter) header(cols []string) { w.row(cols) }

func (w *tableWriter) row(cols []string) {
	if w.csvW != nil {
		if err := w.csvW.Write(cols); err != nil && w.err == nil {
			w.err = err
		}
		return
	}
	if _, err := fmt.Fprintln(w.tabW, strings.Join(cols, "\t")); err != nil && w.err == nil {
		w.err = err
	}
}

func (w *tableWriter) flush() error {
	if w.csvW != nil {
		w.csvW.Flush()
		if w.err == nil {
			w.err = w.csvW.Error()
		}
		return w.err
	}
	if err := w.tabW.Flush(); err != nil && w.err == nil {
		w.err = err
	}

	return w.err
}
