package mapleio

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
)

// SweepStat is one SPR sweep's outcome, as accumulated by internal/engine
// while it drives internal/spr.ImproveEntireTree sweep by sweep.
type SweepStat struct {
	Sweep       int
	Improvement float64
}

// WriteSPRDiagnosticsCSV writes one row per sweep: sweep number, that
// sweep's total accepted improvement, and the running cumulative total.
// Grounded on camus's internal/prep/io.go WriteDPResultsToCSV (csv.Writer,
// deferred Flush-then-surface-error).
func WriteSPRDiagnosticsCSV(w io.Writer, stats []SweepStat) (err error) {
	data := make([][]string, len(stats)+1)
	data[0] = []string{"Sweep", "Improvement", "Cumulative Improvement"}
	var cumulative float64
	for i, s := range stats {
		cumulative += s.Improvement
		data[i+1] = []string{
			strconv.Itoa(s.Sweep),
			strconv.FormatFloat(s.Improvement, 'f', -1, 64),
			strconv.FormatFloat(cumulative, 'f', -1, 64),
		}
	}
	writer := csv.NewWriter(w)
	defer func() {
		writer.Flush()
		if err == nil {
			err = writer.Error()
		} else if writer.Error() != nil {
			log.Printf("error when flushing SPR diagnostics csv, %s", writer.Error())
		}
	}()
	if err = writer.WriteAll(data); err != nil {
		err = fmt.Errorf("%w: %s", ErrWritingFile, err)
		return
	}
	return
}
