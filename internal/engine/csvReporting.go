package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
)

// WriteReportCSVFile writes the executions of a rebalance report to a CSV file at the given path.
func WriteReportCSVFile(path string, report *RebalanceReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	return WriteReportCSV(f, report)
}

// WriteReportCSV writes one row per applied order followed by one row per
// weight key, to any io.Writer.
func WriteReportCSV(w io.Writer, report *RebalanceReport) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"row", // "trade" or "weight"
		"phase",
		"symbol",
		"side",
		"quantity",
		"price",
		"value",
		"weight_before",
		"weight_after",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, ex := range report.Executions {
		if err := writeExecutionRow(cw, ex); err != nil {
			return err
		}
	}

	keys := make([]string, 0, len(report.WeightsAfter))
	for k := range report.WeightsAfter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		record := []string{
			"weight", "", k, "", "", "", "",
			report.WeightsBefore[k].String(),
			report.WeightsAfter[k].String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeExecutionRow(cw *csv.Writer, ex Execution) error {
	record := []string{
		"trade",
		string(ex.Phase),
		ex.Order.Symbol,
		string(ex.Order.Side()),
		ex.Order.Quantity.Abs().String(),
		ex.Price.Value().String(),
		ex.Value().Value().String(),
		"",
		"",
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
