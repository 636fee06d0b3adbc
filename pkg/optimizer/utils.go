package optimizer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// SaveResultsToCSV writes results, in their current order, with one column
// per parameter and metric
func SaveResultsToCSV(results []*Result, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	paramNames, metricNames := columnNames(results)

	header := []string{"rank", "duration"}
	header = append(header, paramNames...)
	header = append(header, metricNames...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, result := range results {
		row := []string{strconv.Itoa(i + 1), result.Duration.String()}
		for _, name := range paramNames {
			row = append(row, formatValue(result.Parameters[name]))
		}
		for _, name := range metricNames {
			value, exists := result.Metrics[name]
			if !exists {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(value, 'f', 4, 64))
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// PrintResults renders the first topN results as a table
func PrintResults(w io.Writer, results []*Result, targetMetric MetricName, topN int) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results to display")
		return
	}

	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}

	paramNames, metricNames := columnNames(results)
	metricNames = append([]string{string(targetMetric)},
		lo.Without(metricNames, string(targetMetric))...)

	table := tablewriter.NewWriter(w)
	table.SetHeader(append(append([]string{"#"}, paramNames...), metricNames...))

	for i, result := range results {
		row := []string{strconv.Itoa(i + 1)}
		for _, name := range paramNames {
			row = append(row, formatValue(result.Parameters[name]))
		}
		for _, name := range metricNames {
			row = append(row, fmt.Sprintf("%.4f", result.Metrics[name]))
		}
		table.Append(row)
	}

	fmt.Fprintf(w, "Top %d results by %s\n", len(results), targetMetric)
	table.Render()
}

// FormatParameterSet formats a parameter set with sorted keys
func FormatParameterSet(params ParameterSet) string {
	names := lo.Keys(params)
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %s", name, formatValue(params[name]))
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

// MergeResults combines multiple result sets into a single slice
func MergeResults(resultSets ...[]*Result) []*Result {
	return lo.Flatten(resultSets)
}

func columnNames(results []*Result) (params, metrics []string) {
	for _, result := range results {
		params = append(params, lo.Keys(result.Parameters)...)
		metrics = append(metrics, lo.Keys(result.Metrics)...)
	}

	params, metrics = lo.Uniq(params), lo.Uniq(metrics)
	sort.Strings(params)
	sort.Strings(metrics)
	return params, metrics
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	case time.Duration:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
