package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export aggregate counters",
	Long: `Export unique-visitor and per-variant exposure counters in CSV or JSON.

Examples:
  pagecraft export --format csv > counters.csv
  pagecraft export --format json > counters.json`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	store := openStore()
	tracker := openTracker(store)
	stats := tracker.Stats()

	if exportFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"experiment", "content_type", "content_slug", "variant", "exposures", "unique_visitors"}); err != nil {
		return err
	}
	for _, st := range stats {
		for variant, n := range st.VariantCounts {
			record := []string{
				st.ExperimentSlug,
				st.ContentType,
				st.ContentSlug,
				variant,
				strconv.Itoa(n),
				strconv.Itoa(st.UniqueVisitors),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}
	return nil
}
