package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func writeTransactionsFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	data := "transaction_id,transaction_date,branch_id,customer_id,amount\nTX001,2023-01-15,BR-1,CU-1,100.50\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to create transactions file: %v", err)
	}
	return path
}

func TestValidateSourceFlags_AppliesConfigValues(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	txPath := writeTransactionsFixture(t)
	viper.Set("transactions", txPath)
	viper.Set("granularity", "week")
	viper.Set("ranking-metric", "volume")
	viper.Set("delimiter", ";")
	viper.Set("parity-alpha", 0.01)
	viper.Set("min-group-size", 4)
	viper.Set("segment-high", 5000.0)
	viper.Set("top", 3)
	viper.Set("format", "json")

	cmd := &cobra.Command{}
	addPipelineFlags(cmd)
	if err := validateSourceFlags(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opts := collectOptions()
	if opts.Granularity != "week" {
		t.Errorf("expected granularity week, got %q", opts.Granularity)
	}
	if opts.RankingMetric != "volume" {
		t.Errorf("expected ranking metric volume, got %q", opts.RankingMetric)
	}
	if opts.Delimiter != ";" {
		t.Errorf("expected delimiter ;, got %q", opts.Delimiter)
	}
	if opts.ParityAlpha != 0.01 {
		t.Errorf("expected parity alpha 0.01, got %v", opts.ParityAlpha)
	}
	if opts.MinGroupSize != 4 {
		t.Errorf("expected min group size 4, got %d", opts.MinGroupSize)
	}
	if opts.SegmentHigh != 5000.0 {
		t.Errorf("expected segment high 5000, got %v", opts.SegmentHigh)
	}
	if opts.RankingRows != 3 {
		t.Errorf("expected 3 ranking rows, got %d", opts.RankingRows)
	}
	if opts.OutputFormat != "json" {
		t.Errorf("expected output format json, got %q", opts.OutputFormat)
	}
	if transactionsFile != txPath {
		t.Errorf("expected transactions path %q, got %q", txPath, transactionsFile)
	}
}

func TestValidateSourceFlags_FlagOverridesConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.SetConfigType("yaml")
	if err := viper.ReadConfig(strings.NewReader("granularity: week\ndelimiter: \";\"\n")); err != nil {
		t.Fatalf("failed to read config: %v", err)
	}

	txPath := writeTransactionsFixture(t)
	cmd := &cobra.Command{}
	addPipelineFlags(cmd)
	if err := cmd.Flags().Set("transactions", txPath); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	if err := cmd.Flags().Set("granularity", "day"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}

	if err := validateSourceFlags(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opts := collectOptions()
	if opts.Granularity != "day" {
		t.Errorf("expected explicit flag to win, got granularity %q", opts.Granularity)
	}
	if opts.Delimiter != ";" {
		t.Errorf("expected config delimiter ;, got %q", opts.Delimiter)
	}
}

func TestValidateSourceFlags_DefaultsSurviveRebinding(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	txPath := writeTransactionsFixture(t)
	cmd := &cobra.Command{}
	addPipelineFlags(cmd)
	if err := cmd.Flags().Set("transactions", txPath); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}

	if err := validateSourceFlags(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opts := collectOptions()
	if opts.Granularity != "month" {
		t.Errorf("expected default granularity month, got %q", opts.Granularity)
	}
	if opts.Delimiter != "," {
		t.Errorf("expected default delimiter, got %q", opts.Delimiter)
	}
	if opts.ParityAlpha != 0.05 {
		t.Errorf("expected default parity alpha, got %v", opts.ParityAlpha)
	}
	if opts.MinGroupSize != 3 {
		t.Errorf("expected default min group size, got %d", opts.MinGroupSize)
	}
	if opts.RankingRows != 10 {
		t.Errorf("expected default of 10 ranking rows, got %d", opts.RankingRows)
	}
}

func TestValidateSourceFlags_MissingTransactions(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cmd := &cobra.Command{}
	addPipelineFlags(cmd)

	err := validateSourceFlags(cmd, nil)
	if err == nil {
		t.Fatal("expected error for missing transactions flag")
	}
	if !strings.Contains(err.Error(), "--transactions is required") {
		t.Errorf("unexpected error message: %v", err)
	}
}
