package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"banvic-analytics/cmd/banvic/config"
	"banvic-analytics/internal/loader"
	"banvic-analytics/internal/pipeline"
	"banvic-analytics/internal/reporter"
)

// Flags shared by the analyze and report commands
var (
	transactionsFile string
	branchesFile     string
	customersFile    string
	dateFormats      []string
	dateMin          string
	dateMax          string
	delimiter        string
	rankingMetric    string
	segmentHigh      float64
	segmentMedium    float64
	granularity      string
	parityUnit       string
	parityAlpha      float64
	minGroupSize     int
	rankingRows      int

	outputFormat string
	outputFile   string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze banking CSV extracts",
	Long: `Analyze loads the CSV sources, validates and normalizes the rows,
computes KPIs, branch rankings, customer segments, seasonality and the
odd/even period comparison, and prints the results.

Rows that fail validation are quarantined with a reason code and reported,
not silently dropped. A missing required column aborts the analysis.

Examples:
  # Transactions only; branch/customer placeholders are synthesized
  banvic analyze --transactions transactions.csv

  # Full sources with JSON output
  banvic analyze --transactions tx.csv --branches branches.csv \
    --customers customers.csv --format json

  # Rank by transaction count, weekly seasonality
  banvic analyze --transactions tx.csv --ranking-metric volume \
    --granularity week`,

	PreRunE: validateSourceFlags,
	RunE:    runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addPipelineFlags(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&outputFormat, "format", "f", "console", "output format: console, json")
	analyzeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file path (default: stdout)")

	viper.BindPFlag("format", analyzeCmd.Flags().Lookup("format"))
}

// addPipelineFlags registers the source and analysis flags shared by the
// analyze and report commands.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&transactionsFile, "transactions", "t", "", "path to transactions CSV file (required)")
	cmd.Flags().StringVarP(&branchesFile, "branches", "b", "", "path to branches CSV file (optional)")
	cmd.Flags().StringVarP(&customersFile, "customers", "c", "", "path to customers CSV file (optional)")

	cmd.Flags().StringSliceVar(&dateFormats, "date-formats", nil, "accepted timestamp layouts in priority order (Go reference time)")
	cmd.Flags().StringVar(&dateMin, "date-min", "", "quarantine rows dated before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dateMax, "date-max", "", "quarantine rows dated after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&delimiter, "delimiter", ",", "CSV field delimiter")

	cmd.Flags().StringVar(&rankingMetric, "ranking-metric", "value", "branch ranking metric: volume, value")
	cmd.Flags().Float64Var(&segmentHigh, "segment-high", 10000, "customer total value threshold for the high segment")
	cmd.Flags().Float64Var(&segmentMedium, "segment-medium", 1000, "customer total value threshold for the medium segment")
	cmd.Flags().StringVar(&granularity, "granularity", "month", "seasonality granularity: day, week, month")
	cmd.Flags().StringVar(&parityUnit, "parity-unit", "month", "parity grouping unit: month, day")
	cmd.Flags().Float64Var(&parityAlpha, "parity-alpha", 0.05, "significance threshold for the parity test")
	cmd.Flags().IntVar(&minGroupSize, "min-group-size", 3, "minimum periods per parity group")
	cmd.Flags().IntVar(&rankingRows, "top", 10, "number of ranking rows to show")
}

// pipelineFlagNames lists the flags registered by addPipelineFlags. Each one
// is rebound to viper per command run so that values layer the usual way:
// explicit flag, then BANVIC_* environment, then config file, then default.
var pipelineFlagNames = []string{
	"transactions", "branches", "customers",
	"date-formats", "date-min", "date-max", "delimiter",
	"ranking-metric", "segment-high", "segment-medium",
	"granularity", "parity-unit", "parity-alpha", "min-group-size", "top",
}

func validateSourceFlags(cmd *cobra.Command, args []string) error {
	if err := resolvePipelineFlags(cmd); err != nil {
		return err
	}
	if transactionsFile == "" {
		return fmt.Errorf("--transactions is required")
	}
	if _, err := os.Stat(transactionsFile); err != nil {
		return fmt.Errorf("transactions file not accessible: %w", err)
	}
	for _, optional := range []string{branchesFile, customersFile} {
		if optional == "" {
			continue
		}
		if _, err := os.Stat(optional); err != nil {
			return fmt.Errorf("source file not accessible: %w", err)
		}
	}
	return nil
}

// resolvePipelineFlags binds the running command's flags to viper and reads
// every value back, so config-file and environment settings take effect for
// flags the user did not pass. Binding happens here rather than in init
// because the analyze and report commands register the same flag names.
func resolvePipelineFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	for _, name := range pipelineFlagNames {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	transactionsFile = viper.GetString("transactions")
	branchesFile = viper.GetString("branches")
	customersFile = viper.GetString("customers")
	dateFormats = viper.GetStringSlice("date-formats")
	dateMin = viper.GetString("date-min")
	dateMax = viper.GetString("date-max")
	delimiter = viper.GetString("delimiter")
	rankingMetric = viper.GetString("ranking-metric")
	segmentHigh = viper.GetFloat64("segment-high")
	segmentMedium = viper.GetFloat64("segment-medium")
	granularity = viper.GetString("granularity")
	parityUnit = viper.GetString("parity-unit")
	parityAlpha = viper.GetFloat64("parity-alpha")
	minGroupSize = viper.GetInt("min-group-size")
	rankingRows = viper.GetInt("top")
	return nil
}

// collectOptions gathers the shared flag values
func collectOptions() *config.Options {
	if viper.IsSet("format") {
		outputFormat = viper.GetString("format")
	}
	return &config.Options{
		DateFormats:   dateFormats,
		DateMin:       dateMin,
		DateMax:       dateMax,
		Delimiter:     delimiter,
		RankingMetric: rankingMetric,
		SegmentHigh:   segmentHigh,
		SegmentMedium: segmentMedium,
		Granularity:   granularity,
		ParityUnit:    parityUnit,
		ParityAlpha:   parityAlpha,
		MinGroupSize:  minGroupSize,
		OutputFormat:  outputFormat,
		RankingRows:   rankingRows,
	}
}

// loadAndAnalyze runs the shared load + analysis steps of both commands
func loadAndAnalyze(ctx context.Context, opts *config.Options) (*pipeline.Analyzer, *pipeline.Analysis, error) {
	loaderConfig, err := config.CreateLoaderConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	pipelineConfig, err := config.CreatePipelineConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	ld, err := loader.New(loaderConfig)
	if err != nil {
		return nil, nil, err
	}
	dataset, err := ld.Load(ctx, loader.Sources{
		TransactionsPath: transactionsFile,
		BranchesPath:     branchesFile,
		CustomersPath:    customersFile,
	})
	if err != nil {
		return nil, nil, err
	}

	analyzer, err := pipeline.NewAnalyzer(pipelineConfig)
	if err != nil {
		return nil, nil, err
	}
	analysis, err := analyzer.Analyze(ctx, dataset)
	if err != nil {
		return nil, nil, err
	}
	return analyzer, analysis, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	opts := collectOptions()

	_, analysis, err := loadAndAnalyze(ctx, opts)
	if err != nil {
		return handleError(err)
	}

	reporterConfig, err := config.CreateReporterConfig(opts)
	if err != nil {
		return handleError(err)
	}
	rep, err := reporter.New(reporterConfig)
	if err != nil {
		return handleError(err)
	}

	out := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return handleError(err)
		}
		defer f.Close()
		out = f
	}
	if err := rep.Write(analysis, out); err != nil {
		return handleError(err)
	}
	return nil
}
