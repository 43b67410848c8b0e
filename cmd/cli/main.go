package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"goconcord/adapters/datafile"
	"goconcord/adapters/notebook"
	"goconcord/domain/crossval"
	"goconcord/domain/stats"
	"goconcord/internal/config"
	"goconcord/internal/container"
	"goconcord/internal/report"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

// errFailed signals a completed run whose checks did not all pass
var errFailed = errors.New("validation failed")

func main() {
	rootCmd := &cobra.Command{
		Use:           "goconcord",
		Short:         "Validate drug-protein interaction cross-validation results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil {
				log.Println("No .env file found, using system environment variables")
			}
		},
	}

	rootCmd.AddCommand(
		newValidateCmd(),
		newCIndexCmd(),
		newFoldsCmd(),
		newNotebookCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newValidateCmd() *cobra.Command {
	var (
		paths        datafile.Paths
		notebookPath string
		xlsxPath     string
		htmlPath     string
		jsonOut      bool
		strict       bool
		noModel      bool
		concurrency  int
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run every validation check and report the cross-validation C-index",
		Long: `Run the data integrity, mapping, fold count, independence and C-index
checks, evaluate LODO, LOPO and LOOPD with a ridge model and scrape the
executed notebook. Exits 1 if any check fails.

Flags override the matching environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("input") {
				cfg.Data.Paths.Features = paths.Features
			}
			if flags.Changed("output") {
				cfg.Data.Paths.Outcomes = paths.Outcomes
			}
			if flags.Changed("pairs") {
				cfg.Data.Paths.Pairs = paths.Pairs
			}
			if flags.Changed("notebook") {
				cfg.Data.NotebookPath = notebookPath
			}
			if flags.Changed("xlsx") {
				cfg.Report.XLSXPath = xlsxPath
			}
			if flags.Changed("html") {
				cfg.Report.HTMLPath = htmlPath
			}
			if flags.Changed("strict") {
				cfg.Data.StrictCardinality = strict
			}
			if flags.Changed("concurrency") {
				cfg.Evaluation.FoldConcurrency = concurrency
			}
			if noModel {
				cfg.Evaluation.EvaluateModel = false
			}
			return runValidate(cmd.Context(), cfg, jsonOut)
		},
	}

	defaults := datafile.DefaultPaths()
	cmd.Flags().StringVar(&paths.Features, "input", defaults.Features, "Feature matrix file")
	cmd.Flags().StringVar(&paths.Outcomes, "output", defaults.Outcomes, "Outcome file")
	cmd.Flags().StringVar(&paths.Pairs, "pairs", defaults.Pairs, "Protein-drug pairing file")
	cmd.Flags().StringVar(&notebookPath, "notebook", "", "Executed notebook to scrape (empty to skip)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the report as an Excel workbook")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Write the report as an HTML page")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON instead of text")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on unexpected sample, protein or drug counts")
	cmd.Flags().BoolVar(&noModel, "no-model", false, "Skip the cross-validation model evaluation")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Folds evaluated concurrently")

	return cmd
}

func runValidate(ctx context.Context, cfg *config.Config, jsonOut bool) error {
	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer c.Shutdown(ctx)
	if err := c.InitDatabase(ctx); err != nil {
		return err
	}

	r, err := c.Orchestrator.Run(ctx)
	if err != nil {
		return err
	}
	if jsonOut {
		err = report.WriteJSON(os.Stdout, r)
	} else {
		err = report.RenderText(os.Stdout, r)
	}
	if err != nil {
		return err
	}
	if err := c.Export(ctx, r); err != nil {
		return err
	}
	if !r.Passed() {
		return errFailed
	}
	return nil
}

func newCIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cindex [file]",
		Short: "Compute the C-index of a two-column file of truth and prediction",
		Long: `Compute the concordance index of predictions against truth. The file holds
one sample per line: the true value, then the predicted value.

Example: goconcord cindex predictions.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := datafile.LoadFeatures(args[0])
			if err != nil {
				return err
			}
			if _, cols := m.Dims(); cols != 2 {
				return fmt.Errorf("expected 2 columns (truth, prediction), got %d", cols)
			}
			yTrue := mat.Col(nil, 0, m)
			yPred := mat.Col(nil, 1, m)

			counts, err := stats.Concordance(yTrue, yPred)
			if err != nil {
				return err
			}
			c, err := stats.CIndex(yTrue, yPred)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "C-index: %.3f (%d concordant, %d discordant, %d tied truth)\n",
				c, counts.Concordant, counts.Discordant, counts.TiedTruth)
			return nil
		},
	}
	return cmd
}

func newFoldsCmd() *cobra.Command {
	var pairsPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "folds [policy]",
		Short: "List the folds of LODO, LOPO or LOOPD and check their independence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := crossval.ParsePolicy(args[0])
			if err != nil {
				return err
			}
			table, err := datafile.LoadPairs(pairsPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			folds := crossval.Folds(table, policy)
			if verbose {
				for _, f := range folds {
					fmt.Fprintf(out, "%-40s train=%-4d test=%-4d excluded=%d\n",
						f.Key(), len(f.Train), len(f.Test), f.Excluded(len(table)))
				}
			}
			if err := crossval.CheckFolds(table, policy, folds); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ %s: %d folds, train-test independence maintained\n", policy, len(folds))
			return nil
		},
	}

	cmd.Flags().StringVar(&pairsPath, "pairs", datafile.DefaultPaths().Pairs, "Protein-drug pairing file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every fold")
	return cmd
}

func newNotebookCmd() *cobra.Command {
	var minCIndex float64

	cmd := &cobra.Command{
		Use:   "notebook [path]",
		Short: "Scrape LODO, LOPO and LOOPD C-index values from an executed notebook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := notebook.CheckNotebook(args[0], minCIndex)
			out := cmd.OutOrStdout()
			for _, m := range res.Metrics {
				if m.Found() {
					fmt.Fprintf(out, "✓ %s-CV C-index found: %g\n", m.Label, m.Value)
				} else {
					fmt.Fprintf(out, "⚠ %s\n", m.Reason)
				}
			}
			switch res.Status {
			case notebook.StatusValidated:
				fmt.Fprintln(out, "✓ Results validated")
				return nil
			case notebook.StatusFailed:
				fmt.Fprintf(out, "✗ %s\n", res.Reason)
				return errFailed
			default:
				fmt.Fprintf(out, "⚠ Could not validate: %s\n", strings.TrimSpace(res.Reason))
				return nil
			}
		},
	}

	cmd.Flags().Float64Var(&minCIndex, "min", 0.5, "Lowest acceptable C-index")
	return cmd
}
