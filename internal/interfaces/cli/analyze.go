package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/smiles-algebra/internal/application/structure"
	"github.com/turtacn/smiles-algebra/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/smiles-algebra/pkg/errors"
)

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <smiles|->",
		Short: "Validate, round-trip and decompile one SMILES string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			s, err := smilesArg(cmd, args[0])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			svc := cliCtx.NewService(structure.OptionsFromConfig(cliCtx.Config))
			rep, err := svc.Analyze(ctx, s)
			if err != nil {
				return err
			}
			return PrintResult(cmd, rep, func(w io.Writer) error {
				writeReport(w, rep)
				return nil
			})
		},
	}
}

func writeReport(w io.Writer, rep *structure.Report) {
	fmt.Fprintf(w, "input:     %s\n", rep.Input)
	fmt.Fprintf(w, "valid:     %t\n", rep.Valid)
	if !rep.Valid {
		fmt.Fprintf(w, "error:     %s %s\n", rep.Error.Code, rep.Error.Message)
		return
	}
	fmt.Fprintf(w, "kind:      %s\n", rep.Kind)
	fmt.Fprintf(w, "smiles:    %s\n", rep.SMILES)
	if rep.RoundTrip != nil {
		fmt.Fprintf(w, "roundtrip: %s\n", rep.RoundTrip.Status)
	}
	if rep.Decompile != nil {
		fmt.Fprintf(w, "decompile: %s\n", rep.Decompile.Result)
	}
	st := rep.Stats
	fmt.Fprintf(w, "stats:     atoms=%d aromatic=%d bracket=%d bonds=%d branches=%d closures=%d components=%d\n",
		st.Atoms, st.AromaticAtoms, st.BracketAtoms, st.Bonds, st.Branches, st.RingClosures, st.Components)
	if rep.Engine != nil {
		fmt.Fprintf(w, "engine:    %s %s\n", rep.Engine.Engine, rep.Engine.Verdict)
	}
	fmt.Fprintf(w, "cached:    %t\n", rep.Cached)
	if rep.Code != "" {
		fmt.Fprintf(w, "code:\n%s", rep.Code)
	}
}

func newBatchCmd() *cobra.Command {
	var (
		concurrency int
		failFast    bool
		metricsOut  string
	)

	cmd := &cobra.Command{
		Use:   "batch [file|-]",
		Short: "Analyse one SMILES string per line",
		Long: "batch reads one SMILES string per line from file or stdin, skipping\n" +
			"blank lines and # comments, and prints a table of verdicts or the full\n" +
			"reports in json mode. Reports keep input order.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			data, err := readSource(cmd, src)
			if err != nil {
				return err
			}
			inputs, err := readLines(strings.NewReader(string(data)))
			if err != nil {
				return err
			}

			opts := structure.OptionsFromConfig(cliCtx.Config)
			if cmd.Flags().Changed("concurrency") {
				opts.Concurrency = concurrency
			}
			if cmd.Flags().Changed("fail-fast") {
				opts.FailFast = failFast
			}
			if opts.Concurrency < 1 {
				return errors.Newf(errors.ErrCodeBadRequest, "concurrency must be at least 1, got %d", opts.Concurrency)
			}
			if metricsOut != "" {
				if _, err := cliCtx.EnsureCollector(); err != nil {
					return err
				}
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			res, runErr := cliCtx.NewService(opts).AnalyzeBatch(ctx, inputs)
			if res != nil {
				if err := PrintResult(cmd, res, func(w io.Writer) error {
					writeBatch(w, res)
					return nil
				}); err != nil {
					return err
				}
			}
			if metricsOut != "" {
				if err := dumpMetrics(cliCtx, metricsOut); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	f := cmd.Flags()
	f.IntVar(&concurrency, "concurrency", 0, "worker count (default from config)")
	f.BoolVar(&failFast, "fail-fast", false, "stop at the first invalid input")
	f.StringVar(&metricsOut, "metrics-out", "", "write Prometheus text exposition to this file after the run (- for stderr)")
	return cmd
}

func writeBatch(w io.Writer, res *structure.BatchResult) {
	rows := make([][]string, len(res.Reports))
	for i, r := range res.Reports {
		rows[i] = batchRow(i+1, r)
	}
	io.WriteString(w, FormatTable([]string{"#", "STATUS", "KIND", "ROUNDTRIP", "DECOMPILE", "SMILES"}, rows))
	s := res.Summary
	fmt.Fprintf(w, "\nrun %s: %d total, %d valid, %d invalid, %d perfect, %d stabilized, %d unstable, %d decompiled",
		res.RunID, s.Total, s.Valid, s.Invalid, s.Perfect, s.Stabilized, s.Unstable, s.DecompileOK)
	if s.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped", s.Skipped)
	}
	fmt.Fprintln(w)
}

func batchRow(n int, r *structure.Report) []string {
	idx := strconv.Itoa(n)
	switch {
	case r == nil:
		return []string{idx, "skipped", "", "", "", ""}
	case !r.Valid:
		return []string{idx, "invalid", "", "", "", r.Input + "  " + r.Error.Code}
	}
	rt, dc := "", ""
	if r.RoundTrip != nil {
		rt = string(r.RoundTrip.Status)
	}
	if r.Decompile != nil {
		dc = r.Decompile.Result
	}
	return []string{idx, "valid", r.Kind, rt, dc, r.SMILES}
}

// dumpMetrics writes the text exposition to path.
func dumpMetrics(cliCtx *CLIContext, path string) error {
	if path == "-" {
		return cliCtx.Collector.WriteText(os.Stderr)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeBadRequest, "cannot create "+path)
	}
	if err := cliCtx.Collector.WriteText(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "cannot write "+path)
	}
	cliCtx.Logger.Debug("metrics written", logging.String("path", path))
	return nil
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the report cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every cached report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if cliCtx.Cache == nil {
				return errors.New(errors.ErrCodeConfig, "report cache is not enabled or not reachable")
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			n, err := cliCtx.NewService(structure.OptionsFromConfig(cliCtx.Config)).Purge(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, map[string]int64{"deleted": n}, func(w io.Writer) error {
				fmt.Fprintf(w, "deleted %d cached report(s)\n", n)
				return nil
			})
		},
	})
	return cmd
}
