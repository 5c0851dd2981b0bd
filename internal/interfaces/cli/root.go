// Package cli is the cobra command tree of the smiles tool.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/smiles-algebra/internal/application/structure"
	"github.com/turtacn/smiles-algebra/internal/config"
	rediscache "github.com/turtacn/smiles-algebra/internal/infrastructure/database/redis"
	"github.com/turtacn/smiles-algebra/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/smiles-algebra/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const (
	OutputText = "text"
	OutputJSON = "json"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Timeout      time.Duration
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Cache        rediscache.Cache
	Collector    prometheus.MetricsCollector
	OutputFormat string
	Timeout      time.Duration

	closers []func() error
}

// NewService builds an analysis service over the shared collaborators.
func (c *CLIContext) NewService(opts structure.Options) *structure.Service {
	options := []structure.Option{structure.WithLogger(c.Logger)}
	if c.Cache != nil {
		options = append(options, structure.WithCache(c.Cache))
	}
	if c.Collector != nil {
		options = append(options, structure.WithMetrics(prometheus.NewMetrics(c.Collector)))
	}
	return structure.NewService(opts, options...)
}

// EnsureCollector returns the metrics collector, creating one when metrics
// are disabled in config but a command needs a dump anyway.
func (c *CLIContext) EnsureCollector() (prometheus.MetricsCollector, error) {
	if c.Collector != nil {
		return c.Collector, nil
	}
	col, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: c.Config.Metrics.Namespace}, c.Logger)
	if err != nil {
		return nil, err
	}
	c.Collector = col
	return col, nil
}

func (c *CLIContext) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("shutdown step failed", logging.Err(err))
		}
	}
	c.closers = nil
	_ = c.Logger.Sync()
}

// NewRootCommand creates the root cobra command with all global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "smiles",
		Short: "Parse, rebuild and decompile SMILES strings",
		Long: "smiles turns SMILES strings into an immutable structural tree of linear\n" +
			"chains, rings, fused ring systems and molecules, rebuilds strings from\n" +
			"trees and decompiles trees into build scripts that reproduce them.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cliCtx, err := GetCLIContext(cmd); err == nil {
				cliCtx.close()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./smiles.yaml, then ~/.smiles/config.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputText, "output format (text, json)")
	pf.DurationVar(&opts.Timeout, "timeout", 0, "overall deadline, 0 for none")

	cmd.AddCommand(
		newParseCmd(),
		newRoundTripCmd(),
		newCodeCmd(),
		newExecCmd(),
		newValidateCmd(),
		newRenderCmd(),
		newAnalyzeCmd(),
		newBatchCmd(),
		newQueryCmd(),
		newCacheCmd(),
	)
	return cmd
}

// persistentPreRun loads config, builds the logger and optional collaborators,
// then stores a CLIContext on the command.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch opts.OutputFormat {
	case OutputText, OutputJSON:
	default:
		return errors.Newf(errors.ErrCodeBadRequest, "unknown output format %q (want text or json)", opts.OutputFormat)
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: opts.OutputFormat,
		Timeout:      opts.Timeout,
	}

	if cfg.Metrics.Enabled {
		col, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:       cfg.Metrics.Namespace,
			EnableGoMetrics: true,
		}, logger)
		if err != nil {
			return err
		}
		cliCtx.Collector = col
	}

	if cfg.Cache.Enabled {
		initCache(cmd, cliCtx)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./smiles.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".smiles", "config.yaml"))
	}
	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			return config.Load(p)
		}
	}
	return config.LoadFromEnv()
}

// initCache connects the report cache. An unreachable server is logged and
// the tool runs uncached.
func initCache(cmd *cobra.Command, cliCtx *CLIContext) {
	cfg := cliCtx.Config.Cache
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := rediscache.NewClient(ctx, rediscache.ClientConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	}, cliCtx.Logger)
	if err != nil {
		cliCtx.Logger.Warn("report cache unavailable, continuing without it",
			logging.String("addr", cfg.Addr), logging.Err(err))
		return
	}
	cliCtx.Cache = rediscache.NewRedisCache(client, cliCtx.Logger,
		rediscache.WithPrefix(cfg.KeyPrefix),
		rediscache.WithTTL(cfg.TTL),
	)
	cliCtx.closers = append(cliCtx.closers, client.Close)
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLIContext not found in command context")
	}
	return cliCtx, nil
}

// commandContext applies the --timeout deadline.
func commandContext(cmd *cobra.Command, cliCtx *CLIContext) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if cliCtx.Timeout > 0 {
		return context.WithTimeout(ctx, cliCtx.Timeout)
	}
	return context.WithCancel(ctx)
}

// Execute runs the command tree and returns the process exit status.
func Execute() int {
	return run(NewRootCommand(), os.Args[1:])
}

func run(rootCmd *cobra.Command, args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		PrintError(rootCmd, err)
		code := errors.GetCode(err)
		if code == errors.CodeUnknown {
			// cobra usage errors
			return errors.ExitInput
		}
		return errors.ExitStatusForCode(code)
	}
	return errors.ExitOK
}

// ─────────────────────────────────────────────────────────────────────────────
// Input helpers
// ─────────────────────────────────────────────────────────────────────────────

// readSource returns the contents of path, or stdin when path is "-".
func readSource(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "cannot read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "cannot read "+path)
	}
	return data, nil
}

// smilesArg is the single SMILES argument; "-" reads one string from stdin.
func smilesArg(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := readSource(cmd, arg)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// readLines returns the non-blank lines of r that are not # comments.
func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "cannot read input lines")
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Output helpers
// ─────────────────────────────────────────────────────────────────────────────

// PrintResult writes data as JSON in json mode and through text otherwise.
func PrintResult(cmd *cobra.Command, data interface{}, text func(w io.Writer) error) error {
	format := OutputText
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = cliCtx.OutputFormat
	}
	if format == OutputJSON || text == nil {
		return printJSON(cmd, data)
	}
	return text(cmd.OutOrStdout())
}

// printJSON outputs data as indented JSON to stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cannot encode output")
	}
	return nil
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range colWidths {
			if i > 0 {
				sb.WriteString("  ")
			}
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i == len(colWidths)-1 {
				sb.WriteString(cell)
			} else {
				sb.WriteString(padRight(cell, colWidths[i]))
			}
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	seps := make([]string, len(colWidths))
	for i, w := range colWidths {
		seps[i] = strings.Repeat("-", w)
	}
	writeRow(seps)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
