package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tordrt/sqlmeta"
	"github.com/tordrt/sqlmeta/internal/config"
	"github.com/tordrt/sqlmeta/internal/formatter"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sqlmeta",
		Short: "Describe database tables and rows in a database-neutral form",
		Long: `sqlmeta reads table metadata and rows from PostgreSQL, MySQL, or SQLite and describes them
with one type vocabulary, as text, markdown or JSON. Settings come from flags, SQLMETA_* environment
variables and an optional YAML config file, in that order.`,
		SilenceUsage: true,
		RunE:         runSchema,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "YAML config file")
	pf.String("db-url", "", "Database URL (postgres://, mysql://, or sqlite://)")
	pf.StringP("schema", "s", "", "Database schema name (default: public for PostgreSQL, the database for MySQL, main for SQLite)")
	pf.String("log-level", "info", "Log level: trace, debug, info, warn, error or disabled")
	pf.String("log-format", "console", "Log format: console or json")

	addSchemaFlags(rootCmd.Flags())

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print table schemas (the default command)",
		Args:  cobra.NoArgs,
		RunE:  runSchema,
	}
	addSchemaFlags(schemaCmd.Flags())

	templateCmd := &cobra.Command{
		Use:   "template <table>",
		Short: "Print an empty JSON record for inserting into or updating a table",
		Args:  cobra.ExactArgs(1),
		RunE:  runTemplate,
	}
	templateCmd.Flags().Bool("update", false, "Print an update template instead of an insert template")

	rootCmd.AddCommand(
		schemaCmd,
		&cobra.Command{
			Use:   "records <table>",
			Short: "Print every row of a table as JSON records",
			Args:  cobra.ExactArgs(1),
			RunE:  runRecords,
		},
		templateCmd,
		&cobra.Command{
			Use:   "exists <table>",
			Short: "Report whether a table exists",
			Args:  cobra.ExactArgs(1),
			RunE:  runExists,
		},
	)

	return rootCmd
}

func addSchemaFlags(f *pflag.FlagSet) {
	f.StringSliceP("tables", "t", nil, "Specific tables (comma-separated, optional)")
	f.StringSlice("exclude", nil, "Tables to skip (comma-separated)")
	f.StringP("format", "f", formatter.FormatText, "Output format: text, markdown or json")
	f.StringP("output", "o", "", "Output file (default: stdout)")
	f.StringP("output-dir", "d", "", "Output directory for multi-file output")
	f.Int("split-threshold", 0, "Split into multiple files when table count exceeds this (requires --output-dir)")
}

// session is a loaded configuration with an open connection
type session struct {
	cfg  config.Config
	log  zerolog.Logger
	conn sqlmeta.Connection
}

func openSession(cmd *cobra.Command) (*session, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	conn, err := sqlmeta.Open(cmd.Context(), cfg.DatabaseURL, &sqlmeta.Options{Logger: logger})
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, log: logger, conn: conn}, nil
}

func (s *session) close(ctx context.Context) {
	if err := s.conn.Close(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to close database connection")
	}
}

// reference resolves a table argument, applying --schema to bare names
func (s *session) reference(name string) (sqlmeta.TableReference, error) {
	name = strings.TrimSpace(name)
	if s.cfg.Schema != "" && !strings.Contains(name, ".") {
		name = s.cfg.Schema + "." + name
	}
	return sqlmeta.Reference(s.conn, name)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	cfg := s.cfg
	tables, err := sqlmeta.CollectTables(ctx, s.conn, &sqlmeta.Options{
		Tables:        cfg.Tables,
		ExcludeTables: cfg.Exclude,
		SchemaName:    cfg.Schema,
	})
	if err != nil {
		return fmt.Errorf("failed to extract schema: %w", err)
	}
	s.log.Info().Int("tables", len(tables)).Msg("extracted schema")

	// Check if we should use multi-file output
	shouldSplit := cfg.OutputDir != "" && (cfg.SplitThreshold == 0 || len(tables) > cfg.SplitThreshold)
	if shouldSplit {
		if err := sqlmeta.FormatTables(tables, &sqlmeta.OutputOptions{OutputDir: cfg.OutputDir, Format: cfg.Format}); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		return nil
	}

	// Single-file output
	writer := cmd.OutOrStdout()
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				s.log.Warn().Err(err).Msg("failed to close output file")
			}
		}()
		writer = f
	}

	if err := sqlmeta.FormatTables(tables, &sqlmeta.OutputOptions{Writer: writer, Format: cfg.Format}); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

func runRecords(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	ref, err := s.reference(args[0])
	if err != nil {
		return err
	}

	records, err := s.conn.TableRecords(ctx, ref)
	if err != nil {
		return err
	}
	s.log.Debug().Str("table", ref.String()).Int("records", len(records)).Msg("read records")

	return formatter.NewJSONFormatter(cmd.OutOrStdout(), true).FormatRecords(records)
}

func runTemplate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	update, err := cmd.Flags().GetBool("update")
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	ref, err := s.reference(args[0])
	if err != nil {
		return err
	}

	ts, err := s.conn.TableSchema(ctx, ref)
	if err != nil {
		return err
	}

	record := sqlmeta.NewRecord(ts)
	if update {
		record = sqlmeta.UpdateRecord(ts, nil)
	}
	return formatter.NewJSONFormatter(cmd.OutOrStdout(), true).FormatRecord(record)
}

func runExists(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	ref, err := s.reference(args[0])
	if err != nil {
		return err
	}

	ok, err := s.conn.TableExists(ctx, ref)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), ok)
	return err
}

// newLogger builds the zerolog logger described by cfg, writing to w
func newLogger(cfg config.Log, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level: %w", err)
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
