package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/engine"
	"github.com/spektr-org/charta/instruction"
	"github.com/spektr-org/charta/loader"
	"github.com/spektr-org/charta/render"
	"github.com/spektr-org/charta/session"
	"github.com/spektr-org/charta/translator"
)

// ============================================================================
// CHARTA CLI — natural language → chart spec for any dataset
// ============================================================================

const version = "0.3.0"

type flags struct {
	file, api                     string
	sqlDriver, sqlDSN, sqlQuery   string
	query, instructionPath, batch string
	ask                           string
	discover                      bool
	parallel, bins                int
	provider, model               string
	format, out                   string
	timeout                       time.Duration
	logLevel                      string
}

func main() {
	// ── Flags ─────────────────────────────────────────────────────────────
	var f flags
	flag.StringVar(&f.file, "file", "", "Dataset file: .csv, .json, .ndjson, .parquet (optionally .gz, .zst, .sz)")
	flag.StringVar(&f.api, "api", "", "Dataset API URL answering {status, data, message}")
	flag.StringVar(&f.sqlDriver, "sql-driver", "", "SQL driver: postgres, mysql, sqlserver, sqlite")
	flag.StringVar(&f.sqlDSN, "sql-dsn", "", "SQL data source name")
	flag.StringVar(&f.sqlQuery, "sql-query", "", "SQL query whose result is the dataset")
	flag.StringVar(&f.query, "query", "", "Natural language visualization request")
	flag.StringVar(&f.instructionPath, "instruction", "", "Execute an instruction JSON file directly (- for stdin), no AI call")
	flag.StringVar(&f.batch, "batch", "", "File with one visualization request per line")
	flag.IntVar(&f.parallel, "parallel", 4, "Concurrent requests in --batch mode")
	flag.StringVar(&f.ask, "ask", "", "Free-form question answered from the data")
	flag.BoolVar(&f.discover, "discover", false, "Print the dataset's column profile and exit")
	flag.StringVar(&f.provider, "provider", "gemini", "Instruction source: gemini, openai")
	flag.StringVar(&f.model, "model", "", "Model name (provider default if empty)")
	flag.IntVar(&f.bins, "bins", 30, "Histogram bins when the instruction names none")
	flag.StringVar(&f.format, "format", "json", "Output format: json, pretty, msgpack, csv")
	flag.StringVar(&f.out, "out", "", "Write output to file instead of stdout")
	flag.DurationVar(&f.timeout, "timeout", 60*time.Second, "Timeout for the whole run")
	flag.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Charta — natural language charts for any dataset

Usage:
  charta --file sales.csv --query "revenue by region" --format pretty
  charta --file sales.csv.gz --query "top 5 products by revenue" --format csv --out top5.csv
  charta --api https://example.org/api/units --query "map of units"
  charta --sql-driver postgres --sql-dsn "$DSN" --sql-query "SELECT * FROM sales" --batch queries.txt
  charta --file sales.parquet --instruction chart.json
  charta --file sales.csv --ask "which region is growing fastest?"
  charta --file sales.csv --discover --format pretty

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment:
  GEMINI_API_KEY    Required for --provider gemini (--query, --batch, --ask)
  OPENAI_API_KEY    Required for --provider openai
  OPENAI_BASE_URL   OpenAI-compatible endpoint override

Formats:
  json      Full reply as JSON (default)
  pretty    Pretty-printed JSON
  msgpack   Reply as MessagePack
  csv       The rows the chart was drawn from (ready for Sheets/Excel)
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("charta %s\n", version)
		os.Exit(0)
	}

	format, err := render.ParseFormat(f.format)
	if err != nil {
		fatalf("%v", err)
	}
	modes := 0
	for _, set := range []bool{f.query != "", f.instructionPath != "", f.batch != "", f.ask != "", f.discover} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one of --query, --instruction, --batch, --ask or --discover is required")
		flag.Usage()
		os.Exit(1)
	}

	logger := newLogger(f.logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// ── Output writer ─────────────────────────────────────────────────────
	var writer io.Writer = os.Stdout
	if f.out != "" {
		out, err := os.Create(f.out)
		if err != nil {
			fatalf("Failed to create output file: %v", err)
		}
		defer out.Close()
		writer = out
	}

	// ── Dataset ───────────────────────────────────────────────────────────
	data, name, err := loadDataset(ctx, f, logger)
	if err != nil {
		fatalf("Failed to load dataset: %v", err)
	}

	// ── Instruction source ────────────────────────────────────────────────
	var tr translator.Translator
	if f.query != "" || f.batch != "" || f.ask != "" {
		tr, err = newTranslator(f, logger)
		if err != nil {
			fatalf("%v", err)
		}
	}

	sess := session.New(data, tr,
		session.WithLogger(logger),
		session.WithName(name),
		session.WithEngineOptions(engine.WithHistogramBins(f.bins)),
	)

	// ── Modes ─────────────────────────────────────────────────────────────
	switch {
	case f.discover:
		if err := render.Encode(writer, sess.Profile(), format); err != nil {
			fatalf("Failed to write profile: %v", err)
		}
	case f.batch != "":
		if err := runBatch(ctx, sess, f, writer, format); err != nil {
			fatalf("%v", err)
		}
	default:
		var (
			reply *session.Reply
			err   error
		)
		switch {
		case f.ask != "":
			reply, err = sess.Ask(ctx, f.ask)
		case f.instructionPath != "":
			text, rerr := readInstruction(f.instructionPath)
			if rerr != nil {
				fatalf("Failed to read instruction: %v", rerr)
			}
			reply, err = sess.Interpret(ctx, text)
		default:
			reply, err = sess.Visualize(ctx, f.query)
		}
		if reply == nil {
			fatalf("%v", err)
		}
		if werr := writeReply(writer, reply, format); werr != nil {
			fatalf("Failed to write output: %v", werr)
		}
		if err != nil || reply.Type == instruction.TypeError {
			os.Exit(1)
		}
	}
	if f.out != "" {
		logger.Info("charta: output written", "path", f.out, "format", format)
	}
}

// ============================================================================
// SETUP
// ============================================================================

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func loadDataset(ctx context.Context, f flags, logger *slog.Logger) (*dataset.Dataset, string, error) {
	opts := []loader.Option{loader.WithLogger(logger)}
	switch {
	case f.file != "":
		d, err := loader.OpenFile(f.file, opts...)
		return d, filepath.Base(f.file), err
	case f.api != "":
		d, err := loader.FetchAPI(ctx, loader.APIConfig{URL: f.api}, opts...)
		return d, f.api, err
	case f.sqlDriver != "":
		if f.sqlQuery == "" {
			return nil, "", errors.New("--sql-query is required with --sql-driver")
		}
		d, err := loader.OpenSQL(ctx, loader.SQLConfig{Driver: f.sqlDriver, DSN: f.sqlDSN, Query: f.sqlQuery}, opts...)
		return d, f.sqlDriver + " query", err
	}
	return nil, "", errors.New("one of --file, --api or --sql-driver is required")
}

func newTranslator(f flags, logger *slog.Logger) (translator.Translator, error) {
	var cfg translator.Config
	switch translator.Provider(f.provider) {
	case translator.ProviderGemini:
		cfg = translator.DefaultGeminiConfig(os.Getenv("GEMINI_API_KEY"))
		if cfg.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY required")
		}
	case translator.ProviderOpenAI:
		cfg = translator.DefaultOpenAIConfig(os.Getenv("OPENAI_API_KEY"))
		if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
			cfg.Endpoint = base
		} else if cfg.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY required")
		}
	default:
		return nil, fmt.Errorf("unknown provider %q (gemini, openai)", f.provider)
	}
	if f.model != "" {
		cfg.Model = f.model
	}
	cfg.Timeout = f.timeout
	cfg.Logger = logger
	return translator.New(cfg)
}

func readInstruction(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

// ============================================================================
// BATCH — many requests against one immutable snapshot
// ============================================================================

func runBatch(ctx context.Context, sess *session.Session, f flags, w io.Writer, format render.Format) error {
	if format == render.FormatCSV {
		return errors.New("--batch does not support csv output")
	}
	queries, err := readQueries(f.batch)
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}

	replies := make([]*session.Reply, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(f.parallel, 1))
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			reply, err := sess.Visualize(gctx, q)
			if reply == nil {
				reply = &session.Reply{Query: q, Type: instruction.TypeError}
				if err != nil {
					reply.Message = err.Error()
				}
			}
			replies[i] = reply
			// one failed request never stops the others; only cancellation does
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range replies {
		if err := render.Encode(w, r, format); err != nil {
			return err
		}
	}
	return nil
}

func readQueries(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var queries []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	return queries, sc.Err()
}

// ============================================================================
// OUTPUT
// ============================================================================

// textTable is a one-cell table, for CSV output of answers and errors.
type textTable struct{ column, value string }

func (t textTable) Table() ([]string, []map[string]any) {
	return []string{t.column}, []map[string]any{{t.column: t.value}}
}

func writeReply(w io.Writer, reply *session.Reply, format render.Format) error {
	if format != render.FormatCSV {
		return render.Encode(w, reply, format)
	}
	switch {
	case reply.Result != nil && reply.Result.Spec != nil:
		return render.Encode(w, reply.Result.Spec, format)
	case reply.Answer != "":
		return render.Encode(w, textTable{"answer", reply.Answer}, format)
	default:
		return render.Encode(w, textTable{"error", reply.Message}, format)
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
