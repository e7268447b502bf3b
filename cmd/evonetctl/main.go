package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"evonet/internal/config"
	"evonet/internal/storage"
	"evonet/pkg/evonet"
)

var stdout io.Writer = os.Stdout

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "champion":
		return runChampion(ctx, args[1:])
	case "predict":
		return runPredict(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind     *string
	dbPath   *string
	logLevel *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:     fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:   fs.String("db-path", config.Default().Storage.DBPath, "sqlite database path"),
		logLevel: fs.String("log-level", "info", "log level: debug|info|warn|error"),
	}
}

func (f storeFlags) open(reg prometheus.Registerer) (*evonet.Client, error) {
	logger, err := newLogger(*f.logLevel)
	if err != nil {
		return nil, err
	}
	return evonet.New(evonet.Options{
		StoreKind:  *f.kind,
		DBPath:     *f.dbPath,
		Registerer: reg,
		Logger:     logger,
	})
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrapf(err, "parse log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.open(nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "initialized store=%s\n", *store.kind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config INI path")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address while the run is active")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	overrides := addRunFlags(fs)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := loadRunConfig(*configPath, overrides, setFlags)
	if err != nil {
		return err
	}
	if !setFlags["store"] && *configPath != "" {
		*store.kind = cfg.Storage.Kind
	}
	if !setFlags["db-path"] && *configPath != "" {
		*store.dbPath = cfg.Storage.DBPath
	}

	var reg *prometheus.Registry
	if *metricsAddr != "" {
		reg = prometheus.NewRegistry()
		srv := &http.Server{Addr: *metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server stopped", "addr", *metricsAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var client *evonet.Client
	if reg != nil {
		client, err = store.open(reg)
	} else {
		client, err = store.open(nil)
	}
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, runRequestFromConfig(cfg))
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Fprintf(stdout, "run_id=%s scape=%s generations=%d/%d stopped_early=%t best_fitness=%.6f\n",
		summary.RunID,
		cfg.Run.Scape,
		len(summary.BestByGeneration),
		cfg.Run.Generations,
		summary.StoppedEarly,
		summary.FinalBestFitness,
	)
	fmt.Fprintf(stdout, "champion=%s weights=%s\n", summary.Champion.AgentID, formatFloats(summary.Champion.Weights))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := store.open(nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, evonet.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "no runs found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	for _, r := range runs {
		fmt.Fprintf(stdout, "run_id=%s started=%s took=%s scape=%s topology=%s seed=%d pop=%s gens=%d/%d selection=%s mutation=%s best_fitness=%s\n",
			r.RunID,
			humanize.Time(r.StartedAt),
			r.Duration.Round(time.Millisecond),
			r.Scape,
			formatInts(r.Topology),
			r.Seed,
			humanize.Comma(int64(r.Population)),
			r.CompletedGenerations,
			r.Generations,
			r.Selection,
			r.Mutation,
			humanize.FormatFloat("#,###.######", r.BestFitness),
		)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show fitness history for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelector(*runID, *latest, "fitness"); err != nil {
		return err
	}
	if *limit < 0 {
		*limit = 0
	}

	client, err := store.open(nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, evonet.FitnessHistoryRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Fprintln(stdout, "no fitness history")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	for _, g := range history {
		fmt.Fprintf(stdout, "generation=%d size=%s min=%.6f max=%.6f mean=%.6f std_dev=%.6f champion=%s\n",
			g.Generation,
			humanize.Comma(int64(g.Size)),
			g.MinFitness,
			g.MaxFitness,
			g.MeanFitness,
			g.StdDevFitness,
			g.ChampionID,
		)
	}
	return nil
}

func runChampion(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("champion", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the champion of the most recent run")
	jsonOut := fs.Bool("json", false, "emit champion as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelector(*runID, *latest, "champion"); err != nil {
		return err
	}

	client, err := store.open(nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	champion, err := client.Champion(ctx, evonet.ChampionRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(champion)
	}

	fmt.Fprintf(stdout, "run_id=%s agent_id=%s fitness=%.6f topology=%s weights=%s\n",
		champion.RunID,
		champion.AgentID,
		champion.Fitness,
		formatInts(champion.Topology),
		formatFloats(champion.Weights),
	)
	return nil
}

func runPredict(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the champion of the most recent run")
	input := fs.String("input", "", "comma separated input vector, e.g. 1,0")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelector(*runID, *latest, "predict"); err != nil {
		return err
	}
	values, err := parseFloats(*input)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return errors.New("predict requires --input")
	}

	client, err := store.open(nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	output, err := client.Predict(ctx, evonet.PredictRequest{RunID: *runID, Latest: *latest, Input: values})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "input=%s output=%s\n", formatFloats(values), formatFloats(output))
	return nil
}

func checkRunSelector(runID string, latest bool, command string) error {
	if runID != "" && latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if runID == "" && !latest {
		return errors.Errorf("%s requires --run-id or --latest", command)
	}
	return nil
}

func parseFloats(value string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse input value %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func formatInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func usageError(msg string) error {
	return errors.Errorf("%s\nusage: evonetctl <init|run|runs|fitness|champion|predict> [flags]", msg)
}
