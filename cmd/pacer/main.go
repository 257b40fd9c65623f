package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/pavelanni/pacer/internal/calendar"
	"github.com/pavelanni/pacer/internal/handler"
	appI18n "github.com/pavelanni/pacer/internal/i18n"
	"github.com/pavelanni/pacer/internal/model"
	"github.com/pavelanni/pacer/internal/progress"
	"github.com/pavelanni/pacer/internal/scheduler"
	"github.com/pavelanni/pacer/internal/store"
)

func main() {
	// A .env file never overrides variables already set.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pacer",
		Short: "Student pacing and progress projection service",
	}

	serve := serveCmd()
	root.AddCommand(serve, loadCmd(), exportCmd(), promoteCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `pacer --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// commonFlags registers the flags every command shares.
func commonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "pacer.db", "SQLite database path")
	f.String("timezone", "UTC", "IANA zone that defines calendar days")
	f.String("lang", "pt-BR", "Default label language and roster collation (pt-BR, en)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the maintenance scheduler",
		RunE:  runServe,
	}
	commonFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringSliceP("data", "d", nil, "Dataset JSON files to load at startup (repeatable)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /pacer)")
	f.Bool("allow-simulation", true, "Accept ?date=YYYY-MM-DD to preview another day")
	f.String("promotion-cron", "0 3 * * *", "Cron spec of the promotion sweep (empty disables)")
	f.String("snapshot-cron", "0 22 * * 6", "Cron spec of the weekly class snapshot (empty disables)")
	return cmd
}

func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load FILE...",
		Short: "Load dataset JSON files into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLoad,
	}
	commonFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the class week summary (or the whole dataset) as JSON",
		RunE:  runExport,
	}
	commonFlags(cmd)
	f := cmd.Flags()
	f.Int("offset", 0, "Week offset from the current week (-1 = last week)")
	f.String("date", "", "Evaluate as of this day (YYYY-MM-DD) instead of today")
	f.Bool("dataset", false, "Export profiles, curriculum and submissions instead of the summary")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func promoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Move students who finished their module to the next one",
		RunE:  runPromote,
	}
	commonFlags(cmd)
	f := cmd.Flags()
	f.Bool("dry-run", false, "List promotions without applying them")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PACER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("pacer")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/pacer")
	v.AddConfigPath("/etc/pacer")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// newTracker builds the pacing tracker from the calendar and language flags.
func newTracker(v *viper.Viper, clock calendar.Clock) (*progress.Tracker, error) {
	cal, err := calendar.New(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", v.GetString("timezone"), err)
	}
	tag, err := language.Parse(v.GetString("lang"))
	if err != nil {
		return nil, fmt.Errorf("parse language %q: %w", v.GetString("lang"), err)
	}
	return progress.New(cal, clock, progress.WithLanguage(tag)), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := loadFiles(db, v.GetStringSlice("data")); err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	tracker, err := newTracker(v, calendar.SystemClock{})
	if err != nil {
		return err
	}

	sched, err := scheduler.New(db, tracker, scheduler.Config{
		PromotionSpec: v.GetString("promotion-cron"),
		SnapshotSpec:  v.GetString("snapshot-cron"),
	})
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.ServeConfig{
		AllowSimulation: v.GetBool("allow-simulation"),
	}
	h, err := handler.New(db, tracker, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware())

	if basePath != "" {
		r.Route(basePath, h.Routes)
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"timezone", tracker.Calendar().Location.String(),
		"base_path", basePath,
		"allow_simulation", cfg.AllowSimulation,
	)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runLoad(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	return loadFiles(db, args)
}

func loadFiles(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if _, err := db.ImportFile(path, data); err != nil {
			return err
		}
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var out any
	if v.GetBool("dataset") {
		out, err = db.ExportDataset()
		if err != nil {
			return fmt.Errorf("export dataset: %w", err)
		}
	} else {
		tracker, err := newTracker(v, calendar.SystemClock{})
		if err != nil {
			return err
		}
		if raw := v.GetString("date"); raw != "" {
			d, err := time.Parse(time.DateOnly, raw)
			if err != nil {
				return fmt.Errorf("parse date %q: %w", raw, err)
			}
			day := tracker.Calendar().Date(d.Year(), d.Month(), d.Day())
			tracker = tracker.WithClock(calendar.FixedClock(day.Add(12 * time.Hour)))
		}
		snap, err := db.Snapshot()
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		out = tracker.ClassWeek(snap, v.GetInt("offset"))
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func runPromote(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if v.GetBool("dry-run") {
		snap, err := db.Snapshot()
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		for _, p := range progress.Promotions(snap) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d -> %d\n", p.Profile.ID, p.FromModule, p.Profile.ModuleID)
		}
		return nil
	}

	tracker, err := newTracker(v, calendar.SystemClock{})
	if err != nil {
		return err
	}
	sched, err := scheduler.New(db, tracker, scheduler.Config{})
	if err != nil {
		return err
	}
	promos, err := sched.RunPromotions()
	if err != nil {
		return err
	}
	slog.Info("promotion sweep done", "promoted", len(promos))
	return nil
}
