// Package main provides the CLI entrypoint for sketchcoach.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/sketchcoach/internal/achievement"
	"github.com/verte-zerg/sketchcoach/internal/align"
	"github.com/verte-zerg/sketchcoach/internal/classifier"
	"github.com/verte-zerg/sketchcoach/internal/config"
	"github.com/verte-zerg/sketchcoach/internal/engine"
	"github.com/verte-zerg/sketchcoach/internal/fusion"
	"github.com/verte-zerg/sketchcoach/internal/generator"
	"github.com/verte-zerg/sketchcoach/internal/geometry"
	"github.com/verte-zerg/sketchcoach/internal/guide"
	"github.com/verte-zerg/sketchcoach/internal/logging"
	"github.com/verte-zerg/sketchcoach/internal/model"
	"github.com/verte-zerg/sketchcoach/internal/pressure"
	"github.com/verte-zerg/sketchcoach/internal/stats"
	"github.com/verte-zerg/sketchcoach/internal/statsui"
	"github.com/verte-zerg/sketchcoach/internal/store"
	"github.com/verte-zerg/sketchcoach/internal/tui"
)

const (
	defaultLevel        = string(model.LevelBeginner)
	defaultRound        = 10
	defaultWeakTop      = 3
	defaultWeakFactor   = 2.0
	defaultWeakWindow   = 20
	defaultCurveWindow  = 20
	defaultSoftMemory   = "512MB"
	defaultCritMemory   = "1GB"
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	classifierBoundSide = 100
)

var (
	practiceCategory   string
	practiceLevel      string
	practiceShapes     string
	practiceGuides     string
	practiceFocusWeak  bool
	practiceWeakTop    int
	practiceWeakFactor float64
	practiceWeakWindow int
	practiceRound      int
	practiceMetrics    string

	statsCategory    string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsShapes      string
	statsPlain       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sketchcoach",
		Short:         "Terminal drawing trainer with stroke feedback",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceCategory, "category", "", "lesson category (shapes, lines, curves, mastery)")
	rootCmd.Flags().StringVar(&practiceLevel, "level", defaultLevel, "skill level (beginner, intermediate, advanced)")
	rootCmd.Flags().StringVar(&practiceShapes, "shapes", "", "comma-separated shapes to practice")
	rootCmd.Flags().StringVar(&practiceGuides, "guides", "", "custom guide file (TOML or YAML)")
	rootCmd.Flags().BoolVar(&practiceFocusWeak, "focus-weak", false, "bias practice toward weak shapes")
	rootCmd.Flags().IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak shapes to focus on")
	rootCmd.Flags().Float64Var(&practiceWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak shapes")
	rootCmd.Flags().IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak shapes")
	rootCmd.Flags().IntVar(&practiceRound, "round", defaultRound, "shapes per round")
	rootCmd.Flags().StringVar(&practiceMetrics, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newGuidesCmd())
	rootCmd.AddCommand(newAchievementsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(cmd, "category", &practiceCategory, fileCfg.Practice.Category)
	applyConfig(cmd, "level", &practiceLevel, fileCfg.Practice.Level)
	applyShapesConfig(cmd, "shapes", &practiceShapes, fileCfg.Practice.Shapes)
	applyConfig(cmd, "guides", &practiceGuides, fileCfg.Practice.GuidesFile)
	applyConfig(cmd, "focus-weak", &practiceFocusWeak, fileCfg.Practice.FocusWeak)
	applyConfig(cmd, "weak-top", &practiceWeakTop, fileCfg.Practice.WeakTop)
	applyConfig(cmd, "weak-factor", &practiceWeakFactor, fileCfg.Practice.WeakFactor)
	applyConfig(cmd, "weak-window", &practiceWeakWindow, fileCfg.Practice.WeakWindow)

	cfg := model.PracticeConfig{
		Category:   model.LessonCategory(strings.ToLower(strings.TrimSpace(practiceCategory))),
		Level:      model.SkillLevel(strings.ToLower(strings.TrimSpace(practiceLevel))),
		Shapes:     parseShapeList(practiceShapes),
		GuidesFile: practiceGuides,
		FocusWeak:  practiceFocusWeak,
		WeakTop:    practiceWeakTop,
		WeakFactor: practiceWeakFactor,
		WeakWindow: practiceWeakWindow,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if practiceRound <= 0 {
		return fmt.Errorf("--round must be > 0")
	}

	// The TUI owns the terminal, so practice always logs to a file.
	logger, closer, err := newLogger(fileCfg.Log, logging.DailyPath(config.DefaultLogDir(), time.Now()))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	catalog, err := loadCatalog(cfg.GuidesFile)
	if err != nil {
		return err
	}
	shapes := catalog.Filter(guide.All(guide.FilterForCategory(cfg.Category), guide.FilterForShapes(cfg.Shapes)))
	if len(shapes) == 0 {
		return fmt.Errorf("no guides match category %q and shapes %q", cfg.Category, practiceShapes)
	}

	engCfg, err := engineConfig(fileCfg.Engine)
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	metrics, err := engine.NewMetrics(registry)
	if err != nil {
		return err
	}
	if practiceMetrics != "" {
		srv := serveMetrics(practiceMetrics, registry, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if cerr := srv.Shutdown(ctx); cerr != nil {
				logger.Warn("failed to stop metrics server", "err", cerr)
			}
		}()
	}

	cls, err := templateClassifier(catalog)
	if err != nil {
		return err
	}
	monitor, err := newMonitor(fileCfg.Memory)
	if err != nil {
		return err
	}
	achievements, err := achievement.LoadFile(config.DefaultAchievementsPath(), achievement.Builtin())
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	weakSet := map[model.ShapeID]struct{}{}
	if cfg.FocusWeak {
		aggs, err := st.GetWeakShapes(context.Background(), cfg.WeakWindow, cfg.Category)
		if err != nil {
			logErrf("failed to load weak shapes: %v\n", err)
		} else {
			weakSet = stats.SelectWeakShapes(aggs, cfg.WeakTop)
			if len(weakSet) == 0 {
				logErrln("no stats available for weak-shape focus yet; using normal generator")
			}
		}
	}

	logger.Info("practice started",
		"category", cfg.Category,
		"level", cfg.Level,
		"shapes", len(shapes),
		"memory", monitor.String(),
	)
	m, err := tui.NewModel(tui.Options{
		Practice: cfg,
		Catalog:  catalog,
		Shapes:   shapes,
		NewSession: func() (*engine.Session, error) {
			return engine.NewSession(engCfg,
				engine.WithLogger(logger),
				engine.WithMetrics(metrics),
				engine.WithClassifier(cls),
			)
		},
		Store:        st,
		Generator:    generator.New(),
		WeakSet:      weakSet,
		Monitor:      monitor,
		Achievements: achievements,
		Logger:       logger,
		RoundSize:    practiceRound,
	})
	if err != nil {
		return fmt.Errorf("failed to start practice: %w", err)
	}
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// newLogger builds the logger from the [log] section. fallback is used
// when the file does not name a log file; empty means stderr.
func newLogger(cfg config.LogConfig, fallback string) (*log.Logger, io.Closer, error) {
	opts := logging.Options{Level: defaultLogLevel, Format: defaultLogFormat, Path: fallback}
	if cfg.Level != nil {
		opts.Level = *cfg.Level
	}
	if cfg.Format != nil {
		opts.Format = *cfg.Format
	}
	if cfg.File != nil {
		opts.Path = *cfg.File
	}
	logger, closer, err := logging.New(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, closer, nil
}

// loadCatalog layers the guide file over the built-in guides. A missing
// default guide file is not an error; a missing explicit one is.
func loadCatalog(path string) (*guide.Catalog, error) {
	explicit := path != ""
	if !explicit {
		path = config.DefaultGuidesPath()
	}
	catalog, err := guide.LoadFile(path, guide.Builtin())
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return guide.Builtin(), nil
		}
		return nil, fmt.Errorf("failed to load guides from %s: %w", path, err)
	}
	return catalog, nil
}

func engineConfig(file config.EngineConfig) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	file.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, fmt.Errorf("invalid [engine] config: %w", err)
	}
	return cfg, nil
}

// templateClassifier builds the classifier from every guide in the catalog.
// Templates are rasterized, so the bounds only need to be non-degenerate.
func templateClassifier(catalog *guide.Catalog) (classifier.Classifier, error) {
	refs, err := catalog.References(geometry.Rect{MaxX: classifierBoundSide, MaxY: classifierBoundSide})
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier templates: %w", err)
	}
	return classifier.NewTemplateClassifier(refs), nil
}

func newMonitor(cfg config.MemoryConfig) (*pressure.Monitor, error) {
	soft, critical := defaultSoftMemory, defaultCritMemory
	if cfg.Soft != nil {
		soft = *cfg.Soft
	}
	if cfg.Critical != nil {
		critical = *cfg.Critical
	}
	monitor, err := pressure.New(soft, critical)
	if err != nil {
		return nil, fmt.Errorf("invalid [memory] config: %w", err)
	}
	return monitor, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsCategory, "category", "", "category filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsShapes, "shape", "", "shapes for per-shape curves")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	category := model.LessonCategory(strings.ToLower(strings.TrimSpace(statsCategory)))
	if category != "" && !category.Valid() {
		return fmt.Errorf("invalid --category %q", statsCategory)
	}
	if statsCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}

	cfg := model.StatsConfig{
		Category:    category,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Shapes:      statsShapes,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	achievements, err := achievement.LoadFile(config.DefaultAchievementsPath(), achievement.Builtin())
	if err != nil {
		return err
	}
	if statsPlain {
		return renderPlainStats(cmd.Context(), cmd.OutOrStdout(), st, cfg)
	}

	m := statsui.NewModel(st, cfg, achievements)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func renderPlainStats(ctx context.Context, w io.Writer, st *store.Store, cfg model.StatsConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	if err := stats.RenderSummary(w, report.Sessions); err != nil {
		return err
	}
	if err := stats.RenderShapeTable(w, report.ShapeAggsAll); err != nil {
		return err
	}
	if err := stats.RenderCurves(w, report.Sessions, cfg.CurveWindow); err != nil {
		return err
	}
	shapes := parseShapeList(cfg.Shapes)
	if len(shapes) == 0 {
		return nil
	}
	ids := make([]int64, len(report.Sessions))
	for i, sess := range report.Sessions {
		ids[i] = sess.SessionID
	}
	perSession, err := st.ListShapeStatsForSessions(ctx, ids, shapes)
	if err != nil {
		return fmt.Errorf("failed to load shape curves: %w", err)
	}
	return stats.RenderShapeCurves(w, report.Sessions, perSession, shapes, cfg.CurveWindow)
}

func parseShapeList(raw string) []model.ShapeID {
	var shapes []model.ShapeID
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		shapes = append(shapes, model.ShapeID(strings.ToLower(part)))
	}
	return shapes
}

// applyConfig copies a config file value into target unless the flag was set.
func applyConfig[T any](cmd *cobra.Command, name string, target *T, value *T) {
	if value != nil && !cmd.Flags().Changed(name) {
		*target = *value
	}
}

func applyShapesConfig(cmd *cobra.Command, name string, target *string, value *[]string) {
	if value != nil {
		joined := strings.Join(*value, ",")
		applyConfig(cmd, name, target, &joined)
	}
}

func defaultConfigTemplate() string {
	weights := fusion.DefaultWeights()
	return fmt.Sprintf(`# sketchcoach configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# category = "shapes"      # shapes, lines, curves or mastery (default: all)
# level = %q         # beginner, intermediate or advanced
# shapes = ["circle"]      # Restrict practice to these guides
# guides-file = ""         # Custom guides (TOML or YAML), layered over the built-in ones
# focus-weak = false       # Bias practice toward weak shapes
# weak-top = %d             # Number of weak shapes to focus on
# weak-factor = %.1f        # Weight factor for weak shapes
# weak-window = %d         # Number of recent sessions to compute weak shapes

[engine]
# min-interval-ms = %d     # Shortest gap between two analyses
# critical-pressure = %d    # Memory pressure level that suspends analysis
# classifier-timeout-ms = %d
# scale-factor = %.2f      # Share of the guide diagonal that maps to zero accuracy
# match-bonus = %.2f
# mismatch-penalty = %.2f
# timing-weight = %.2f

[memory]
# soft = %q           # Heap size reported as elevated pressure
# critical = %q         # Heap size reported as critical pressure

[log]
# level = %q           # debug, info, warn or error
# format = %q          # text, json or logfmt
# file = ""                # Defaults to a dated file in the data directory
`,
		defaultLevel,
		defaultWeakTop,
		defaultWeakFactor,
		defaultWeakWindow,
		engine.DefaultMinInterval.Milliseconds(),
		engine.DefaultCriticalPressure,
		engine.DefaultClassifierTimeout.Milliseconds(),
		align.DefaultScaleFactor,
		weights.MatchBonus,
		weights.MismatchPenalty,
		weights.TimingWeight,
		defaultSoftMemory,
		defaultCritMemory,
		defaultLogLevel,
		defaultLogFormat,
	)
}

func validateConfig(cfg model.PracticeConfig) error {
	if cfg.Category != "" && !cfg.Category.Valid() {
		return fmt.Errorf("--category must be one of shapes, lines, curves, mastery")
	}
	if !cfg.Level.Valid() {
		return fmt.Errorf("--level must be one of beginner, intermediate, advanced")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
