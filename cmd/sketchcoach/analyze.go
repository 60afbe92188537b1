package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/sketchcoach/internal/achievement"
	"github.com/verte-zerg/sketchcoach/internal/config"
	"github.com/verte-zerg/sketchcoach/internal/engine"
	"github.com/verte-zerg/sketchcoach/internal/feedback"
	"github.com/verte-zerg/sketchcoach/internal/geometry"
	"github.com/verte-zerg/sketchcoach/internal/guide"
	"github.com/verte-zerg/sketchcoach/internal/model"
	"github.com/verte-zerg/sketchcoach/internal/store"
)

const defaultBounds = "0,0,100,100"

var (
	analyzeGuide    string
	analyzeLevel    string
	analyzeBounds   string
	analyzeFormat   string
	analyzeGuides   string
	analyzeNoModel  bool
	guidesFile      string
	achievementJSON bool
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <stroke-file>",
		Short: "Score a recorded stroke (JSON or YAML, - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyzeCmd,
	}
	cmd.Flags().StringVar(&analyzeGuide, "guide", "", "guide shape, overrides the stroke file")
	cmd.Flags().StringVar(&analyzeLevel, "level", defaultLevel, "skill level for feedback wording")
	cmd.Flags().StringVar(&analyzeBounds, "bounds", defaultBounds, "guide bounds as minx,miny,maxx,maxy")
	cmd.Flags().StringVar(&analyzeFormat, "format", "text", "output format (text, json, yaml)")
	cmd.Flags().StringVar(&analyzeGuides, "guides", "", "custom guide file (TOML or YAML)")
	cmd.Flags().BoolVar(&analyzeNoModel, "no-classifier", false, "score on alignment only")
	return cmd
}

type analysisOutput struct {
	Guide      model.ShapeID     `json:"guide" yaml:"guide"`
	Level      model.SkillLevel  `json:"level" yaml:"level"`
	Score      model.FusedScore  `json:"score" yaml:"score"`
	Feedback   model.Feedback    `json:"feedback" yaml:"feedback"`
	Alignment  alignmentOutput   `json:"alignment" yaml:"alignment"`
	Classifier *classifierOutput `json:"classifier,omitempty" yaml:"classifier,omitempty"`
}

type alignmentOutput struct {
	Cost           float64 `json:"cost" yaml:"cost"`
	NormalizedCost float64 `json:"normalized_cost" yaml:"normalized-cost"`
	Pairs          int     `json:"pairs" yaml:"pairs"`
}

type classifierOutput struct {
	Label      model.ShapeID `json:"label" yaml:"label"`
	Confidence float64       `json:"confidence" yaml:"confidence"`
}

type analyzeOptions struct {
	Catalog    *guide.Catalog
	Bounds     geometry.Rect
	Level      model.SkillLevel
	Engine     engine.Config
	Classifier bool
	Pressure   int
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(cmd, "guides", &analyzeGuides, fileCfg.Practice.GuidesFile)

	level := model.SkillLevel(strings.ToLower(strings.TrimSpace(analyzeLevel)))
	if !level.Valid() {
		return fmt.Errorf("--level must be one of beginner, intermediate, advanced")
	}
	bounds, err := parseBounds(analyzeBounds)
	if err != nil {
		return err
	}
	stroke, err := readStroke(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	if analyzeGuide != "" {
		stroke.GuideID = model.ShapeID(strings.ToLower(analyzeGuide))
	}

	// Analyze is a one-shot command; logs go to stderr unless the config names a file.
	logger, closer, err := newLogger(fileCfg.Log, "")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	catalog, err := loadCatalog(analyzeGuides)
	if err != nil {
		return err
	}
	engCfg, err := engineConfig(fileCfg.Engine)
	if err != nil {
		return err
	}
	monitor, err := newMonitor(fileCfg.Memory)
	if err != nil {
		return err
	}
	memLevel, perr := monitor.Level()
	if perr != nil {
		logger.Warn("failed to sample memory", "err", perr)
	}

	out, err := analyzeStroke(cmd.Context(), stroke, analyzeOptions{
		Catalog:    catalog,
		Bounds:     bounds,
		Level:      level,
		Engine:     engCfg,
		Classifier: !analyzeNoModel,
		Pressure:   memLevel,
	})
	if err != nil {
		return err
	}
	logger.Debug("stroke analyzed", "guide", out.Guide, "accuracy", out.Score.Accuracy)
	return writeAnalysis(cmd.OutOrStdout(), analyzeFormat, out)
}

// analyzeStroke runs one stroke through a fresh engine session.
func analyzeStroke(ctx context.Context, stroke model.Stroke, opts analyzeOptions) (analysisOutput, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if stroke.GuideID == "" {
		return analysisOutput{}, fmt.Errorf("stroke does not name a guide; pass --guide")
	}
	ref, err := opts.Catalog.Reference(stroke.GuideID, opts.Bounds)
	if err != nil {
		return analysisOutput{}, err
	}

	var sessionOpts []engine.Option
	if opts.Classifier {
		cls, err := templateClassifier(opts.Catalog)
		if err != nil {
			return analysisOutput{}, err
		}
		sessionOpts = append(sessionOpts, engine.WithClassifier(cls))
	}
	session, err := engine.NewSession(opts.Engine, sessionOpts...)
	if err != nil {
		return analysisOutput{}, err
	}
	defer session.End()

	outcome, err := session.Analyze(ctx, engine.Request{
		Stroke:         stroke,
		Guide:          ref,
		Level:          opts.Level,
		MemoryPressure: opts.Pressure,
	})
	if err != nil {
		return analysisOutput{}, fmt.Errorf("failed to analyze stroke: %w", err)
	}
	if outcome.Kind != engine.Analyzed {
		return analysisOutput{}, fmt.Errorf("analysis %s (memory pressure %d)", outcome.Kind, outcome.Pressure)
	}

	report := outcome.Report
	out := analysisOutput{
		Guide:    ref.Shape,
		Level:    opts.Level,
		Score:    report.Score,
		Feedback: report.Feedback,
		Alignment: alignmentOutput{
			Cost:           report.Alignment.Cost,
			NormalizedCost: report.Alignment.NormalizedCost,
			Pairs:          len(report.Alignment.MatchedPairs),
		},
	}
	if report.Classifier != nil {
		out.Classifier = &classifierOutput{Label: report.Classifier.Label, Confidence: report.Classifier.Confidence}
	}
	return out, nil
}

func writeAnalysis(w io.Writer, format string, out analysisOutput) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		return writeAnalysisText(w, out)
	default:
		return fmt.Errorf("unknown --format %q (text, json, yaml)", format)
	}
}

func writeAnalysisText(w io.Writer, out analysisOutput) error {
	verdict := "keep practicing"
	if out.Score.IsCorrect {
		verdict = "correct"
	}
	lines := []string{
		fmt.Sprintf("Guide:        %s", feedback.ShapeName(out.Guide)),
		fmt.Sprintf("Score:        %.1f%% (%s)", out.Feedback.OverallScore*100, verdict),
		fmt.Sprintf("Timing:       %.1f%%", out.Score.TemporalAccuracy*100),
		fmt.Sprintf("Steadiness:   %.1f%%", out.Score.VelocityConsistency*100),
		fmt.Sprintf("Confidence:   %.1f%%", out.Score.ConfidenceScore*100),
		fmt.Sprintf("Path cost:    %.2f (normalized %.3f, %d pairs)", out.Alignment.Cost, out.Alignment.NormalizedCost, out.Alignment.Pairs),
	}
	if out.Classifier != nil {
		lines = append(lines, fmt.Sprintf("Looks like:   %s (%.0f%%)", feedback.ShapeName(out.Classifier.Label), out.Classifier.Confidence*100))
	}
	lines = append(lines, "", out.Feedback.Encouragement)
	for _, s := range out.Feedback.Suggestions {
		lines = append(lines, "- "+s)
	}
	if out.Feedback.ShowVisualCorrection {
		lines = append(lines, "", "Compare your stroke with the guide outline.")
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

// readStroke decodes a stroke file. YAML is chosen by extension; stdin ("-") is JSON.
func readStroke(path string, stdin io.Reader) (model.Stroke, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return model.Stroke{}, fmt.Errorf("failed to read stroke: %w", err)
	}

	var stroke model.Stroke
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &stroke)
	default:
		err = json.Unmarshal(data, &stroke)
	}
	if err != nil {
		return model.Stroke{}, fmt.Errorf("failed to decode stroke: %w", err)
	}
	return stroke, nil
}

func parseBounds(raw string) (geometry.Rect, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return geometry.Rect{}, fmt.Errorf("--bounds needs 4 comma-separated numbers, got %q", raw)
	}
	var vals [4]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geometry.Rect{}, fmt.Errorf("invalid --bounds value %q: %w", part, err)
		}
		vals[i] = v
	}
	rect := geometry.Rect{MinX: vals[0], MinY: vals[1], MaxX: vals[2], MaxY: vals[3]}
	if rect.Width() <= 0 || rect.Height() <= 0 {
		return geometry.Rect{}, fmt.Errorf("--bounds must have positive width and height")
	}
	return rect, nil
}

func newGuidesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guides",
		Short: "List available guides",
		Args:  cobra.NoArgs,
		RunE:  runGuidesCmd,
	}
	cmd.Flags().StringVar(&guidesFile, "guides", "", "custom guide file (TOML or YAML)")
	return cmd
}

func runGuidesCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(cmd, "guides", &guidesFile, fileCfg.Practice.GuidesFile)
	catalog, err := loadCatalog(guidesFile)
	if err != nil {
		return err
	}
	return writeGuides(cmd.OutOrStdout(), catalog)
}

func writeGuides(w io.Writer, catalog *guide.Catalog) error {
	for _, category := range catalog.Categories() {
		if _, err := fmt.Fprintf(w, "%s\n", category); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		for _, shape := range catalog.Filter(guide.FilterForCategory(category)) {
			def, _ := catalog.Definition(shape)
			kind := "open"
			if def.Closed {
				kind = "closed"
			}
			pace := ""
			if def.Pacing != nil {
				pace = fmt.Sprintf("  ~%.1fs", def.Pacing.ExpectedDurationMs/1000)
			}
			if _, err := fmt.Fprintf(w, "  %-14s %-6s %3d pts%s\n", shape, kind, len(def.Points), pace); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
	return nil
}

func newAchievementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "List achievements and which are unlocked",
		Args:  cobra.NoArgs,
		RunE:  runAchievementsCmd,
	}
	cmd.Flags().BoolVar(&achievementJSON, "json", false, "print achievement definitions as JSON")
	return cmd
}

func runAchievementsCmd(cmd *cobra.Command, _ []string) error {
	all, err := achievement.LoadFile(config.DefaultAchievementsPath(), achievement.Builtin())
	if err != nil {
		return err
	}
	if achievementJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(all)
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
	unlocked, err := st.ListAchievements(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load achievements: %w", err)
	}
	return writeAchievements(cmd.OutOrStdout(), all, unlocked)
}

func writeAchievements(w io.Writer, all []achievement.Achievement, unlocked []model.UnlockedAchievement) error {
	at := make(map[string]string, len(unlocked))
	for _, u := range unlocked {
		at[u.ID] = u.UnlockedAt.Local().Format("2006-01-02")
	}
	for _, a := range all {
		mark, when := " ", ""
		if date, ok := at[a.ID]; ok {
			mark, when = "✓", "  "+date
		}
		line := fmt.Sprintf("%s %-22s %s%s", mark, a.Title, a.Description, when)
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
