package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/sketchcoach/internal/achievement"
	"github.com/verte-zerg/sketchcoach/internal/config"
	"github.com/verte-zerg/sketchcoach/internal/engine"
	"github.com/verte-zerg/sketchcoach/internal/geometry"
	"github.com/verte-zerg/sketchcoach/internal/guide"
	"github.com/verte-zerg/sketchcoach/internal/model"
)

var commentedKey = regexp.MustCompile(`(?m)^# ([a-z-]+ = )`)

func TestDefaultConfigTemplateMatchesDefaults(t *testing.T) {
	enabled := commentedKey.ReplaceAllString(defaultConfigTemplate(), "$1")
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(enabled), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Practice.Level)
	assert.Equal(t, defaultLevel, *cfg.Practice.Level)

	engCfg, err := engineConfig(cfg.Engine)
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultConfig(), engCfg)

	monitor, err := newMonitor(cfg.Memory)
	require.NoError(t, err)
	assert.Contains(t, monitor.String(), "soft=512 MB")
}

func TestValidateConfig(t *testing.T) {
	ok := model.PracticeConfig{Level: model.LevelBeginner, WeakTop: 3, WeakFactor: 2, WeakWindow: 20}
	require.NoError(t, validateConfig(ok))

	bad := ok
	bad.Category = "portraits"
	assert.ErrorContains(t, validateConfig(bad), "--category")

	bad = ok
	bad.Level = "expert"
	assert.ErrorContains(t, validateConfig(bad), "--level")

	bad = ok
	bad.WeakFactor = -1
	assert.ErrorContains(t, validateConfig(bad), "--weak-factor")
}

func TestParseShapeList(t *testing.T) {
	assert.Equal(t, []model.ShapeID{"circle", "zig-zag", "star"}, parseShapeList("Circle, zig-zag  star,"))
	assert.Nil(t, parseShapeList(""))
}

func TestParseBounds(t *testing.T) {
	rect, err := parseBounds("0, 10, 200,110")
	require.NoError(t, err)
	assert.Equal(t, geometry.Rect{MinX: 0, MinY: 10, MaxX: 200, MaxY: 110}, rect)

	_, err = parseBounds("0,0,100")
	assert.Error(t, err)
	_, err = parseBounds("0,0,a,100")
	assert.Error(t, err)
	_, err = parseBounds("10,0,10,100")
	assert.Error(t, err)
}

func TestLoadCatalogExplicitFileMustExist(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	catalog, err := loadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, guide.Builtin().Shapes(), catalog.Shapes())

	_, err = loadCatalog(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func tracedCircle(t *testing.T, bounds geometry.Rect) model.Stroke {
	t.Helper()
	ref, err := guide.Builtin().Reference("circle", bounds)
	require.NoError(t, err)
	points := make([]model.Point, len(ref.Path))
	for i, p := range ref.Path {
		points[i] = model.Point{X: p.X, Y: p.Y, Timestamp: float64(i * 20)}
	}
	return model.Stroke{Points: points, GuideID: "circle"}
}

func TestAnalyzeStroke(t *testing.T) {
	bounds := geometry.Rect{MaxX: 100, MaxY: 100}
	opts := analyzeOptions{
		Catalog: guide.Builtin(),
		Bounds:  bounds,
		Level:   model.LevelBeginner,
		Engine:  engine.DefaultConfig(),
	}

	out, err := analyzeStroke(context.Background(), tracedCircle(t, bounds), opts)
	require.NoError(t, err)
	assert.Equal(t, model.ShapeID("circle"), out.Guide)
	assert.GreaterOrEqual(t, out.Score.Accuracy, model.CorrectThreshold)
	assert.Nil(t, out.Classifier)
	assert.Positive(t, out.Alignment.Pairs)

	opts.Classifier = true
	out, err = analyzeStroke(context.Background(), tracedCircle(t, bounds), opts)
	require.NoError(t, err)
	assert.NotNil(t, out.Classifier)

	_, err = analyzeStroke(context.Background(), model.Stroke{Points: []model.Point{{X: 1, Y: 1}}, GuideID: "circle"}, opts)
	assert.ErrorIs(t, err, engine.ErrInsufficientData)

	_, err = analyzeStroke(context.Background(), model.Stroke{Points: tracedCircle(t, bounds).Points}, opts)
	assert.ErrorContains(t, err, "--guide")

	opts.Pressure = engine.DefaultCriticalPressure
	_, err = analyzeStroke(context.Background(), tracedCircle(t, bounds), opts)
	assert.ErrorContains(t, err, "suspended")
}

func TestWriteAnalysisFormats(t *testing.T) {
	out := analysisOutput{
		Guide:    "circle",
		Level:    model.LevelBeginner,
		Score:    model.FusedScore{Accuracy: 0.9, IsCorrect: true},
		Feedback: model.Feedback{OverallScore: 0.9, Encouragement: "Nice circle.", Suggestions: []string{"Slow down."}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeAnalysis(&buf, "json", out))
	assert.Contains(t, buf.String(), `"overall_score": 0.9`)

	buf.Reset()
	require.NoError(t, writeAnalysis(&buf, "yaml", out))
	assert.Contains(t, buf.String(), "overall-score: 0.9")
	assert.NotContains(t, buf.String(), "classifier")

	buf.Reset()
	require.NoError(t, writeAnalysis(&buf, "text", out))
	assert.Contains(t, buf.String(), "90.0% (correct)")
	assert.Contains(t, buf.String(), "- Slow down.")

	assert.Error(t, writeAnalysis(&buf, "xml", out))
}

func TestReadStroke(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "stroke.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("guide: line\npoints:\n  - {x: 1, y: 2, t: 0}\n  - {x: 3, y: 4, t: 16}\n"), 0o644))
	stroke, err := readStroke(yamlPath, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ShapeID("line"), stroke.GuideID)
	assert.Equal(t, model.Point{X: 3, Y: 4, Timestamp: 16}, stroke.Points[1])

	stroke, err = readStroke("-", strings.NewReader(`{"guide":"circle","points":[{"x":5,"y":6}]}`))
	require.NoError(t, err)
	assert.Equal(t, model.ShapeID("circle"), stroke.GuideID)
	require.Len(t, stroke.Points, 1)

	_, err = readStroke(filepath.Join(dir, "missing.json"), nil)
	assert.Error(t, err)
}

func TestWriteGuidesGroupsByCategory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeGuides(&buf, guide.Builtin()))
	text := buf.String()
	assert.Contains(t, text, "shapes\n")
	assert.Regexp(t, `(?m)^  circle\s+closed`, text)
}

func TestWriteAchievements(t *testing.T) {
	unlocked := []model.UnlockedAchievement{{ID: "first-drawing", UnlockedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.Local)}}
	var buf bytes.Buffer
	require.NoError(t, writeAchievements(&buf, achievement.Builtin(), unlocked))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(achievement.Builtin()))
	assert.True(t, strings.HasPrefix(lines[0], "✓ "))
	assert.Contains(t, lines[0], "2026-05-01")
	assert.False(t, strings.HasPrefix(lines[1], "✓"))
}

func TestEnsureConfigFileKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sketchcoach", "config.toml")
	created, err := ensureConfigFile(path)
	require.NoError(t, err)
	assert.True(t, created)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, defaultConfigTemplate(), string(data))

	require.NoError(t, os.WriteFile(path, []byte("[practice]\n"), 0o644))
	created, err = ensureConfigFile(path)
	require.NoError(t, err)
	assert.False(t, created)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[practice]\n", string(data))
}

func TestEditorCommand(t *testing.T) {
	cmd := editorCommand("  code --wait ", "/tmp/c.toml")
	assert.Equal(t, []string{"code", "--wait", "/tmp/c.toml"}, cmd.Args)
	assert.Equal(t, []string{fallbackEditor, "/tmp/c.toml"}, editorCommand("", "/tmp/c.toml").Args)
}
