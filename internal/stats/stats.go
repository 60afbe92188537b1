// Package stats aggregates practice history into summaries, tables and curves.
package stats

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/verte-zerg/sketchcoach/internal/model"
)

const sparkChars = " .:-=+*#%@"

// AttemptMetrics computes mean accuracy, correct rate and mean stroke duration.
func AttemptMetrics(attempts, correct int, accuracySum float64, durationMs int64) (accuracy, correctRate, avgDurationMs float64) {
	if attempts <= 0 {
		return 0, 0, 0
	}
	n := float64(attempts)
	return accuracySum / n, float64(correct) / n, float64(durationMs) / n
}

// MovingAverage smooths values with a trailing window. The first window-1
// points average whatever precedes them.
func MovingAverage(values []float64, window int) []float64 {
	out := slices.Clone(values)
	if window <= 1 {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline maps values onto a one-line ASCII ramp.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := slices.Min(values), slices.Max(values)
	top := len(sparkChars) - 1
	out := make([]byte, len(values))
	for i, v := range values {
		idx := len(sparkChars) / 2
		if hi-lo >= 1e-9 {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(top)))
		}
		out[i] = sparkChars[max(0, min(idx, top))]
	}
	return string(out)
}

// summary totals every session that recorded attempts.
type summary struct {
	sessions   int
	attempts   int
	correct    int
	accSum     float64
	durationMs int64
	best       float64
	trend      []float64
}

func summarize(sessions []model.SessionAggregate) summary {
	var s summary
	for _, agg := range sessions {
		if agg.Attempts == 0 {
			continue
		}
		acc, _, _ := AttemptMetrics(agg.Attempts, agg.Correct, agg.AccuracySum, agg.DurationMs)
		s.sessions++
		s.attempts += agg.Attempts
		s.correct += agg.Correct
		s.accSum += agg.AccuracySum
		s.durationMs += agg.DurationMs
		s.best = max(s.best, acc)
		s.trend = append(s.trend, acc)
	}
	return s
}

// RenderSummary prints totals across sessions with an accuracy sparkline.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	s := summarize(sessions)
	if s.attempts == 0 {
		_, err := fmt.Fprintln(w, "No attempts found.")
		return err
	}
	acc, rate, avgMs := AttemptMetrics(s.attempts, s.correct, s.accSum, s.durationMs)

	var b strings.Builder
	b.WriteString("Summary\n")
	fmt.Fprintf(&b, "Sessions: %d\n", s.sessions)
	fmt.Fprintf(&b, "Attempts: %d (%d correct, %.2f%%)\n", s.attempts, s.correct, rate*100)
	fmt.Fprintf(&b, "Avg Accuracy: %.2f%%\n", acc*100)
	fmt.Fprintf(&b, "Best Session Accuracy: %.2f%%\n", s.best*100)
	fmt.Fprintf(&b, "Avg Stroke Time: %.0f ms\n", avgMs)
	fmt.Fprintf(&b, "Trend: %s\n\n", Sparkline(s.trend))
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderCurves prints learning curves for accuracy and correct rate.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window int) error {
	return RenderCurvesWithSize(w, sessions, window, 0, defaultPlotHeight, false)
}

// RenderCurvesWithSize is RenderCurves fitted to totalWidth columns, or the
// terminal when totalWidth is zero.
func RenderCurvesWithSize(w io.Writer, sessions []model.SessionAggregate, window, totalWidth, height int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	accs := make([]float64, len(sessions))
	rates := make([]float64, len(sessions))
	for i, s := range sessions {
		acc, rate, _ := AttemptMetrics(s.Attempts, s.Correct, s.AccuracySum, s.DurationMs)
		accs[i], rates[i] = acc*100, rate*100
	}
	return PlotSeriesWithColor(w, "Learning Curves", []Series{
		{Name: "Accuracy", Values: MovingAverage(accs, window), Scale: ScalePercent},
		{Name: "Correct", Values: MovingAverage(rates, window), Scale: ScalePercent},
	}, plotWidth(totalWidth), height, useColor)
}

func plotWidth(totalWidth int) int {
	if totalWidth <= 0 {
		return 0
	}
	return PlotWidthFor(totalWidth)
}

var shapeTableColumns = []column{
	{header: "Shape"},
	{header: "Accuracy", right: true},
	{header: "Correct", right: true},
	{header: "Avg Time (ms)", right: true},
	{header: "Attempts", right: true},
}

// RenderShapeTable prints per-shape aggregates, weakest first.
func RenderShapeTable(w io.Writer, aggs []model.ShapeAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No shape stats found.")
		return err
	}
	sorted := slices.Clone(aggs)
	slices.SortFunc(sorted, func(a, b model.ShapeAggregate) int {
		return cmp.Or(cmp.Compare(meanAccuracy(a), meanAccuracy(b)), cmp.Compare(a.Shape, b.Shape))
	})
	rows := make([][]string, len(sorted))
	for i, agg := range sorted {
		acc, rate, avgMs := AttemptMetrics(agg.Attempts, agg.Correct, agg.AccuracySum, agg.DurationSum)
		rows[i] = []string{
			string(agg.Shape),
			fmt.Sprintf("%.2f%%", acc*100),
			fmt.Sprintf("%.2f%%", rate*100),
			fmt.Sprintf("%.0f", avgMs),
			strconv.Itoa(agg.Attempts),
		}
	}

	var b strings.Builder
	b.WriteString("Per-Shape (Windowed)\n")
	for _, line := range formatTable(shapeTableColumns, rows) {
		b.WriteString(line + "\n")
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderShapeCurves prints accuracy and stroke time curves for each shape.
func RenderShapeCurves(w io.Writer, sessions []model.SessionAggregate, perSession map[int64]map[model.ShapeID]model.ShapeAggregate, shapes []model.ShapeID, window int) error {
	return RenderShapeCurvesWithSize(w, sessions, perSession, shapes, window, 0, defaultPlotHeight, false)
}

// RenderShapeCurvesWithSize is RenderShapeCurves fitted to totalWidth columns.
// Sessions where a shape was not drawn count as zero.
func RenderShapeCurvesWithSize(w io.Writer, sessions []model.SessionAggregate, perSession map[int64]map[model.ShapeID]model.ShapeAggregate, shapes []model.ShapeID, window, totalWidth, height int, useColor bool) error {
	if len(shapes) == 0 || len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Shape Curves"); err != nil {
		return err
	}
	for _, shape := range shapes {
		accs := make([]float64, len(sessions))
		times := make([]float64, len(sessions))
		for i, s := range sessions {
			agg, ok := perSession[s.SessionID][shape]
			if !ok {
				continue
			}
			acc, _, avgMs := AttemptMetrics(agg.Attempts, agg.Correct, agg.AccuracySum, agg.DurationSum)
			accs[i], times[i] = acc*100, avgMs
		}
		err := PlotSeriesWithColor(w, "Shape "+string(shape), []Series{
			{Name: "Accuracy", Values: MovingAverage(accs, window), Scale: ScalePercent},
			{Name: "Stroke Time (ms)", Values: MovingAverage(times, window)},
		}, plotWidth(totalWidth), height, useColor)
		if err != nil {
			return err
		}
	}
	return nil
}
