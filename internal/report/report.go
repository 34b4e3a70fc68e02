package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"quorum/internal/logger"
	"quorum/internal/signal"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var tierColors = map[signal.Tier]string{
	signal.Tier1: "#2f9e44",
	signal.Tier2: "#74b816",
	signal.Tier3: "#f59f00",
	signal.Tier4: "#868e96",
}

// Writer renders one HTML bar chart per batch run.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// WriteRanking writes the chart for one run and returns the file path.
func (w *Writer) WriteRanking(runID string, entries []signal.RankedEntry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("nothing to chart for run %s", runID)
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", err
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "quorum ranking", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Composite score ranking",
			Subtitle: fmt.Sprintf("run %s at %s", runID, time.Now().UTC().Format(time.RFC3339)),
			Left:     "left",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)
	subjects := make([]string, 0, len(entries))
	data := make([]opts.BarData, 0, len(entries))
	for _, e := range entries {
		subjects = append(subjects, e.Subject)
		data = append(data, opts.BarData{
			Value:     e.Score,
			Name:      fmt.Sprintf("%s (%s)", e.Subject, e.Tier),
			ItemStyle: &opts.ItemStyle{Color: tierColors[e.Tier]},
		})
	}
	bar.SetXAxis(subjects).AddSeries("score", data)

	path := filepath.Join(w.Dir, fmt.Sprintf("ranking-%s.html", runID))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := bar.Render(f); err != nil {
		return "", err
	}
	logger.Infof("ranking report written: %s (%d subjects)", path, len(entries))
	return path, nil
}
