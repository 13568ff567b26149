package debug

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/fieldwalls/internal/lidar/hough"
	"github.com/banshee-data/fieldwalls/internal/units"
)

// viridis, low to high.
var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// WriteAccumulatorHeatmap renders the non-empty cells of acc as an HTML
// heatmap with θ (degrees) on X and ρ (meters) on Y.
func WriteAccumulatorHeatmap(w io.Writer, acc *hough.Accumulator, title string) error {
	if acc == nil {
		return errors.New("nil accumulator")
	}
	nd, na := acc.DistanceBuckets(), acc.AngleBuckets()
	half := (nd - 1) / 2
	res := acc.Config().DistanceResolution

	xs := make([]string, na)
	for a := range xs {
		xs[a] = fmt.Sprintf("%.0f", float64(a)*units.RadToDeg(acc.AngleStep()))
	}
	ys := make([]string, nd)
	for d := range ys {
		ys[d] = fmt.Sprintf("%.2f", float64(d-half)*res)
	}

	data := make([]opts.HeatMapData, 0, 1024)
	var peak uint16
	for d := 0; d < nd; d++ {
		for a := 0; a < na; a++ {
			v := acc.Votes(hough.Cell{D: d, A: a})
			if v == 0 {
				continue
			}
			if v > peak {
				peak = v
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{a, d, v}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Hough Accumulator", Theme: "dark", Width: "1100px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("cells=%d peak=%d points=%d", len(data), peak, acc.Points())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "θ (deg)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys, Name: "ρ (m)", NameLocation: "middle", NameGap: 45}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(peak),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	hm.SetXAxis(xs).AddSeries("votes", data)

	if err := hm.Render(w); err != nil {
		return fmt.Errorf("failed to render heatmap: %w", err)
	}
	return nil
}

// SaveAccumulatorHeatmap writes the heatmap to path, creating parent
// directories.
func SaveAccumulatorHeatmap(path string, acc *hough.Accumulator, title string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteAccumulatorHeatmap(f, acc, title); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
