package debug

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
	"github.com/banshee-data/fieldwalls/internal/lidar/walls"
)

var (
	pointColor   = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	foundColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	guessedColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	originColor  = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	cornerColor  = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// PlotOptions controls PlotScan.
type PlotOptions struct {
	Title  string
	Extent float64 // half-width of the square view in meters (default 3)
	Size   vg.Length

	// ExactTolerance guards the corner intersections, rad
	// (default geom.DefaultExactTolerance).
	ExactTolerance float64
}

func (o PlotOptions) withDefaults() PlotOptions {
	if o.Extent <= 0 {
		o.Extent = 3
	}
	if o.Size <= 0 {
		o.Size = 8 * vg.Inch
	}
	if o.ExactTolerance <= 0 {
		o.ExactTolerance = geom.DefaultExactTolerance
	}
	return o
}

// PlotScan writes a square plot of points in the scanner frame with fw
// overlaid. Guessed walls are dashed and the rectangle corners are marked
// when the walls intersect. fw may be nil. The image format
// follows the extension of path.
func PlotScan(path string, points []geom.PolarPoint, fw *walls.FieldWalls, o PlotOptions) error {
	o = o.withDefaults()

	p := plot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, 0, len(points))
	for _, pp := range points {
		c := pp.Cartesian()
		xys = append(xys, plotter.XY{X: c.X, Y: c.Y})
	}
	if len(xys) > 0 {
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = pointColor
		sc.GlyphStyle.Radius = vg.Points(1)
		p.Add(sc)
		p.Legend.Add(fmt.Sprintf("points (%d)", len(xys)), sc)
	}

	origin, err := plotter.NewScatter(plotter.XYs{{X: 0, Y: 0}})
	if err != nil {
		return err
	}
	origin.GlyphStyle.Color = originColor
	origin.GlyphStyle.Radius = vg.Points(4)
	p.Add(origin)

	if fw != nil {
		for _, w := range fw.Walls() {
			seg, err := wallSegment(w.Line, o.Extent)
			if err != nil {
				return err
			}
			seg.Width = vg.Points(1.5)
			seg.Color = foundColor
			if w.IsGuessed() {
				seg.Color = guessedColor
				seg.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
			}
			p.Add(seg)
			p.Legend.Add(w.String(), seg)
		}

		if corners := cornerXYs(*fw, o.ExactTolerance); corners != nil {
			sc, err := plotter.NewScatter(corners)
			if err != nil {
				return err
			}
			sc.GlyphStyle.Color = cornerColor
			sc.GlyphStyle.Radius = vg.Points(3)
			sc.GlyphStyle.Shape = draw.BoxGlyph{}
			p.Add(sc)
			p.Legend.Add("corners", sc)
		}
	}

	// Add widens the axes to the data; walls span past the view.
	p.X.Min, p.X.Max = -o.Extent, o.Extent
	p.Y.Min, p.Y.Max = -o.Extent, o.Extent

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(o.Size, o.Size, path); err != nil {
		return fmt.Errorf("failed to save scan plot: %w", err)
	}
	return nil
}

// cornerXYs returns the four corners of fw, or nil when adjacent walls do
// not intersect under exactTol.
func cornerXYs(fw walls.FieldWalls, exactTol float64) plotter.XYs {
	corners, ok := fw.Corners(exactTol)
	if !ok {
		return nil
	}
	xys := make(plotter.XYs, len(corners))
	for i, c := range corners {
		xys[i] = plotter.XY{X: c.X, Y: c.Y}
	}
	return xys
}

// wallSegment returns the part of l that spans the view.
func wallSegment(l geom.PolarLine, extent float64) (*plotter.Line, error) {
	foot := l.ClosestPoint()
	dx, dy := -math.Sin(l.Angle), math.Cos(l.Angle)
	span := 2 * extent * math.Sqrt2
	return plotter.NewLine(plotter.XYs{
		{X: foot.X - span*dx, Y: foot.Y - span*dy},
		{X: foot.X + span*dx, Y: foot.Y + span*dy},
	})
}
