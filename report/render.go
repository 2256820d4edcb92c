package report

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
	"github.com/Vaishnavi-Hegde17/enginetwin/util"
)

// Dashboard is everything shown on the exported report.
type Dashboard struct {
	Title       string
	GeneratedAt time.Time
	Snapshot    model.Snapshot
	Result      model.AnalysisResult
	// Series holds recent values per parameter, oldest first.
	Series map[string][]float64
	Events []model.Event
}

// Capturer turns a dashboard into a raster.
type Capturer interface {
	Capture(ctx context.Context, d Dashboard) (*image.RGBA, error)
}

var (
	colBackground = color.RGBA{248, 249, 250, 255}
	colHeader     = color.RGBA{30, 58, 95, 255}
	colText       = color.RGBA{44, 62, 80, 255}
	colMuted      = color.RGBA{127, 140, 141, 255}
	colWhite      = color.RGBA{255, 255, 255, 255}
	colOK         = color.RGBA{46, 204, 113, 255}
	colWarn       = color.RGBA{241, 196, 15, 255}
	colCrit       = color.RGBA{231, 76, 60, 255}
	colTrack      = color.RGBA{220, 220, 220, 255}
	colBand       = color.RGBA{46, 204, 113, 110}
	colLine       = color.RGBA{52, 152, 219, 255}
	colRowAlt     = color.RGBA{241, 245, 249, 255}
)

func healthColor(h model.HealthLevel) color.RGBA {
	switch h {
	case model.HealthOK:
		return colOK
	case model.HealthWarning:
		return colWarn
	case model.HealthCritical:
		return colCrit
	}
	return colMuted
}

// layout in logical pixels, before scaling
const (
	pageW       = 800
	pad         = 16
	lineH       = 18
	headerH     = 64
	bannerH     = 72
	rowH        = 22
	barRowH     = 40
	sparkRowH   = 64
	sectionGapH = 20
)

// Renderer draws dashboards with the built-in bitmap face. Scale multiplies
// the logical resolution, like a device pixel ratio.
type Renderer struct {
	Scale   int
	printer *message.Printer
	face    font.Face
}

// NewRenderer creates a renderer at scale (values < 1 mean 1).
func NewRenderer(scale int) *Renderer {
	return &Renderer{
		Scale:   max(1, scale),
		printer: message.NewPrinter(language.English),
		face:    basicfont.Face7x13,
	}
}

// Capture renders d. It fails only when ctx is done.
func (r *Renderer) Capture(ctx context.Context, d Dashboard) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := r.Render(d)
	if r.Scale == 1 {
		return img, nil
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()*r.Scale, b.Dy()*r.Scale))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out, nil
}

// Height returns the logical height of d's layout.
func Height(d Dashboard) int {
	n := len(d.Result.Parameters)
	h := headerH + bannerH + sectionGapH
	h += lineH + rowH*(n+1) + sectionGapH // table
	h += lineH + sectionGapH              // worst
	h += lineH + barRowH*n + sectionGapH  // bars
	h += lineH + sparkRowH*n              // sparklines
	if len(d.Events) > 0 {
		h += sectionGapH + lineH + rowH*len(d.Events)
	}
	return h + pad
}

// Render draws d at logical resolution.
func (r *Renderer) Render(d Dashboard) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, pageW, Height(d)))
	c := &canvas{img: img, face: r.face}
	c.fill(img.Bounds(), colBackground)

	y := r.drawHeader(c, d)
	y = r.drawBanner(c, d, y)
	y = r.drawTable(c, d, y+sectionGapH)
	y = r.drawWorst(c, d, y+sectionGapH)
	y = r.drawBars(c, d, y+sectionGapH)
	y = r.drawSparklines(c, d, y+sectionGapH)
	if len(d.Events) > 0 {
		r.drawEvents(c, d, y+sectionGapH)
	}
	return img
}

func (r *Renderer) drawHeader(c *canvas, d Dashboard) int {
	c.fill(image.Rect(0, 0, pageW, headerH), colHeader)
	title := d.Title
	if title == "" {
		title = "Engine Health Report"
	}
	c.text(pad, 24, title, colWhite)
	s := d.Snapshot.Reading.Sample
	sub := fmt.Sprintf("%s  %s  phase %s  sampled %s",
		s.AircraftID, s.EngineModel, s.Phase, d.Snapshot.Timestamp.Format("2006-01-02 15:04:05"))
	c.text(pad, 44, sub, colWhite)
	if !d.GeneratedAt.IsZero() {
		gen := "generated " + d.GeneratedAt.Format("2006-01-02 15:04")
		c.text(pageW-pad-c.width(gen), 24, gen, colWhite)
	}
	return headerH
}

func (r *Renderer) drawBanner(c *canvas, d Dashboard, y int) int {
	res := d.Result
	col := healthColor(res.Health)
	box := image.Rect(pad, y+pad, pageW-pad, y+bannerH)
	c.fill(box, col)

	label := res.Label
	if label == "" {
		label = "NO PREDICTION"
	}
	headline := "Prediction: " + label
	if res.Anomalous() {
		headline = "ALERT: " + label + " condition detected"
	}
	c.text(box.Min.X+10, box.Min.Y+20, headline, colWhite)
	if len(res.Probabilities) > 0 {
		c.text(box.Min.X+10, box.Min.Y+40, util.FormatProbabilities(res.Probabilities, 1), colWhite)
	}
	return y + bannerH
}

func (r *Renderer) drawTable(c *canvas, d Dashboard, y int) int {
	c.text(pad, y+13, "Parameters", colText)
	y += lineH
	cols := []int{pad + 6, 200, 330, 520, 660}
	head := []string{"Parameter", "Value", "Normal band", "Scale", "Deviation"}
	c.fill(image.Rect(pad, y, pageW-pad, y+rowH), colHeader)
	for i, h := range head {
		c.text(cols[i], y+15, h, colWhite)
	}
	y += rowH
	for i, p := range d.Result.Parameters {
		if i%2 == 1 {
			c.fill(image.Rect(pad, y, pageW-pad, y+rowH), colRowAlt)
		}
		col := colText
		if p.HasRange && p.Score > 0 {
			col = colCrit
		}
		c.text(cols[0], y+15, p.Name, col)
		c.text(cols[1], y+15, r.printer.Sprintf("%.2f", p.Value), col)
		if p.HasRange {
			c.text(cols[2], y+15, r.printer.Sprintf("%v - %v", p.Range.Min, p.Range.Max), colText)
			c.text(cols[3], y+15, r.printer.Sprintf("%v - %v", p.Range.MinPossible, p.Range.MaxPossible), colMuted)
			dev := r.printer.Sprintf("%.3f", p.Score)
			if p.Err != "" {
				dev = "error"
			}
			c.text(cols[4], y+15, dev, col)
		} else {
			c.text(cols[2], y+15, "no range", colMuted)
		}
		y += rowH
	}
	return y
}

func (r *Renderer) drawWorst(c *canvas, d Dashboard, y int) int {
	line := "Worst parameter: none scored"
	if w := d.Result.Worst; w != nil {
		if w.Score > 0 {
			line = r.printer.Sprintf("Worst parameter: %s at %.2f (deviation %.3f)", w.Name, w.Value, w.Score)
		} else {
			line = "All parameters inside their normal bands"
		}
	}
	c.text(pad, y+13, line, colText)
	return y + lineH
}

func (r *Renderer) drawBars(c *canvas, d Dashboard, y int) int {
	c.text(pad, y+13, "Normal ranges", colText)
	y += lineH
	x0, x1 := 200, pageW-pad-60
	for _, p := range d.Result.Parameters {
		c.text(pad+6, y+20, p.Name, colText)
		track := image.Rect(x0, y+12, x1, y+24)
		c.fill(track, colTrack)
		if p.HasRange && p.Err == "" {
			w := float64(track.Dx())
			lo, hi := p.Band.StartPct, p.Band.EndPct
			if lo > hi {
				lo, hi = hi, lo
			}
			band := image.Rect(x0+int(w*lo/100), track.Min.Y, x0+int(w*hi/100), track.Max.Y)
			c.blend(band, colBand)
			mx := x0 + int(math.Round(w*p.ValuePct/100))
			marker := colOK
			if p.Score > 0 {
				marker = colCrit
			}
			c.fill(image.Rect(mx-2, y+6, mx+2, y+30), marker)
			c.text(x1+8, y+22, r.printer.Sprintf("%.0f%%", p.ValuePct), colMuted)
		}
		y += barRowH
	}
	return y
}

func (r *Renderer) drawSparklines(c *canvas, d Dashboard, y int) int {
	c.text(pad, y+13, "Recent trend", colText)
	y += lineH
	x0, x1 := 200, pageW-pad
	for _, p := range d.Result.Parameters {
		c.text(pad+6, y+sparkRowH/2, p.Name, colText)
		box := image.Rect(x0, y+6, x1, y+sparkRowH-6)
		c.stroke(box, colTrack)
		series := d.Series[p.Name]
		if p.HasRange {
			// normal band as a shaded strip on the value axis
			lo, hi := p.Range.Min, p.Range.Max
			top := valueY(box, hi, p.Range)
			bot := valueY(box, lo, p.Range)
			if top > bot {
				top, bot = bot, top
			}
			c.blend(image.Rect(box.Min.X+1, top, box.Max.X-1, bot), colBand)
		}
		if len(series) > 1 {
			rng := seriesRange(series, p)
			step := float64(box.Dx()-2) / float64(len(series)-1)
			pts := make([]image.Point, len(series))
			for i, v := range series {
				pts[i] = image.Pt(box.Min.X+1+int(math.Round(float64(i)*step)), valueY(box, v, rng))
			}
			c.polyline(box, pts, 2, colLine)
		}
		y += sparkRowH
	}
	return y
}

func (r *Renderer) drawEvents(c *canvas, d Dashboard, y int) {
	c.text(pad, y+13, "Recent anomaly events", colText)
	y += lineH
	for _, e := range d.Events {
		line := fmt.Sprintf("%s  %-8s  %s  worst %s", e.StartTime.Format("2006-01-02 15:04:05"),
			e.Label, util.FormatDuration(time.Duration(e.Duration)*time.Second), e.WorstParam)
		c.text(pad+6, y+15, line, healthColor(e.PeakHealth))
		y += rowH
	}
}

// seriesRange returns the vertical scale for a sparkline: the parameter's
// display scale when it has one, else the data's own extent.
func seriesRange(series []float64, p model.ParameterStatus) model.ParameterRange {
	if p.HasRange && p.Range.Span() > 0 {
		return p.Range
	}
	lo, hi := series[0], series[0]
	for _, v := range series {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return model.ParameterRange{MinPossible: lo, MaxPossible: hi}
}

func valueY(box image.Rectangle, v float64, r model.ParameterRange) int {
	if r.Span() == 0 {
		return box.Max.Y - 1
	}
	frac := (v - r.MinPossible) / r.Span()
	frac = math.Max(0, math.Min(1, frac))
	return box.Max.Y - 1 - int(math.Round(frac*float64(box.Dy()-2)))
}

// canvas wraps an RGBA with the few primitives the report needs.
type canvas struct {
	img  *image.RGBA
	face font.Face
}

func (c *canvas) fill(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *canvas) blend(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

func (c *canvas) stroke(r image.Rectangle, col color.Color) {
	c.fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), col)
	c.fill(image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), col)
	c.fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), col)
	c.fill(image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), col)
}

func (c *canvas) text(x, y int, s string, col color.Color) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

func (c *canvas) width(s string) int {
	return font.MeasureString(c.face, s).Ceil()
}

// polyline strokes pts inside box with an anti-aliased line of width w.
func (c *canvas) polyline(box image.Rectangle, pts []image.Point, w float64, col color.RGBA) {
	if len(pts) < 2 || box.Empty() {
		return
	}
	z := vector.NewRasterizer(box.Dx(), box.Dy())
	half := w / 2
	for i := 1; i < len(pts); i++ {
		ax, ay := float64(pts[i-1].X-box.Min.X), float64(pts[i-1].Y-box.Min.Y)
		bx, by := float64(pts[i].X-box.Min.X), float64(pts[i].Y-box.Min.Y)
		dx, dy := bx-ax, by-ay
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		// extend each segment by half the width so joints overlap
		ux, uy := dx/l*half, dy/l*half
		nx, ny := -uy, ux
		ax, ay, bx, by = ax-ux, ay-uy, bx+ux, by+uy
		z.MoveTo(float32(ax+nx), float32(ay+ny))
		z.LineTo(float32(bx+nx), float32(by+ny))
		z.LineTo(float32(bx-nx), float32(by-ny))
		z.LineTo(float32(ax-nx), float32(ay-ny))
		z.ClosePath()
	}
	z.Draw(c.img, box, image.NewUniform(col), image.Point{})
}
