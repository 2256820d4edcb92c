package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DefaultFileName is the name exports are saved under when none is given.
const DefaultFileName = "prediction_report.pdf"

// WriterFactory creates the document a single export writes into.
type WriterFactory func(page PageGeometry, title string, created time.Time) DocumentWriter

// ErrPageMismatch is returned when a written document does not hold one
// page per slice.
var ErrPageMismatch = errors.New("document page count mismatch")

// Exporter captures a dashboard and writes it as a paginated document.
type Exporter struct {
	Capturer  Capturer
	Page      PageGeometry
	NewWriter WriterFactory
	Now       func() time.Time
	// Verify reads back a written file and returns its page count. Nil
	// skips verification.
	Verify func(io.ReadSeeker) (int, error)
}

// ExportResult describes a finished export.
type ExportResult struct {
	ID     string      `json:"id"`
	Path   string      `json:"path,omitempty"`
	Raster RasterImage `json:"raster"`
	Slices []PageSlice `json:"slices"`
	Bytes  int         `json:"bytes"`
}

// Pages returns the number of pages written.
func (r *ExportResult) Pages() int { return len(r.Slices) }

// NewExporter creates an exporter rendering at scale onto page with fpdf.
func NewExporter(scale int, page PageGeometry) *Exporter {
	return &Exporter{
		Capturer: NewRenderer(scale),
		Page:     page,
		NewWriter: func(p PageGeometry, title string, created time.Time) DocumentWriter {
			return NewPDFWriter(p, title, created)
		},
		Now:    time.Now,
		Verify: PageCount,
	}
}

// Write renders d and writes the document to w.
func (e *Exporter) Write(ctx context.Context, d Dashboard, w io.Writer) (*ExportResult, error) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = now()
	}

	img, err := e.Capturer.Capture(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	b := img.Bounds()
	raster := RasterImage{WidthPx: b.Dx(), HeightPx: b.Dy()}
	slices, err := Paginate(raster, e.Page)
	if err != nil {
		return nil, err
	}

	title := d.Title
	if title == "" {
		title = "Engine Health Report"
	}
	doc := e.NewWriter(e.Page, title, d.GeneratedAt)
	for _, s := range slices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rect := image.Rect(b.Min.X, b.Min.Y+s.SourceOffsetYPx, b.Max.X, b.Min.Y+s.SourceOffsetYPx+s.SourceHeightPx)
		if err := doc.AddPage(img.SubImage(rect), e.Page.ContentWidth(), s.RenderedHeight); err != nil {
			return nil, err
		}
	}

	cw := &countingWriter{w: w}
	if err := doc.Close(cw); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return &ExportResult{
		ID:     uuid.NewString(),
		Raster: raster,
		Slices: slices,
		Bytes:  cw.n,
	}, nil
}

// Bytes renders d into memory.
func (e *Exporter) Bytes(ctx context.Context, d Dashboard) ([]byte, *ExportResult, error) {
	var buf bytes.Buffer
	res, err := e.Write(ctx, d, &buf)
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), res, nil
}

// Export renders d to path. The file appears only once fully written.
func (e *Exporter) Export(ctx context.Context, d Dashboard, path string) (*ExportResult, error) {
	if path == "" {
		path = DefaultFileName
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	ok := false
	defer func() {
		if !ok {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	res, err := e.Write(ctx, d, tmp)
	if err != nil {
		return nil, err
	}
	if e.Verify != nil {
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind temp file: %w", err)
		}
		n, err := e.Verify(tmp)
		if err != nil {
			return nil, fmt.Errorf("verify report: %w", err)
		}
		if n != res.Pages() {
			return nil, fmt.Errorf("wrote %d pages for %d slices: %w", n, res.Pages(), ErrPageMismatch)
		}
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	ok = true
	res.Path = path
	slog.Info("report exported", "id", res.ID, "path", path, "pages", res.Pages(), "bytes", res.Bytes)
	return res, nil
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
