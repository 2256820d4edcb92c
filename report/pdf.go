package report

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DocumentWriter places raster bands onto consecutive pages.
type DocumentWriter interface {
	// AddPage starts a page and draws img at the content origin with the
	// given rendered size.
	AddPage(img image.Image, width, height float64) error
	// Close finishes the document and writes it to w.
	Close(w io.Writer) error
}

// PDFWriter writes pages with fpdf.
type PDFWriter struct {
	pdf   *fpdf.Fpdf
	page  PageGeometry
	pages int
}

// NewPDFWriter creates a portrait document with pages sized by page, in
// millimetres.
func NewPDFWriter(page PageGeometry, title string, created time.Time) *PDFWriter {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetMargins(page.Margin, page.Margin, page.Margin)
	pdf.SetAutoPageBreak(false, page.Margin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("enginetwin", true)
	if !created.IsZero() {
		pdf.SetCreationDate(created)
	}
	return &PDFWriter{pdf: pdf, page: page}
}

func (w *PDFWriter) AddPage(img image.Image, width, height float64) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode page %d: %w", w.pages+1, err)
	}
	w.pages++
	name := fmt.Sprintf("page-%d", w.pages)
	opts := fpdf.ImageOptions{ImageType: "PNG"}

	w.pdf.AddPage()
	w.pdf.RegisterImageOptionsReader(name, opts, &buf)
	w.pdf.ImageOptions(name, w.page.Margin, w.page.Margin, width, height, false, opts, 0, "")
	if err := w.pdf.Error(); err != nil {
		return fmt.Errorf("place page %d: %w", w.pages, err)
	}
	return nil
}

func (w *PDFWriter) Close(out io.Writer) error {
	if w.pages == 0 {
		return fmt.Errorf("pdf: no pages")
	}
	return w.pdf.Output(out)
}

// Pages returns the number of pages added so far.
func (w *PDFWriter) Pages() int {
	return w.pages
}

// PageCount validates a PDF and returns its page count.
func PageCount(r io.ReadSeeker) (int, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(r, conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx.PageCount, nil
}
