// Package report renders a dashboard snapshot to a raster image, slices the
// raster into page-sized bands and writes those bands to a PDF document.
package report

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrPageTooSmall is returned when a page cannot hold a single source
	// pixel row after margins and scaling.
	ErrPageTooSmall = errors.New("page too small")
	// ErrInvalidInput is returned for non-positive pixel sizes or
	// non-finite page geometry.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTooManyPages is returned when slicing would exceed MaxPages.
	ErrTooManyPages = errors.New("too many pages")
)

// MaxPages bounds the slices one raster may produce.
const MaxPages = 1000

// RasterImage describes a captured raster by its pixel size.
type RasterImage struct {
	WidthPx  int `json:"width_px"`
	HeightPx int `json:"height_px"`
}

// PageGeometry is a physical page size and uniform margin, all in the same
// unit (millimetres for A4).
type PageGeometry struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin float64 `json:"margin"`
}

// A4 is the default export page.
var A4 = PageGeometry{Width: 210, Height: 297, Margin: 10}

// ContentWidth is the printable width inside the margins.
func (g PageGeometry) ContentWidth() float64 { return g.Width - 2*g.Margin }

// ContentHeight is the printable height inside the margins.
func (g PageGeometry) ContentHeight() float64 { return g.Height - 2*g.Margin }

// PageSlice is one vertical band of source rows placed on one page.
type PageSlice struct {
	SourceOffsetYPx int     `json:"source_offset_y_px"`
	SourceHeightPx  int     `json:"source_height_px"`
	RenderedHeight  float64 `json:"rendered_height"`
}

// Scale returns the pixel-to-page-unit factor that fits the raster width to
// the content width.
func Scale(img RasterImage, page PageGeometry) float64 {
	return page.ContentWidth() / float64(img.WidthPx)
}

// Paginate slices img into page-height bands, top to bottom. The slices cover
// every source row exactly once.
func Paginate(img RasterImage, page PageGeometry) ([]PageSlice, error) {
	if img.WidthPx <= 0 || img.HeightPx <= 0 {
		return nil, fmt.Errorf("raster %dx%d: %w", img.WidthPx, img.HeightPx, ErrInvalidInput)
	}
	for _, v := range []float64{page.Width, page.Height, page.Margin} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("page geometry %+v: %w", page, ErrInvalidInput)
		}
	}

	contentW := page.ContentWidth()
	contentH := page.ContentHeight()
	if contentW <= 0 || contentH <= 0 {
		return nil, fmt.Errorf("content box %gx%g: %w", contentW, contentH, ErrPageTooSmall)
	}

	scale := contentW / float64(img.WidthPx)
	rendered := float64(img.HeightPx) * scale
	if rendered <= contentH {
		return []PageSlice{{
			SourceOffsetYPx: 0,
			SourceHeightPx:  img.HeightPx,
			RenderedHeight:  rendered,
		}}, nil
	}

	rows := contentH / scale
	if rows < 1 {
		return nil, fmt.Errorf("%.3g rows per page at scale %g: %w", rows, scale, ErrPageTooSmall)
	}
	capacity := int(math.Floor(rows))
	pages := (img.HeightPx + capacity - 1) / capacity
	if pages > MaxPages {
		return nil, fmt.Errorf("%d pages at %d rows per page (max %d): %w", pages, capacity, MaxPages, ErrTooManyPages)
	}

	slices := make([]PageSlice, 0, pages)
	offset, remaining := 0, img.HeightPx
	for remaining > 0 {
		h := min(capacity, remaining)
		slices = append(slices, PageSlice{
			SourceOffsetYPx: offset,
			SourceHeightPx:  h,
			RenderedHeight:  float64(h) * scale,
		})
		offset += h
		remaining -= h
	}
	return slices, nil
}
