package report

import (
	"image"
	"image/color"
	"testing"
)

func whiteCanvas(w, h int) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return &canvas{img: img}
}

func TestCanvasPolyline(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	tests := []struct {
		name      string
		pts       []image.Point
		solid     []image.Point
		untouched []image.Point
		wantAA    bool
	}{
		{
			name:      "horizontal",
			pts:       []image.Point{{4, 10}, {36, 10}},
			solid:     []image.Point{{5, 9}, {20, 9}, {20, 10}, {35, 10}},
			untouched: []image.Point{{20, 7}, {20, 12}, {1, 10}, {39, 10}},
		},
		{
			name:      "diagonal",
			pts:       []image.Point{{4, 2}, {36, 18}},
			solid:     []image.Point{{20, 10}},
			untouched: []image.Point{{4, 18}, {36, 2}},
			wantAA:    true,
		},
		{
			name:      "single point draws nothing",
			pts:       []image.Point{{20, 10}},
			untouched: []image.Point{{20, 10}, {20, 9}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := whiteCanvas(40, 20)
			box := image.Rect(2, 0, 38, 20)
			c.polyline(box, tt.pts, 2, colLine)
			for _, p := range tt.solid {
				if got := c.img.RGBAAt(p.X, p.Y); !near(got, colLine) {
					t.Errorf("pixel %v = %v, want line color", p, got)
				}
			}
			for _, p := range tt.untouched {
				if got := c.img.RGBAAt(p.X, p.Y); got != white {
					t.Errorf("pixel %v = %v, want background", p, got)
				}
			}
			partial := 0
			for y := range 20 {
				for x := range 40 {
					if r := c.img.RGBAAt(x, y).R; r > colLine.R+1 && r < 254 {
						partial++
					}
				}
			}
			if tt.wantAA && partial == 0 {
				t.Error("diagonal line has no partially covered pixels")
			}
			if !tt.wantAA && partial != 0 {
				t.Errorf("%d partially covered pixels on an axis-aligned line", partial)
			}
		})
	}
}

func near(a, b color.RGBA) bool {
	d := func(x, y uint8) bool { return x-y <= 1 || y-x <= 1 }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}
