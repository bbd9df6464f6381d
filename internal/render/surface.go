// Package render paints the cluster graph onto a raster surface once per
// animation frame.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/msalah0e/clustermap/internal/camera"
)

// Surface is a 2D drawing target. Coordinates are in simulation space and
// mapped through the current transform, as a canvas context would after
// translate and scale.
type Surface interface {
	Size() (w, h int)
	Clear(bg color.Color)
	SetTransform(t camera.Transform)
	Line(x1, y1, x2, y2, width float64, c color.Color)
	FillCircle(x, y, r float64, c color.Color)
	StrokeCircle(x, y, r, width float64, c color.Color)
	Text(x, y, size float64, s string, c color.Color)
}

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

// Raster is a Surface backed by an RGBA image and an anti-aliasing rasterizer.
type Raster struct {
	img   *image.RGBA
	t     camera.Transform
	rz    *vector.Rasterizer
	font  *opentype.Font
	faces map[int]font.Face
}

// NewRaster returns a w x h surface.
func NewRaster(w, h int) (*Raster, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return &Raster{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		t:     camera.Identity(),
		rz:    vector.NewRasterizer(w, h),
		font:  f,
		faces: make(map[int]font.Face),
	}, nil
}

// Image returns the backing image.
func (r *Raster) Image() *image.RGBA { return r.img }

// EncodePNG writes the current image as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	return png.Encode(w, r.img)
}

func (r *Raster) Size() (int, int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

func (r *Raster) Clear(bg color.Color) {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
}

func (r *Raster) SetTransform(t camera.Transform) { r.t = t }

func (r *Raster) screen(x, y float64) (float32, float32) {
	p := r.t.Apply(camera.Point{X: x, Y: y})
	return float32(p.X), float32(p.Y)
}

// visible reports whether a screen-space box touches the surface.
func (r *Raster) visible(minX, minY, maxX, maxY float32) bool {
	w, h := r.Size()
	if math.IsNaN(float64(minX)) || math.IsNaN(float64(minY)) {
		return false
	}
	return maxX >= 0 && maxY >= 0 && minX <= float32(w) && minY <= float32(h)
}

func (r *Raster) fill(c color.Color) {
	w, h := r.Size()
	r.rz.Draw(r.img, image.Rect(0, 0, w, h), image.NewUniform(c), image.Point{})
	r.rz.Reset(w, h)
}

// Line strokes a segment; widths below one pixel are drawn one pixel wide.
func (r *Raster) Line(x1, y1, x2, y2, width float64, c color.Color) {
	ax, ay := r.screen(x1, y1)
	bx, by := r.screen(x2, y2)
	dx, dy := float64(bx-ax), float64(by-ay)
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	hw := math.Max(width*r.t.K, 1) / 2
	if !r.visible(min(ax, bx)-float32(hw), min(ay, by)-float32(hw), max(ax, bx)+float32(hw), max(ay, by)+float32(hw)) {
		return
	}
	nx, ny := float32(-dy/l*hw), float32(dx/l*hw)

	r.rz.MoveTo(ax+nx, ay+ny)
	r.rz.LineTo(bx+nx, by+ny)
	r.rz.LineTo(bx-nx, by-ny)
	r.rz.LineTo(ax-nx, ay-ny)
	r.rz.ClosePath()
	r.fill(c)
}

func (r *Raster) circlePath(cx, cy, rad float32, reverse bool) {
	k := rad * kappa
	if !reverse {
		r.rz.MoveTo(cx+rad, cy)
		r.rz.CubeTo(cx+rad, cy+k, cx+k, cy+rad, cx, cy+rad)
		r.rz.CubeTo(cx-k, cy+rad, cx-rad, cy+k, cx-rad, cy)
		r.rz.CubeTo(cx-rad, cy-k, cx-k, cy-rad, cx, cy-rad)
		r.rz.CubeTo(cx+k, cy-rad, cx+rad, cy-k, cx+rad, cy)
	} else {
		r.rz.MoveTo(cx+rad, cy)
		r.rz.CubeTo(cx+rad, cy-k, cx+k, cy-rad, cx, cy-rad)
		r.rz.CubeTo(cx-k, cy-rad, cx-rad, cy-k, cx-rad, cy)
		r.rz.CubeTo(cx-rad, cy+k, cx-k, cy+rad, cx, cy+rad)
		r.rz.CubeTo(cx+k, cy+rad, cx+rad, cy+k, cx+rad, cy)
	}
	r.rz.ClosePath()
}

func (r *Raster) FillCircle(x, y, rad float64, c color.Color) {
	cx, cy := r.screen(x, y)
	sr := float32(rad * r.t.K)
	if !r.visible(cx-sr, cy-sr, cx+sr, cy+sr) {
		return
	}
	r.circlePath(cx, cy, sr, false)
	r.fill(c)
}

func (r *Raster) StrokeCircle(x, y, rad, width float64, c color.Color) {
	cx, cy := r.screen(x, y)
	hw := math.Max(width*r.t.K, 1) / 2
	outer := rad*r.t.K + hw
	inner := math.Max(rad*r.t.K-hw, 0)
	if !r.visible(cx-float32(outer), cy-float32(outer), cx+float32(outer), cy+float32(outer)) {
		return
	}
	r.circlePath(cx, cy, float32(outer), false)
	r.circlePath(cx, cy, float32(inner), true)
	r.fill(c)
}

// Text draws s centred on (x, y) at size points scaled by the transform.
func (r *Raster) Text(x, y, size float64, s string, c color.Color) {
	face := r.face(size * r.t.K)
	if face == nil || s == "" {
		return
	}
	sx, sy := r.screen(x, y)
	m := face.Metrics()
	width := font.MeasureString(face, s)
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(sx*64) - width/2,
			Y: fixed.Int26_6(sy*64) + (m.Ascent-m.Descent)/2,
		},
	}
	d.DrawString(s)
}

// face caches opentype faces by quarter-point size.
func (r *Raster) face(size float64) font.Face {
	key := int(math.Round(size * 4))
	if key < 4 {
		return nil
	}
	if f, ok := r.faces[key]; ok {
		return f
	}
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    float64(key) / 4,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil
	}
	r.faces[key] = f
	return f
}
