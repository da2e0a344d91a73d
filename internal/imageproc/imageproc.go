// Package imageproc реализует подготовку изображения для экстрактора признаков:
// масштабирование по короткой стороне, центральная обрезка и поканальная нормализация.
// Один и тот же код используется при построении индекса и при запросе.
package imageproc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	_ "golang.org/x/image/webp"
)

const channels = 3

// Tensor — изображение в раскладке CHW (float32), готовое к подаче в экстрактор.
type Tensor struct {
	Channels int
	Height   int
	Width    int
	Data     []float32
}

// Bytes сериализует тензор в little-endian float32.
func (t *Tensor) Bytes() []byte {
	buf := make([]byte, 4*len(t.Data))
	for i, v := range t.Data {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}

	return buf
}

// TensorFromBytes — обратная операция к Bytes.
func TensorFromBytes(data []byte, c, h, w int) (*Tensor, error) {
	if len(data) != 4*c*h*w {
		return nil, fmt.Errorf("tensor payload has %d bytes, want %d", len(data), 4*c*h*w)
	}

	out := make([]float32, c*h*w)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}

	return &Tensor{Channels: c, Height: h, Width: w, Data: out}, nil
}

// MaxPixels — предел площади загружаемого изображения. Проверяется по заголовку до декодирования.
const MaxPixels = 40_000_000

// Decode декодирует jpeg, png или webp. Любая ошибка декодирования и слишком большое изображение —
// e.ErrInvalidImage.
func Decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, e.Wrap(err.Error(), e.ErrInvalidImage)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, e.Wrap(fmt.Sprintf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels), e.ErrInvalidImage)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, e.Wrap(err.Error(), e.ErrInvalidImage)
	}

	return img, nil
}

// Preprocess масштабирует изображение так, чтобы короткая сторона стала ResizeShortSide,
// вырезает центральный квадрат CropSize и нормализует каналы (x/255 - mean) / std.
// Масштабированное изображение целиком не строится: в выход пересчитывается только та область
// источника, которая попадает в центральный квадрат.
func Preprocess(img image.Image, p domain.Preprocessing) (*Tensor, error) {
	if img == nil {
		return nil, e.ErrInvalidImage
	}
	if p.ResizeShortSide <= 0 || p.CropSize <= 0 || p.CropSize > p.ResizeShortSide {
		return nil, fmt.Errorf("invalid preprocessing parameters: resize=%d crop=%d", p.ResizeShortSide, p.CropSize)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, e.ErrInvalidImage
	}

	return normalize(resizeAndCrop(opaque(img), p.ResizeShortSide, p.CropSize), p), nil
}

// resizedSize повторяет правило torchvision.Resize(int): длинная сторона = int(size * long / short).
func resizedSize(w, h, size int) (int, int) {
	if w <= h {
		return size, int(float64(size) * float64(h) / float64(w))
	}

	return int(float64(size) * float64(w) / float64(h)), size
}

// resizeAndCrop эквивалентен Resize(size) + CenterCrop(crop). Смещение обрезки torchvision:
// round((dim - crop) / 2) в координатах масштабированного изображения.
func resizeAndCrop(img image.Image, size, crop int) *image.RGBA {
	b := img.Bounds()
	newW, newH := resizedSize(b.Dx(), b.Dy(), size)

	left := math.RoundToEven(float64(newW-crop) / 2)
	top := math.RoundToEven(float64(newH-crop) / 2)

	// источник -> выход: масштаб newW/w, затем сдвиг на начало обрезки
	sx := float64(newW) / float64(b.Dx())
	sy := float64(newH) / float64(b.Dy())
	s2d := f64.Aff3{
		sx, 0, -float64(b.Min.X)*sx - left,
		0, sy, -float64(b.Min.Y)*sy - top,
	}

	dst := image.NewRGBA(image.Rect(0, 0, crop, crop))
	xdraw.BiLinear.Transform(dst, s2d, img, b, xdraw.Src, nil)

	return dst
}

// opaqueImage отбрасывает альфа-канал, сохраняя RGB прозрачных пикселей (как PIL convert("RGB")).
type opaqueImage struct {
	image.Image
}

func (o opaqueImage) ColorModel() color.Model { return color.RGBA64Model }

func (o opaqueImage) Opaque() bool { return true }

func (o opaqueImage) At(x, y int) color.Color {
	switch src := o.Image.(type) {
	case *image.NRGBA:
		c := src.NRGBAAt(x, y)
		return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	case *image.NRGBA64:
		c := src.NRGBA64At(x, y)
		return color.RGBA64{R: c.R, G: c.G, B: c.B, A: 0xffff}
	}

	r, g, b, a := o.Image.At(x, y).RGBA()
	if a == 0 {
		return color.RGBA64{A: 0xffff}
	}
	if a < 0xffff {
		r, g, b = r*0xffff/a, g*0xffff/a, b*0xffff/a
	}

	return color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: 0xffff}
}

func opaque(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	return opaqueImage{Image: img}
}

func normalize(img *image.RGBA, p domain.Preprocessing) *Tensor {
	size := img.Bounds().Dx()
	plane := size * size
	data := make([]float32, channels*plane)

	for y := 0; y < size; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < size; x++ {
			px := row[x*4:]
			for c := 0; c < channels; c++ {
				v := float32(px[c]) / 255
				data[c*plane+y*size+x] = (v - p.Mean[c]) / p.Std[c]
			}
		}
	}

	return &Tensor{Channels: channels, Height: size, Width: size, Data: data}
}
