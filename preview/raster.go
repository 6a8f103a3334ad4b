package preview

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// bufferSize は w*h*channels*bpc をオーバーフローを検出しながら計算する
func bufferSize(w, h, channels, bpc int) (int, bool) {
	if w <= 0 || h <= 0 || channels <= 0 || bpc <= 0 {
		return 0, false
	}
	n := uint64(w) * uint64(h)
	if n/uint64(h) != uint64(w) {
		return 0, false
	}
	per := uint64(channels) * uint64(bpc)
	if n > math.MaxInt/per {
		return 0, false
	}
	return int(n * per), true
}

// toNRGBA は任意の画像を原点基準の非乗算済み RGBA に変換する
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// fit は長辺が maxDim 以下になるよう縮小し、白背景に合成する (拡大はしない)
func fit(img image.Image, maxDim int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	nw, nh := w, h
	long := max(w, h)
	if maxDim > 0 && long > maxDim {
		nw = max(1, int(math.Round(float64(w)*float64(maxDim)/float64(long))))
		nh = max(1, int(math.Round(float64(h)*float64(maxDim)/float64(long))))
	}

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if nw == w && nh == h {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	}
	return dst
}

// orient は EXIF Orientation に従って回転・反転した画像を返す
func orient(src *image.NRGBA, o int) *image.NRGBA {
	if o <= 1 || o > 8 {
		return src
	}

	w, h := src.Rect.Dx(), src.Rect.Dy()
	dw, dh := w, h
	if o >= 5 {
		dw, dh = h, w
	}
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+4*w]
		for x := 0; x < w; x++ {
			var dx, dy int
			switch o {
			case 2:
				dx, dy = w-1-x, y
			case 3:
				dx, dy = w-1-x, h-1-y
			case 4:
				dx, dy = x, h-1-y
			case 5:
				dx, dy = y, x
			case 6:
				dx, dy = h-1-y, x
			case 7:
				dx, dy = h-1-y, w-1-x
			case 8:
				dx, dy = y, w-1-x
			}
			i := dy*dst.Stride + dx*4
			copy(dst.Pix[i:i+4], row[x*4:x*4+4])
		}
	}
	return dst
}

// pack は NRGBA を行優先・チャネル交互の 8bit バッファに詰め直す。
// channels が 3 の場合はアルファを白背景に合成してから落とす。
func pack(src *image.NRGBA, channels int) []byte {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if channels == 4 && src.Stride == 4*w {
		out := make([]byte, 4*w*h)
		copy(out, src.Pix)
		return out
	}

	out := make([]byte, channels*w*h)
	o := 0
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			px := row[x*4 : x*4+4]
			if channels == 4 {
				copy(out[o:o+4], px)
			} else {
				a := px[3]
				out[o] = overWhite(px[0], a)
				out[o+1] = overWhite(px[1], a)
				out[o+2] = overWhite(px[2], a)
			}
			o += channels
		}
	}
	return out
}

func overWhite(c, a uint8) uint8 {
	return uint8((uint32(c)*uint32(a) + 255*(255-uint32(a)) + 127) / 255)
}
