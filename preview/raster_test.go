package preview

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labeled は 3x2 の各ピクセルの R に 1..6 を入れた画像
//
//	1 2 3
//	4 5 6
func labeled() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	v := uint8(1)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: v, A: 255})
			v++
		}
	}
	return img
}

func reds(img *image.NRGBA) [][]uint8 {
	b := img.Bounds()
	rows := make([][]uint8, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			rows[y] = append(rows[y], img.NRGBAAt(x, y).R)
		}
	}
	return rows
}

func TestOrient(t *testing.T) {
	tests := []struct {
		orientation int
		want        [][]uint8
	}{
		{1, [][]uint8{{1, 2, 3}, {4, 5, 6}}},
		{2, [][]uint8{{3, 2, 1}, {6, 5, 4}}},
		{3, [][]uint8{{6, 5, 4}, {3, 2, 1}}},
		{4, [][]uint8{{4, 5, 6}, {1, 2, 3}}},
		{5, [][]uint8{{1, 4}, {2, 5}, {3, 6}}},
		{6, [][]uint8{{4, 1}, {5, 2}, {6, 3}}},
		{7, [][]uint8{{6, 3}, {5, 2}, {4, 1}}},
		{8, [][]uint8{{3, 6}, {2, 5}, {1, 4}}},
		{9, [][]uint8{{1, 2, 3}, {4, 5, 6}}},
	}

	for _, tt := range tests {
		got := orient(labeled(), tt.orientation)
		assert.Equal(t, tt.want, reds(got), "orientation %d", tt.orientation)
	}
}

func TestFit(t *testing.T) {
	got := fit(gradient(400, 200), 100)
	assert.Equal(t, image.Rect(0, 0, 100, 50), got.Bounds())

	got = fit(gradient(30, 90), 45)
	assert.Equal(t, image.Rect(0, 0, 15, 45), got.Bounds())

	// 拡大はしない
	got = fit(gradient(40, 20), 1200)
	assert.Equal(t, image.Rect(0, 0, 40, 20), got.Bounds())
}

func TestFit_FlattensAlphaOnWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	got := fit(img, 10)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, got.NRGBAAt(1, 1))
}

func TestToNRGBA_OffsetBounds(t *testing.T) {
	src := gradient(10, 10).SubImage(image.Rect(2, 3, 6, 8))
	got := toNRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 4, 5), got.Bounds())
	assert.Equal(t, src.At(2, 3), got.At(0, 0))
}

func TestPack(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 5, G: 6, B: 7, A: 0})

	// RGB では透明部分が白になる
	assert.Equal(t, []byte{1, 2, 3, 255, 255, 255}, pack(img, 3))

	rgba := pack(img, 4)
	assert.Equal(t, []byte{1, 2, 3, 255, 5, 6, 7, 0}, rgba)
	rgba[0] = 99
	assert.Equal(t, uint8(1), img.Pix[0], "pack must not alias the source")
}

func TestBufferSize(t *testing.T) {
	n, ok := bufferSize(4, 3, 3, 1)
	require.True(t, ok)
	assert.Equal(t, 36, n)

	_, ok = bufferSize(0, 3, 3, 1)
	assert.False(t, ok)

	_, ok = bufferSize(math.MaxInt32, math.MaxInt32, 4, 2)
	assert.False(t, ok)
}

func TestPack_HalfTransparentOverWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 255, B: 0, A: 128})

	assert.Equal(t, []byte{127, 255, 127}, pack(img, 3))
}
