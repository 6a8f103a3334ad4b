package preview

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// gradient は位置に応じて色が変わる不透明なテスト画像を作成
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(1, w-1)),
				G: uint8(y * 255 / max(1, h-1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// withExif は SOI の直後に APP1 Exif セグメントを挿入する
func withExif(jpegData, tiffData []byte) []byte {
	seg := append([]byte("Exif\x00\x00"), tiffData...)
	app1 := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(app1[2:], uint16(len(seg)+2))
	app1 = append(app1, seg...)

	out := make([]byte, 0, len(jpegData)+len(app1))
	out = append(out, jpegData[:2]...)
	out = append(out, app1...)
	out = append(out, jpegData[2:]...)
	return out
}

type testEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

func shortEntry(tag uint16, vals ...uint16) testEntry {
	var b []byte
	for _, v := range vals {
		b = binary.LittleEndian.AppendUint16(b, v)
	}
	return testEntry{tag: tag, typ: 3, count: uint32(len(vals)), value: b}
}

func longEntry(tag uint16, vals ...uint32) testEntry {
	var b []byte
	for _, v := range vals {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return testEntry{tag: tag, typ: 4, count: uint32(len(vals)), value: b}
}

func asciiEntry(tag uint16, s string) testEntry {
	b := append([]byte(s), 0)
	return testEntry{tag: tag, typ: 2, count: uint32(len(b)), value: b}
}

func byteEntry(tag uint16, vals ...byte) testEntry {
	return testEntry{tag: tag, typ: 1, count: uint32(len(vals)), value: vals}
}

// tiffBuilder はリトルエンディアンの TIFF を組み立てる。blob と IFD は追記順に配置される。
type tiffBuilder struct {
	buf []byte
}

func newTIFFBuilder(magic []byte) *tiffBuilder {
	if magic == nil {
		magic = []byte{'I', 'I', 42, 0}
	}
	return &tiffBuilder{buf: append(append([]byte{}, magic...), 0, 0, 0, 0)}
}

func (b *tiffBuilder) align() {
	if len(b.buf)%2 == 1 {
		b.buf = append(b.buf, 0)
	}
}

func (b *tiffBuilder) blob(p []byte) uint32 {
	b.align()
	off := uint32(len(b.buf))
	b.buf = append(b.buf, p...)
	return off
}

func (b *tiffBuilder) dir(next uint32, entries ...testEntry) uint32 {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	raws := make([][4]byte, len(entries))
	for i, e := range entries {
		if len(e.value) > 4 {
			binary.LittleEndian.PutUint32(raws[i][:], b.blob(e.value))
		} else {
			copy(raws[i][:], e.value)
		}
	}

	b.align()
	off := uint32(len(b.buf))
	b.buf = binary.LittleEndian.AppendUint16(b.buf, uint16(len(entries)))
	for i, e := range entries {
		b.buf = binary.LittleEndian.AppendUint16(b.buf, e.tag)
		b.buf = binary.LittleEndian.AppendUint16(b.buf, e.typ)
		b.buf = binary.LittleEndian.AppendUint32(b.buf, e.count)
		b.buf = append(b.buf, raws[i][:]...)
	}
	b.buf = binary.LittleEndian.AppendUint32(b.buf, next)
	return off
}

func (b *tiffBuilder) bytes(ifd0 uint32) []byte {
	binary.LittleEndian.PutUint32(b.buf[4:8], ifd0)
	return b.buf
}

// jpegIFD は JPEGInterchangeFormat で blob を指すエントリを返す
func jpegIFD(b *tiffBuilder, jpegData []byte) []testEntry {
	off := b.blob(jpegData)
	return []testEntry{
		longEntry(tagJPEGOffset, off),
		longEntry(tagJPEGLength, uint32(len(jpegData))),
	}
}

// nefLike は IFD0 に小さなプレビュー、SubIFD に大きなプレビューと CFA を持つ RAW を作成
func nefLike(t *testing.T, small, large image.Image, orientation uint16) []byte {
	t.Helper()
	b := newTIFFBuilder(nil)

	largeIFD := b.dir(0, jpegIFD(b, encodeJPEG(t, large))...)
	cfaData := b.blob(make([]byte, 64))
	cfaIFD := b.dir(0,
		longEntry(tagImageWidth, 8),
		longEntry(tagImageLength, 8),
		shortEntry(tagCompression, 7),
		shortEntry(tagPhotometric, photometricCFA),
		longEntry(tagStripOffsets, cfaData),
		longEntry(tagStripByteCounts, 64),
	)

	entries := append(jpegIFD(b, encodeJPEG(t, small)),
		asciiEntry(tagMake, "NIKON CORPORATION"),
		shortEntry(tagOrientation, orientation),
		longEntry(tagSubIFDs, largeIFD, cfaIFD),
	)
	return b.bytes(b.dir(0, entries...))
}

// offsetGIF は screen 四方の論理スクリーン上の frame 位置に赤い 1 フレームを置いた GIF を作る
func offsetGIF(t *testing.T, screen int, frame image.Rectangle) []byte {
	t.Helper()
	pm := image.NewPaletted(frame, color.Palette{color.Black, color.RGBA{R: 255, A: 255}})
	for i := range pm.Pix {
		pm.Pix[i] = 1
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, &gif.GIF{
		Image:  []*image.Paletted{pm},
		Delay:  []int{0},
		Config: image.Config{Width: screen, Height: screen},
	}))
	return buf.Bytes()
}
