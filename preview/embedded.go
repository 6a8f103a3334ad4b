package preview

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/jpeg"
	"sort"
)

// Embedded はファイル内に埋め込まれた JPEG プレビュー
type Embedded struct {
	Data   []byte
	Width  int
	Height int
}

func (e Embedded) longEdge() int {
	if e.Width > e.Height {
		return e.Width
	}
	return e.Height
}

// embeddedPreviews は埋め込みプレビューを面積の昇順で返す
func embeddedPreviews(data []byte, f Format) ([]Embedded, error) {
	switch {
	case f == FormatJPEG:
		exif := jpegExif(data)
		if exif == nil {
			return nil, nil
		}
		t, err := parseTIFF(exif)
		if err != nil {
			// EXIF が壊れていても本体のデコードには影響しない
			return nil, nil
		}
		return t.jpegPreviews(), nil
	case f == FormatRAF:
		seg, err := rafJPEG(data)
		if err != nil {
			return nil, err
		}
		var out []Embedded
		if p, ok := newEmbedded(seg); ok {
			out = append(out, p)
		}
		return out, nil
	case f.isTIFFFamily():
		t, err := parseTIFF(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
		}
		return t.jpegPreviews(), nil
	}
	return nil, nil
}

// jpegPreviews は全 IFD から JPEG ストリームを集める
func (t *tiffFile) jpegPreviews() []Embedded {
	var out []Embedded
	seen := make(map[uint32]bool)

	add := func(off, n uint32) {
		if seen[off] || n == 0 || uint64(off)+uint64(n) > uint64(len(t.data)) {
			return
		}
		seen[off] = true
		if p, ok := newEmbedded(t.data[off : off+n]); ok {
			out = append(out, p)
		}
	}

	for _, d := range t.dirs {
		if off, ok := t.dirUint(d, tagJPEGOffset); ok {
			if n, ok := t.dirUint(d, tagJPEGLength); ok {
				add(off, n)
			}
		}

		comp, _ := t.dirUint(d, tagCompression)
		photo, _ := t.dirUint(d, tagPhotometric)
		if (comp == 6 || comp == 7) && photo != photometricCFA && photo != photometricLinearRaw {
			offs := t.dirUints(d, tagStripOffsets)
			counts := t.dirUints(d, tagStripByteCounts)
			if len(offs) == 1 && len(counts) == 1 {
				add(offs[0], counts[0])
			}
		}

		if e, ok := d.entries[tagRW2JPEG]; ok && d.chain == 0 {
			add(t.order.Uint32(e.raw[:]), e.count)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Width*out[i].Height < out[j].Width*out[j].Height
	})
	return out
}

// newEmbedded は SOI で始まり Go の JPEG デコーダが扱えるストリームだけを受け付ける
func newEmbedded(seg []byte) (Embedded, bool) {
	if len(seg) < 4 || seg[0] != 0xFF || seg[1] != 0xD8 {
		return Embedded{}, false
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(seg))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return Embedded{}, false
	}
	return Embedded{Data: seg, Width: cfg.Width, Height: cfg.Height}, true
}

// jpegExif は APP1 Exif セグメントの TIFF 部分を返す
func jpegExif(data []byte) []byte {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil
	}
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return nil
		}
		marker := data[i+1]
		switch {
		case marker == 0xFF:
			i++
			continue
		case marker == 0x01, marker >= 0xD0 && marker <= 0xD8:
			i += 2
			continue
		case marker == 0xDA, marker == 0xD9:
			return nil
		}

		n := int(binary.BigEndian.Uint16(data[i+2:]))
		if n < 2 || i+2+n > len(data) {
			return nil
		}
		seg := data[i+4 : i+2+n]
		if marker == 0xE1 && bytes.HasPrefix(seg, []byte("Exif\x00\x00")) {
			return seg[6:]
		}
		i += 2 + n
	}
	return nil
}

// rafJPEG は RAF ヘッダが指す JPEG を返す
func rafJPEG(data []byte) ([]byte, error) {
	if len(data) < 92 {
		return nil, fmt.Errorf("%w: raf header truncated", ErrCorruptData)
	}
	off := uint64(binary.BigEndian.Uint32(data[84:88]))
	n := uint64(binary.BigEndian.Uint32(data[88:92]))
	if n == 0 || off+n > uint64(len(data)) {
		return nil, fmt.Errorf("%w: raf preview out of range", ErrCorruptData)
	}
	return data[off : off+n], nil
}

// orientationOf は EXIF の Orientation (1-8) を返す
func orientationOf(data []byte, f Format) int {
	switch {
	case f == FormatJPEG:
		return exifOrientation(data)
	case f == FormatRAF:
		seg, err := rafJPEG(data)
		if err != nil {
			return 1
		}
		return exifOrientation(seg)
	case f.isTIFFFamily():
		t, err := parseTIFF(data)
		if err != nil {
			return 1
		}
		return t.orientation()
	}
	return 1
}

func exifOrientation(jpegData []byte) int {
	exif := jpegExif(jpegData)
	if exif == nil {
		return 1
	}
	t, err := parseTIFF(exif)
	if err != nil {
		return 1
	}
	return t.orientation()
}
