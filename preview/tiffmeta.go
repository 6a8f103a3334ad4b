package preview

import (
	"encoding/binary"
	"errors"
	"strings"
)

// TIFF tags
const (
	tagImageWidth      = 0x0100
	tagImageLength     = 0x0101
	tagCompression     = 0x0103
	tagPhotometric     = 0x0106
	tagMake            = 0x010F
	tagStripOffsets    = 0x0111
	tagOrientation     = 0x0112
	tagStripByteCounts = 0x0117
	tagSubIFDs         = 0x014A
	tagJPEGOffset      = 0x0201
	tagJPEGLength      = 0x0202
	tagDNGVersion      = 0xC612

	// Panasonic RW2 stores the full-size rendered JPEG under this tag in IFD0.
	tagRW2JPEG = 0x002E
)

// PhotometricInterpretation values used by sensor data.
const (
	photometricCFA       = 32803
	photometricLinearRaw = 34892
)

// maxTIFFDirs limits the number of IFDs visited per file.
const maxTIFFDirs = 64

var (
	errTIFFHeader    = errors.New("tiff: bad header")
	errTIFFTruncated = errors.New("tiff: truncated directory")
	errTIFFLoop      = errors.New("tiff: directory loop")
)

type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	raw   [4]byte
}

type tiffDir struct {
	entries map[uint16]tiffEntry
	chain   int // IFD0 からの順番, SubIFD は -1
}

type tiffFile struct {
	data  []byte
	order binary.ByteOrder
	dirs  []*tiffDir
}

// parseTIFF は TIFF ヘッダから IFD チェーンと SubIFD を読み込む
func parseTIFF(data []byte) (*tiffFile, error) {
	if len(data) < 8 {
		return nil, errTIFFHeader
	}

	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, errTIFFHeader
	}

	// 42 = TIFF, "RO"/"RS" = Olympus ORF, 0x55 = Panasonic RW2
	switch order.Uint16(data[2:4]) {
	case 42, 0x4F52, 0x5352, 0x0055:
	default:
		return nil, errTIFFHeader
	}

	t := &tiffFile{data: data, order: order}
	seen := make(map[uint32]bool)

	off := order.Uint32(data[4:8])
	for i := 0; off != 0; i++ {
		d, next, err := t.readDir(off, seen)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			break
		}
		d.chain = i
		t.dirs = append(t.dirs, d)
		t.walkSubDirs(d, seen)
		off = next
	}

	return t, nil
}

func (t *tiffFile) readDir(off uint32, seen map[uint32]bool) (*tiffDir, uint32, error) {
	if seen[off] || len(t.dirs) >= maxTIFFDirs {
		return nil, 0, errTIFFLoop
	}
	seen[off] = true

	start := uint64(off)
	if start+2 > uint64(len(t.data)) {
		return nil, 0, errTIFFTruncated
	}
	n := uint64(t.order.Uint16(t.data[start:]))
	end := start + 2 + n*12
	if end > uint64(len(t.data)) {
		return nil, 0, errTIFFTruncated
	}

	d := &tiffDir{entries: make(map[uint16]tiffEntry, n), chain: -1}
	for i := uint64(0); i < n; i++ {
		p := t.data[start+2+i*12:]
		e := tiffEntry{
			tag:   t.order.Uint16(p[0:2]),
			typ:   t.order.Uint16(p[2:4]),
			count: t.order.Uint32(p[4:8]),
		}
		copy(e.raw[:], p[8:12])
		d.entries[e.tag] = e
	}

	var next uint32
	if end+4 <= uint64(len(t.data)) {
		next = t.order.Uint32(t.data[end:])
	}
	return d, next, nil
}

func (t *tiffFile) walkSubDirs(d *tiffDir, seen map[uint32]bool) {
	e, ok := d.entries[tagSubIFDs]
	if !ok {
		return
	}
	for _, off := range t.uints(e) {
		sub, _, err := t.readDir(off, seen)
		if err != nil {
			continue
		}
		t.dirs = append(t.dirs, sub)
		t.walkSubDirs(sub, seen)
	}
}

func tiffTypeSize(typ uint16) uint64 {
	switch typ {
	case 1, 2, 6, 7:
		return 1
	case 3, 8:
		return 2
	case 4, 9, 11, 13:
		return 4
	case 5, 10, 12:
		return 8
	}
	return 0
}

// valueBytes は値が 4 バイトに収まればインライン領域を、そうでなければオフセット先を返す
func (t *tiffFile) valueBytes(e tiffEntry) ([]byte, bool) {
	n := tiffTypeSize(e.typ) * uint64(e.count)
	if n == 0 {
		return nil, false
	}
	if n <= 4 {
		return e.raw[:n], true
	}
	off := uint64(t.order.Uint32(e.raw[:]))
	if off+n > uint64(len(t.data)) {
		return nil, false
	}
	return t.data[off : off+n], true
}

func (t *tiffFile) uints(e tiffEntry) []uint32 {
	b, ok := t.valueBytes(e)
	if !ok {
		return nil
	}
	out := make([]uint32, 0, e.count)
	switch e.typ {
	case 1, 7:
		for _, v := range b {
			out = append(out, uint32(v))
		}
	case 3:
		for i := 0; i+2 <= len(b); i += 2 {
			out = append(out, uint32(t.order.Uint16(b[i:])))
		}
	case 4, 13:
		for i := 0; i+4 <= len(b); i += 4 {
			out = append(out, t.order.Uint32(b[i:]))
		}
	}
	return out
}

func (t *tiffFile) dirUint(d *tiffDir, tag uint16) (uint32, bool) {
	e, ok := d.entries[tag]
	if !ok {
		return 0, false
	}
	v := t.uints(e)
	if len(v) == 0 {
		return 0, false
	}
	return v[0], true
}

func (t *tiffFile) dirUints(d *tiffDir, tag uint16) []uint32 {
	e, ok := d.entries[tag]
	if !ok {
		return nil
	}
	return t.uints(e)
}

func (t *tiffFile) dirString(d *tiffDir, tag uint16) string {
	e, ok := d.entries[tag]
	if !ok || e.typ != 2 {
		return ""
	}
	b, ok := t.valueBytes(e)
	if !ok {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(string(b), "\x00"))
}

// ifd0 はチェーン先頭の IFD を返す
func (t *tiffFile) ifd0() *tiffDir {
	for _, d := range t.dirs {
		if d.chain == 0 {
			return d
		}
	}
	return nil
}

// orientation は IFD0 の Orientation タグを返す (未設定なら 1)
func (t *tiffFile) orientation() int {
	d := t.ifd0()
	if d == nil {
		return 1
	}
	v, ok := t.dirUint(d, tagOrientation)
	if !ok || v < 1 || v > 8 {
		return 1
	}
	return int(v)
}

// hasSensorData は CFA / LinearRaw の IFD を持つかどうかを返す
func (t *tiffFile) hasSensorData() bool {
	for _, d := range t.dirs {
		if p, ok := t.dirUint(d, tagPhotometric); ok && (p == photometricCFA || p == photometricLinearRaw) {
			return true
		}
	}
	return false
}
