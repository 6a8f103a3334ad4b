package preview

import (
	"bytes"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const rafMagic = "FUJIFILMCCD-RAW "

var makerFormats = []struct {
	prefix string
	format Format
}{
	{"CANON", FormatCR2},
	{"NIKON", FormatNEF},
	{"SONY", FormatARW},
	{"PENTAX", FormatPEF},
	{"RICOH", FormatPEF},
	{"OLYMPUS", FormatORF},
	{"OM DIGITAL", FormatORF},
	{"PANASONIC", FormatRW2},
}

// detectFormat はマジックバイトからコンテナ形式を判定する
func detectFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte(rafMagic)):
		return FormatRAF
	case bytes.HasPrefix(data, []byte("IIRO")), bytes.HasPrefix(data, []byte("IIRS")), bytes.HasPrefix(data, []byte("MMOR")):
		return FormatORF
	case bytes.HasPrefix(data, []byte("IIU\x00")):
		return FormatRW2
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return classifyTIFF(data)
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is("image/jpeg"):
		return FormatJPEG
	case mt.Is("image/png"):
		return FormatPNG
	case mt.Is("image/gif"):
		return FormatGIF
	case mt.Is("image/bmp"):
		return FormatBMP
	case mt.Is("image/webp"):
		return FormatWebP
	case mt.Is("image/tiff"):
		return classifyTIFF(data)
	}
	return FormatUnknown
}

// classifyTIFF は TIFF 系コンテナを通常の TIFF と各社 RAW に振り分ける
func classifyTIFF(data []byte) Format {
	if len(data) >= 10 && data[8] == 'C' && data[9] == 'R' {
		return FormatCR2
	}

	t, err := parseTIFF(data)
	if err != nil {
		// 壊れたヘッダはデコード時に CorruptData として報告する
		return FormatTIFF
	}
	d := t.ifd0()
	if d == nil {
		return FormatTIFF
	}
	if _, ok := d.entries[tagDNGVersion]; ok {
		return FormatDNG
	}

	maker := strings.ToUpper(t.dirString(d, tagMake))
	for _, m := range makerFormats {
		if strings.HasPrefix(maker, m.prefix) {
			return m.format
		}
	}
	if t.hasSensorData() {
		return FormatRAW
	}
	return FormatTIFF
}
