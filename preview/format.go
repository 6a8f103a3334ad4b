package preview

// Format は検出された画像コンテナ形式
type Format string

const (
	FormatUnknown Format = ""
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
	FormatWebP    Format = "webp"

	// RAW formats
	FormatDNG Format = "dng"
	FormatCR2 Format = "cr2"
	FormatNEF Format = "nef"
	FormatARW Format = "arw"
	FormatPEF Format = "pef"
	FormatORF Format = "orf"
	FormatRW2 Format = "rw2"
	FormatRAF Format = "raf"
	FormatRAW Format = "raw" // TIFF-based RAW from an unrecognized maker
)

var formatMimeTypes = map[Format]string{
	FormatJPEG: "image/jpeg",
	FormatPNG:  "image/png",
	FormatGIF:  "image/gif",
	FormatBMP:  "image/bmp",
	FormatTIFF: "image/tiff",
	FormatWebP: "image/webp",
	FormatDNG:  "image/x-adobe-dng",
	FormatCR2:  "image/x-canon-cr2",
	FormatNEF:  "image/x-nikon-nef",
	FormatARW:  "image/x-sony-arw",
	FormatPEF:  "image/x-pentax-pef",
	FormatORF:  "image/x-olympus-orf",
	FormatRW2:  "image/x-panasonic-rw2",
	FormatRAF:  "image/x-fuji-raf",
	FormatRAW:  "image/x-raw",
}

// MimeType はフォーマットに対応する MIME タイプを返す
func (f Format) MimeType() string {
	if m, ok := formatMimeTypes[f]; ok {
		return m
	}
	return "application/octet-stream"
}

// IsRaw はカメラ RAW コンテナかどうかを返す
func (f Format) IsRaw() bool {
	switch f {
	case FormatDNG, FormatCR2, FormatNEF, FormatARW, FormatPEF, FormatORF, FormatRW2, FormatRAF, FormatRAW:
		return true
	}
	return false
}

// isTIFFFamily は IFD 構造を持つコンテナかどうかを返す
func (f Format) isTIFFFamily() bool {
	return f == FormatTIFF || (f.IsRaw() && f != FormatRAF)
}

// SupportedFormats は検出・デコードできるフォーマットの一覧を返す
func SupportedFormats() []Format {
	return []Format{
		FormatJPEG, FormatPNG, FormatGIF, FormatBMP, FormatTIFF, FormatWebP,
		FormatDNG, FormatCR2, FormatNEF, FormatARW, FormatPEF, FormatORF, FormatRW2, FormatRAF, FormatRAW,
	}
}
