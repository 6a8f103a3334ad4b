package preview

import "fmt"

// Extractor は画像ファイルからサムネイルとデコード済みラスタを取り出すインターフェース
type Extractor interface {
	// ExtractThumbnail は縮小した JPEG プレビューを返す
	ExtractThumbnail(path string) ([]byte, error)

	// ExtractFullImage は画像全体を 8bit ラスタとしてデコードする
	ExtractFullImage(path string) (*DecodedImage, error)

	// Probe はフルデコードせずにファイルの情報を返す
	Probe(path string) (*Info, error)
}

// DecodedImage は行優先・チャネル交互の非圧縮ピクセルデータ
//
// len(Pix) == Width * Height * Channels * BytesPerChannel が常に成り立つ。
type DecodedImage struct {
	Pix             []byte
	Width           int
	Height          int
	Channels        int
	BytesPerChannel int
}

// Info は Probe の結果
type Info struct {
	Format      Format        `json:"format"`
	MimeType    string        `json:"mimeType"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Orientation int           `json:"orientation"`
	FileSize    int64         `json:"fileSize"`
	Previews    []PreviewInfo `json:"previews"`
}

// PreviewInfo は埋め込みプレビューの概要
type PreviewInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Size   int `json:"size"`
}

// Options は抽出処理のオプション
type Options struct {
	MaxDimension     int   // サムネイルの長辺の上限 (px)
	Quality          int   // JPEG品質 (1-100)
	Channels         int   // 3 = RGB, 4 = RGBA
	PreferEmbedded   bool  // 埋め込みプレビューを優先する
	ApplyOrientation bool  // EXIF Orientation を反映する
	MaxPixelBytes    int64 // デコード後バッファの上限
}

// DefaultOptions はデフォルトのオプション値を返す
func DefaultOptions() *Options {
	return &Options{
		MaxDimension:     1200,
		Quality:          85,
		Channels:         3,
		PreferEmbedded:   true,
		ApplyOrientation: true,
		MaxPixelBytes:    512 << 20,
	}
}

// Validate はオプション値の範囲を検証する
func (o *Options) Validate() error {
	if o.MaxDimension < 1 {
		return fmt.Errorf("%w: max dimension must be positive", ErrInvalidOptions)
	}
	if o.Quality < 1 || o.Quality > 100 {
		return fmt.Errorf("%w: quality must be 1-100", ErrInvalidOptions)
	}
	if o.Channels != 3 && o.Channels != 4 {
		return fmt.Errorf("%w: channels must be 3 or 4", ErrInvalidOptions)
	}
	if o.MaxPixelBytes <= 0 {
		return fmt.Errorf("%w: max pixel bytes must be positive", ErrInvalidOptions)
	}
	return nil
}
