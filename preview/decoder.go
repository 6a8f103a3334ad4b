package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Decoder は画像デコードを担う外部コラボレータのインターフェース
//
// Decode / DecodeConfig が返すエラーは ErrUnsupportedFormat または ErrCorruptData を
// ラップしていることが期待される。実装は再入可能でなければならない。
type Decoder interface {
	// Detect はファイル内容からコンテナ形式を判定する
	Detect(data []byte) Format

	// DecodeConfig はピクセルをデコードせずに寸法を返す
	DecodeConfig(data []byte, f Format) (image.Config, error)

	// Decode は主画像をラスタへデコードする
	Decode(data []byte, f Format) (image.Image, error)

	// EmbeddedPreviews は埋め込み JPEG プレビューを面積の昇順で返す
	EmbeddedPreviews(data []byte, f Format) ([]Embedded, error)

	// Orientation は EXIF Orientation (1-8) を返す
	Orientation(data []byte, f Format) int
}

// StdDecoder は Go 標準と golang.org/x/image のコーデックを使う Decoder 実装
//
// RAW コンテナはデモザイクせず、カメラが埋め込んだ最大のプレビューを主画像として扱う。
type StdDecoder struct{}

var _ Decoder = (*StdDecoder)(nil)

// NewStdDecoder は新しい StdDecoder を作成
func NewStdDecoder() *StdDecoder {
	return &StdDecoder{}
}

func (d *StdDecoder) Detect(data []byte) Format {
	return detectFormat(data)
}

func (d *StdDecoder) DecodeConfig(data []byte, f Format) (image.Config, error) {
	r := bytes.NewReader(data)

	var (
		cfg image.Config
		err error
	)
	switch f {
	case FormatJPEG:
		cfg, err = jpeg.DecodeConfig(r)
	case FormatPNG:
		cfg, err = png.DecodeConfig(r)
	case FormatGIF:
		cfg, err = gif.DecodeConfig(r)
	case FormatBMP:
		cfg, err = bmp.DecodeConfig(r)
	case FormatTIFF:
		cfg, err = tiff.DecodeConfig(r)
	case FormatWebP:
		if webpAnimated(data) {
			return image.Config{}, fmt.Errorf("%w: animated webp", ErrUnsupportedFormat)
		}
		cfg, err = webp.DecodeConfig(r)
	default:
		if !f.IsRaw() {
			return image.Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
		}
		return d.rawConfig(data, f)
	}
	if err != nil {
		return image.Config{}, classifyCodecError(err)
	}
	return cfg, nil
}

func (d *StdDecoder) Decode(data []byte, f Format) (image.Image, error) {
	r := bytes.NewReader(data)

	var (
		img image.Image
		err error
	)
	switch f {
	case FormatJPEG:
		img, err = jpeg.Decode(r)
	case FormatPNG:
		img, err = png.Decode(r)
	case FormatGIF:
		img, err = decodeGIF(data)
	case FormatBMP:
		img, err = bmp.Decode(r)
	case FormatTIFF:
		img, err = tiff.Decode(r)
	case FormatWebP:
		if webpAnimated(data) {
			return nil, fmt.Errorf("%w: animated webp", ErrUnsupportedFormat)
		}
		img, err = webp.Decode(r)
	default:
		if !f.IsRaw() {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
		}
		return d.rawDecode(data, f)
	}
	if err != nil {
		return nil, classifyCodecError(err)
	}
	return img, nil
}

func (d *StdDecoder) EmbeddedPreviews(data []byte, f Format) ([]Embedded, error) {
	return embeddedPreviews(data, f)
}

func (d *StdDecoder) Orientation(data []byte, f Format) int {
	return orientationOf(data, f)
}

func (d *StdDecoder) rawConfig(data []byte, f Format) (image.Config, error) {
	previews, err := embeddedPreviews(data, f)
	if err != nil {
		return image.Config{}, err
	}
	if n := len(previews); n > 0 {
		p := previews[n-1]
		return image.Config{ColorModel: color.YCbCrModel, Width: p.Width, Height: p.Height}, nil
	}

	// プレビューを持たない TIFF 系 RAW は非圧縮 RGB の可能性だけ試す
	if f.isTIFFFamily() {
		if cfg, err := tiff.DecodeConfig(bytes.NewReader(data)); err == nil {
			return cfg, nil
		}
	}
	return image.Config{}, fmt.Errorf("%w: %s has no renderable raster", ErrUnsupportedFormat, f)
}

func (d *StdDecoder) rawDecode(data []byte, f Format) (image.Image, error) {
	previews, err := embeddedPreviews(data, f)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for i := len(previews) - 1; i >= 0; i-- {
		img, err := jpeg.Decode(bytes.NewReader(previews[i].Data))
		if err == nil {
			return img, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: embedded preview: %w", ErrCorruptData, lastErr)
	}

	if f.isTIFFFamily() {
		if img, err := tiff.Decode(bytes.NewReader(data)); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no renderable raster", ErrUnsupportedFormat, f)
}

// classifyCodecError はコーデックのエラーを UnsupportedFormat と CorruptData に振り分ける
func classifyCodecError(err error) error {
	var (
		jpegUnsupported jpeg.UnsupportedError
		pngUnsupported  png.UnsupportedError
		tiffUnsupported tiff.UnsupportedError
	)
	switch {
	case errors.As(err, &jpegUnsupported),
		errors.As(err, &pngUnsupported),
		errors.As(err, &tiffUnsupported),
		errors.Is(err, bmp.ErrUnsupported),
		// vp8 は未実装の機能を "not implemented" で報告する
		strings.Contains(err.Error(), "not implemented"):
		return fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return fmt.Errorf("%w: %w", ErrCorruptData, err)
}

// decodeGIF は先頭フレームを論理スクリーンと同じ大きさのキャンバスに描画する。
// フレームがスクリーンより小さい、あるいはオフセットを持つ場合も DecodeConfig と寸法が一致する。
func decodeGIF(data []byte) (image.Image, error) {
	cfg, err := gif.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	frame, err := gif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	screen := image.Rect(0, 0, cfg.Width, cfg.Height)
	if frame.Bounds() == screen {
		return frame, nil
	}
	dst := image.NewNRGBA(screen)
	r := frame.Bounds().Intersect(screen)
	draw.Draw(dst, r, frame, r.Min, draw.Src)
	return dst, nil
}

// webpAnimated は VP8X チャンクのアニメーションフラグを調べる
func webpAnimated(data []byte) bool {
	const animationBit = 1 << 1
	return len(data) > 20 &&
		string(data[12:16]) == "VP8X" &&
		data[20]&animationBit != 0
}
