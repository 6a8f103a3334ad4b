package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"io/fs"
	"os"
)

const (
	opThumbnail = "thumbnail"
	opFull      = "full"
	opProbe     = "probe"
)

// FileExtractor はファイルパスから画像を読み込む Extractor 実装
//
// 状態を持たないため、異なるパスに対して並行に呼び出してよい。
type FileExtractor struct {
	opts Options
	dec  Decoder
}

var _ Extractor = (*FileExtractor)(nil)

// NewFileExtractor は新しい FileExtractor を作成する。opts が nil ならデフォルト値、
// dec が nil なら StdDecoder を使う。
func NewFileExtractor(opts *Options, dec Decoder) (*FileExtractor, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if dec == nil {
		dec = NewStdDecoder()
	}
	return &FileExtractor{opts: *opts, dec: dec}, nil
}

// ExtractThumbnail は長辺が MaxDimension 以下の JPEG プレビューを返す
func (e *FileExtractor) ExtractThumbnail(path string) ([]byte, error) {
	data, err := readImageFile(opThumbnail, path)
	if err != nil {
		return nil, err
	}

	f := e.dec.Detect(data)
	if f == FormatUnknown {
		return nil, &Error{Op: opThumbnail, Path: path, Kind: KindUnsupportedFormat, Err: errors.New("unrecognized image container")}
	}

	cfg, cfgErr := e.dec.DecodeConfig(data, f)

	var src image.Image
	if e.opts.PreferEmbedded {
		src = e.embeddedSource(data, f, cfg, cfgErr == nil)
	}
	if src == nil {
		if cfgErr != nil {
			return nil, decodeError(opThumbnail, path, f, cfgErr)
		}
		if err := e.checkBudget(opThumbnail, path, f, cfg.Width, cfg.Height); err != nil {
			return nil, err
		}
		src, err = e.dec.Decode(data, f)
		if err != nil {
			return nil, decodeError(opThumbnail, path, f, err)
		}
	}

	thumb := fit(src, e.opts.MaxDimension)
	if e.opts.ApplyOrientation {
		thumb = orient(thumb, e.dec.Orientation(data, f))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: e.opts.Quality}); err != nil {
		return nil, &Error{Op: opThumbnail, Path: path, Kind: KindCorruptData, Format: f, Err: err}
	}
	return buf.Bytes(), nil
}

// embeddedSource は長辺が MaxDimension 以上となる最小の埋め込みプレビューをデコードする。
// 使えるプレビューが無ければ nil を返し、呼び出し側は主画像のデコードに切り替える。
func (e *FileExtractor) embeddedSource(data []byte, f Format, cfg image.Config, haveCfg bool) image.Image {
	previews, err := e.dec.EmbeddedPreviews(data, f)
	if err != nil {
		return nil
	}

	for _, p := range previews {
		if p.longEdge() < e.opts.MaxDimension {
			continue
		}
		if haveCfg && (p.Width > cfg.Width || p.Height > cfg.Height) {
			continue
		}
		if !e.fitsBudget(p.Width, p.Height) {
			continue
		}
		img, err := e.dec.Decode(p.Data, FormatJPEG)
		if err != nil {
			continue
		}
		return img
	}
	return nil
}

// ExtractFullImage は画像全体を Options.Channels チャネルの 8bit ラスタにデコードする
func (e *FileExtractor) ExtractFullImage(path string) (*DecodedImage, error) {
	data, err := readImageFile(opFull, path)
	if err != nil {
		return nil, err
	}

	f := e.dec.Detect(data)
	if f == FormatUnknown {
		return nil, &Error{Op: opFull, Path: path, Kind: KindUnsupportedFormat, Err: errors.New("unrecognized image container")}
	}

	cfg, err := e.dec.DecodeConfig(data, f)
	if err != nil {
		return nil, decodeError(opFull, path, f, err)
	}
	if err := e.checkBudget(opFull, path, f, cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	img, err := e.dec.Decode(data, f)
	if err != nil {
		return nil, decodeError(opFull, path, f, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, &Error{Op: opFull, Path: path, Kind: KindCorruptData, Format: f, Err: errors.New("decoded image is empty")}
	}
	if err := e.checkBudget(opFull, path, f, b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	raster := toNRGBA(img)
	if e.opts.ApplyOrientation {
		raster = orient(raster, e.dec.Orientation(data, f))
	}

	w, h := raster.Rect.Dx(), raster.Rect.Dy()
	return &DecodedImage{
		Pix:             pack(raster, e.opts.Channels),
		Width:           w,
		Height:          h,
		Channels:        e.opts.Channels,
		BytesPerChannel: 1,
	}, nil
}

// Probe はヘッダと埋め込みプレビューだけを読み、画像の情報を返す
func (e *FileExtractor) Probe(path string) (*Info, error) {
	data, err := readImageFile(opProbe, path)
	if err != nil {
		return nil, err
	}

	f := e.dec.Detect(data)
	if f == FormatUnknown {
		return nil, &Error{Op: opProbe, Path: path, Kind: KindUnsupportedFormat, Err: errors.New("unrecognized image container")}
	}

	cfg, err := e.dec.DecodeConfig(data, f)
	if err != nil {
		return nil, decodeError(opProbe, path, f, err)
	}

	info := &Info{
		Format:      f,
		MimeType:    f.MimeType(),
		Width:       cfg.Width,
		Height:      cfg.Height,
		Orientation: e.dec.Orientation(data, f),
		FileSize:    int64(len(data)),
		Previews:    []PreviewInfo{},
	}
	if info.Orientation >= 5 && e.opts.ApplyOrientation {
		info.Width, info.Height = info.Height, info.Width
	}

	previews, _ := e.dec.EmbeddedPreviews(data, f)
	for _, p := range previews {
		info.Previews = append(info.Previews, PreviewInfo{Width: p.Width, Height: p.Height, Size: len(p.Data)})
	}
	return info, nil
}

func (e *FileExtractor) fitsBudget(w, h int) bool {
	n, ok := bufferSize(w, h, e.opts.Channels, 1)
	return ok && int64(n) <= e.opts.MaxPixelBytes
}

func (e *FileExtractor) checkBudget(op, path string, f Format, w, h int) error {
	if !e.fitsBudget(w, h) {
		return &Error{
			Op:     op,
			Path:   path,
			Kind:   KindOutOfMemory,
			Format: f,
			Err:    fmt.Errorf("%dx%d raster exceeds %d bytes", w, h, e.opts.MaxPixelBytes),
		}
	}
	return nil
}

// readImageFile はファイル全体を読み込む。ハンドルは戻る前に必ず閉じる。
func readImageFile(op, path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, pathError(op, path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, pathError(op, path, err)
	}
	if info.IsDir() {
		return nil, &Error{Op: op, Path: path, Kind: KindPathUnreadable, Err: errors.New("is a directory")}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, pathError(op, path, err)
	}
	if len(data) == 0 {
		return nil, &Error{Op: op, Path: path, Kind: KindUnsupportedFormat, Err: errors.New("empty file")}
	}
	return data, nil
}

func pathError(op, path string, err error) error {
	kind := KindPathUnreadable
	if errors.Is(err, fs.ErrNotExist) {
		kind = KindPathNotFound
	}
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

func decodeError(op, path string, f Format, err error) error {
	kind := KindCorruptData
	if errors.Is(err, ErrUnsupportedFormat) {
		kind = KindUnsupportedFormat
	}
	return &Error{Op: op, Path: path, Kind: kind, Format: f, Err: err}
}
