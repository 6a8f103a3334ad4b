package preview

import (
	"errors"
	"fmt"
)

var (
	// ErrDecodeFailure はファイルを開けない、または画像コンテナとして認識できない場合に一致する
	ErrDecodeFailure = errors.New("decode failure")

	// ErrPathNotFound はパスが存在しない場合に返される
	ErrPathNotFound = errors.New("path not found")

	// ErrPathUnreadable はパスは存在するが読み込めない場合に返される
	ErrPathUnreadable = errors.New("path unreadable")

	// ErrUnsupportedFormat はコンテナが未対応、またはプレビューを導出できない場合に返される
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptData はコンテナは解析できるがピクセルデータが壊れている場合に返される
	ErrCorruptData = errors.New("corrupt data")

	// ErrOutOfMemory は出力バッファのサイズが上限を超える場合に返される
	ErrOutOfMemory = errors.New("out of memory")

	// ErrInvalidOptions はオプション値が範囲外の場合に返される
	ErrInvalidOptions = errors.New("invalid options")
)

// Kind はエラーの分類
type Kind int

const (
	KindUnknown Kind = iota
	KindPathNotFound
	KindPathUnreadable
	KindUnsupportedFormat
	KindCorruptData
	KindOutOfMemory
)

func (k Kind) String() string {
	switch k {
	case KindPathNotFound:
		return "path not found"
	case KindPathUnreadable:
		return "path unreadable"
	case KindUnsupportedFormat:
		return "unsupported format"
	case KindCorruptData:
		return "corrupt data"
	case KindOutOfMemory:
		return "out of memory"
	default:
		return "unknown"
	}
}

// Error は抽出処理の失敗を表す
type Error struct {
	Op     string // "thumbnail", "full", "probe"
	Path   string
	Kind   Kind
	Format Format // 検出できたコンテナ形式 (未検出なら FormatUnknown)
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("preview: %s %s: %s", e.Op, e.Path, e.Kind)
	case errors.Is(e.Err, e.Kind.sentinel()):
		// デコーダ側で既に分類済み
		return fmt.Sprintf("preview: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("preview: %s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (k Kind) sentinel() error {
	switch k {
	case KindPathNotFound:
		return ErrPathNotFound
	case KindPathUnreadable:
		return ErrPathUnreadable
	case KindUnsupportedFormat:
		return ErrUnsupportedFormat
	case KindCorruptData:
		return ErrCorruptData
	case KindOutOfMemory:
		return ErrOutOfMemory
	}
	return nil
}

func (e *Error) Unwrap() error { return e.Err }

// Is はエラー分類をセンチネルエラーと対応付ける
func (e *Error) Is(target error) bool {
	switch target {
	case ErrDecodeFailure:
		switch e.Kind {
		case KindPathNotFound, KindPathUnreadable:
			return true
		case KindUnsupportedFormat:
			return e.Format == FormatUnknown
		}
		return false
	case ErrPathNotFound:
		return e.Kind == KindPathNotFound
	case ErrPathUnreadable:
		return e.Kind == KindPathUnreadable
	case ErrUnsupportedFormat:
		return e.Kind == KindUnsupportedFormat
	case ErrCorruptData:
		return e.Kind == KindCorruptData
	case ErrOutOfMemory:
		return e.Kind == KindOutOfMemory
	}
	return false
}

// KindOf は err に含まれる *Error の分類を返す
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
