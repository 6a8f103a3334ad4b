package preview

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		match []error
		miss  []error
	}{
		{
			name:  "not found",
			err:   &Error{Kind: KindPathNotFound},
			match: []error{ErrPathNotFound, ErrDecodeFailure},
			miss:  []error{ErrPathUnreadable, ErrCorruptData},
		},
		{
			name:  "unreadable",
			err:   &Error{Kind: KindPathUnreadable},
			match: []error{ErrPathUnreadable, ErrDecodeFailure},
			miss:  []error{ErrPathNotFound},
		},
		{
			name:  "unrecognized container",
			err:   &Error{Kind: KindUnsupportedFormat},
			match: []error{ErrUnsupportedFormat, ErrDecodeFailure},
			miss:  []error{ErrCorruptData},
		},
		{
			name:  "recognized but unsupported",
			err:   &Error{Kind: KindUnsupportedFormat, Format: FormatORF},
			match: []error{ErrUnsupportedFormat},
			miss:  []error{ErrDecodeFailure},
		},
		{
			name:  "corrupt",
			err:   &Error{Kind: KindCorruptData, Format: FormatJPEG},
			match: []error{ErrCorruptData},
			miss:  []error{ErrDecodeFailure, ErrOutOfMemory},
		},
		{
			name:  "out of memory",
			err:   &Error{Kind: KindOutOfMemory, Format: FormatPNG},
			match: []error{ErrOutOfMemory},
			miss:  []error{ErrCorruptData},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)
			for _, target := range tt.match {
				assert.ErrorIs(t, wrapped, target)
			}
			for _, target := range tt.miss {
				assert.NotErrorIs(t, wrapped, target)
			}
			assert.Equal(t, tt.err.Kind, KindOf(wrapped))
		})
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Op: "full", Path: "/photos/a.cr2", Kind: KindCorruptData, Err: errors.New("unexpected EOF")}
	assert.Equal(t, "preview: full /photos/a.cr2: corrupt data: unexpected EOF", err.Error())

	err = &Error{Op: "thumbnail", Path: "x", Kind: KindOutOfMemory}
	assert.Equal(t, "preview: thumbnail x: out of memory", err.Error())

	err = &Error{Op: "full", Path: "y", Kind: KindCorruptData, Err: fmt.Errorf("%w: bad strip", ErrCorruptData)}
	assert.Equal(t, "preview: full y: corrupt data: bad strip", err.Error())
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("other")))
	assert.Equal(t, "unknown", KindUnknown.String())
}
