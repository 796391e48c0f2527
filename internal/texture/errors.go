package texture

import "errors"

var (
	ErrBufferSizeMismatch = errors.New("texture: buffer size does not match image dimensions")
	ErrDimensionMismatch  = errors.New("texture: invalid image dimensions")
)
