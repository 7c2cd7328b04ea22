package gpu

import "errors"

var (
	ErrDoubleFree        = errors.New("gpu: resource already freed")
	ErrDeviceClosed      = errors.New("gpu: device closed")
	ErrOutOfRange        = errors.New("gpu: write out of range")
	ErrLayoutMismatch    = errors.New("gpu: binding does not match layout")
	ErrUnsupportedFormat = errors.New("gpu: unsupported texture format")
)
