//go:build !cgo
// +build !cgo

package rank

import "errors"

// NewONNXCrossEncoder is unavailable without CGO and the onnxruntime library.
func NewONNXCrossEncoder(modelPath string, maxTokens int) (CrossEncoder, error) {
	return nil, errors.New("onnx cross-encoder requires a CGO build with the onnxruntime library")
}
