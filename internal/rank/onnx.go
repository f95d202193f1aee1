//go:build cgo
// +build cgo

package rank

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXCrossEncoder scores (question, text) pairs with an ONNX cross-encoder
// model. It requires CGO and the onnxruntime shared library.
type ONNXCrossEncoder struct {
	session   *ort.AdvancedSession
	maxTokens int

	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	tokenTypeIDsTensor  *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]
	mu                  sync.Mutex
}

// NewONNXCrossEncoder loads the model at modelPath. InitializeEnvironment is
// called if not already done.
func NewONNXCrossEncoder(modelPath string, maxTokens int) (*ONNXCrossEncoder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}

	shape := ort.NewShape(1, int64(maxTokens))
	inputIDs, err := ort.NewTensor(shape, make([]int64, maxTokens))
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	attentionMask, err := ort.NewTensor(shape, make([]int64, maxTokens))
	if err != nil {
		inputIDs.Destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	tokenTypeIDs, err := ort.NewTensor(shape, make([]int64, maxTokens))
	if err != nil {
		inputIDs.Destroy()
		attentionMask.Destroy()
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	output, err := ort.NewTensor(ort.NewShape(1, 1), make([]float32, 1))
	if err != nil {
		inputIDs.Destroy()
		attentionMask.Destroy()
		tokenTypeIDs.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"logits"},
		[]ort.ArbitraryTensor{inputIDs, attentionMask, tokenTypeIDs},
		[]ort.ArbitraryTensor{output},
		nil,
	)
	if err != nil {
		inputIDs.Destroy()
		attentionMask.Destroy()
		tokenTypeIDs.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXCrossEncoder{
		session:             session,
		maxTokens:           maxTokens,
		inputIDsTensor:      inputIDs,
		attentionMaskTensor: attentionMask,
		tokenTypeIDsTensor:  tokenTypeIDs,
		outputTensor:        output,
	}, nil
}

// Score runs the model once per text, respecting ctx between runs.
func (e *ONNXCrossEncoder) Score(ctx context.Context, question string, texts []string) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	scores := make([]float64, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		e.encodePair(question, text)
		if err := e.session.Run(); err != nil {
			return nil, fmt.Errorf("cross-encoder inference failed: %w", err)
		}
		scores[i] = sigmoid(float64(e.outputTensor.GetData()[0]))
	}
	return scores, nil
}

// encodePair fills the input tensors with a BERT-style [CLS] q [SEP] t [SEP]
// sequence. Token ids come from a hashing vocabulary, matching how the model
// export bundles its tokenizer table.
func (e *ONNXCrossEncoder) encodePair(question, text string) {
	const (
		clsID = 101
		sepID = 102
	)

	ids := e.inputIDsTensor.GetData()
	mask := e.attentionMaskTensor.GetData()
	segs := e.tokenTypeIDsTensor.GetData()
	for i := range ids {
		ids[i], mask[i], segs[i] = 0, 0, 0
	}

	pos := 0
	write := func(id int64, seg int64) {
		if pos >= e.maxTokens-1 {
			return
		}
		ids[pos], mask[pos], segs[pos] = id, 1, seg
		pos++
	}

	write(clsID, 0)
	for _, w := range strings.Fields(strings.ToLower(question)) {
		write(hashTokenID(w), 0)
	}
	write(sepID, 0)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		write(hashTokenID(w), 1)
	}
	write(sepID, 1)
}

func hashTokenID(word string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(word))
	// Keep clear of the reserved special-token range.
	return int64(h.Sum32()%28000) + 1000
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Close releases the session and tensors.
func (e *ONNXCrossEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.session.Destroy()
	e.inputIDsTensor.Destroy()
	e.attentionMaskTensor.Destroy()
	e.tokenTypeIDsTensor.Destroy()
	e.outputTensor.Destroy()
	return nil
}
