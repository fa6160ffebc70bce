package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder wraps a sentence-embedding ONNX model. Encode calls
// share one underlying session, which onnxruntime does not guarantee
// is safe for concurrent Run calls, so access is serialized.
type ONNXEmbedder struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	dim       int
	maxTokens int
	vocab     map[string]int64
}

// ONNXConfig locates the model and vocabulary files and the output
// embedding width.
type ONNXConfig struct {
	ModelPath string
	VocabPath string
	Dimension int
	MaxTokens int
}

// NewONNXEmbedder opens a session over cfg.ModelPath. It does not load
// the ONNX runtime shared library or initialize the runtime environment
// (ort.SetSharedLibraryPath/ort.InitializeEnvironment); session creation
// fails unless that has already been done in this process.
func NewONNXEmbedder(cfg ONNXConfig, vocab map[string]int64) (*ONNXEmbedder, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 256
	}

	inputNames := []string{"input_ids", "attention_mask"}
	outputNames := []string{"sentence_embedding"}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, outputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("open onnx session: %w", err)
	}

	return &ONNXEmbedder{
		session:   session,
		dim:       cfg.Dimension,
		maxTokens: cfg.MaxTokens,
		vocab:     vocab,
	}, nil
}

func (e *ONNXEmbedder) Dimension() int { return e.dim }

func (e *ONNXEmbedder) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Destroy()
}

// Embed tokenizes each text with a simple whitespace+vocab lookup,
// pads/truncates to maxTokens, and runs one forward pass per text.
// Batching the whole slice through a single Run call would need
// dynamic shape inputs the loaded model may not export, so texts are
// encoded one at a time under the session lock.
func (e *ONNXEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		vec, err := e.embedOne(text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func (e *ONNXEmbedder) embedOne(text string) ([]float32, error) {
	ids, mask := e.tokenize(text)

	inputShape := ort.NewShape(1, int64(len(ids)))
	idsTensor, err := ort.NewTensor(inputShape, ids)
	if err != nil {
		return nil, fmt.Errorf("build input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(inputShape, mask)
	if err != nil {
		return nil, fmt.Errorf("build attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	outputShape := ort.NewShape(1, int64(e.dim))
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	e.mu.Lock()
	err = e.session.Run([]ort.Value{idsTensor, maskTensor}, []ort.Value{outputTensor})
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}

	data := outputTensor.GetData()
	vec := make([]float32, len(data))
	copy(vec, data)
	return vec, nil
}

func (e *ONNXEmbedder) tokenize(text string) (ids []int64, mask []int64) {
	ids = make([]int64, 0, e.maxTokens)
	var field []byte
	flush := func() {
		if len(field) == 0 {
			return
		}
		if id, ok := e.vocab[string(field)]; ok {
			ids = append(ids, id)
		} else {
			ids = append(ids, e.vocab["[UNK]"])
		}
		field = field[:0]
	}
	for i := 0; i < len(text) && len(ids) < e.maxTokens; i++ {
		c := text[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			flush()
			continue
		}
		field = append(field, c)
	}
	flush()

	for len(ids) < e.maxTokens {
		ids = append(ids, 0)
	}
	mask = make([]int64, e.maxTokens)
	for i := range mask {
		if ids[i] != 0 {
			mask[i] = 1
		}
	}
	return ids, mask
}
