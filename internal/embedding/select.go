package embedding

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Select returns an ONNXEmbedder bound to modelPath/vocabPath if both
// are set, or a deterministic HashEmbedder otherwise. This lets the
// index builder and search engine run against a real model when one is
// configured and fall back to a model-free stand-in when it is not,
// without either caller needing to know which.
func Select(modelPath, vocabPath string, dimension int, logger *slog.Logger) (Embedder, error) {
	if modelPath == "" || vocabPath == "" {
		logger.Warn("no embedding model configured, using hash embedder", slog.Int("dimension", dimension))
		return NewHashEmbedder(dimension), nil
	}

	vocab, err := loadVocab(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("load vocab %s: %w", vocabPath, err)
	}

	logger.Info("loading onnx embedding model", slog.String("model_path", modelPath))
	return NewONNXEmbedder(ONNXConfig{ModelPath: modelPath, VocabPath: vocabPath, Dimension: dimension}, vocab)
}

// loadVocab reads a one-token-per-line vocabulary file into a token ->
// id map, id being the line number (0-based).
func loadVocab(path string) (map[string]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	var id int64
	for scanner.Scan() {
		token := strings.TrimSpace(scanner.Text())
		if token == "" {
			continue
		}
		vocab[token] = id
		id++
	}
	if _, ok := vocab["[UNK]"]; !ok {
		vocab["[UNK]"] = id
	}
	return vocab, scanner.Err()
}
