// Package remote computes embeddings via an OpenAI-compatible embeddings
// endpoint. With a base URL override it talks to a local LM Studio server
// running a model such as nomic-embed-text.
package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configure the remote embedder.
type Options struct {
	// BaseURL overrides the API endpoint. Empty keeps the SDK default.
	BaseURL string

	// APIKey is sent as-is; local servers accept any placeholder.
	APIKey string

	// Model is the embedding model identifier.
	Model string

	// Dimensions is the expected vector size of the model's output.
	Dimensions int
}

// Embedder calls the embeddings API once per text.
type Embedder struct {
	client *openai.Client
	opts   Options
}

// New creates a remote embedder, building a client from the options.
func New(optFns ...func(o *Options)) *Embedder {
	opts := Options{
		Model:      string(openai.EmbeddingModelTextEmbedding3Small),
		Dimensions: 1536,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := openai.NewClient(clientOpts...)
	return &Embedder{client: &client, opts: opts}
}

// Embed converts a single text to an embedding vector. Newlines are
// flattened to spaces before the call; embedding models treat them as
// semantic boundaries otherwise.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.ReplaceAll(text, "\n", " ")

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Model: openai.EmbeddingModel(e.opts.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings api: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embeddings api: empty response")
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Dimensions returns the configured embedding size.
func (e *Embedder) Dimensions() int {
	return e.opts.Dimensions
}
