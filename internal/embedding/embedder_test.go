package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remixer1943/Ai/internal/config"
	"github.com/remixer1943/Ai/internal/vector"
	"github.com/remixer1943/Ai/pkg/utils"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(256)
	ctx := context.Background()
	a, err := e.Embed(ctx, []string{"苹果是一种水果", "猫"}, true)
	require.NoError(t, err)
	b, err := e.Embed(ctx, []string{"苹果是一种水果"}, true)
	require.NoError(t, err)

	require.Len(t, a, 2)
	assert.Equal(t, a[0], b[0])
	for _, v := range a {
		assert.Len(t, v, 256)
		assert.True(t, utils.IsUnitNorm(v, 1e-6))
	}
}

func TestMockEmbedder_SharedRunesAreSimilar(t *testing.T) {
	e := NewMockEmbedder(256)
	vecs, err := e.Embed(context.Background(), []string{
		"为这个句子生成表示以用于检索相关文章：苹果",
		"苹果是一种水果",
		"猫是一种宠物",
	}, true)
	require.NoError(t, err)

	fruit := vector.InnerProduct(vecs[0], vecs[1])
	pet := vector.InnerProduct(vecs[0], vecs[2])
	assert.Greater(t, fruit, pet)
	assert.InDelta(t, 0.2, fruit, 1e-5)
	assert.InDelta(t, 0, pet, 1e-9)
}

func TestMockEmbedder_Unnormalized(t *testing.T) {
	e := NewMockEmbedder(8)
	vecs, err := e.Embed(context.Background(), []string{"aa b"}, false)
	require.NoError(t, err)
	var sum float32
	for _, x := range vecs[0] {
		sum += x
	}
	assert.Equal(t, float32(3), sum)
}

func TestMockEmbedder_EmptyBatch(t *testing.T) {
	vecs, err := NewMockEmbedder(4).Embed(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestFinish_RejectsBadShapes(t *testing.T) {
	_, err := finish([][]float32{{1, 0}}, 2, 2, true)
	assert.Error(t, err)

	_, err = finish([][]float32{{1, 0, 0}}, 1, 2, true)
	assert.Error(t, err)

	_, err = finish([][]float32{{0, 0}}, 1, 2, true)
	assert.Error(t, err)

	out, err := finish([][]float32{{3, 4}}, 1, 2, true)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, out[0][0], 1e-6)
}

func TestNew(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: "mock", Dimensions: 32})
	require.NoError(t, err)
	assert.Equal(t, 32, e.Dimensions())
	assert.Equal(t, "mock", e.Model())

	e, err = New(config.EmbeddingConfig{Provider: "ollama", Model: "bge-m3", Dimensions: 1024, OllamaURL: "http://localhost:11434"})
	require.NoError(t, err)
	assert.Equal(t, "bge-m3", e.Model())
	assert.Equal(t, 1024, e.Dimensions())

	_, err = New(config.EmbeddingConfig{Provider: "ollama", Model: "bge-m3", Dimensions: 1024, OllamaURL: "::bad"})
	assert.Error(t, err)

	_, err = New(config.EmbeddingConfig{Provider: "word2vec"})
	assert.Error(t, err)
}
