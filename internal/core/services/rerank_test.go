package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinecraft-tech/vectorpenter/internal/core/domain"
	"github.com/machinecraft-tech/vectorpenter/internal/core/ports/driven"
)

func TestRerankChainIdentityWhenNoProviders(t *testing.T) {
	in := textSnippets("a", "b", "c")

	out, provider := RerankChain(context.Background(), nil, "q", in)

	assert.Empty(t, provider)
	require.Len(t, out, 3)
	for i := range in {
		assert.Equal(t, in[i].ID, out[i].ID, "identical identifiers in identical order")
		assert.Nil(t, out[i].RerankScore, "no rerank score added by the identity fallback")
	}
}

func TestRerankChainUsesPrimaryProvider(t *testing.T) {
	primary := &mockReranker{name: "voyage", reverse: true}
	secondary := &mockReranker{name: "cohere"}

	in := textSnippets("a", "b")
	out, provider := RerankChain(context.Background(), []driven.Reranker{primary, secondary}, "q", in)

	assert.Equal(t, "voyage", provider)
	assert.Equal(t, 0, secondary.calls, "secondary never called when primary succeeds")
	require.Len(t, out, 2)
	assert.Equal(t, in[1].ID, out[0].ID, "primary's reordering is applied")
	require.NotNil(t, out[0].RerankScore)
	assert.Equal(t, "voyage", out[0].Reranker)
}

func TestRerankChainFallsThroughToSecondary(t *testing.T) {
	primary := &mockReranker{name: "voyage", err: errors.New("quota exhausted")}
	secondary := &mockReranker{name: "cohere"}

	in := textSnippets("a", "b")
	out, provider := RerankChain(context.Background(), []driven.Reranker{primary, secondary}, "q", in)

	assert.Equal(t, "cohere", provider)
	assert.Equal(t, 1, primary.calls)
	require.Len(t, out, 2)
	assert.Equal(t, "cohere", out[0].Reranker)
}

func TestRerankChainIdentityWhenAllFail(t *testing.T) {
	primary := &mockReranker{name: "voyage", err: errors.New("down")}
	secondary := &mockReranker{name: "cohere", err: errors.New("also down")}

	in := textSnippets("a", "b")
	out, provider := RerankChain(context.Background(), []driven.Reranker{primary, secondary}, "q", in)

	assert.Empty(t, provider)
	assert.Equal(t, in, out, "all providers failing returns the input unchanged")
}

func TestRerankChainEmptyInput(t *testing.T) {
	primary := &mockReranker{name: "voyage"}

	out, provider := RerankChain(context.Background(), []driven.Reranker{primary}, "q", []domain.Snippet{})

	assert.Empty(t, provider)
	assert.Empty(t, out)
	assert.Equal(t, 0, primary.calls, "no call for an empty snippet set")
}
