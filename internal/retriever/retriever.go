package retriever

import (
	"context"

	"github.com/pkg/errors"

	"ragserver/internal/domain"
	"ragserver/internal/similarity"
	"ragserver/internal/vectorstore"
)

// StoreProvider hands out the process-lifetime store instance. The
// production implementation is vectorstore.Loader; tests inject a fixed
// store directly.
type StoreProvider interface {
	Store() (*vectorstore.Store, error)
}

// Retriever turns a raw query into the top-K ranked records: it obtains
// the query embedding, loads the (cached) store and runs the full-scan
// ranking pass. It holds no mutable state of its own, so one instance is
// safely shared across concurrent request handlers.
type Retriever struct {
	embedder domain.Embedder
	stores   StoreProvider
}

// New creates a retriever over the given embedder and store provider.
func New(embedder domain.Embedder, stores StoreProvider) *Retriever {
	return &Retriever{embedder: embedder, stores: stores}
}

// Retrieve returns up to k records ranked by similarity to the query,
// highest first. An empty store yields an empty result with no error;
// a missing snapshot surfaces ErrStoreNotFound so callers can report the
// service as not initialized. k must be positive.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RankedResult, error) {
	if k < 1 {
		return nil, errors.Wrapf(domain.ErrInvalidRequest, "k must be positive, got %d", k)
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingFailed) {
			return nil, err
		}
		return nil, errors.Wrap(domain.ErrEmbeddingFailed, err.Error())
	}

	store, err := r.stores.Store()
	if err != nil {
		return nil, err
	}
	if store.Len() == 0 {
		return nil, nil
	}

	return similarity.Rank(store.Records, vec, k)
}

// Dimension reports the store's embedding dimension, or 0 when the store
// is not loaded yet. Used to size the degraded-mode pseudo-embedder.
func (r *Retriever) Dimension() int {
	store, err := r.stores.Store()
	if err != nil {
		return 0
	}
	return store.Dimension
}
