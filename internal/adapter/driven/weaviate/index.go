// Package weaviate implements the EvidenceIndex port using the Weaviate
// vector database. Embeddings are computed client-side through the injected
// Embedder port; the collection is configured with vectorizer "none".
package weaviate

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	wvmodels "github.com/weaviate/weaviate/entities/models"

	"github.com/cfarleigh/releasegate/internal/domain/model"
	"github.com/cfarleigh/releasegate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EvidenceIndex = (*Index)(nil)

// Index implements the driven.EvidenceIndex port against a Weaviate class.
type Index struct {
	client   *weaviate.Client
	embedder driven.Embedder
	class    string
}

// NewIndex creates an Index over the given class name. The embedder supplies
// vectors for both ingestion and querying.
func NewIndex(client *weaviate.Client, embedder driven.Embedder, class string) *Index {
	return &Index{
		client:   client,
		embedder: embedder,
		class:    class,
	}
}

// NewClient builds a Weaviate client for the given host and scheme.
func NewClient(host, scheme string) (*weaviate.Client, error) {
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   host,
		Scheme: scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("creating weaviate client: %w", err)
	}
	return client, nil
}

// EnsureCollection creates the evidence class if it does not already exist.
// Idempotent get-or-create; safe to call before every ingestion.
func (i *Index) EnsureCollection(ctx context.Context) error {
	_, err := i.client.Schema().ClassGetter().WithClassName(i.class).Do(ctx)
	if err == nil {
		return nil
	}

	class := &wvmodels.Class{
		Class:       i.class,
		Description: "Normalized CI report documents for release risk analysis",
		Vectorizer:  "none",
		Properties: []*wvmodels.Property{
			{Name: "docId", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "content", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "runId", DataType: []string{"int"}},
			{Name: "docType", DataType: []string{"text"}, Tokenization: "field"},
		},
	}

	if err := i.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("creating class %s: %w", i.class, err)
	}

	slog.Info("evidence class created", "class", i.class)
	return nil
}

// Upsert writes the documents in one batch, overwriting prior content stored
// under the same document id. Object UUIDs are derived deterministically from
// the document id, which is what makes re-ingestion idempotent: the same
// run/file pair always maps to the same object. An empty slice is a no-op.
func (i *Index) Upsert(ctx context.Context, docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for n, doc := range docs {
		texts[n] = doc.Text
	}

	vectors, err := i.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %d documents: %w", len(docs), err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	objects := make([]*wvmodels.Object, len(docs))
	for n, doc := range docs {
		objects[n] = &wvmodels.Object{
			Class:  i.class,
			ID:     ObjectID(doc.ID),
			Vector: vectors[n],
			Properties: map[string]interface{}{
				"docId":   doc.ID,
				"content": doc.Text,
				"source":  doc.Source,
				"runId":   doc.RunID,
				"docType": string(doc.Type),
			},
		}
	}

	resp, err := i.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("batch upsert of %d documents: %w", len(docs), err)
	}

	for _, item := range resp {
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch upsert item failed: %s", item.Result.Errors.Error[0].Message)
		}
	}

	slog.Debug("documents upserted", "class", i.class, "count", len(docs))
	return nil
}

// Query returns up to topK document texts nearest to queryText, restricted
// to documents whose runId equals runID, in descending relevance order.
// Slots the store cannot materialize as text are dropped.
func (i *Index) Query(ctx context.Context, queryText string, runID int64, topK int) ([]string, error) {
	vectors, err := i.embedder.EmbedTexts(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for query", len(vectors))
	}

	runFilter := filters.Where().
		WithPath([]string{"runId"}).
		WithOperator(filters.Equal).
		WithValueInt(runID)

	nearVector := i.client.GraphQL().NearVectorArgBuilder().
		WithVector(vectors[0])

	result, err := i.client.GraphQL().Get().
		WithClassName(i.class).
		WithFields(
			graphql.Field{Name: "content"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
		).
		WithWhere(runFilter).
		WithNearVector(nearVector).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying evidence for run %d: %w", runID, err)
	}

	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("evidence query error: %s", result.Errors[0].Message)
	}

	return ParseContents(result, i.class), nil
}

// ObjectID derives the deterministic Weaviate object UUID for a document id.
func ObjectID(docID string) strfmt.UUID {
	hash := sha256.Sum256([]byte(docID))
	id, _ := uuid.FromBytes(hash[:16])
	return strfmt.UUID(id.String())
}

// ParseContents extracts the content strings from a GraphQL Get response,
// skipping malformed or non-string entries.
func ParseContents(result *wvmodels.GraphQLResponse, class string) []string {
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return []string{}
	}

	objects, ok := data[class].([]interface{})
	if !ok {
		return []string{}
	}

	contents := make([]string, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		if content, ok := m["content"].(string); ok {
			contents = append(contents, content)
		}
	}

	return contents
}
