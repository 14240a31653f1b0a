package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/aegisops/aegisd/pkg/logging"
)

const className = "AegisMemory"

// WeaviateStore is the concrete Store binding. If rawURL is empty,
// NewWeaviateStore returns (nil, nil) — the memory layer is optional, and
// a nil Store means the daemon runs without vector memory. An unparsable
// URL (no scheme or host) is an error.
type WeaviateStore struct {
	client *weaviate.Client
	logger *logging.Logger
}

func NewWeaviateStore(ctx context.Context, rawURL string, logger *logging.Logger) (*WeaviateStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	rawURL = strings.Trim(rawURL, "\"' ")
	if rawURL == "" {
		logger.Info("memory.weaviate.unconfigured", "note", "running without vector memory")
		return nil, nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("memory: invalid weaviate url %q", rawURL)
	}

	client, err := weaviate.NewClient(weaviate.Config{Host: parsed.Host, Scheme: parsed.Scheme})
	if err != nil {
		return nil, fmt.Errorf("memory: new weaviate client: %w", err)
	}

	s := &WeaviateStore{client: client, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *WeaviateStore) ensureSchema(ctx context.Context) error {
	_, err := s.client.Schema().ClassGetter().WithClassName(className).Do(ctx)
	if err == nil {
		return nil
	}

	class := &models.Class{
		Class:      className,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "namespace", DataType: []string{"text"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "created_at", DataType: []string{"number"}},
		},
	}
	if createErr := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); createErr != nil {
		return fmt.Errorf("memory: create schema: %w", createErr)
	}
	s.logger.Info("memory.weaviate.schema_created", "class", className)
	return nil
}

func (s *WeaviateStore) Record(ctx context.Context, namespace, content string, metadata map[string]any) (Record, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return Record{}, fmt.Errorf("memory: marshal metadata: %w", err)
	}

	props := map[string]any{
		"namespace":  namespace,
		"content":    content,
		"created_at": float64(now.UnixMilli()),
		"metadata":   string(metaJSON),
	}

	_, err = s.client.Data().Creator().
		WithClassName(className).
		WithID(id).
		WithProperties(props).
		Do(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("memory: store record: %w", err)
	}

	return Record{ID: id, Namespace: namespace, Content: content, Metadata: metadata, CreatedAt: now}, nil
}

func (s *WeaviateStore) Recall(ctx context.Context, namespace, query string, limit int) ([]Record, error) {
	where := filters.Where().
		WithPath([]string{"namespace"}).
		WithOperator(filters.Equal).
		WithValueString(namespace)

	fields := []graphql.Field{
		{Name: "namespace"}, {Name: "content"}, {Name: "created_at"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}}},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(className).
		WithWhere(where).
		WithNearText(s.client.GraphQL().NearTextArgBuilder().WithConcepts([]string{query})).
		WithLimit(limit).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: recall: %w", err)
	}

	data := make(map[string]any, len(result.Data))
	for k, v := range result.Data {
		data[k] = v
	}
	return parseRecallResult(data)
}

func parseRecallResult(data map[string]any) ([]Record, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("memory: marshal recall response: %w", err)
	}

	var parsed struct {
		Get struct {
			AegisMemory []struct {
				Namespace string  `json:"namespace"`
				Content   string  `json:"content"`
				CreatedAt float64 `json:"created_at"`
				Additional struct {
					ID string `json:"id"`
				} `json:"_additional"`
			} `json:"AegisMemory"`
		} `json:"Get"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("memory: unmarshal recall response: %w", err)
	}

	out := make([]Record, 0, len(parsed.Get.AegisMemory))
	for _, r := range parsed.Get.AegisMemory {
		out = append(out, Record{
			ID:        r.Additional.ID,
			Namespace: r.Namespace,
			Content:   r.Content,
			CreatedAt: time.UnixMilli(int64(r.CreatedAt)).UTC(),
		})
	}
	return out, nil
}

func (s *WeaviateStore) Stats(ctx context.Context) (Stats, error) {
	result, err := s.client.GraphQL().Aggregate().
		WithClassName(className).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("memory: stats: %w", err)
	}

	raw, err := json.Marshal(result.Data)
	if err != nil {
		return Stats{}, fmt.Errorf("memory: marshal stats response: %w", err)
	}
	var parsed struct {
		Aggregate struct {
			AegisMemory []struct {
				Meta struct {
					Count int64 `json:"count"`
				} `json:"meta"`
			} `json:"AegisMemory"`
		} `json:"Aggregate"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Stats{}, fmt.Errorf("memory: unmarshal stats response: %w", err)
	}

	var total int64
	if len(parsed.Aggregate.AegisMemory) > 0 {
		total = parsed.Aggregate.AegisMemory[0].Meta.Count
	}
	return Stats{TotalRecords: total}, nil
}
