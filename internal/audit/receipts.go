// Package audit keeps a searchable Elasticsearch copy of issued receipts.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/online_school/internal/transport"
)

var ErrSearchFailed = errors.New("receipt search failed")

type Config struct {
	URL      string
	User     string
	Password string
}

func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}

	return client, nil
}

const receiptMapping = `{
  "mappings": {
    "properties": {
      "receipt_number": {"type": "keyword"},
      "status":         {"type": "keyword"},
      "user_id":        {"type": "keyword"},
      "transaction_id": {"type": "keyword"},
      "order_id":       {"type": "long"},
      "amount":         {"type": "long"},
      "paid_at":        {"type": "date"},
      "cancelled_at":   {"type": "date"},
      "items": {"properties": {"name": {"type": "text"}}}
    }
  }
}`

type ReceiptIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewReceiptIndex(es *elasticsearch.Client, index string) *ReceiptIndex {
	return &ReceiptIndex{es: es, index: index}
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *ReceiptIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.es.Indices.Exists([]string{x.index}, x.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = x.es.Indices.Create(x.index,
		x.es.Indices.Create.WithContext(ctx),
		x.es.Indices.Create.WithBody(strings.NewReader(receiptMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index: %s: %s", res.Status(), readBody(res.Body))
	}
	return nil
}

// IndexReceipt upserts the receipt under its receipt number.
func (x *ReceiptIndex) IndexReceipt(ctx context.Context, r transport.ReceiptDetail) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}

	res, err := x.es.Index(x.index, bytes.NewReader(body),
		x.es.Index.WithDocumentID(r.ReceiptNumber),
		x.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index receipt %s: %w", r.ReceiptNumber, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index receipt %s: %s: %s", r.ReceiptNumber, res.Status(), readBody(res.Body))
	}
	return nil
}

func (x *ReceiptIndex) SearchReceipts(ctx context.Context, query string, from, size int) (int64, []transport.ReceiptDetail, error) {
	q := map[string]any{"match_all": map[string]any{}}
	if query != "" {
		q = map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"receipt_number^3", "transaction_id^2", "user_id", "status", "items.name"},
				"lenient":   true,
				"fuzziness": "AUTO",
			},
		}
	}
	body := map[string]any{
		"query": q,
		"sort":  []any{map[string]any{"paid_at": map[string]any{"order": "desc", "unmapped_type": "date"}}},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(&buf),
		x.es.Search.WithFrom(from),
		x.es.Search.WithSize(size),
		x.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("%w: %s: %s", ErrSearchFailed, res.Status(), readBody(res.Body))
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source transport.ReceiptDetail `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("%w: decode: %v", ErrSearchFailed, err)
	}

	out := make([]transport.ReceiptDetail, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		out[i] = hit.Source
	}
	return r.Hits.Total.Value, out, nil
}

func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	return string(b)
}

// Nop drops receipts; used when no Elasticsearch is configured.
type Nop struct{}

func (Nop) IndexReceipt(context.Context, transport.ReceiptDetail) error { return nil }
