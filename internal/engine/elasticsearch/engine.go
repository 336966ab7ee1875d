package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/b2bmart/search-service/internal/domain"
)

// Engine is an Elasticsearch-backed implementation of the search engine
// interface. The index is bootstrapped lazily: the first operation creates it
// if missing, and concurrent cold-start callers wait on the same attempt.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger

	bootstrapOnce sync.Once
	bootstrapErr  error
}

// esSearchResponse is the structure used to decode Elasticsearch search responses.
type esSearchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source domain.Listing `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esBulkResponse is the structure used to decode Elasticsearch bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates a new Elasticsearch engine connected to the given URL.
// If indexName is empty, DefaultIndexName ("marketplace_listings") is used.
// The index itself is created on first use, not here, so the service can
// start while Elasticsearch is still coming up.
func New(esURL string, indexName string, logger *slog.Logger) (*Engine, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	return &Engine{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// ensureIndex creates the listings index if it does not exist. The first
// caller performs the bootstrap; concurrent callers block on the same attempt
// and share its outcome.
func (e *Engine) ensureIndex(ctx context.Context) error {
	e.bootstrapOnce.Do(func() {
		e.bootstrapErr = e.createIndexIfMissing(ctx)
	})
	return e.bootstrapErr
}

func (e *Engine) createIndexIfMissing(ctx context.Context) error {
	res, err := e.client.Indices.Exists(
		[]string{e.indexName},
		e.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 200 {
		e.logger.Info("elasticsearch index already exists", "index", e.indexName)
		return nil
	}

	mapping := buildIndexMapping()
	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(mapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("create index: %w", decodeError(res.Body, res.Status()))
	}

	e.logger.Info("elasticsearch index created", "index", e.indexName)
	return nil
}

// Index adds or updates a single listing in the Elasticsearch index.
func (e *Engine) Index(ctx context.Context, listing *domain.Listing) error {
	if err := e.ensureIndex(ctx); err != nil {
		return err
	}

	listing.Normalize()
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal listing: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(listing.ID.String()),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch index: %w", decodeError(res.Body, res.Status()))
	}

	e.logger.Debug("indexed listing", "id", listing.ID, "title", listing.Title)
	return nil
}

// Delete removes a listing from the Elasticsearch index by its ID.
// It does not return an error if the document does not exist (404 is ignored).
func (e *Engine) Delete(ctx context.Context, id string) error {
	if err := e.ensureIndex(ctx); err != nil {
		return err
	}

	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch delete: %w", decodeError(res.Body, res.Status()))
	}

	e.logger.Debug("deleted listing", "id", id)
	return nil
}

// BulkIndex adds or updates multiple listings using the bulk NDJSON API.
func (e *Engine) BulkIndex(ctx context.Context, listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	if err := e.ensureIndex(ctx); err != nil {
		return err
	}

	var buf bytes.Buffer
	for i := range listings {
		listings[i].Normalize()

		action := map[string]any{
			"index": map[string]any{
				"_index": e.indexName,
				"_id":    listings[i].ID.String(),
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(listings[i]); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch bulk index: %w", decodeError(res.Body, res.Status()))
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}

	if bulkResp.Errors {
		var errMsgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type != "" {
				errMsgs = append(errMsgs, fmt.Sprintf("id=%s: %s — %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(errMsgs, "; "))
	}

	e.logger.Info("bulk indexed listings", "count", len(listings))
	return nil
}

// Search executes the predicate against Elasticsearch with sorting and
// pagination. The total comes from the same query via track_total_hits, so
// page and total are always mutually consistent.
func (e *Engine) Search(ctx context.Context, p domain.Predicate, sortBy domain.SortMode, page, limit int) (*domain.SearchResult, error) {
	if err := e.ensureIndex(ctx); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	esQuery := map[string]any{
		"query":            buildQuery(p),
		"from":             (page - 1) * limit,
		"size":             limit,
		"track_total_hits": true,
		"sort":             buildSort(sortBy, p.HasText()),
	}

	data, err := json.Marshal(esQuery)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search: %w", decodeError(res.Body, res.Status()))
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	listings := make([]domain.Listing, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		listings = append(listings, hit.Source)
	}

	return &domain.SearchResult{
		Listings: listings,
		Total:    esResp.Hits.Total.Value,
	}, nil
}

// Count returns the number of listings matching the predicate.
func (e *Engine) Count(ctx context.Context, p domain.Predicate) (int64, error) {
	if err := e.ensureIndex(ctx); err != nil {
		return 0, err
	}

	body := map[string]any{"query": buildQuery(p)}
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch count: marshal query: %w", err)
	}

	res, err := e.client.Count(
		e.client.Count.WithIndex(e.indexName),
		e.client.Count.WithBody(bytes.NewReader(data)),
		e.client.Count.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch count: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return 0, fmt.Errorf("elasticsearch count: %w", decodeError(res.Body, res.Status()))
	}

	var countResp struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&countResp); err != nil {
		return 0, fmt.Errorf("elasticsearch count: decode response: %w", err)
	}
	return countResp.Count, nil
}

// buildQuery constructs the bool query for a predicate. Only active listings
// ever match.
func buildQuery(p domain.Predicate) map[string]any {
	var must any
	if p.HasText() {
		must = map[string]any{
			"multi_match": map[string]any{
				"query": p.Text,
				"fields": []string{
					fmt.Sprintf("title^%d", domain.TextWeightTitle),
					fmt.Sprintf("description^%d", domain.TextWeightDescription),
					fmt.Sprintf("supplier.name^%d", domain.TextWeightSupplier),
				},
				"type": "best_fields",
			},
		}
	} else {
		must = map[string]any{"match_all": map[string]any{}}
	}

	filters := []any{
		map[string]any{"term": map[string]any{"status": string(domain.ListingStatusActive)}},
	}

	if p.CategoryID != nil {
		filters = append(filters, map[string]any{
			"term": map[string]any{"categoryId": p.CategoryID.String()},
		})
	}

	if p.PriceMin != nil || p.PriceMax != nil {
		rangeFilter := map[string]any{}
		if p.PriceMin != nil {
			rangeFilter["gte"] = *p.PriceMin
		}
		if p.PriceMax != nil {
			rangeFilter["lte"] = *p.PriceMax
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"price": rangeFilter},
		})
	}

	if p.CitySubstring != "" {
		filters = append(filters, map[string]any{
			"wildcard": map[string]any{
				"location.city": map[string]any{
					"value":            "*" + p.CitySubstring + "*",
					"case_insensitive": true,
				},
			},
		})
	}
	if p.CityExact != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"location.city": p.CityExact},
		})
	}

	for _, f := range p.Attributes {
		filters = append(filters, map[string]any{
			"terms": map[string]any{"attributes." + f.Key: f.Values},
		})
	}

	return map[string]any{
		"bool": map[string]any{
			"must":   []any{must},
			"filter": filters,
		},
	}
}

// buildSort constructs the sort clause. Relevance falls back to newest when
// no text condition is active.
func buildSort(sortBy domain.SortMode, hasText bool) []any {
	switch sortBy {
	case domain.SortPriceAsc:
		return []any{map[string]any{"price": "asc"}}
	case domain.SortPriceDesc:
		return []any{map[string]any{"price": "desc"}}
	case domain.SortNewest:
		return []any{map[string]any{"createdAt": "desc"}}
	default:
		if hasText {
			return []any{
				map[string]any{"_score": "desc"},
				map[string]any{"createdAt": "desc"},
			}
		}
		return []any{map[string]any{"createdAt": "desc"}}
	}
}

// decodeError turns an Elasticsearch error body into a Go error.
func decodeError(body io.Reader, status string) error {
	var errResp esErrorResponse
	if decErr := json.NewDecoder(body).Decode(&errResp); decErr == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s — %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("unexpected status %s", status)
}

// DeleteIndex removes the entire Elasticsearch index.
// It is intended for testing and administrative operations only.
// A 404 response is treated as success (index already absent).
func (e *Engine) DeleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete(
		[]string{e.indexName},
		e.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch delete index: %w", decodeError(res.Body, res.Status()))
	}

	e.logger.Info("elasticsearch index deleted", "index", e.indexName)
	return nil
}
