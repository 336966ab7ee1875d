package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/b2bmart/search-service/internal/domain"
)

// DistinctCities returns up to limit distinct city values among matching
// listings via a terms aggregation. Terms aggregations order buckets by
// document count, so the returned cities are the most frequent ones.
func (e *Engine) DistinctCities(ctx context.Context, p domain.Predicate, limit int) ([]string, error) {
	if err := e.ensureIndex(ctx); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 10
	}

	body := map[string]any{
		"query": buildQuery(p),
		"size":  0,
		"aggs": map[string]any{
			"cities": map[string]any{
				"terms": map[string]any{
					"field": "location.city",
					"size":  limit,
				},
			},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch distinct cities: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch distinct cities: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch distinct cities: %w", decodeError(res.Body, res.Status()))
	}

	var aggResp struct {
		Aggregations struct {
			Cities struct {
				Buckets []struct {
					Key string `json:"key"`
				} `json:"buckets"`
			} `json:"cities"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&aggResp); err != nil {
		return nil, fmt.Errorf("elasticsearch distinct cities: decode response: %w", err)
	}

	cities := make([]string, 0, len(aggResp.Aggregations.Cities.Buckets))
	for _, b := range aggResp.Aggregations.Cities.Buckets {
		cities = append(cities, b.Key)
	}
	return cities, nil
}

// AttributeBounds returns the min and max numeric value of an attribute among
// matching listings. Both are nil when no matching document carries a numeric
// value for the attribute.
func (e *Engine) AttributeBounds(ctx context.Context, p domain.Predicate, key string) (*float64, *float64, error) {
	if err := e.ensureIndex(ctx); err != nil {
		return nil, nil, err
	}

	field := "attributes." + key
	body := map[string]any{
		"query": buildQuery(p),
		"size":  0,
		"aggs": map[string]any{
			"min_value": map[string]any{"min": map[string]any{"field": field}},
			"max_value": map[string]any{"max": map[string]any{"field": field}},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("elasticsearch attribute bounds: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("elasticsearch attribute bounds: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, nil, fmt.Errorf("elasticsearch attribute bounds: %w", decodeError(res.Body, res.Status()))
	}

	var aggResp struct {
		Aggregations struct {
			MinValue struct {
				Value *float64 `json:"value"`
			} `json:"min_value"`
			MaxValue struct {
				Value *float64 `json:"value"`
			} `json:"max_value"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&aggResp); err != nil {
		return nil, nil, fmt.Errorf("elasticsearch attribute bounds: decode response: %w", err)
	}

	return aggResp.Aggregations.MinValue.Value, aggResp.Aggregations.MaxValue.Value, nil
}
