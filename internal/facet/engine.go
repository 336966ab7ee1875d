// Package facet computes per-dimension value counts for a compiled search
// predicate. Every count is an independent read-only query, so the engine
// fans them out over a bounded worker group and tolerates individual
// failures: a failed sub-query drops its own facet, never the response.
package facet

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/b2bmart/search-service/internal/domain"
)

// locationCityCap bounds how many distinct cities the location facet counts.
const locationCityCap = 10

// DefaultValueLimit is the per-facet value cap when the caller does not
// specify one.
const DefaultValueLimit = 10

// Store is the read-only query surface facet computation needs.
type Store interface {
	Count(ctx context.Context, p domain.Predicate) (int64, error)
	DistinctCities(ctx context.Context, p domain.Predicate, limit int) ([]string, error)
	AttributeBounds(ctx context.Context, p domain.Predicate, key string) (min, max *float64, err error)
}

// attrResult collects the sub-query outcomes for one attribute facet.
type attrResult struct {
	counts []int64
	errs   []error
	min    *float64
	max    *float64
	err    error
}

// Engine computes facets against a store.
type Engine struct {
	store       Store
	logger      *slog.Logger
	concurrency int
}

// New creates a facet engine. concurrency bounds the sub-query fan-out;
// values below 1 fall back to 8.
func New(store Store, logger *slog.Logger, concurrency int) *Engine {
	if concurrency < 1 {
		concurrency = 8
	}
	return &Engine{store: store, logger: logger, concurrency: concurrency}
}

// Compute returns the facets for the predicate: the price facet first, then
// one facet per filterable category attribute in schema declaration order,
// then the location facet. category may be nil (no attribute facets).
//
// Each facet's counts are computed with the predicate's own condition on
// that dimension replaced by the candidate value, so a selected filter does
// not zero out its siblings. Compute never fails: a sub-query error drops
// the affected facet and the rest proceed.
func (e *Engine) Compute(ctx context.Context, category *domain.Category, p domain.Predicate, limit int) []domain.Facet {
	start := time.Now()
	defer func() {
		computeDuration.WithLabelValues(scopedLabel(category)).Observe(time.Since(start).Seconds())
	}()

	if limit < 1 {
		limit = DefaultValueLimit
	}

	// The location facet depends on the distinct city list, fetched before
	// the fan-out so its per-city counts can join the same worker group.
	cities, citiesErr := e.store.DistinctCities(ctx, p, locationCityCap)
	if citiesErr != nil {
		e.logger.WarnContext(ctx, "location facet dropped: distinct cities failed",
			slog.String("error", citiesErr.Error()))
		facetsDropped.WithLabelValues("location").Inc()
	}

	var schema domain.AttributeSchema
	if category != nil {
		schema = category.AttributeSchema
	}

	// Results are written into pre-allocated slots so output order is
	// independent of goroutine scheduling.
	priceCounts := make([]int64, len(domain.PriceBuckets))
	priceErrs := make([]error, len(domain.PriceBuckets))
	attrResults := make([]attrResult, len(schema))

	cityCounts := make([]int64, len(cities))
	cityErrs := make([]error, len(cities))

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)

	for i, bucket := range domain.PriceBuckets {
		g.Go(func() error {
			priceCounts[i], priceErrs[i] = e.store.Count(ctx, p.WithPriceRange(bucket.Min, bucket.Max))
			return nil
		})
	}

	for ai, entry := range schema {
		if !entry.Filterable {
			continue
		}
		switch entry.Type {
		case domain.AttributeEnum:
			attrResults[ai].counts = make([]int64, len(entry.Values))
			attrResults[ai].errs = make([]error, len(entry.Values))
			for vi, value := range entry.Values {
				g.Go(func() error {
					count, err := e.store.Count(ctx, p.WithAttribute(entry.Key, value))
					attrResults[ai].counts[vi] = count
					attrResults[ai].errs[vi] = err
					return nil
				})
			}
		case domain.AttributeRange, domain.AttributeNumber:
			g.Go(func() error {
				attrResults[ai].min, attrResults[ai].max, attrResults[ai].err =
					e.store.AttributeBounds(ctx, p, entry.Key)
				return nil
			})
		}
	}

	for ci, city := range cities {
		g.Go(func() error {
			cityCounts[ci], cityErrs[ci] = e.store.Count(ctx, p.WithCity(city))
			return nil
		})
	}

	// Tasks never return errors; failures live in the per-slot error slices.
	_ = g.Wait()

	facets := make([]domain.Facet, 0, len(schema)+2)

	if f := e.assemblePriceFacet(ctx, priceCounts, priceErrs); f != nil {
		facets = append(facets, *f)
	}

	for ai, entry := range schema {
		if !entry.Filterable {
			continue
		}
		if f := e.assembleAttributeFacet(ctx, entry, attrResults[ai], limit); f != nil {
			facets = append(facets, *f)
		}
	}

	if citiesErr == nil {
		if f := e.assembleLocationFacet(ctx, cities, cityCounts, cityErrs); f != nil {
			facets = append(facets, *f)
		}
	}

	return facets
}

func (e *Engine) assemblePriceFacet(ctx context.Context, counts []int64, errs []error) *domain.Facet {
	for i, err := range errs {
		if err != nil {
			e.logger.WarnContext(ctx, "price facet dropped: bucket count failed",
				slog.String("bucket", domain.PriceBuckets[i].Value),
				slog.String("error", err.Error()))
			facetsDropped.WithLabelValues("price").Inc()
			return nil
		}
	}

	values := make([]domain.FacetValue, 0, len(counts))
	for i, bucket := range domain.PriceBuckets {
		if counts[i] == 0 {
			continue
		}
		values = append(values, domain.FacetValue{
			Value: bucket.Value,
			Label: bucket.Label,
			Count: counts[i],
		})
	}
	if len(values) == 0 {
		return nil
	}

	return &domain.Facet{
		Key:    "price",
		Label:  "Price Range",
		Type:   string(domain.AttributeRange),
		Values: values,
		Unit:   "₹",
	}
}

func (e *Engine) assembleAttributeFacet(ctx context.Context, entry domain.SchemaEntry, r attrResult, limit int) *domain.Facet {
	switch entry.Type {
	case domain.AttributeEnum:
		for _, err := range r.errs {
			if err != nil {
				e.logger.WarnContext(ctx, "attribute facet dropped: value count failed",
					slog.String("key", entry.Key),
					slog.String("error", err.Error()))
				facetsDropped.WithLabelValues("attribute").Inc()
				return nil
			}
		}

		values := make([]domain.FacetValue, 0, len(entry.Values))
		for vi, value := range entry.Values {
			if r.counts[vi] == 0 {
				continue
			}
			values = append(values, domain.FacetValue{
				Value: value,
				Label: value,
				Count: r.counts[vi],
			})
		}
		if len(values) == 0 {
			return nil
		}

		// Stable sort: ties keep declaration order.
		sort.SliceStable(values, func(i, j int) bool {
			return values[i].Count > values[j].Count
		})
		if len(values) > limit {
			values = values[:limit]
		}

		return &domain.Facet{
			Key:    entry.Key,
			Label:  entry.Label,
			Type:   string(entry.Type),
			Values: values,
			Unit:   entry.Unit,
		}

	case domain.AttributeRange, domain.AttributeNumber:
		if r.err != nil {
			e.logger.WarnContext(ctx, "attribute facet dropped: bounds query failed",
				slog.String("key", entry.Key),
				slog.String("error", r.err.Error()))
			facetsDropped.WithLabelValues("attribute").Inc()
			return nil
		}
		if r.min == nil && r.max == nil {
			return nil
		}
		return &domain.Facet{
			Key:   entry.Key,
			Label: entry.Label,
			Type:  string(entry.Type),
			Min:   r.min,
			Max:   r.max,
			Unit:  entry.Unit,
		}

	default:
		// boolean and text attributes have no facet strategy.
		return nil
	}
}

func (e *Engine) assembleLocationFacet(ctx context.Context, cities []string, counts []int64, errs []error) *domain.Facet {
	if len(cities) == 0 {
		return nil
	}
	for i, err := range errs {
		if err != nil {
			e.logger.WarnContext(ctx, "location facet dropped: city count failed",
				slog.String("city", cities[i]),
				slog.String("error", err.Error()))
			facetsDropped.WithLabelValues("location").Inc()
			return nil
		}
	}

	values := make([]domain.FacetValue, 0, len(cities))
	for i, city := range cities {
		if counts[i] == 0 {
			continue
		}
		values = append(values, domain.FacetValue{
			Value: city,
			Label: city,
			Count: counts[i],
		})
	}
	if len(values) == 0 {
		return nil
	}

	// Stable sort: ties keep distinct-fetch order.
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Count > values[j].Count
	})

	return &domain.Facet{
		Key:    "location",
		Label:  "Location",
		Type:   string(domain.AttributeEnum),
		Values: values,
	}
}

func scopedLabel(category *domain.Category) string {
	if category == nil {
		return "global"
	}
	return "category"
}
