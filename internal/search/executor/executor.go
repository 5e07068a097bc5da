// internal/search/executor/executor.go
package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"sante-search/internal/adapters"
	"sante-search/internal/common/logger"
	"sante-search/internal/common/metrics"
	"sante-search/internal/search"
	"sante-search/pkg/registry"
)

// Executor runs a search plan against the resource adapters, isolating
// per-adapter failures. It never returns an error: a fully failed plan comes
// back as an exhausted Result.
type Executor struct {
	adapters       adapters.Set
	registry       *registry.AdapterRegistry
	refiner        *Refiner
	defaultTimeout time.Duration
	backends       map[search.Category]string
	logger         logger.Logger
}

// Result is what one plan execution produced, trace material included.
type Result struct {
	Results   []search.ResourceResult
	Outcomes  []search.CategoryOutcome
	ServedBy  search.Category
	Mode      string
	Exhausted bool
}

func New(set adapters.Set, reg *registry.AdapterRegistry, refiner *Refiner,
	defaultTimeout time.Duration, backends map[search.Category]string, log logger.Logger) *Executor {
	return &Executor{
		adapters:       set,
		registry:       reg,
		refiner:        refiner,
		defaultTimeout: defaultTimeout,
		backends:       backends,
		logger:         log,
	}
}

// Execute runs the plan in its declared mode, then applies the local
// geographic refinement pass to categories whose adapter cannot filter
// geography server-side.
func (e *Executor) Execute(ctx context.Context, plan *search.Plan) *Result {
	var result *Result
	if plan.Parallel {
		result = e.executeParallel(ctx, plan)
	} else {
		result = e.executeSequential(ctx, plan)
	}

	for i := range result.Results {
		e.refine(ctx, plan, &result.Results[i])
	}

	outcome := "served"
	if result.Exhausted {
		outcome = "exhausted"
	}
	metrics.PlanExecutions.WithLabelValues(result.Mode, outcome).Inc()
	return result
}

// executeSequential walks the plan order and stops at the first adapter that
// succeeds with at least one item. A failure or an empty success both advance
// the chain; nothing is retried.
func (e *Executor) executeSequential(ctx context.Context, plan *search.Plan) *Result {
	result := &Result{Mode: "sequential"}
	categories := plan.Categories()

	for i, category := range categories {
		rr, outcome := e.callAdapter(ctx, category, plan.Params[category])
		result.Outcomes = append(result.Outcomes, outcome)

		if rr.Success && len(rr.Items) > 0 {
			result.Results = append(result.Results, rr)
			result.ServedBy = category
			for _, skipped := range categories[i+1:] {
				result.Outcomes = append(result.Outcomes, search.CategoryOutcome{
					Category: skipped,
					Status:   search.OutcomeSkipped,
				})
			}
			if i > 0 {
				metrics.FallbacksUsed.WithLabelValues(string(category)).Inc()
			}
			return result
		}
	}

	result.Exhausted = true
	return result
}

// executeParallel fans out over every planned category at once. Each call
// writes only its own slot; merge order is fixed by the plan, never by
// completion timing.
func (e *Executor) executeParallel(ctx context.Context, plan *search.Plan) *Result {
	result := &Result{Mode: "parallel"}
	categories := plan.Categories()

	slots := make([]search.ResourceResult, len(categories))
	outcomes := make([]search.CategoryOutcome, len(categories))

	var wg sync.WaitGroup
	for i, category := range categories {
		wg.Add(1)
		go func(slot int, category search.Category) {
			defer wg.Done()
			slots[slot], outcomes[slot] = e.callAdapter(ctx, category, plan.Params[category])
		}(i, category)
	}
	wg.Wait()

	anySuccess := false
	for i, rr := range slots {
		result.Outcomes = append(result.Outcomes, outcomes[i])
		if !rr.Success {
			continue
		}
		anySuccess = true
		result.Results = append(result.Results, rr)
		if result.ServedBy == "" && len(rr.Items) > 0 {
			result.ServedBy = categories[i]
		}
	}
	result.Exhausted = !anySuccess
	return result
}

// callAdapter performs one bounded adapter call and translates the outcome
// for the trace. Adapter panics are not expected; errors and timeouts are.
func (e *Executor) callAdapter(ctx context.Context, category search.Category, params search.Params) (search.ResourceResult, search.CategoryOutcome) {
	rr := search.ResourceResult{Category: category}
	outcome := search.CategoryOutcome{Category: category}

	adapter, ok := e.adapters.Get(category)
	if !ok {
		rr.Error = "no adapter registered"
		outcome.Status = search.OutcomeFailed
		outcome.Error = rr.Error
		return rr, outcome
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeoutFor(category))
	defer cancel()

	metrics.AdapterCalls.WithLabelValues(string(category), e.backendFor(category)).Inc()
	start := time.Now()
	items, err := adapter.Search(callCtx, params)
	elapsed := time.Since(start)

	metrics.AdapterDuration.WithLabelValues(string(category)).Observe(elapsed.Seconds())
	outcome.DurationMS = elapsed.Milliseconds()

	switch {
	case err != nil && (errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded):
		rr.Error = "timeout"
		outcome.Status = search.OutcomeTimeout
		outcome.Error = rr.Error
		metrics.AdapterFailures.WithLabelValues(string(category), "timeout").Inc()
	case err != nil:
		rr.Error = err.Error()
		outcome.Status = search.OutcomeFailed
		outcome.Error = rr.Error
		metrics.AdapterFailures.WithLabelValues(string(category), "error").Inc()
	default:
		rr.Success = true
		rr.Items = items
		outcome.ItemCount = len(items)
		if len(items) == 0 {
			outcome.Status = search.OutcomeEmpty
		} else {
			outcome.Status = search.OutcomeOK
		}
	}

	e.logger.Debug("adapter call finished", map[string]interface{}{
		"category": string(category),
		"status":   outcome.Status,
		"items":    outcome.ItemCount,
		"duration": elapsed.String(),
	})
	return rr, outcome
}

func (e *Executor) timeoutFor(category search.Category) time.Duration {
	if spec, ok := e.registry.Get(string(category)); ok && spec.TimeoutMS > 0 {
		return time.Duration(spec.TimeoutMS) * time.Millisecond
	}
	return e.defaultTimeout
}

func (e *Executor) backendFor(category search.Category) string {
	if b, ok := e.backends[category]; ok {
		return b
	}
	return "gateway"
}

// refine re-ranks one result's items by location-match quality. Server-side
// filtered categories only get the annotation; the others get the full
// secondary-lookup pass.
func (e *Executor) refine(ctx context.Context, plan *search.Plan, rr *search.ResourceResult) {
	if plan.RequestedPostal == "" && plan.RequestedCity == "" {
		return
	}
	spec, ok := e.registry.Get(string(rr.Category))
	if ok && spec.ServerSideGeo {
		for _, item := range rr.Items {
			item[search.ItemKeyLocMatch] = string(search.MatchExact)
		}
		return
	}
	if e.refiner != nil {
		e.refiner.Refine(ctx, plan, rr)
	}
}
