// internal/search/engine/engine.go
package engine

import (
	"context"

	"github.com/google/uuid"

	"sante-search/internal/common/logger"
	"sante-search/internal/common/metrics"
	"sante-search/internal/search"
	"sante-search/internal/search/classifier"
	"sante-search/internal/search/executor"
	"sante-search/internal/search/extractor"
	"sante-search/internal/search/formatter"
	"sante-search/internal/search/planner"
)

// Engine is the full interpretation pipeline: extract entities, classify
// intent, plan, execute, format. It guarantees a structured response for any
// query — total plan exhaustion comes back as an empty success=false
// envelope, never as a panic or naked error.
type Engine struct {
	extractor  *extractor.Extractor
	classifier *classifier.Classifier
	planner    *planner.Planner
	executor   *executor.Executor
	formatter  *formatter.Formatter
	logger     logger.Logger
}

func New(ext *extractor.Extractor, cls *classifier.Classifier, pln *planner.Planner,
	exec *executor.Executor, fmtr *formatter.Formatter, log logger.Logger) *Engine {
	return &Engine{
		extractor:  ext,
		classifier: cls,
		planner:    pln,
		executor:   exec,
		formatter:  fmtr,
		logger:     log,
	}
}

// InterpretAndSearch answers one free-form query. The only error path is a
// plan whose parameters the capability registry rejects; everything
// downstream is folded into the response trace.
func (e *Engine) InterpretAndSearch(ctx context.Context, q search.Query) (*search.AggregatedResponse, error) {
	requestID := uuid.New().String()
	log := e.logger.WithFields(map[string]interface{}{"requestId": requestID})

	entities := e.extractor.Extract(q)
	intent := e.classifier.Classify(q, entities)
	if intent.LowConfidence {
		metrics.LowConfidenceQueries.Inc()
	}

	log.Info("query interpreted", map[string]interface{}{
		"query":      q.Text,
		"category":   string(intent.Category),
		"confidence": intent.Confidence,
		"entities":   len(entities),
	})

	plan, err := e.planner.Plan(intent, e.classifier.Scores(q, entities))
	if err != nil {
		return nil, err
	}

	result := e.executor.Execute(ctx, plan)
	response := e.formatter.Format(requestID, plan, result)

	log.Info("search completed", map[string]interface{}{
		"success":  response.Success,
		"count":    response.Count,
		"mode":     response.Trace.Mode,
		"servedBy": string(response.Trace.ServedBy),
	})
	return response, nil
}
