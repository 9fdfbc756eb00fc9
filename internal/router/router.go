// Package router picks inference endpoints for a message and walks the
// fallback chain until one answers.
package router

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xaenox/cladari/internal/classifier"
	"github.com/xaenox/cladari/internal/inference"
	"github.com/xaenox/cladari/internal/metrics"
	"github.com/xaenox/cladari/internal/models"
	"github.com/xaenox/cladari/internal/prompt"
)

// TierFallback is reported when the exhaustion text answered.
const TierFallback = "fallback"

// ContextSource supplies best-effort plant context for a message.
type ContextSource interface {
	Context(ctx context.Context, message string) string
}

// Result is what Route produced and which tier produced it.
type Result struct {
	Category models.Category
	Tier     string
	Text     string
}

type Router struct {
	classifier classifier.Classifier
	completer  inference.Completer
	plants     ContextSource
	endpoints  map[string]models.Endpoint
	plans      map[models.Category]Plan
	logger     *zap.Logger
}

// New checks that every category has a plan and every step names a known
// endpoint. plants may be nil to disable context enrichment.
func New(
	clf classifier.Classifier,
	completer inference.Completer,
	plants ContextSource,
	endpoints []models.Endpoint,
	plans map[models.Category]Plan,
	logger *zap.Logger,
) (*Router, error) {
	byName := make(map[string]models.Endpoint, len(endpoints))
	for _, ep := range endpoints {
		byName[ep.Name] = ep
	}

	for _, category := range []models.Category{models.CategoryDatabase, models.CategoryScience, models.CategoryGeneral} {
		plan, ok := plans[category]
		if !ok {
			return nil, fmt.Errorf("no plan for category %q", category)
		}
		if len(plan.Steps) == 0 || plan.Exhausted == nil {
			return nil, fmt.Errorf("incomplete plan for category %q", category)
		}
		for _, step := range plan.Steps {
			if _, ok := byName[step.Endpoint]; !ok {
				return nil, fmt.Errorf("plan for %q references unknown endpoint %q", category, step.Endpoint)
			}
		}
	}

	return &Router{
		classifier: clf,
		completer:  completer,
		plants:     plants,
		endpoints:  byName,
		plans:      plans,
		logger:     logger,
	}, nil
}

// Query returns the final answer text for message. It never fails.
func (r *Router) Query(ctx context.Context, message string) string {
	return r.Route(ctx, message).Text
}

// Route classifies message, gathers plant context when relevant and tries
// the category's steps in order.
func (r *Router) Route(ctx context.Context, message string) Result {
	category := r.classifier.Classify(message)

	var plantContext string
	if r.plants != nil && classifier.IsPlantQuery(message) {
		plantContext = r.plants.Context(ctx, message)
	}

	plan := r.plans[category]
	var (
		last    models.Endpoint
		lastErr error
	)
	for _, step := range plan.Steps {
		ep := r.endpoints[step.Endpoint]

		req := inference.Request{
			Prompt:      prompt.Build(message, plantContext, ep.Persona),
			Messages:    prompt.Messages(message, plantContext, ep.Persona),
			Temperature: ep.Temperature,
		}
		if step.Temperature != nil {
			req.Temperature = *step.Temperature
		}

		text, err := r.completer.Complete(ctx, ep, req)
		if err == nil {
			metrics.Queries.WithLabelValues(string(category), ep.Name).Inc()
			r.logger.Debug("Query answered",
				zap.String("category", string(category)),
				zap.String("endpoint", ep.Name))
			return Result{Category: category, Tier: ep.Name, Text: text}
		}

		r.logger.Warn("Model attempt failed",
			zap.Error(err),
			zap.String("category", string(category)),
			zap.String("endpoint", ep.Name),
			zap.String("model", ep.Model))
		last, lastErr = ep, err
	}

	metrics.Queries.WithLabelValues(string(category), TierFallback).Inc()
	return Result{
		Category: category,
		Tier:     TierFallback,
		Text:     plan.Exhausted(last, lastErr),
	}
}
