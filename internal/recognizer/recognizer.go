package recognizer

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/mkaryagin/voxquest/internal/catalog"
	"github.com/mkaryagin/voxquest/internal/extract"
	"github.com/mkaryagin/voxquest/internal/llm"
	"github.com/mkaryagin/voxquest/internal/models"
	"github.com/mkaryagin/voxquest/internal/prompt"
)

// Pipeline stages, for logging and failure reporting.
const (
	stageRouting     = "routing"
	stageDispatching = "dispatching"
)

// Recognizer runs the two-stage recognition protocol: a routing call
// against the base definition picks a specialist category, a dispatching
// call against that specialist extracts the concrete command, and the
// confidence gate decides recognized/unrecognized.
//
// A Recognizer is stateless between requests and safe for concurrent use;
// the catalog it reads is immutable after startup.
type Recognizer struct {
	registry  *catalog.Registry
	composer  *prompt.Composer
	client    llm.Client
	opts      llm.Options
	threshold float64
	log       *zap.Logger
}

func New(registry *catalog.Registry, composer *prompt.Composer, client llm.Client, opts llm.Options, threshold float64, log *zap.Logger) *Recognizer {
	return &Recognizer{
		registry:  registry,
		composer:  composer,
		client:    client,
		opts:      opts,
		threshold: threshold,
		log:       log,
	}
}

// Threshold returns the process-wide confidence threshold.
func (r *Recognizer) Threshold() float64 { return r.threshold }

// Recognize classifies and extracts one player command. It always returns
// a well-formed result: every backend or extraction failure is converted
// into an unrecognized result with a diagnostic reason. The two backend
// calls are strictly sequential and both honor ctx cancellation.
func (r *Recognizer) Recognize(ctx context.Context, text string, gctx models.ContextSnapshot) *models.RecognitionResult {
	if strings.TrimSpace(text) == "" {
		return &models.RecognitionResult{Reason: models.ReasonEmptyInput}
	}

	// Routing stage.
	answer, err := r.stage(ctx, r.registry.Router(), text, gctx)
	if err != nil {
		return r.failed(stageRouting, err)
	}
	if answer.Null {
		return &models.RecognitionResult{Reason: models.ReasonNotACommand}
	}
	decision := answer.Route()

	if !Gate(decision.Confidence, r.threshold) {
		r.log.Debug("routing confidence below threshold",
			zap.String("category", decision.Category),
			zap.Float64("confidence", decision.Confidence))
		return &models.RecognitionResult{
			Reason:                models.ReasonLowRoutingConfidence,
			Confidence:            decision.Confidence,
			Explanation:           decision.Explanation,
			AlternativeCategories: decision.Alternatives,
		}
	}

	category := r.pickCategory(decision)
	specialist, ok := r.registry.Get(category)
	if !ok || category == catalog.RouterName {
		r.log.Debug("router chose unknown category", zap.String("category", category))
		return &models.RecognitionResult{
			Reason:      models.ReasonUnknownCategory,
			Confidence:  decision.Confidence,
			Explanation: decision.Explanation,
		}
	}

	// Dispatching stage.
	answer, err = r.stage(ctx, specialist, text, gctx)
	if err != nil {
		return r.failed(stageDispatching, err)
	}
	if answer.Null {
		return &models.RecognitionResult{
			Category: category,
			Reason:   models.ReasonNotACommand,
		}
	}
	cmd := answer.Command()

	// The final confidence is the specialist's, not the router's: routing
	// measures which bucket, dispatching measures how clear the concrete
	// command was.
	result := &models.RecognitionResult{
		Recognized:            Gate(cmd.Confidence, r.threshold),
		Category:              category,
		Command:               cmd,
		Confidence:            cmd.Confidence,
		Explanation:           decision.Explanation,
		AlternativeCategories: decision.Alternatives,
	}
	if !result.Recognized {
		result.Reason = models.ReasonLowConfidence
	}

	r.log.Info("command processed",
		zap.String("category", category),
		zap.Bool("recognized", result.Recognized),
		zap.Float64("confidence", result.Confidence))
	return result
}

// stage runs one compose+complete+extract cycle against a definition.
func (r *Recognizer) stage(ctx context.Context, def *catalog.Definition, text string, gctx models.ContextSnapshot) (*extract.Answer, error) {
	p, err := r.composer.Compose(def, text, gctx)
	if err != nil {
		return nil, err
	}
	reply, err := r.client.Complete(ctx, p, r.opts)
	if err != nil {
		return nil, err
	}
	return extract.Extract(reply, def.ResponseSchema)
}

// pickCategory resolves the router's decision to a single category. Bare
// alternative_types entries carry no score of their own, so they count as
// equal-confidence candidates; equal confidence is broken by catalog
// declaration order for reproducibility.
func (r *Recognizer) pickCategory(d *models.RouteDecision) string {
	best := d.Category
	for _, alt := range d.Alternatives {
		if r.registry.OrderIndex(alt) < r.registry.OrderIndex(best) {
			best = alt
		}
	}
	return best
}

// failed converts a stage error into the Failed-state result the caller
// can always hand to the player. Backend trouble and garbled model output
// are both normal occasional outcomes, not crash conditions.
func (r *Recognizer) failed(stage string, err error) *models.RecognitionResult {
	reason := models.ReasonRoutingFailed
	if stage == stageDispatching {
		reason = models.ReasonDispatchFailed
	}
	if errors.Is(err, llm.ErrBackendUnavailable) || errors.Is(err, llm.ErrBackendError) {
		reason = models.ReasonBackendUnavailable
	}
	r.log.Warn("recognition stage failed",
		zap.String("stage", stage),
		zap.String("reason", reason),
		zap.Error(err))
	return &models.RecognitionResult{Reason: reason}
}
