package composer

import (
	"context"
	"errors"
	"strings"
	"time"

	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/policy"
	"policylens-be/pkg/policy/fallback"
	"policylens-be/pkg/policy/validator"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("policylens/composer")

type Classifier interface {
	Classify(ctx context.Context, question string) (*policy.Classification, error)
}

type FactsLookup interface {
	Lookup(ctx context.Context, intent policy.Intent, slots policy.Slots, course policy.Course) ([]policy.FactRecord, error)
}

type FallbackSearcher interface {
	Search(ctx context.Context, intent policy.Intent, slots policy.Slots, course policy.Course) (*fallback.Match, float64, error)
	Contact(ctx context.Context, course policy.Course) string
}

type CourseResolver interface {
	Resolve(selector string) (policy.Course, error)
}

type Request struct {
	Question string
	Course   string
}

type State string

const (
	StateReceived        State = "Received"
	StateClassified      State = "Classified"
	StateChitchat        State = "Chitchat"
	StateRejected        State = "Rejected"
	StateLookup          State = "Lookup"
	StateStructuredFound State = "StructuredFound"
	StateStructuredEmpty State = "StructuredEmpty"
	StateFallbackSearch  State = "FallbackSearch"
	StateFallbackFound   State = "FallbackFound"
	StateFallbackEmpty   State = "FallbackEmpty"
	StateAnswered        State = "Answered"
	StateRefused         State = "Refused"
)

// Composer is the only component that knows every other one.
type Composer struct {
	courses    CourseResolver
	classifier Classifier
	facts      FactsLookup
	fallback   FallbackSearcher
	logger     logger.ILogger
}

func New(courses CourseResolver, classifier Classifier, facts FactsLookup, fb FallbackSearcher, log logger.ILogger) *Composer {
	return &Composer{
		courses:    courses,
		classifier: classifier,
		facts:      facts,
		fallback:   fb,
		logger:     log,
	}
}

// Resolve answers one question. The only error it returns is
// policy.ErrCourseNotFound, raised before classification.
func (c *Composer) Resolve(ctx context.Context, req Request) (*policy.QueryResult, error) {
	result, _, err := c.ResolveTrace(ctx, req)
	return result, err
}

// ResolveTrace is Resolve plus the visited state path.
func (c *Composer) ResolveTrace(ctx context.Context, req Request) (*policy.QueryResult, []State, error) {
	ctx, span := tracer.Start(ctx, "composer.resolve")
	defer span.End()

	course, err := c.courses.Resolve(req.Course)
	if err != nil {
		return nil, nil, err
	}
	span.SetAttributes(attribute.String("course", course.Slug))

	started := time.Now()
	run := &resolution{c: c, course: course, path: []State{StateReceived}}
	result := run.execute(ctx, strings.TrimSpace(req.Question))

	span.SetAttributes(
		attribute.String("intent", string(result.Intent)),
		attribute.Bool("refused", result.Refused),
	)
	c.logger.Info("COMPOSER", "Query resolved", map[string]interface{}{
		"course":       course.Slug,
		"intent":       result.Intent,
		"slots":        result.SlotsUsed,
		"refused":      result.Refused,
		"refusal_code": result.RefusalCode,
		"citations":    len(result.Citations),
		"path":         run.path,
		"duration":     time.Since(started).String(),
	})
	return result, run.path, nil
}

// resolution carries the per-query state of one Resolve call.
type resolution struct {
	c      *Composer
	course policy.Course
	path   []State
}

func (r *resolution) enter(s State) {
	r.path = append(r.path, s)
}

func (r *resolution) execute(ctx context.Context, question string) *policy.QueryResult {
	if question == "" {
		r.enter(StateRejected)
		return r.refuse(ctx, policy.IntentOutOfScope, nil, policy.RefusalEmptyQuestion, "Empty question.")
	}

	classification, err := r.c.classifier.Classify(ctx, question)
	r.enter(StateClassified)

	decision := validator.Validate(classification, err)
	if !decision.Accepted {
		r.enter(StateRejected)
		intent := policy.IntentOutOfScope
		var slots policy.Slots
		if classification != nil {
			intent = classification.Intent
			slots = classification.Slots
		}
		return r.refuse(ctx, intent, slots, decision.Code, decision.Reason)
	}

	intent, slots := classification.Intent, classification.Slots.Clean()
	if intent.IsChitchat() {
		r.enter(StateChitchat)
		r.enter(StateAnswered)
		return answered(intent, slots, r.course, cannedReply(intent), nil)
	}

	r.enter(StateLookup)
	records, err := r.c.facts.Lookup(ctx, intent, slots, r.course)
	if err != nil {
		var le *policy.LookupError
		if !errors.As(err, &le) {
			err = &policy.LookupError{Course: r.course.Slug, Err: err}
		}
		r.c.logger.Error("COMPOSER", "Facts lookup failed", map[string]interface{}{
			"course": r.course.Slug,
			"error":  err.Error(),
		})
		return r.refuse(ctx, intent, slots, policy.RefusalFactsUnavailable,
			"Course facts are unavailable for "+r.course.Name+".")
	}

	if len(records) > 0 {
		r.enter(StateStructuredFound)
		r.enter(StateAnswered)
		answer, citations := composeStructured(intent, slots, records)
		return answered(intent, slots, r.course, answer, citations)
	}

	r.enter(StateStructuredEmpty)
	r.enter(StateFallbackSearch)
	match, confidence, err := r.c.fallback.Search(ctx, intent, slots, r.course)
	if err != nil {
		r.c.logger.Warn("COMPOSER", "Fallback unavailable", map[string]interface{}{
			"course": r.course.Slug,
			"error":  err.Error(),
		})
	}
	if err == nil && match != nil {
		r.enter(StateFallbackFound)
		r.enter(StateAnswered)
		r.c.logger.Debug("COMPOSER", "Answered from policy document", map[string]interface{}{
			"course":     r.course.Slug,
			"anchor":     match.Unit.Anchor,
			"confidence": confidence,
		})
		return answered(intent, slots, r.course, match.Answer(), []policy.Citation{match.Citation()})
	}

	r.enter(StateFallbackEmpty)
	return r.refuse(ctx, intent, slots, policy.RefusalNoMatch, "No matching facts in course materials.")
}

func (r *resolution) refuse(ctx context.Context, intent policy.Intent, slots policy.Slots, code policy.RefusalCode, reason string) *policy.QueryResult {
	r.enter(StateRefused)
	contact := r.c.fallback.Contact(ctx, r.course)
	if slots == nil {
		slots = policy.Slots{}
	}
	return &policy.QueryResult{
		Answer:        refusalMessage(contact),
		Citations:     []policy.Citation{},
		Intent:        intent,
		SlotsUsed:     slots.Clean(),
		Refused:       true,
		RefusalReason: reason,
		RefusalCode:   code,
		Course:        r.course.Name,
	}
}

func answered(intent policy.Intent, slots policy.Slots, course policy.Course, answer string, citations []policy.Citation) *policy.QueryResult {
	if citations == nil {
		citations = []policy.Citation{}
	}
	return &policy.QueryResult{
		Answer:    answer,
		Citations: citations,
		Intent:    intent,
		SlotsUsed: slots,
		Course:    course.Name,
	}
}
