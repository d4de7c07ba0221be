package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/llm"
	"policylens-be/pkg/policy"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("policylens/classifier")

// Upper bound on generated tokens for one classification object.
const maxResponseTokens = 256

// Config is injected at construction; nothing is read from globals.
type Config struct {
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Classifier turns a question into routing metadata. It never produces facts.
type Classifier struct {
	provider llm.LLMProvider
	cfg      Config
	logger   logger.ILogger
}

func New(provider llm.LLMProvider, cfg Config, log logger.ILogger) *Classifier {
	return &Classifier{provider: provider, cfg: cfg, logger: log}
}

func (c *Classifier) Config() Config {
	return c.cfg
}

// Classify makes one backend call. Every failure is a *policy.ClassificationError;
// no retry is attempted here.
func (c *Classifier) Classify(ctx context.Context, question string) (*policy.Classification, error) {
	ctx, span := tracer.Start(ctx, "classifier.classify", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	opts := []llm.Option{llm.WithTemperature(c.cfg.Temperature), llm.WithJSONFormat(), llm.WithMaxTokens(maxResponseTokens)}
	if c.cfg.Model != "" {
		opts = append(opts, llm.WithModel(c.cfg.Model))
	}

	started := time.Now()
	response, err := c.provider.Chat(ctx, buildMessages(question), opts...)
	if err != nil {
		kind := policy.KindUnavailable
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = policy.KindTimeout
		}
		c.logger.Warn("CLASSIFIER", "Backend call failed", map[string]interface{}{
			"kind":  kind,
			"error": err.Error(),
		})
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		return nil, policy.NewClassificationError(kind, err)
	}

	result, err := Parse(response)
	if err != nil {
		c.logger.Warn("CLASSIFIER", "Unusable classifier output", map[string]interface{}{
			"error":    err.Error(),
			"response": truncate(response, 300),
		})
		span.SetStatus(codes.Error, "malformed output")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("intent", string(result.Intent)),
		attribute.Float64("confidence", result.Confidence),
	)
	c.logger.Debug("CLASSIFIER", "Question classified", map[string]interface{}{
		"intent":     result.Intent,
		"slots":      result.Slots,
		"confidence": result.Confidence,
		"duration":   time.Since(started).String(),
	})
	return result, nil
}

type rawClassification struct {
	Intent     *string                    `json:"intent"`
	Slots      map[string]json.RawMessage `json:"slots"`
	Confidence *json.Number               `json:"confidence"`
}

// Parse validates a backend payload strictly.
func Parse(response string) (*policy.Classification, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, policy.NewClassificationError(policy.KindMalformed, errors.New("no JSON object in response"))
	}

	dec := json.NewDecoder(strings.NewReader(jsonContent))
	dec.UseNumber()
	var raw rawClassification
	if err := dec.Decode(&raw); err != nil {
		return nil, policy.NewClassificationError(policy.KindMalformed, fmt.Errorf("JSON unmarshal failed: %w", err))
	}

	if raw.Intent == nil {
		return nil, policy.NewClassificationError(policy.KindMissingField, errors.New("intent is missing"))
	}
	if raw.Confidence == nil {
		return nil, policy.NewClassificationError(policy.KindMissingField, errors.New("confidence is missing"))
	}

	intent, ok := policy.ParseIntent(*raw.Intent)
	if !ok {
		return nil, policy.NewClassificationError(policy.KindUnknownIntent, fmt.Errorf("unknown intent %q", *raw.Intent))
	}

	confidence, err := raw.Confidence.Float64()
	if err != nil || math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return nil, policy.NewClassificationError(policy.KindConfidenceRange, fmt.Errorf("confidence %s outside [0,1]", raw.Confidence.String()))
	}

	return &policy.Classification{
		Intent:     intent,
		Slots:      parseSlots(raw.Slots),
		Confidence: confidence,
	}, nil
}

func parseSlots(raw map[string]json.RawMessage) policy.Slots {
	slots := policy.Slots{}
	for name, value := range raw {
		var v interface{}
		dec := json.NewDecoder(strings.NewReader(string(value)))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" && !strings.EqualFold(s, "null") {
				slots[strings.ToLower(name)] = s
			}
		case json.Number:
			// integral values within float64's exact range print without a decimal point
			if n, err := strconv.ParseFloat(t.String(), 64); err == nil && n == math.Trunc(n) && math.Abs(n) < 1<<53 {
				slots[strings.ToLower(name)] = strconv.FormatInt(int64(n), 10)
			} else {
				slots[strings.ToLower(name)] = t.String()
			}
		}
	}
	return slots.Clean()
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
