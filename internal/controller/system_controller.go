package controller

import (
	"policylens-be/internal/dto"
	"policylens-be/internal/pkg/serverutils"
	"policylens-be/pkg/policy"

	"github.com/gofiber/fiber/v2"
)

type ISystemController interface {
	RegisterRoutes(r fiber.Router)
	Root(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
	Policy(ctx *fiber.Ctx) error
}

// HealthCheck reports whether an optional dependency is connected.
type HealthCheck func() bool

type systemController struct {
	usage  dto.ModelUsagePolicy
	checks map[string]HealthCheck
}

func NewSystemController(provider, model string, temperature float64, checks map[string]HealthCheck) ISystemController {
	return &systemController{
		usage: dto.ModelUsagePolicy{
			Allowed: []string{
				"intent classification",
				"slot extraction",
			},
			NotAllowed: []string{
				"generating factual answers directly",
				"inventing dates, weights, policies, emails",
			},
			Provider:       provider,
			Model:          model,
			Temperature:    temperature,
			JSONValidation: "strict - if parse fails, refuse",
		},
		checks: checks,
	}
}

func (c *systemController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
	r.Get("/policy", c.Policy)
}

func (c *systemController) Root(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Course Policy QA API", fiber.Map{
		"endpoints": fiber.Map{
			"health":   "GET /api/health",
			"policy":   "GET /api/policy",
			"courses":  "GET /api/courses",
			"query":    "POST /api/query",
			"stream":   "POST /api/query/stream",
			"ws":       "GET /api/query/ws",
			"calendar": "GET /api/courses/:course/calendar.ics",
		},
	}))
}

func (c *systemController) Health(ctx *fiber.Ctx) error {
	components := make(map[string]bool, len(c.checks))
	for name, check := range c.checks {
		components[name] = check()
	}
	return ctx.JSON(fiber.Map{
		"status":     "ok",
		"components": components,
	})
}

func (c *systemController) Policy(ctx *fiber.Ctx) error {
	intents := make([]string, 0, len(policy.AllIntents))
	for _, i := range policy.AllIntents {
		intents = append(intents, string(i))
	}

	return ctx.JSON(serverutils.SuccessResponse("Model usage policy", dto.PolicyInfoResponse{
		ModelUsage:              c.usage,
		Architecture:            "Local LLM is router; facts documents and validator enforce correctness.",
		MinClassifierConfidence: policy.MinClassifierConfidence,
		MinFallbackConfidence:   policy.MinFallbackConfidence,
		Intents:                 intents,
		Slots:                   policy.KnownSlots,
	}))
}
