package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"policylens-be/internal/dto"
	"policylens-be/internal/pkg/serverutils"
	"policylens-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQueryController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
}

type queryController struct {
	service service.IQueryService
}

func NewQueryController(service service.IQueryService) IQueryController {
	return &queryController{service: service}
}

func (c *queryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/query")
	h.Post("", c.Query)
	h.Post("/stream", c.Stream)
}

func parseQuery(ctx *fiber.Ctx) (*dto.QueryRequest, error) {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	if req.Course == "" {
		req.Course = ctx.Query("course")
	}
	return &req, nil
}

func (c *queryController) Query(ctx *fiber.Ctx) error {
	req, err := parseQuery(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Query resolved", res))
}

// Stream answers as server-sent events: chunk..., citations, done.
func (c *queryController) Stream(ctx *fiber.Ctx) error {
	req, err := parseQuery(ctx)
	if err != nil {
		return err
	}

	// The body writer outlives the handler, so it cannot use the request context.
	streamCtx, cancel := context.WithCancel(context.Background())
	events, err := c.service.Stream(streamCtx, req)
	if err != nil {
		cancel()
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for ev := range events {
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}
