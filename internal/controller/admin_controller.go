package controller

import (
	"errors"
	"strconv"

	"policylens-be/internal/dto"
	"policylens-be/internal/pkg/serverutils"
	"policylens-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	ReloadCourse(ctx *fiber.Ctx) error
	ReloadAll(ctx *fiber.Ctx) error
	IndexStats(ctx *fiber.Ctx) error
	GetQueries(ctx *fiber.Ctx) error
	GetQueryStats(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
	GetSessions(ctx *fiber.Ctx) error
}

// SessionCounter reports open websocket query sessions per course.
type SessionCounter interface {
	Sessions() map[string]int
}

type adminController struct {
	service         service.IAdminService
	courseService   service.ICourseService
	queryService    service.IQueryService
	sessions        SessionCounter
	adminMiddleware fiber.Handler
}

func NewAdminController(
	service service.IAdminService,
	courseService service.ICourseService,
	queryService service.IQueryService,
	sessions SessionCounter,
	jwtSecret string,
) IAdminController {
	return &adminController{
		service:         service,
		courseService:   courseService,
		queryService:    queryService,
		sessions:        sessions,
		adminMiddleware: serverutils.NewAdminMiddleware(jwtSecret),
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(c.adminMiddleware)

	// Documents
	h.Post("/reload", c.ReloadAll)
	h.Post("/courses/:course/reload", c.ReloadCourse)
	h.Get("/courses/:course/index", c.IndexStats)

	// Query audit
	h.Get("/queries", c.GetQueries)
	h.Get("/queries/stats", c.GetQueryStats)

	// Operations
	h.Get("/logs", c.GetLogs)
	h.Get("/sessions", c.GetSessions)
}

func (c *adminController) ReloadCourse(ctx *fiber.Ctx) error {
	res, err := c.service.ReloadCourse(ctx.UserContext(), ctx.Params("course"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Course reloaded", res))
}

func (c *adminController) ReloadAll(ctx *fiber.Ctx) error {
	res, err := c.service.ReloadAll(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("All courses reloaded", res))
}

func (c *adminController) IndexStats(ctx *fiber.Ctx) error {
	res, err := c.courseService.IndexStats(ctx.UserContext(), ctx.Params("course"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Index stats", res))
}

func (c *adminController) GetQueries(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "20"))

	req := &dto.QueryHistoryRequest{
		Course: ctx.Query("course"),
		Page:   page,
		Limit:  limit,
	}
	if raw := ctx.Query("refused"); raw != "" {
		refused, err := strconv.ParseBool(raw)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "refused must be true or false"))
		}
		req.Refused = &refused
	}

	logs, err := c.queryService.History(ctx.UserContext(), req)
	if err != nil {
		return historyError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Query history", logs))
}

func (c *adminController) GetQueryStats(ctx *fiber.Ctx) error {
	stats, err := c.queryService.Stats(ctx.UserContext(), ctx.Query("course"))
	if err != nil {
		return historyError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Query stats", stats))
}

func historyError(ctx *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrHistoryUnavailable) {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(503, err.Error()))
	}
	return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))
	level := ctx.Query("level", "")

	logs, err := c.service.GetSystemLogs(ctx.UserContext(), level, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *adminController) GetSessions(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Live query sessions", c.sessions.Sessions()))
}
