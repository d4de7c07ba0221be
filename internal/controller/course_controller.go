package controller

import (
	"fmt"

	"policylens-be/internal/pkg/serverutils"
	"policylens-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICourseController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Calendar(ctx *fiber.Ctx) error
}

type courseController struct {
	service service.ICourseService
}

func NewCourseController(service service.ICourseService) ICourseController {
	return &courseController{service: service}
}

func (c *courseController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/courses")
	h.Get("", c.GetAll)
	h.Get("/:course/calendar.ics", c.Calendar)
}

func (c *courseController) GetAll(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get all courses", c.service.List(ctx.UserContext())))
}

func (c *courseController) Calendar(ctx *fiber.Ctx) error {
	ics, course, err := c.service.Calendar(ctx.UserContext(), ctx.Params("course"))
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", course.Slug+"_due_dates.ics"))
	return ctx.Send(ics)
}
