package controller

import (
	"screentosong-be/internal/dto"
	"screentosong-be/internal/pkg/serverutils"
	"screentosong-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRenderController interface {
	RegisterRoutes(r fiber.Router)
	Sing(ctx *fiber.Ctx) error
	Video(ctx *fiber.Ctx) error
}

type renderController struct {
	renderService service.IRenderService
}

func NewRenderController(renderService service.IRenderService) IRenderController {
	return &renderController{
		renderService: renderService,
	}
}

func (c *renderController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/render/v1")
	h.Post("sing", c.Sing)
	h.Post("video", c.Video)
}

func (c *renderController) Sing(ctx *fiber.Ctx) error {
	var req dto.SingRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.renderService.Sing(ctx.Context(), sessionID(ctx), req.Genre, req.Mood)
	if err != nil {
		return err
	}

	if ctx.Query("download") == "1" {
		return ctx.Download(res.Path, "song.mp3")
	}
	return ctx.JSON(serverutils.SuccessResponse("Song rendered", res))
}

func (c *renderController) Video(ctx *fiber.Ctx) error {
	var req dto.SingRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.renderService.Video(ctx.Context(), sessionID(ctx), req.Genre, req.Mood)
	if err != nil {
		return err
	}

	if ctx.Query("download") == "1" {
		return ctx.Download(res.Path, "video.mp4")
	}
	return ctx.JSON(serverutils.SuccessResponse("Video rendered", res))
}
