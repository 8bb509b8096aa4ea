package controller

import (
	"screentosong-be/internal/dto"
	"screentosong-be/internal/pkg/serverutils"
	"screentosong-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ILyricsController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
	ClearSession(ctx *fiber.Ctx) error
}

type lyricsController struct {
	lyricsService service.ILyricsService
}

func NewLyricsController(lyricsService service.ILyricsService) ILyricsController {
	return &lyricsController{
		lyricsService: lyricsService,
	}
}

func (c *lyricsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/lyrics/v1")
	h.Post("generate", c.Generate)
	h.Get("history", c.History)
	h.Get("export", c.Export)

	s := r.Group("/session/v1")
	s.Post("clear", c.ClearSession)
}

func (c *lyricsController) Generate(ctx *fiber.Ctx) error {
	var req dto.GenerateLyricsRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.lyricsService.Generate(ctx.Context(), sessionID(ctx), req.Genre)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Verse generated", res))
}

func (c *lyricsController) History(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 0)
	res := c.lyricsService.History(sessionID(ctx), limit)
	return ctx.JSON(serverutils.SuccessResponse("Lyric history", res))
}

func (c *lyricsController) Export(ctx *fiber.Ctx) error {
	text := c.lyricsService.ExportText(sessionID(ctx))
	ctx.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="lyrics.txt"`)
	return ctx.SendString(text)
}

func (c *lyricsController) ClearSession(ctx *fiber.Ctx) error {
	res := c.lyricsService.ClearSession(ctx.Context(), sessionID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Session cleared", res))
}
