package controller

import (
	"os/exec"

	"screentosong-be/internal/config"
	"screentosong-be/internal/dto"
	"screentosong-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Root(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	cfg *config.Config
}

func NewHealthController(cfg *config.Config) IHealthController {
	return &healthController{cfg: cfg}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("health", c.Health)
}

func (c *healthController) Root(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"name":   "screentosong-be",
		"status": "ok",
	})
}

// Health reports which external capabilities this deployment can actually
// serve, so the capture client can grey out unusable features.
func (c *healthController) Health(ctx *fiber.Ctx) error {
	_, ffmpegErr := exec.LookPath(c.cfg.Render.FFmpegPath)

	res := dto.HealthResponse{
		Status: "ok",
		Vision: c.cfg.Keys.Anthropic != "" || c.cfg.Keys.OpenAI != "",
		Lyrics: c.cfg.Keys.Anthropic != "" || c.cfg.Keys.OpenAI != "" || c.cfg.Ai.LLMProvider == "ollama",
		TTS:    c.cfg.Keys.ElevenLabs != "",
		FFmpeg: ffmpegErr == nil,
	}
	return ctx.JSON(serverutils.SuccessResponse("Health", res))
}
