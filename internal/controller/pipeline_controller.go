package controller

import (
	"path/filepath"

	"screentosong-be/internal/dto"
	"screentosong-be/internal/pkg/serverutils"
	"screentosong-be/internal/service"
	"screentosong-be/pkg/llm"
	"screentosong-be/pkg/pipeline"

	"github.com/gofiber/fiber/v2"
)

type IPipelineController interface {
	RegisterRoutes(r fiber.Router)
	Run(ctx *fiber.Ctx) error
}

type pipelineController struct {
	sceneService  service.ISceneService
	lyricsService service.ILyricsService
	renderService service.IRenderService
	critic        llm.Provider // nil disables the critique stage
}

func NewPipelineController(
	sceneService service.ISceneService,
	lyricsService service.ILyricsService,
	renderService service.IRenderService,
	critic llm.Provider,
) IPipelineController {
	return &pipelineController{
		sceneService:  sceneService,
		lyricsService: lyricsService,
		renderService: renderService,
		critic:        critic,
	}
}

func (c *pipelineController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/pipeline/v1")
	h.Post("run", c.Run)
}

// Run drives the one-click flow: analyze the uploaded frame, write lyrics,
// self-critique, then render audio (and video when asked). The trace of every
// stage comes back regardless of partial failures.
func (c *pipelineController) Run(ctx *fiber.Ctx) error {
	image, err := readUploadedFrame(ctx)
	if err != nil {
		return err
	}

	var req dto.RunPipelineRequest
	if err := ctx.BodyParser(&req); err != nil {
		// raw-frame uploads carry no form fields
		req = dto.RunPipelineRequest{}
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	sid := sessionID(ctx)

	opts := []pipeline.Option{
		pipeline.WithRenderer(service.NewPipelineRenderer(c.renderService, sid)),
	}
	if c.critic != nil {
		opts = append(opts, pipeline.WithCritic(c.critic))
	}
	runner := pipeline.NewRunner(
		service.NewPipelineAnalyzer(c.sceneService),
		service.NewPipelineWriter(c.lyricsService, req.Genre),
		opts...,
	)

	res := runner.Run(ctx.Context(), pipeline.Request{
		SessionID: sid,
		Image:     image,
		Genre:     req.Genre,
		MakeVideo: req.MakeVideo,
	})

	out := dto.RunPipelineResponse{
		Steps:  res.Steps,
		Cached: res.Cached,
	}
	if res.Verse != nil {
		out.Verse = &dto.VerseResponse{
			Id:        res.Verse.Id,
			Lines:     res.Verse.Lines,
			Genre:     res.Verse.Genre,
			CreatedAt: res.Verse.CreatedAt,
		}
	}
	if res.SongPath != "" {
		out.SongUrl = "/outputs/" + filepath.Base(res.SongPath)
	}
	if res.VideoPath != "" {
		out.VideoUrl = "/outputs/" + filepath.Base(res.VideoPath)
	}

	return ctx.JSON(serverutils.SuccessResponse("Pipeline finished", out))
}
