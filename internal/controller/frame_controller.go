package controller

import (
	"io"

	"screentosong-be/internal/pkg/serverutils"
	"screentosong-be/internal/repository/memory"
	"screentosong-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// sessionHeader names the capture session a request belongs to. Clients that
// never send it share the default session, which keeps the one-browser demo
// flow zero-config.
const sessionHeader = "X-Session-ID"

func sessionID(ctx *fiber.Ctx) string {
	if id := ctx.Get(sessionHeader); id != "" {
		return id
	}
	return memory.DefaultSessionID
}

type IFrameController interface {
	RegisterRoutes(r fiber.Router)
	Analyze(ctx *fiber.Ctx) error
}

type frameController struct {
	sceneService service.ISceneService
}

func NewFrameController(sceneService service.ISceneService) IFrameController {
	return &frameController{
		sceneService: sceneService,
	}
}

func (c *frameController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/frame/v1")
	h.Post("analyze", c.Analyze)
}

func (c *frameController) Analyze(ctx *fiber.Ctx) error {
	image, err := readUploadedFrame(ctx)
	if err != nil {
		return err
	}

	res, err := c.sceneService.AnalyzeFrame(ctx.Context(), sessionID(ctx), image)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Frame analyzed", res))
}

// readUploadedFrame pulls the frame bytes from the multipart "file" field,
// falling back to the raw body for clients that post the image directly.
func readUploadedFrame(ctx *fiber.Ctx) ([]byte, error) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		if body := ctx.Body(); len(body) > 0 {
			return body, nil
		}
		return nil, fiber.NewError(fiber.StatusBadRequest, "missing frame upload: multipart field 'file' or raw body required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "cannot open uploaded file")
	}
	defer f.Close()

	image, err := io.ReadAll(f)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "cannot read uploaded file")
	}
	return image, nil
}
