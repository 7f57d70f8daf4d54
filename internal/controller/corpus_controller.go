package controller

import (
	"screening-onboarding-be/internal/dto"
	"screening-onboarding-be/internal/pkg/serverutils"
	"screening-onboarding-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICorpusController interface {
	RegisterRoutes(r fiber.Router)
	Status(ctx *fiber.Ctx) error
	Rebuild(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
}

type corpusController struct {
	service service.ICorpusService
}

func NewCorpusController(service service.ICorpusService) ICorpusController {
	return &corpusController{service: service}
}

func (c *corpusController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/corpora/v1")
	h.Get(":corpus", c.Status)
	h.Post(":corpus/rebuild", c.Rebuild)
	h.Get(":corpus/search", c.Search)
}

func (c *corpusController) Status(ctx *fiber.Ctx) error {
	res, err := c.service.Status(ctx.UserContext(), ctx.Params("corpus"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get corpus status", res))
}

func (c *corpusController) Rebuild(ctx *fiber.Ctx) error {
	var req dto.RebuildCorpusRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	res, err := c.service.RequestBuild(ctx.UserContext(), ctx.Params("corpus"), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Corpus build queued", res))
}

func (c *corpusController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchCorpusRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Search(ctx.UserContext(), ctx.Params("corpus"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search corpus", res))
}
