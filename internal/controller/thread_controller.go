package controller

import (
	"screening-onboarding-be/internal/dto"
	"screening-onboarding-be/internal/pkg/serverutils"
	"screening-onboarding-be/internal/service"
	internalWS "screening-onboarding-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IThreadController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Transcript(ctx *fiber.Ctx) error
	Advance(ctx *fiber.Ctx) error
}

type threadController struct {
	service service.IThreadService
	hub     *internalWS.Hub
}

// NewThreadController wires the REST routes. hub may be nil, in which case
// the websocket route is not registered.
func NewThreadController(service service.IThreadService, hub *internalWS.Hub) IThreadController {
	return &threadController{service: service, hub: hub}
}

func (c *threadController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/threads/v1")
	h.Post("", c.Start)
	h.Get(":id", c.Show)
	h.Get(":id/transcript", c.Transcript)
	h.Post(":id/advance", c.Advance)
	if c.hub != nil {
		h.Get(":id/ws", c.upgrade, websocket.New(c.serveWs))
	}
}

func threadID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid thread id")
	}
	return id, nil
}

func (c *threadController) Start(ctx *fiber.Ctx) error {
	var req dto.StartThreadRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Start(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Thread started", res))
}

func (c *threadController) Show(ctx *fiber.Ctx) error {
	id, err := threadID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Get(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get thread", res))
}

func (c *threadController) Transcript(ctx *fiber.Ctx) error {
	id, err := threadID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Transcript(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get transcript", res))
}

func (c *threadController) Advance(ctx *fiber.Ctx) error {
	id, err := threadID(ctx)
	if err != nil {
		return err
	}

	var req dto.AdvanceThreadRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	res, err := c.service.Advance(ctx.UserContext(), id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Thread advanced", res))
}

func (c *threadController) upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	if _, err := threadID(ctx); err != nil {
		return err
	}
	return ctx.Next()
}

func (c *threadController) serveWs(conn *websocket.Conn) {
	internalWS.ServeThread(c.hub, c.service, conn, conn.Params("id"))
}
