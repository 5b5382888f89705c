package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/latestcomment/go-moderated-chat/internal/services"
)

type Handler struct {
	Engine        *services.Engine
	Checker       services.CredentialChecker
	MaxNameLength int
}

func NewHandler(engine *services.Engine, checker services.CredentialChecker, maxNameLength int) *Handler {
	return &Handler{Engine: engine, Checker: checker, MaxNameLength: maxNameLength}
}

// Routes mounts every HTTP and WebSocket route on app.
func Routes(app *fiber.App, h *Handler, ws *WebSocketHandler) {
	app.Get("/", h.IndexPage)
	app.Get("/healthz", h.Health)
	app.Post("/api/admin/validate", h.ValidateModerator)
	app.Get("/chat", ws.WebSocketMiddleware, websocket.New(ws.HandleWebSocket))
}

func (h *Handler) IndexPage(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{
		"MaxNameLength": h.MaxNameLength,
	})
}

type validateRequest struct {
	Password string `json:"password"`
}

// ValidateModerator lets the page check the moderator secret before it
// opens the socket. The socket join performs the same check again.
func (h *Handler) ValidateModerator(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return c.JSON(fiber.Map{"valid": h.Checker.CheckModerator(req.Password)})
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"stats":  h.Engine.Stats(),
	})
}
