package handler

import (
	"tempnote-be/internal/pkg/logger"
	"tempnote-be/internal/pkg/serverutils"
	internalWS "tempnote-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ViewHandler upgrades HTTP requests into live view sessions.
type ViewHandler struct {
	server *internalWS.ViewServer
	logger logger.ILogger
}

func NewViewHandler(server *internalWS.ViewServer, log logger.ILogger) *ViewHandler {
	return &ViewHandler{server: server, logger: log}
}

// ServeListView streams the note listing. The identity comes from the
// optional token resolved by the JWT middleware.
func (h *ViewHandler) ServeListView(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	identity := serverutils.IdentityFrom(c)

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ViewHandler", "Starting list view", map[string]interface{}{"authenticated": identity != nil})
		h.server.ServeList(conn, identity)
		h.logger.Info("ViewHandler", "List view ended", nil)
	})(c)
}

func (h *ViewHandler) ServeDetailView(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, "Note not found"))
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	identity := serverutils.IdentityFrom(c)

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ViewHandler", "Starting detail view", map[string]interface{}{"note_id": id, "authenticated": identity != nil})
		h.server.ServeDetail(conn, id, identity)
		h.logger.Info("ViewHandler", "Detail view ended", map[string]interface{}{"note_id": id})
	})(c)
}

// RegisterRoutes expects the optional JWT middleware to run on router.
func (h *ViewHandler) RegisterRoutes(router fiber.Router) {
	ws := router.Group("/ws")
	ws.Get("/notes", h.ServeListView)
	ws.Get("/note/:id", h.ServeDetailView)
}
