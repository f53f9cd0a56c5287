package controller

import (
	"net/url"

	"tempnote-be/internal/pkg/logger"
	"tempnote-be/internal/pkg/serverutils"
	"tempnote-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Providers(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service     service.IOAuthService
	frontendURL string
	logger      logger.ILogger
}

func NewOAuthController(service service.IOAuthService, frontendURL string, log logger.ILogger) IOAuthController {
	return &oauthController{service: service, frontendURL: frontendURL, logger: log}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth/oauth")
	h.Get("/providers", c.Providers)
	h.Get("/:provider/login", c.Login)
	h.Get("/:provider/callback", c.Callback)
}

func (c *oauthController) Providers(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("OAuth providers", c.service.Providers()))
}

func (c *oauthController) Login(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")

	loginURL, err := c.service.GetLoginURL(provider)
	if err != nil {
		return err
	}

	c.logger.Info("OAuth", "Login initiated", map[string]interface{}{"provider": provider})
	return ctx.Redirect(loginURL, fiber.StatusTemporaryRedirect)
}

// Callback finishes the code exchange and hands the token to the frontend
// in the query string.
func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")

	res, err := c.service.HandleCallback(ctx.UserContext(), provider, ctx.Query("code"), ctx.Query("state"))
	if err != nil {
		c.logger.Warn("OAuth", "Callback failed", map[string]interface{}{"provider": provider, "error": err})
		return err
	}

	redirectURL := c.frontendURL + "/?token=" + url.QueryEscape(res.AccessToken)
	return ctx.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}
