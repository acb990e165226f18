package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// AllowedHeaders are the request headers browsers may send cross-origin.
var AllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

const allowedMethods = "GET,POST,OPTIONS"

// CORS adds cross-origin headers to every response. Every OPTIONS request is
// answered here with an empty success, whether or not it is a full preflight.
func CORS(origins string) fiber.Handler {
	if strings.TrimSpace(origins) == "" {
		origins = "*"
	}
	allowHeaders := strings.Join(AllowedHeaders, ", ")
	simple := cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: allowedMethods,
		AllowHeaders: allowHeaders,
	})
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodOptions {
			return simple(c)
		}
		if origin := allowOrigin(origins, c.Get(fiber.HeaderOrigin)); origin != "" {
			c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
			if origin != "*" {
				c.Vary(fiber.HeaderOrigin)
			}
		}
		c.Set(fiber.HeaderAccessControlAllowMethods, allowedMethods)
		c.Set(fiber.HeaderAccessControlAllowHeaders, allowHeaders)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// allowOrigin picks the Access-Control-Allow-Origin value for a request origin.
func allowOrigin(origins, requestOrigin string) string {
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		if o == "*" {
			return "*"
		}
		if requestOrigin != "" && strings.EqualFold(o, requestOrigin) {
			return requestOrigin
		}
	}
	return ""
}

// Health reports liveness.
func Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"message": "Sentiment gateway is healthy",
	})
}

// RegisterRoutes mounts the API under /api/v1.
func (h *ApplicationHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", Health)

	api := app.Group("/api/v1")
	analyze := api.Group("/analyze")
	analyze.Post("/text", h.AnalyzeText)
	analyze.Post("/audio", h.AnalyzeAudio)
	analyze.Post("/video", h.AnalyzeVideo)

	api.Post("/media", h.ArchiveMedia)
	api.Get("/media", h.ListMedia)
}
