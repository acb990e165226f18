package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"indisense/sentiment-gateway/models"
)

// RespondWithError sends the failure envelope.
func RespondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(models.ErrorResponse{
		Status:  "error",
		Message: message,
	})
}

// RespondWithJSON sends a JSON success response with extra top-level fields.
func RespondWithJSON(c *fiber.Ctx, statusCode int, status string, fields fiber.Map) error {
	body := fiber.Map{"status": status}
	for k, v := range fields {
		body[k] = v
	}
	return c.Status(statusCode).JSON(body)
}

// RespondAnalyzed sends the analysis success envelope.
func RespondAnalyzed(c *fiber.Ctx, result *models.AnalysisResult, media bool) error {
	return c.Status(fiber.StatusOK).JSON(models.NewAnalysisResponse(result, media))
}

// FormatValidationErrors formats validation errors from validator/v10.
func FormatValidationErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err == nil {
			return nil
		}
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		element := fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			element = fmt.Sprintf("%s (value: %s)", element, fe.Param())
		}
		out = append(out, element)
	}
	return out
}

// SanitizeInput trims surrounding whitespace.
func SanitizeInput(input string) string {
	return strings.TrimSpace(input)
}

// BearerToken extracts the token from an Authorization header, or "".
func BearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
