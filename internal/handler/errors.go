package handler

import (
	"errors"
	"log"

	"go-inventory-loans/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// handleServiceError maps the service error taxonomy onto HTTP statuses.
// Unrecognized errors are logged and surfaced as a generic 500.
func handleServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrLoanNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, service.ErrForbidden):
		return c.Status(403).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrDuplicateItemName),
		errors.Is(err, service.ErrItemHasActiveLoans),
		errors.Is(err, service.ErrItemHasHistory),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrNameTaken):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidDirection),
		errors.Is(err, service.ErrInvalidDecision),
		errors.Is(err, service.ErrMissingReason),
		errors.Is(err, service.ErrMissingRejectionReason),
		errors.Is(err, service.ErrEmptyFeedback),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrLoanOverdue):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("Unexpected service error: %v", err)
	return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
}

// Helpers untuk ambil user info dari JWT context (set by auth middleware)
func getUserID(c *fiber.Ctx) string {
	userID := c.Locals("user_id")
	if userID == nil {
		return "system"
	}
	return userID.(string)
}

func getUserRole(c *fiber.Ctx) string {
	role := c.Locals("user_role")
	if role == nil {
		return ""
	}
	return role.(string)
}

// Helper untuk parse UUID dari string
func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}
