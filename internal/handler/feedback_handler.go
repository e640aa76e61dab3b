package handler

import (
	"go-inventory-loans/internal/service"

	"github.com/gofiber/fiber/v2"
)

type FeedbackHandler struct {
	service service.FeedbackService
}

func NewFeedbackHandler(s service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: s}
}

type createFeedbackRequest struct {
	Message string `json:"message"`
}

func (h *FeedbackHandler) CreateFeedback(c *fiber.Ctx) error {
	var req createFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	userID, err := parseUUID(getUserID(c))
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	feedback, err := h.service.CreateFeedback(userID, req.Message)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Feedback submitted", "data": feedback})
}

func (h *FeedbackHandler) GetFeedback(c *fiber.Ctx) error {
	feedbacks, err := h.service.GetAllFeedback()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(feedbacks)
}
