package handler

import (
	"go-inventory-loans/internal/model"
	"go-inventory-loans/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	var req service.CreateItemInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	item, err := h.service.CreateItem(&req, getUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Item created", "data": item.ToResponse()})
}

func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	var req service.UpdateItemInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	item, err := h.service.UpdateItem(itemID, &req, getUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Item updated", "data": item.ToResponse()})
}

func (h *InventoryHandler) DeleteItem(c *fiber.Ctx) error {
	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	if err := h.service.DeleteItem(itemID); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Item deleted"})
}

type adjustStockRequest struct {
	Quantity  int    `json:"quantity"`
	Direction string `json:"direction"`
	Note      string `json:"note"`
}

func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	var req adjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	input := &service.AdjustStockInput{
		ItemID:    itemID,
		Quantity:  req.Quantity,
		Direction: model.LedgerDirection(req.Direction),
		Note:      req.Note,
	}
	if actorID, err := parseUUID(getUserID(c)); err == nil {
		input.ActorID = &actorID
	}

	item, err := h.service.AdjustStock(input)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Stock adjusted", "data": item.ToResponse()})
}

func (h *InventoryHandler) GetItems(c *fiber.Ctx) error {
	items, err := h.service.GetItems(c.Query("status"), c.Query("search"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	responses := make([]model.ItemResponse, len(items))
	for i := range items {
		responses[i] = items[i].ToResponse()
	}
	return c.JSON(responses)
}

func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	item, err := h.service.GetItem(itemID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(item.ToResponse())
}

func (h *InventoryHandler) GetLowStockItems(c *fiber.Ctx) error {
	items, err := h.service.LowStockItems(c.QueryInt("limit", 20))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	responses := make([]model.ItemResponse, len(items))
	for i := range items {
		responses[i] = items[i].ToResponse()
	}
	return c.JSON(responses)
}

func (h *InventoryHandler) GetLedger(c *fiber.Ctx) error {
	entries, err := h.service.GetLedger()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(entries)
}

func (h *InventoryHandler) GetItemLedger(c *fiber.Ctx) error {
	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	entries, err := h.service.GetItemLedger(itemID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(entries)
}
