package handler

import (
	"go-inventory-loans/internal/model"
	"go-inventory-loans/internal/repository"
	"go-inventory-loans/internal/service"

	"github.com/gofiber/fiber/v2"
)

type LoanHandler struct {
	service service.LoanService
}

func NewLoanHandler(s service.LoanService) *LoanHandler {
	return &LoanHandler{service: s}
}

func (h *LoanHandler) RequestLoan(c *fiber.Ctx) error {
	var req service.RequestLoanInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	// Borrower is the authenticated caller unless an admin supplies one
	if req.BorrowerID == "" {
		req.BorrowerID = getUserID(c)
	}

	loan, err := h.service.RequestLoan(&req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Loan requested", "data": loan.ToResponse()})
}

type verifyLoanRequest struct {
	Decision        string `json:"decision"`
	RejectionReason string `json:"rejection_reason"`
}

func (h *LoanHandler) VerifyLoan(c *fiber.Ctx) error {
	loanID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	adminID, err := parseUUID(getUserID(c))
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	var req verifyLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	loan, err := h.service.VerifyLoan(loanID, adminID, model.LoanStatus(req.Decision), req.RejectionReason)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Loan verified", "data": loan.ToResponse()})
}

func (h *LoanHandler) MarkPickedUp(c *fiber.Ctx) error {
	loanID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	loan, err := h.service.MarkPickedUp(loanID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Loan picked up", "data": loan.ToResponse()})
}

func (h *LoanHandler) ReturnLoan(c *fiber.Ctx) error {
	loanID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	loan, err := h.service.ReturnLoan(loanID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Loan returned", "data": loan.ToResponse()})
}

func (h *LoanHandler) ExtendLoan(c *fiber.Ctx) error {
	loanID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	loan, err := h.service.ExtendLoan(loanID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Loan extended", "data": loan.ToResponse()})
}

type updateLoanRequest struct {
	Quantity int `json:"quantity"`
}

func (h *LoanHandler) UpdateLoan(c *fiber.Ctx) error {
	loanID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	var req updateLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	loan, err := h.service.UpdateQuantity(loanID, req.Quantity)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Loan updated", "data": loan.ToResponse()})
}

func (h *LoanHandler) GetLoan(c *fiber.Ctx) error {
	loanID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	loan, err := h.service.GetLoan(loanID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(loan.ToResponse())
}

func (h *LoanHandler) GetLoans(c *fiber.Ctx) error {
	var filter repository.LoanFilter

	if userParam := c.Query("user"); userParam != "" {
		borrowerID, err := parseUUID(userParam)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid user ID"})
		}
		filter.BorrowerID = &borrowerID
	}
	if statusParam := c.Query("status"); statusParam != "" {
		status := model.LoanStatus(statusParam)
		if !status.Valid() {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid loan status"})
		}
		filter.Status = status
	}
	if c.Query("overdue") == "true" {
		filter.OverdueOnly = true
	}

	// Non-admins only ever see their own loans
	if getUserRole(c) != model.RoleAdmin {
		callerID, err := parseUUID(getUserID(c))
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
		}
		filter.BorrowerID = &callerID
	}

	loans, err := h.service.ListLoans(filter)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	responses := make([]model.LoanResponse, len(loans))
	for i := range loans {
		responses[i] = loans[i].ToResponse()
	}
	return c.JSON(responses)
}

func (h *LoanHandler) GetOverdueLoans(c *fiber.Ctx) error {
	loans, err := h.service.ListOverdue()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	responses := make([]model.LoanResponse, len(loans))
	for i := range loans {
		responses[i] = loans[i].ToResponse()
	}
	return c.JSON(responses)
}
