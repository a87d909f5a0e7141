package handlers

import (
	"errors"
	"strconv"
	"time"

	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/services"
	"shelftrack/internal/pkg/pagination"
	"shelftrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles loan lifecycle endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
	}
}

// IssueLoanRequest represents loan issue request body
type IssueLoanRequest struct {
	ItemID   uint   `json:"item_id"`
	MemberID uint   `json:"member_id"`
	DueDate  string `json:"due_date"`
}

// Issue handles issuing a loan
// @Summary Issue a loan
// @Description Issue a loan, decrementing the item's availability in the same transaction. Due date defaults to 14 days from today.
// @Tags Loans
// @Accept json
// @Produce json
// @Param body body IssueLoanRequest true "Loan data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) Issue(c *fiber.Ctx) error {
	var req IssueLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ItemID == 0 {
		return response.BadRequest(c, "Item ID is required")
	}
	if req.MemberID == 0 {
		return response.BadRequest(c, "Member ID is required")
	}

	input := &services.IssueLoanInput{
		ItemID:   req.ItemID,
		MemberID: req.MemberID,
	}
	if req.DueDate != "" {
		dueDate, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return response.BadRequest(c, "Invalid due date, expected YYYY-MM-DD")
		}
		input.DueDate = &dueDate
	}

	loan, err := h.loanService.Issue(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrItemNotFound):
			return response.NotFound(c, "Item not found")
		case errors.Is(err, services.ErrMemberNotFound):
			return response.NotFound(c, "Member not found")
		case errors.Is(err, services.ErrItemNotAvailable):
			return response.InvalidState(c, "Item has no available copies")
		case errors.Is(err, services.ErrDuplicateLoan):
			return response.Duplicate(c, "Member already has an active loan for this item")
		default:
			return response.StorageUnavailable(c, "Failed to issue loan")
		}
	}

	return response.Created(c, "Loan issued successfully", loan)
}

// List handles listing loans
// @Summary List loans
// @Description Get a paginated list of loans, optionally filtered by member, item, or active status
// @Tags Loans
// @Accept json
// @Produce json
// @Param member_id query int false "Filter by member ID"
// @Param item_id query int false "Filter by item ID"
// @Param active_only query bool false "Only loans not yet returned"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	filter := repositories.LoanFilter{
		ActiveOnly: c.QueryBool("active_only"),
	}
	if v := c.Query("member_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid member ID")
		}
		memberID := uint(id)
		filter.MemberID = &memberID
	}
	if v := c.Query("item_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid item ID")
		}
		itemID := uint(id)
		filter.ItemID = &itemID
	}

	return h.list(c, filter)
}

// ListByMember handles listing a member's loan history
// @Summary List loans for a member
// @Description Get the loan history of a specific member
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Param active_only query bool false "Only loans not yet returned"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id}/loans [get]
func (h *LoanHandler) ListByMember(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid member ID")
	}

	memberID := uint(id)
	return h.list(c, repositories.LoanFilter{
		MemberID:   &memberID,
		ActiveOnly: c.QueryBool("active_only"),
	})
}

// ListByItem handles listing an item's loan history
// @Summary List loans for an item
// @Description Get the loan history of a specific catalog item
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param active_only query bool false "Only loans not yet returned"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /items/{id}/loans [get]
func (h *LoanHandler) ListByItem(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid item ID")
	}

	itemID := uint(id)
	return h.list(c, repositories.LoanFilter{
		ItemID:     &itemID,
		ActiveOnly: c.QueryBool("active_only"),
	})
}

func (h *LoanHandler) list(c *fiber.Ctx, filter repositories.LoanFilter) error {
	params := pagination.GetParams(c)

	loans, total, err := h.loanService.List(c.Context(), filter, params)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			return response.NotFound(c, "Member not found")
		case errors.Is(err, services.ErrItemNotFound):
			return response.NotFound(c, "Item not found")
		default:
			return response.StorageUnavailable(c, "Failed to list loans")
		}
	}

	return response.Success(c, "Loans retrieved successfully",
		pagination.NewResponse(loans, params, total))
}

// ListOverdue handles listing overdue loans
// @Summary List overdue loans
// @Description Get all active loans whose due date has passed
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /loans/overdue [get]
func (h *LoanHandler) ListOverdue(c *fiber.Ctx) error {
	loans, err := h.loanService.ListOverdue(c.Context())
	if err != nil {
		return response.StorageUnavailable(c, "Failed to list overdue loans")
	}

	return response.Success(c, "Overdue loans retrieved successfully", loans)
}

// GetByID handles getting a loan by ID
// @Summary Get loan by ID
// @Description Get a specific loan by ID
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrLoanNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.StorageUnavailable(c, "Failed to get loan")
	}

	return response.Success(c, "Loan retrieved successfully", loan)
}

// Return handles returning a loan
// @Summary Return a loan
// @Description Mark a loan as returned and restore the item's availability in the same transaction
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/return [put]
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.Return(c.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, services.ErrLoanAlreadyReturned):
			return response.InvalidState(c, "Loan has already been returned")
		case errors.Is(err, services.ErrCounterOutOfRange):
			return response.InvalidState(c, "Item availability is already at its maximum")
		default:
			return response.StorageUnavailable(c, "Failed to return loan")
		}
	}

	return response.Success(c, "Loan returned successfully", loan)
}

// Delete handles deleting a loan record
// @Summary Delete loan
// @Description Delete a loan record, restoring the item's availability if the loan was still active
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Success 204 "No Content"
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [delete]
func (h *LoanHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	if err := h.loanService.Delete(c.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, services.ErrCounterOutOfRange):
			return response.InvalidState(c, "Item availability is already at its maximum")
		default:
			return response.StorageUnavailable(c, "Failed to delete loan")
		}
	}

	return response.NoContent(c)
}
