package handlers

import (
	"errors"
	"strconv"
	"strings"

	"shelftrack/internal/core/services"
	"shelftrack/internal/pkg/pagination"
	"shelftrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler handles member directory endpoints
type MemberHandler struct {
	memberService *services.MemberService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
	}
}

// MemberRequest represents member create/update request body
type MemberRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
}

func (r *MemberRequest) toInput() *services.MemberInput {
	return &services.MemberInput{
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Email:     strings.TrimSpace(r.Email),
		Phone:     strings.TrimSpace(r.Phone),
		Status:    strings.TrimSpace(r.Status),
	}
}

func (r *MemberRequest) validate(c *fiber.Ctx) error {
	if strings.TrimSpace(r.FirstName) == "" {
		return response.BadRequest(c, "First name is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		return response.BadRequest(c, "Last name is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return response.BadRequest(c, "Email is required")
	}
	return nil
}

// Create handles member registration
// @Summary Register a member
// @Description Register a new member with a unique email
// @Tags Members
// @Accept json
// @Produce json
// @Param body body MemberRequest true "Member data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /members [post]
func (h *MemberHandler) Create(c *fiber.Ctx) error {
	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := req.validate(c); err != nil {
		return err
	}

	member, err := h.memberService.Create(c.Context(), req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			return response.Duplicate(c, "Email already registered")
		default:
			return response.StorageUnavailable(c, "Failed to create member")
		}
	}

	return response.Created(c, "Member registered successfully", member)
}

// List handles listing members
// @Summary List members
// @Description Get a paginated list of members
// @Tags Members
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /members [get]
func (h *MemberHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	members, total, err := h.memberService.List(c.Context(), params)
	if err != nil {
		return response.StorageUnavailable(c, "Failed to list members")
	}

	return response.Success(c, "Members retrieved successfully",
		pagination.NewResponse(members, params, total))
}

// GetByID handles getting a member by ID
// @Summary Get member by ID
// @Description Get a specific member by ID
// @Tags Members
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [get]
func (h *MemberHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid member ID")
	}

	member, err := h.memberService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			return response.NotFound(c, "Member not found")
		}
		return response.StorageUnavailable(c, "Failed to get member")
	}

	return response.Success(c, "Member retrieved successfully", member)
}

// Update handles updating a member
// @Summary Update member
// @Description Replace a member's profile fields
// @Tags Members
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Param body body MemberRequest true "Member data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [put]
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid member ID")
	}

	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := req.validate(c); err != nil {
		return err
	}

	member, err := h.memberService.Update(c.Context(), uint(id), req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			return response.NotFound(c, "Member not found")
		case errors.Is(err, services.ErrEmailTaken):
			return response.Duplicate(c, "Email already registered")
		default:
			return response.StorageUnavailable(c, "Failed to update member")
		}
	}

	return response.Success(c, "Member updated successfully", member)
}

// Delete handles deleting a member
// @Summary Delete member
// @Description Delete a member without active loans
// @Tags Members
// @Accept json
// @Produce json
// @Param id path int true "Member ID"
// @Success 204 "No Content"
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [delete]
func (h *MemberHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid member ID")
	}

	if err := h.memberService.Delete(c.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			return response.NotFound(c, "Member not found")
		case errors.Is(err, services.ErrMemberHasActiveLoans):
			return response.Duplicate(c, "Member has active loans and cannot be deleted")
		default:
			return response.StorageUnavailable(c, "Failed to delete member")
		}
	}

	return response.NoContent(c)
}
