package handlers

import (
	"errors"
	"strconv"
	"strings"

	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/services"
	"shelftrack/internal/pkg/pagination"
	"shelftrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ItemHandler handles catalog item endpoints
type ItemHandler struct {
	itemService *services.ItemService
}

// NewItemHandler creates a new item handler
func NewItemHandler(itemService *services.ItemService) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
	}
}

// ItemRequest represents item create/update request body
type ItemRequest struct {
	Code            string `json:"code"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Genre           string `json:"genre"`
	AvailableCopies int    `json:"available_copies"`
	TotalCopies     int    `json:"total_copies"`
}

func (r *ItemRequest) toInput() *services.ItemInput {
	return &services.ItemInput{
		Code:            strings.TrimSpace(r.Code),
		Title:           strings.TrimSpace(r.Title),
		Author:          strings.TrimSpace(r.Author),
		Genre:           strings.TrimSpace(r.Genre),
		AvailableCopies: r.AvailableCopies,
		TotalCopies:     r.TotalCopies,
	}
}

func (r *ItemRequest) validate(c *fiber.Ctx) error {
	if strings.TrimSpace(r.Code) == "" {
		return response.BadRequest(c, "Catalog code is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return response.BadRequest(c, "Title is required")
	}
	if strings.TrimSpace(r.Author) == "" {
		return response.BadRequest(c, "Author is required")
	}
	return nil
}

// Create handles adding an item to the catalog
// @Summary Add catalog item
// @Description Add a new item with a unique catalog code
// @Tags Items
// @Accept json
// @Produce json
// @Param body body ItemRequest true "Item data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var req ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := req.validate(c); err != nil {
		return err
	}

	item, err := h.itemService.Create(c.Context(), req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrItemCodeTaken):
			return response.Duplicate(c, "Catalog code already registered")
		case errors.Is(err, services.ErrNegativeCopies):
			return response.BadRequest(c, "Copy counts cannot be negative")
		default:
			return response.StorageUnavailable(c, "Failed to create item")
		}
	}

	return response.Created(c, "Item added successfully", item)
}

// List handles listing catalog items
// @Summary List items
// @Description Get a paginated list of catalog items
// @Tags Items
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /items [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	items, total, err := h.itemService.List(c.Context(), params)
	if err != nil {
		return response.StorageUnavailable(c, "Failed to list items")
	}

	return response.Success(c, "Items retrieved successfully",
		pagination.NewResponse(items, params, total))
}

// Search handles searching the catalog
// @Summary Search items
// @Description Search items by title, author, or genre (case-insensitive substring match, criteria combined with AND)
// @Tags Items
// @Accept json
// @Produce json
// @Param title query string false "Title fragment"
// @Param author query string false "Author fragment"
// @Param genre query string false "Genre fragment"
// @Param available_only query bool false "Only items with available copies"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /search/items [get]
func (h *ItemHandler) Search(c *fiber.Ctx) error {
	filter := repositories.ItemSearchFilter{
		Title:         strings.TrimSpace(c.Query("title")),
		Author:        strings.TrimSpace(c.Query("author")),
		Genre:         strings.TrimSpace(c.Query("genre")),
		AvailableOnly: c.QueryBool("available_only"),
	}

	items, err := h.itemService.Search(c.Context(), filter)
	if err != nil {
		if errors.Is(err, services.ErrSearchFilterRequired) {
			return response.BadRequest(c, "At least one search filter is required")
		}
		return response.StorageUnavailable(c, "Failed to search items")
	}

	return response.Success(c, "Search completed successfully", items)
}

// GetByID handles getting an item by ID
// @Summary Get item by ID
// @Description Get a specific catalog item by ID
// @Tags Items
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /items/{id} [get]
func (h *ItemHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid item ID")
	}

	item, err := h.itemService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			return response.NotFound(c, "Item not found")
		}
		return response.StorageUnavailable(c, "Failed to get item")
	}

	return response.Success(c, "Item retrieved successfully", item)
}

// Update handles updating an item
// @Summary Update item
// @Description Replace an item's catalog fields and copy counters
// @Tags Items
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param body body ItemRequest true "Item data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /items/{id} [put]
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid item ID")
	}

	var req ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := req.validate(c); err != nil {
		return err
	}

	item, err := h.itemService.Update(c.Context(), uint(id), req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrItemNotFound):
			return response.NotFound(c, "Item not found")
		case errors.Is(err, services.ErrItemCodeTaken):
			return response.Duplicate(c, "Catalog code already registered")
		case errors.Is(err, services.ErrNegativeCopies):
			return response.BadRequest(c, "Copy counts cannot be negative")
		default:
			return response.StorageUnavailable(c, "Failed to update item")
		}
	}

	return response.Success(c, "Item updated successfully", item)
}

// Delete handles deleting an item
// @Summary Delete item
// @Description Delete an item without active loans
// @Tags Items
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Success 204 "No Content"
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /items/{id} [delete]
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid item ID")
	}

	if err := h.itemService.Delete(c.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, services.ErrItemNotFound):
			return response.NotFound(c, "Item not found")
		case errors.Is(err, services.ErrItemHasActiveLoans):
			return response.Duplicate(c, "Item has active loans and cannot be deleted")
		default:
			return response.StorageUnavailable(c, "Failed to delete item")
		}
	}

	return response.NoContent(c)
}
