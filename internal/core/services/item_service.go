package services

import (
	"context"
	"errors"
	"fmt"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/domain"
	"shelftrack/internal/pkg/pagination"

	"gorm.io/gorm"
)

// Item service errors
var (
	ErrItemNotFound         = fmt.Errorf("item: %w", domain.ErrNotFound)
	ErrItemCodeTaken        = fmt.Errorf("catalog code already exists: %w", domain.ErrConflict)
	ErrItemHasActiveLoans   = fmt.Errorf("item has active loans: %w", domain.ErrConflict)
	ErrNegativeCopies       = fmt.Errorf("copy counts cannot be negative: %w", domain.ErrInvalidInput)
	ErrSearchFilterRequired = fmt.Errorf("at least one search filter is required: %w", domain.ErrInvalidInput)
)

// ItemService owns item records and their copy counters. Counter
// adjustments coupled to loan transitions go through the loan service,
// which calls the repository's atomic primitive inside its transactions.
type ItemService struct {
	db       *gorm.DB
	itemRepo *repositories.ItemRepository
	loanRepo *repositories.LoanRepository
}

// NewItemService creates a new item service
func NewItemService(db *gorm.DB, itemRepo *repositories.ItemRepository, loanRepo *repositories.LoanRepository) *ItemService {
	return &ItemService{
		db:       db,
		itemRepo: itemRepo,
		loanRepo: loanRepo,
	}
}

// ItemInput represents create/update item input
type ItemInput struct {
	Code            string `json:"code"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Genre           string `json:"genre,omitempty"`
	AvailableCopies int    `json:"available_copies"`
	TotalCopies     int    `json:"total_copies"`
}

// Create creates a new item
func (s *ItemService) Create(ctx context.Context, input *ItemInput) (*models.Item, error) {
	if input.AvailableCopies < 0 || input.TotalCopies < 0 {
		return nil, ErrNegativeCopies
	}

	item := &models.Item{
		Code:            input.Code,
		Title:           input.Title,
		Author:          input.Author,
		Genre:           input.Genre,
		AvailableCopies: input.AvailableCopies,
		TotalCopies:     input.TotalCopies,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrItemCodeTaken
		}
		return nil, err
	}

	return item, nil
}

// GetByID gets an item by ID
func (s *ItemService) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// List lists items with pagination
func (s *ItemService) List(ctx context.Context, params *pagination.Params) ([]*models.Item, int64, error) {
	return s.itemRepo.List(ctx, params.Offset, params.Limit)
}

// Search finds items matching the filter. At least one of title, author or
// genre must be provided.
func (s *ItemService) Search(ctx context.Context, filter repositories.ItemSearchFilter) ([]*models.Item, error) {
	if !filter.HasTextFilter() {
		return nil, ErrSearchFilterRequired
	}
	return s.itemRepo.Search(ctx, filter)
}

// Update replaces the mutable fields of an item. Both counters are taken
// as given; only the loan service keeps available_copies consistent with
// outstanding loans.
func (s *ItemService) Update(ctx context.Context, id uint, input *ItemInput) (*models.Item, error) {
	if input.AvailableCopies < 0 || input.TotalCopies < 0 {
		return nil, ErrNegativeCopies
	}

	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	item.Code = input.Code
	item.Title = input.Title
	item.Author = input.Author
	item.Genre = input.Genre
	item.AvailableCopies = input.AvailableCopies
	item.TotalCopies = input.TotalCopies

	if err := s.itemRepo.Update(ctx, item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrItemCodeTaken
		}
		return nil, err
	}

	return item, nil
}

// Delete deletes an item. Refused while any loan referencing the item is
// not Returned.
func (s *ItemService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loans := s.loanRepo.WithTx(tx)
		items := s.itemRepo.WithTx(tx)

		active, err := loans.CountActiveByItem(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrItemHasActiveLoans
		}

		if _, err := items.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		return items.Delete(ctx, id)
	})
}
