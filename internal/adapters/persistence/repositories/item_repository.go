package repositories

import (
	"context"
	"errors"
	"strings"

	"shelftrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ErrAvailabilityOutOfRange is returned by AdjustAvailability when the
// requested delta would leave available_copies outside [0, total_copies].
var ErrAvailabilityOutOfRange = errors.New("availability adjustment out of range")

// ItemSearchFilter holds the search criteria for items. Text fields are
// matched as case-insensitive substrings, AND-combined.
type ItemSearchFilter struct {
	Title         string
	Author        string
	Genre         string
	AvailableOnly bool
}

// HasTextFilter reports whether at least one text criterion is set
func (f ItemSearchFilter) HasTextFilter() bool {
	return f.Title != "" || f.Author != "" || f.Genre != ""
}

// ItemRepository handles item data access
type ItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// WithTx returns a repository bound to the given transaction handle
func (r *ItemRepository) WithTx(tx *gorm.DB) *ItemRepository {
	return &ItemRepository{db: tx}
}

// Create creates a new item
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// List lists items with pagination
func (r *ItemRepository) List(ctx context.Context, offset, limit int) ([]*models.Item, int64, error) {
	var items []*models.Item
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Item{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error

	return items, total, err
}

// Search finds items matching the filter
func (r *ItemRepository) Search(ctx context.Context, filter ItemSearchFilter) ([]*models.Item, error) {
	query := r.db.WithContext(ctx).Model(&models.Item{})

	if filter.Title != "" {
		query = query.Where("LOWER(title) LIKE ?", likePattern(filter.Title))
	}
	if filter.Author != "" {
		query = query.Where("LOWER(author) LIKE ?", likePattern(filter.Author))
	}
	if filter.Genre != "" {
		query = query.Where("LOWER(genre) LIKE ?", likePattern(filter.Genre))
	}
	if filter.AvailableOnly {
		query = query.Where("available_copies > 0")
	}

	var items []*models.Item
	err := query.Order("id ASC").Find(&items).Error
	return items, err
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

// Update updates an item
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete deletes an item
func (r *ItemRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Item{}, id).Error
}

// AdjustAvailability atomically applies available_copies += delta. The
// guard keeps the counter inside [0, total_copies]; a concurrent
// transaction holding the row lock forces losers to re-evaluate the guard
// against the committed value, so two issues cannot both take the last
// copy. Must be called on a repository bound to the transaction that also
// mutates the loan row.
func (r *ItemRepository) AdjustAvailability(ctx context.Context, id uint, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ? AND available_copies + ? >= 0 AND available_copies + ? <= total_copies", id, delta, delta).
		UpdateColumn("available_copies", gorm.Expr("available_copies + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAvailabilityOutOfRange
	}
	return nil
}
