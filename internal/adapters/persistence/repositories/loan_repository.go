package repositories

import (
	"context"
	"time"

	"shelftrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// LoanFilter restricts loan listings
type LoanFilter struct {
	MemberID   *uint
	ItemID     *uint
	ActiveOnly bool
}

// LoanRepository handles loan data access
type LoanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// WithTx returns a repository bound to the given transaction handle
func (r *LoanRepository) WithTx(tx *gorm.DB) *LoanRepository {
	return &LoanRepository{db: tx}
}

// Create creates a new loan
func (r *LoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan by ID
func (r *LoanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	if err := r.db.WithContext(ctx).First(&loan, id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// List lists loans matching the filter with pagination
func (r *LoanRepository) List(ctx context.Context, filter LoanFilter, offset, limit int) ([]*models.Loan, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Loan{})

	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if filter.ItemID != nil {
		query = query.Where("item_id = ?", *filter.ItemID)
	}
	if filter.ActiveOnly {
		query = query.Where("status != ?", models.LoanStatusReturned)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var loans []*models.Loan
	err := query.
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// Update updates a loan
func (r *LoanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

// Delete deletes a loan
func (r *LoanRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Loan{}, id).Error
}

// ExistsActive reports whether the member already holds an active loan on
// the item
func (r *LoanRepository) ExistsActive(ctx context.Context, itemID, memberID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("item_id = ? AND member_id = ? AND status != ?", itemID, memberID, models.LoanStatusReturned).
		Count(&count).Error
	return count > 0, err
}

// CountActiveByItem counts non-Returned loans referencing the item
func (r *LoanRepository) CountActiveByItem(ctx context.Context, itemID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("item_id = ? AND status != ?", itemID, models.LoanStatusReturned).
		Count(&count).Error
	return count, err
}

// CountActiveByMember counts non-Returned loans held by the member
func (r *LoanRepository) CountActiveByMember(ctx context.Context, memberID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("member_id = ? AND status != ?", memberID, models.LoanStatusReturned).
		Count(&count).Error
	return count, err
}

// ListOverdue lists active loans whose due date is before asOf
func (r *LoanRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("status != ? AND due_date < ?", models.LoanStatusReturned, asOf).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}
