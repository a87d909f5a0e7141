package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/domain"
	"shelftrack/internal/pkg/pagination"

	"gorm.io/gorm"
)

// Loan service errors
var (
	ErrLoanNotFound        = fmt.Errorf("loan: %w", domain.ErrNotFound)
	ErrItemNotAvailable    = fmt.Errorf("item not available for loan: %w", domain.ErrInvalidState)
	ErrLoanAlreadyReturned = fmt.Errorf("loan already returned: %w", domain.ErrInvalidState)
	ErrDuplicateLoan       = fmt.Errorf("member already has an active loan for this item: %w", domain.ErrConflict)
	ErrCounterOutOfRange   = fmt.Errorf("availability counter out of range: %w", domain.ErrInvalidState)
)

// DefaultLoanDays is the loan period applied when no due date is given
const DefaultLoanDays = 14

// LoanService enforces the loan state machine (Borrowed -> Returned,
// delete from either state) and its coupling to item availability. Every
// state-changing operation runs its reads and writes inside one storage
// transaction; the loan row and the counter commit together or not at all.
type LoanService struct {
	db         *gorm.DB
	loanRepo   *repositories.LoanRepository
	itemRepo   *repositories.ItemRepository
	memberRepo *repositories.MemberRepository
}

// NewLoanService creates a new loan service
func NewLoanService(
	db *gorm.DB,
	loanRepo *repositories.LoanRepository,
	itemRepo *repositories.ItemRepository,
	memberRepo *repositories.MemberRepository,
) *LoanService {
	return &LoanService{
		db:         db,
		loanRepo:   loanRepo,
		itemRepo:   itemRepo,
		memberRepo: memberRepo,
	}
}

// IssueLoanInput represents issue loan input
type IssueLoanInput struct {
	ItemID   uint
	MemberID uint
	DueDate  *time.Time
}

// Issue creates a loan and decrements the item's availability in one
// transaction. The availability check and the decrement are backed by the
// guarded counter update, so concurrent issues on the last copy leave
// exactly one of them committed.
func (s *LoanService) Issue(ctx context.Context, input *IssueLoanInput) (*models.Loan, error) {
	var loan *models.Loan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := s.itemRepo.WithTx(tx)
		members := s.memberRepo.WithTx(tx)
		loans := s.loanRepo.WithTx(tx)

		item, err := items.GetByID(ctx, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		if item.AvailableCopies <= 0 {
			return ErrItemNotAvailable
		}

		if _, err := members.GetByID(ctx, input.MemberID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}

		exists, err := loans.ExistsActive(ctx, input.ItemID, input.MemberID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateLoan
		}

		today := dateOnly(time.Now())
		dueDate := today.AddDate(0, 0, DefaultLoanDays)
		if input.DueDate != nil {
			dueDate = dateOnly(*input.DueDate)
		}

		loan = &models.Loan{
			ItemID:   input.ItemID,
			MemberID: input.MemberID,
			LoanDate: today,
			DueDate:  dueDate,
			Status:   models.LoanStatusBorrowed,
		}
		if err := loans.Create(ctx, loan); err != nil {
			return err
		}

		if err := items.AdjustAvailability(ctx, input.ItemID, -1); err != nil {
			if errors.Is(err, repositories.ErrAvailabilityOutOfRange) {
				// A concurrent issue consumed the last copy between our
				// snapshot read and the guarded decrement.
				return ErrItemNotAvailable
			}
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return loan, nil
}

// Return marks a Borrowed loan Returned and restores the item's
// availability in one transaction. Returned is terminal.
func (s *LoanService) Return(ctx context.Context, loanID uint) (*models.Loan, error) {
	var loan *models.Loan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loans := s.loanRepo.WithTx(tx)
		items := s.itemRepo.WithTx(tx)

		var err error
		loan, err = loans.GetByID(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}
		if loan.Status == models.LoanStatusReturned {
			return ErrLoanAlreadyReturned
		}

		today := dateOnly(time.Now())
		loan.Status = models.LoanStatusReturned
		loan.ReturnDate = &today
		if err := loans.Update(ctx, loan); err != nil {
			return err
		}

		if err := items.AdjustAvailability(ctx, loan.ItemID, 1); err != nil {
			if errors.Is(err, repositories.ErrAvailabilityOutOfRange) {
				// Counter desync: a direct item edit shrank the counters
				// below the outstanding-loan count.
				return ErrCounterOutOfRange
			}
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return loan, nil
}

// Delete removes a loan. Deleting a Borrowed loan restores the item's
// availability together with the row deletion; deleting a Returned loan
// leaves the counter untouched.
func (s *LoanService) Delete(ctx context.Context, loanID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loans := s.loanRepo.WithTx(tx)
		items := s.itemRepo.WithTx(tx)

		loan, err := loans.GetByID(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}

		if loan.Status == models.LoanStatusBorrowed {
			if err := items.AdjustAvailability(ctx, loan.ItemID, 1); err != nil {
				if errors.Is(err, repositories.ErrAvailabilityOutOfRange) {
					return ErrCounterOutOfRange
				}
				return err
			}
		}

		return loans.Delete(ctx, loanID)
	})
}

// GetByID gets a loan by ID
func (s *LoanService) GetByID(ctx context.Context, loanID uint) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// List lists loans matching the filter. When the filter names a member or
// item, that entity must exist.
func (s *LoanService) List(ctx context.Context, filter repositories.LoanFilter, params *pagination.Params) ([]*models.Loan, int64, error) {
	if filter.MemberID != nil {
		if _, err := s.memberRepo.GetByID(ctx, *filter.MemberID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, ErrMemberNotFound
			}
			return nil, 0, err
		}
	}
	if filter.ItemID != nil {
		if _, err := s.itemRepo.GetByID(ctx, *filter.ItemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, ErrItemNotFound
			}
			return nil, 0, err
		}
	}

	return s.loanRepo.List(ctx, filter, params.Offset, params.Limit)
}

// ListOverdue lists active loans past their due date as of today
func (s *LoanService) ListOverdue(ctx context.Context) ([]*models.Loan, error) {
	return s.loanRepo.ListOverdue(ctx, dateOnly(time.Now()))
}

// dateOnly truncates a timestamp to its calendar date in UTC. Loan dates
// are stored and compared as dates, never instants.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
