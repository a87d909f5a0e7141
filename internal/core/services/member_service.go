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

// Member service errors
var (
	ErrMemberNotFound       = fmt.Errorf("member: %w", domain.ErrNotFound)
	ErrEmailTaken           = fmt.Errorf("email already registered: %w", domain.ErrConflict)
	ErrMemberHasActiveLoans = fmt.Errorf("member has active loans: %w", domain.ErrConflict)
)

// MemberService handles member business logic
type MemberService struct {
	db         *gorm.DB
	memberRepo *repositories.MemberRepository
	loanRepo   *repositories.LoanRepository
}

// NewMemberService creates a new member service
func NewMemberService(db *gorm.DB, memberRepo *repositories.MemberRepository, loanRepo *repositories.LoanRepository) *MemberService {
	return &MemberService{
		db:         db,
		memberRepo: memberRepo,
		loanRepo:   loanRepo,
	}
}

// MemberInput represents create/update member input
type MemberInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Create creates a new member
func (s *MemberService) Create(ctx context.Context, input *MemberInput) (*models.Member, error) {
	status := input.Status
	if status == "" {
		status = "Active"
	}

	member := &models.Member{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Status:    status,
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return member, nil
}

// GetByID gets a member by ID
func (s *MemberService) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// List lists members with pagination
func (s *MemberService) List(ctx context.Context, params *pagination.Params) ([]*models.Member, int64, error) {
	return s.memberRepo.List(ctx, params.Offset, params.Limit)
}

// Update replaces the mutable fields of a member
func (s *MemberService) Update(ctx context.Context, id uint, input *MemberInput) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	member.FirstName = input.FirstName
	member.LastName = input.LastName
	member.Email = input.Email
	member.Phone = input.Phone
	if input.Status != "" {
		member.Status = input.Status
	}

	if err := s.memberRepo.Update(ctx, member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return member, nil
}

// Delete deletes a member. Refused while the member holds any loan that is
// not Returned.
func (s *MemberService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loans := s.loanRepo.WithTx(tx)
		members := s.memberRepo.WithTx(tx)

		active, err := loans.CountActiveByMember(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrMemberHasActiveLoans
		}

		if _, err := members.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}

		return members.Delete(ctx, id)
	})
}
