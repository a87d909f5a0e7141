package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Catalog & circulation tables
// ============================================================

// Loan status values. Borrowed is the only non-terminal status; Returned
// is terminal.
const (
	LoanStatusBorrowed = "Borrowed"
	LoanStatusReturned = "Returned"
)

// Member represents the members table
type Member struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:100;not null" json:"first_name"`
	LastName  string    `gorm:"size:100;not null" json:"last_name"`
	Email     string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Phone     string    `gorm:"size:30" json:"phone,omitempty"`
	Status    string    `gorm:"size:50;not null;default:'Active'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}

// Item represents the items table. AvailableCopies is only kept consistent
// with outstanding loans by the loan service's transitions; the item update
// endpoint can overwrite both counters directly.
type Item struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Code            string    `gorm:"uniqueIndex;size:32;not null" json:"code"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	Author          string    `gorm:"size:255;not null" json:"author"`
	Genre           string    `gorm:"size:100" json:"genre,omitempty"`
	AvailableCopies int       `gorm:"not null;default:0" json:"available_copies"`
	TotalCopies     int       `gorm:"not null;default:0" json:"total_copies"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Item) TableName() string {
	return "items"
}

// Loan represents the loans table. A loan is created only by the issue
// operation and mutated only by return or delete.
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ItemID     uint       `gorm:"not null;index" json:"item_id"`
	MemberID   uint       `gorm:"not null;index" json:"member_id"`
	LoanDate   time.Time  `gorm:"type:date;not null" json:"loan_date"`
	DueDate    time.Time  `gorm:"type:date;not null" json:"due_date"`
	ReturnDate *time.Time `gorm:"type:date" json:"return_date"`
	Status     string     `gorm:"size:20;not null;default:'Borrowed'" json:"status"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Item   *Item   `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// IsActive reports whether the loan still holds a copy out
func (l *Loan) IsActive() bool {
	return l.Status != LoanStatusReturned
}

// IsOverdue reports whether an active loan is past its due date
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.IsActive() && l.DueDate.Before(now)
}

// ============================================================
// Staff auth tables
// ============================================================

// User represents staff accounts
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      string    `gorm:"size:20;default:'STAFF'" json:"role"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Member{},
		&Item{},
		&Loan{},
		&User{},
		&RefreshToken{},
	)
}
