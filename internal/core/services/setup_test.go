package services

import (
	"context"
	"path/filepath"
	"testing"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv bundles a fresh database and the services under test
type testEnv struct {
	db            *gorm.DB
	memberService *MemberService
	itemService   *ItemService
	loanService   *LoanService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	memberRepo := repositories.NewMemberRepository(db)
	itemRepo := repositories.NewItemRepository(db)
	loanRepo := repositories.NewLoanRepository(db)

	return &testEnv{
		db:            db,
		memberService: NewMemberService(db, memberRepo, loanRepo),
		itemService:   NewItemService(db, itemRepo, loanRepo),
		loanService:   NewLoanService(db, loanRepo, itemRepo, memberRepo),
	}
}

func (e *testEnv) createMember(t *testing.T, email string) *models.Member {
	t.Helper()

	member, err := e.memberService.Create(context.Background(), &MemberInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
	})
	require.NoError(t, err)
	return member
}

func (e *testEnv) createItem(t *testing.T, code string, available, total int) *models.Item {
	t.Helper()

	item, err := e.itemService.Create(context.Background(), &ItemInput{
		Code:            code,
		Title:           "The Go Programming Language",
		Author:          "Donovan & Kernighan",
		Genre:           "Programming",
		AvailableCopies: available,
		TotalCopies:     total,
	})
	require.NoError(t, err)
	return item
}

func (e *testEnv) availableCopies(t *testing.T, itemID uint) int {
	t.Helper()

	var item models.Item
	require.NoError(t, e.db.First(&item, itemID).Error)
	return item.AvailableCopies
}
