package services

import (
	"context"
	"testing"

	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/domain"
	"shelftrack/internal/pkg/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateItem(t *testing.T) {
	env := newTestEnv(t)

	item, err := env.itemService.Create(context.Background(), &ItemInput{
		Code:            "BK-001",
		Title:           "Dune",
		Author:          "Frank Herbert",
		Genre:           "Science Fiction",
		AvailableCopies: 4,
		TotalCopies:     4,
	})
	require.NoError(t, err)

	assert.NotZero(t, item.ID)
	assert.Equal(t, "BK-001", item.Code)
	assert.Equal(t, 4, item.AvailableCopies)
}

func TestCreateItemDuplicateCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createItem(t, "BK-001", 1, 1)

	_, err := env.itemService.Create(ctx, &ItemInput{
		Code:   "BK-001",
		Title:  "Another Title",
		Author: "Another Author",
	})
	assert.ErrorIs(t, err, ErrItemCodeTaken)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateItemNegativeCopies(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.itemService.Create(context.Background(), &ItemInput{
		Code:            "BK-001",
		Title:           "Dune",
		Author:          "Frank Herbert",
		AvailableCopies: -1,
		TotalCopies:     2,
	})
	assert.ErrorIs(t, err, ErrNegativeCopies)
}

func TestGetItemNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.itemService.GetByID(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestUpdateItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item := env.createItem(t, "BK-001", 2, 2)

	updated, err := env.itemService.Update(ctx, item.ID, &ItemInput{
		Code:            "BK-001",
		Title:           "Dune Messiah",
		Author:          "Frank Herbert",
		Genre:           "Science Fiction",
		AvailableCopies: 5,
		TotalCopies:     6,
	})
	require.NoError(t, err)

	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.Equal(t, 5, updated.AvailableCopies)
	assert.Equal(t, 6, updated.TotalCopies)
}

func TestUpdateItemDuplicateCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createItem(t, "BK-001", 1, 1)
	other := env.createItem(t, "BK-002", 1, 1)

	_, err := env.itemService.Update(ctx, other.ID, &ItemInput{
		Code:   "BK-001",
		Title:  "Clash",
		Author: "Someone",
	})
	assert.ErrorIs(t, err, ErrItemCodeTaken)
}

func TestDeleteItemBlockedByActiveLoan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	member := env.createMember(t, "ada@example.com")
	item := env.createItem(t, "BK-001", 1, 1)

	loan, err := env.loanService.Issue(ctx, &IssueLoanInput{ItemID: item.ID, MemberID: member.ID})
	require.NoError(t, err)

	err = env.itemService.Delete(ctx, item.ID)
	assert.ErrorIs(t, err, ErrItemHasActiveLoans)

	// Closed loans no longer block deletion
	_, err = env.loanService.Return(ctx, loan.ID)
	require.NoError(t, err)
	require.NoError(t, env.itemService.Delete(ctx, item.ID))

	_, err = env.itemService.GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestDeleteItemNotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.itemService.Delete(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestListItemsPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createItem(t, "BK-001", 1, 1)
	env.createItem(t, "BK-002", 1, 1)
	env.createItem(t, "BK-003", 1, 1)

	items, total, err := env.itemService.List(ctx, &pagination.Params{Page: 1, Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.EqualValues(t, 3, total)

	items, _, err = env.itemService.List(ctx, &pagination.Params{Page: 2, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "BK-003", items[0].Code)
}

func TestSearchItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.itemService.Create(ctx, &ItemInput{
		Code: "BK-001", Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin",
		Genre: "Science Fiction", AvailableCopies: 1, TotalCopies: 1,
	})
	require.NoError(t, err)
	_, err = env.itemService.Create(ctx, &ItemInput{
		Code: "BK-002", Title: "A Wizard of Earthsea", Author: "Ursula K. Le Guin",
		Genre: "Fantasy", AvailableCopies: 0, TotalCopies: 1,
	})
	require.NoError(t, err)
	_, err = env.itemService.Create(ctx, &ItemInput{
		Code: "BK-003", Title: "Darkness Visible", Author: "William Golding",
		Genre: "Fiction", AvailableCopies: 1, TotalCopies: 1,
	})
	require.NoError(t, err)

	// Case-insensitive substring match
	items, err := env.itemService.Search(ctx, repositories.ItemSearchFilter{Title: "darkness"})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	// Criteria are AND-combined
	items, err = env.itemService.Search(ctx, repositories.ItemSearchFilter{Title: "darkness", Author: "le guin"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "BK-001", items[0].Code)

	// AvailableOnly drops exhausted items
	items, err = env.itemService.Search(ctx, repositories.ItemSearchFilter{Author: "le guin", AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "BK-001", items[0].Code)

	// No matches is an empty result, not an error
	items, err = env.itemService.Search(ctx, repositories.ItemSearchFilter{Genre: "biography"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearchItemsRequiresFilter(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.itemService.Search(context.Background(), repositories.ItemSearchFilter{})
	assert.ErrorIs(t, err, ErrSearchFilterRequired)

	// AvailableOnly alone is not a text criterion
	_, err = env.itemService.Search(context.Background(), repositories.ItemSearchFilter{AvailableOnly: true})
	assert.ErrorIs(t, err, ErrSearchFilterRequired)
}

func TestAdjustAvailabilityBounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item := env.createItem(t, "BK-001", 1, 2)
	repo := repositories.NewItemRepository(env.db)

	// Within bounds
	require.NoError(t, repo.AdjustAvailability(ctx, item.ID, 1))
	assert.Equal(t, 2, env.availableCopies(t, item.ID))

	// Above total_copies
	err := repo.AdjustAvailability(ctx, item.ID, 1)
	assert.ErrorIs(t, err, repositories.ErrAvailabilityOutOfRange)
	assert.Equal(t, 2, env.availableCopies(t, item.ID))

	// Below zero
	err = repo.AdjustAvailability(ctx, item.ID, -3)
	assert.ErrorIs(t, err, repositories.ErrAvailabilityOutOfRange)
	assert.Equal(t, 2, env.availableCopies(t, item.ID))

	// Unknown item reports the same guard failure
	err = repo.AdjustAvailability(ctx, 9999, 1)
	assert.ErrorIs(t, err, repositories.ErrAvailabilityOutOfRange)
}
