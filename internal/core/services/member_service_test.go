package services

import (
	"context"
	"testing"

	"shelftrack/internal/core/domain"
	"shelftrack/internal/pkg/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMember(t *testing.T) {
	env := newTestEnv(t)

	member, err := env.memberService.Create(context.Background(), &MemberInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "555-0100",
	})
	require.NoError(t, err)

	assert.NotZero(t, member.ID)
	assert.Equal(t, "ada@example.com", member.Email)
	assert.Equal(t, "Active", member.Status, "status defaults to Active")
}

func TestCreateMemberDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createMember(t, "ada@example.com")

	_, err := env.memberService.Create(ctx, &MemberInput{
		FirstName: "Augusta",
		LastName:  "King",
		Email:     "ada@example.com",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGetMemberNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.memberService.GetByID(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrMemberNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	member := env.createMember(t, "ada@example.com")

	updated, err := env.memberService.Update(ctx, member.ID, &MemberInput{
		FirstName: "Ada",
		LastName:  "King",
		Email:     "ada.king@example.com",
		Status:    "Suspended",
	})
	require.NoError(t, err)

	assert.Equal(t, "King", updated.LastName)
	assert.Equal(t, "ada.king@example.com", updated.Email)
	assert.Equal(t, "Suspended", updated.Status)
}

func TestUpdateMemberDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createMember(t, "ada@example.com")
	bob := env.createMember(t, "bob@example.com")

	_, err := env.memberService.Update(ctx, bob.ID, &MemberInput{
		FirstName: "Bob",
		LastName:  "Builder",
		Email:     "ada@example.com",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestDeleteMemberBlockedByActiveLoan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	member := env.createMember(t, "ada@example.com")
	item := env.createItem(t, "BK-001", 1, 1)

	loan, err := env.loanService.Issue(ctx, &IssueLoanInput{ItemID: item.ID, MemberID: member.ID})
	require.NoError(t, err)

	err = env.memberService.Delete(ctx, member.ID)
	assert.ErrorIs(t, err, ErrMemberHasActiveLoans)

	// Once the loan is returned the member can be deleted
	_, err = env.loanService.Return(ctx, loan.ID)
	require.NoError(t, err)
	require.NoError(t, env.memberService.Delete(ctx, member.ID))

	_, err = env.memberService.GetByID(ctx, member.ID)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestDeleteMemberNotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.memberService.Delete(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestListMembersPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createMember(t, "a@example.com")
	env.createMember(t, "b@example.com")
	env.createMember(t, "c@example.com")

	members, total, err := env.memberService.List(ctx, &pagination.Params{Page: 1, Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.EqualValues(t, 3, total)

	members, _, err = env.memberService.List(ctx, &pagination.Params{Page: 2, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "c@example.com", members[0].Email)
}
