package service

import (
	"testing"

	"github.com/rongwang/condo-ledger/internal/filter"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTagPatternToExistingExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	tag := env.tag(t, "Condo fee", "2024-03")

	first := env.transaction(t, models.CreateTransactionRequest{Amount: "100", Description: "Condo fee apt 101"})
	second := env.transaction(t, models.CreateTransactionRequest{Amount: "100", Description: "CONDO FEE apt 102"})
	env.transaction(t, models.CreateTransactionRequest{Amount: "20", Description: "water"})
	dup := env.transaction(t, models.CreateTransactionRequest{Amount: "100", Description: "condo fee apt 103"})
	require.NoError(t, env.svc.MarkTransactionDuplicate(env.ctx, env.admin, dup.ID, true))

	// Already tagged by hand; must not gain a second association.
	require.NoError(t, env.svc.AddTransactionTag(env.ctx, env.admin, first.ID, tag.ID))

	res, err := env.svc.CreatePattern(env.ctx, env.admin, PatternTarget{TagID: tag.ID},
		models.CreatePatternRequest{Pattern: "condo fee", ApplyToExisting: true})
	require.NoError(t, err)
	require.NotNil(t, res.Applied)
	assert.Equal(t, 2, res.Applied.Matched)
	assert.Equal(t, int64(1), res.Applied.Assigned)

	// A second pattern matching the same rows changes nothing.
	res, err = env.svc.CreatePattern(env.ctx, env.admin, PatternTarget{TagID: tag.ID},
		models.CreatePatternRequest{Pattern: "fee", ApplyToExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied.Matched)
	assert.Equal(t, int64(0), res.Applied.Assigned)

	var associations int
	err = env.repo.GetDB().Get(&associations,
		env.repo.GetDB().Rebind(`SELECT COUNT(*) FROM transaction_to_tags WHERE tag_id = ?`), tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, associations)

	list, err := env.svc.ListTransactions(env.ctx, filter.TransactionFilter{Page: 1}.WithTag(tag.ID))
	require.NoError(t, err)
	require.Len(t, list.Transactions, 2)
	ids := []string{list.Transactions[0].ID, list.Transactions[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
}

func TestApplyOwnerPatternFillsOnlyUnassigned(t *testing.T) {
	env := newTestEnv(t)
	ana := env.owner(t, "101")
	ben := env.owner(t, "102")

	unassigned := env.transaction(t, models.CreateTransactionRequest{Amount: "100", Description: "transfer apt 101"})
	assigned := env.transaction(t, models.CreateTransactionRequest{
		Amount: "100", Description: "transfer apt 101 for ben", OwnerID: ben.ID,
	})

	res, err := env.svc.CreatePattern(env.ctx, env.admin, PatternTarget{OwnerID: ana.ID},
		models.CreatePatternRequest{Pattern: `apt 101`, ApplyToExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied.Matched)
	assert.Equal(t, int64(1), res.Applied.Assigned)

	got, err := env.svc.GetTransaction(env.ctx, unassigned.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, ana.ID, *got.OwnerID)

	got, err = env.svc.GetTransaction(env.ctx, assigned.ID)
	require.NoError(t, err)
	assert.Equal(t, ben.ID, *got.OwnerID)
}

func TestCreatePatternValidation(t *testing.T) {
	env := newTestEnv(t)
	tag := env.tag(t, "Water", "")
	owner := env.owner(t, "101")

	_, err := env.svc.CreatePattern(env.ctx, env.admin, PatternTarget{TagID: tag.ID},
		models.CreatePatternRequest{Pattern: "water("})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.svc.CreatePattern(env.ctx, env.admin, PatternTarget{TagID: tag.ID},
		models.CreatePatternRequest{Pattern: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.svc.CreatePattern(env.ctx, env.admin, PatternTarget{TagID: tag.ID, OwnerID: owner.ID},
		models.CreatePatternRequest{Pattern: "water"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.svc.CreatePattern(env.ctx, env.admin, PatternTarget{TagID: "missing"},
		models.CreatePatternRequest{Pattern: "water"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.svc.SetOwnerActive(env.ctx, env.admin, owner.ID, false))
	_, err = env.svc.CreatePattern(env.ctx, env.admin, PatternTarget{OwnerID: owner.ID},
		models.CreatePatternRequest{Pattern: "apt 101", ApplyToExisting: true})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTogglePatternAndDelete(t *testing.T) {
	env := newTestEnv(t)
	tag := env.tag(t, "Water", "")
	other := env.tag(t, "Gas", "")

	res, err := env.svc.CreatePattern(env.ctx, env.admin, PatternTarget{TagID: tag.ID},
		models.CreatePatternRequest{Pattern: "water"})
	require.NoError(t, err)
	id := res.Pattern.ID

	toggled, err := env.svc.TogglePattern(env.ctx, env.admin, PatternTarget{TagID: tag.ID}, id)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	// Inactive patterns do not classify.
	tx := env.transaction(t, models.CreateTransactionRequest{Amount: "20", Description: "water bill"})
	assert.Empty(t, tx.Tags)

	_, err = env.svc.TogglePattern(env.ctx, env.admin, PatternTarget{TagID: other.ID}, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.svc.DeletePattern(env.ctx, env.admin, PatternTarget{TagID: other.ID}, id), ErrNotFound)

	require.NoError(t, env.svc.DeletePattern(env.ctx, env.admin, PatternTarget{TagID: tag.ID}, id))
	detail, err := env.svc.GetTag(env.ctx, tag.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Patterns)
}

func TestAutoAssign(t *testing.T) {
	env := newTestEnv(t)
	ana := env.owner(t, "101")
	ben := env.owner(t, "102")
	fee := env.tag(t, "Condo fee", "2024-03")
	transfer := env.tag(t, "Transfer", "")

	tx := env.transaction(t, models.CreateTransactionRequest{Amount: "100", Description: "Transfer condo fee 101"})
	assert.Nil(t, tx.OwnerID)

	for _, p := range []struct {
		target  PatternTarget
		pattern string
	}{
		{PatternTarget{OwnerID: ana.ID}, `fee 101`},
		{PatternTarget{OwnerID: ben.ID}, `condo`},
		{PatternTarget{TagID: fee.ID}, `condo fee`},
		{PatternTarget{TagID: transfer.ID}, `^transfer`},
	} {
		_, err := env.svc.CreatePattern(env.ctx, env.admin, p.target, models.CreatePatternRequest{Pattern: p.pattern})
		require.NoError(t, err)
	}

	res := env.svc.AutoAssign(env.ctx, env.admin, tx.ID)
	require.True(t, res.Success, res.Error)
	require.NotNil(t, res.OwnerID)
	assert.Equal(t, ana.ID, *res.OwnerID, "oldest matching owner pattern wins")
	assert.ElementsMatch(t, []string{fee.ID, transfer.ID}, res.TagIDs)

	// Running it again is harmless.
	res = env.svc.AutoAssign(env.ctx, env.admin, tx.ID)
	require.True(t, res.Success)

	got, err := env.svc.GetTransaction(env.ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, ana.ID, *got.OwnerID)
	assert.Len(t, got.Tags, 2)
}

func TestAutoAssignSkipsInactiveOwners(t *testing.T) {
	env := newTestEnv(t)
	ana := env.owner(t, "101")
	ben := env.owner(t, "102")

	for _, owner := range []*models.Owner{ana, ben} {
		_, err := env.svc.CreatePattern(env.ctx, env.admin, PatternTarget{OwnerID: owner.ID},
			models.CreatePatternRequest{Pattern: "rent"})
		require.NoError(t, err)
	}
	require.NoError(t, env.svc.SetOwnerActive(env.ctx, env.admin, ana.ID, false))

	tx := env.transaction(t, models.CreateTransactionRequest{Amount: "100", Description: "rent"})
	require.NotNil(t, tx.OwnerID)
	assert.Equal(t, ben.ID, *tx.OwnerID)
}

func TestAutoAssignReportsFailures(t *testing.T) {
	env := newTestEnv(t)

	res := env.svc.AutoAssign(env.ctx, env.admin, "missing")
	assert.False(t, res.Success)
	assert.Equal(t, "transaction not found", res.Error)
	assert.Nil(t, res.OwnerID)
	assert.NotNil(t, res.TagIDs)

	tx := env.transaction(t, models.CreateTransactionRequest{Amount: "5", Description: "bank charge"})
	res = env.svc.AutoAssign(env.ctx, env.admin, tx.ID)
	assert.True(t, res.Success)
	assert.Nil(t, res.OwnerID)
	assert.Empty(t, res.TagIDs)
}

func TestAutoAssignFallsBackToBankDescription(t *testing.T) {
	env := newTestEnv(t)
	owner := env.owner(t, "101")

	tx := env.transaction(t, models.CreateTransactionRequest{Amount: "100", Description: "TRF 0001 APT101"})
	require.NoError(t, env.svc.UpdateTransactionDescription(env.ctx, env.admin, tx.ID, ""))

	_, err := env.svc.CreatePattern(env.ctx, env.admin, PatternTarget{OwnerID: owner.ID},
		models.CreatePatternRequest{Pattern: "apt101"})
	require.NoError(t, err)

	res := env.svc.AutoAssign(env.ctx, env.admin, tx.ID)
	require.True(t, res.Success)
	require.NotNil(t, res.OwnerID)
	assert.Equal(t, owner.ID, *res.OwnerID)
}
