package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmehdipour/sms-panel/internal/db/dbtest"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/util"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newAccount(t *testing.T, db *sqlx.DB, name string, credits int64) *model.Account {
	t.Helper()
	a := &model.Account{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "x",
		APIKey:       util.NewAPIKey(),
		Role:         model.RoleUser,
		Status:       model.AccountActive,
		Credits:      credits,
	}
	require.NoError(t, NewAccountsRepository(db).Create(context.Background(), a))
	return a
}

func newCampaign(t *testing.T, db *sqlx.DB, creator *model.Account) *model.Campaign {
	t.Helper()
	c := &model.Campaign{
		ID:          util.NewID(),
		Message:     "hello",
		CreatorID:   creator.ID,
		CreatorRole: creator.Role,
		Status:      model.CampaignScheduled,
	}
	require.NoError(t, NewCampaignsRepository(db).Create(context.Background(), c))
	return c
}

func openDB(t *testing.T) *sqlx.DB { return dbtest.Open(t) }
