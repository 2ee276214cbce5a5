package app

import (
	"context"
	"testing"

	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/jmehdipour/sms-panel/internal/db/dbtest"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/service/accounts"
	"github.com/jmehdipour/sms-panel/internal/service/campaign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRunsACampaignThroughTheSimulator(t *testing.T) {
	var cfg config.Config
	cfg.Simulator.Enabled = true

	a, err := Build(cfg, dbtest.Open(t), nil)
	require.NoError(t, err)

	ctx := context.Background()
	acc, err := a.Accounts.Register(ctx, accounts.RegisterCmd{
		Name: "alice", Email: "alice@example.com", Password: "secret1", Credits: 5,
	})
	require.NoError(t, err)
	id := model.Identity{AccountID: acc.ID, Role: acc.Role}

	campaignID, err := a.Engine.CreateCampaign(ctx, id, campaign.CreateCampaignCmd{
		Message: "hello",
		Numbers: "1\n2\n3",
	})
	require.NoError(t, err)

	res, err := a.Engine.Dispatch(ctx, id, campaignID)
	require.NoError(t, err)
	assert.Equal(t, campaign.Result{Sent: 3}, res)

	d, err := a.Stats.DashboardStats(ctx, &acc.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, d.TotalCredits)
	assert.EqualValues(t, 3, d.SentToday)
}

func TestBuildWithoutChannel(t *testing.T) {
	_, err := Build(config.Config{}, dbtest.Open(t), nil)
	assert.Error(t, err)
}
