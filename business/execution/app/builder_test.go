package app

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	strategyDomain "github.com/crosspool/poolarb/business/strategy/domain"
)

func TestActionBuilder_Build(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	builder := NewActionBuilder()
	builder.now = func() time.Time { return now }

	opp := sizedOpportunity(now)
	params := strategyDomain.DefaultParameters()

	action, err := builder.Build(context.Background(), opp, params)
	require.NoError(t, err)

	assert.Equal(t, opp.ID, action.OpportunityID)
	assert.Equal(t, "uniswap-eth-usdc", action.BuyPoolID)
	assert.Equal(t, "sushi-eth-usdc", action.SellPoolID)
	assert.Equal(t, "ETH", action.BaseSymbol)
	assert.True(t, action.Amount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, action.PoolDepth.Equal(opp.MinLiquidity()))
	assert.True(t, action.MinProfit.Equal(params.MinProfit))
	assert.Equal(t, now.Add(30*time.Second), action.Deadline)
}

func TestActionBuilder_RejectsUnsizedOpportunity(t *testing.T) {
	builder := NewActionBuilder()

	opp := sizedOpportunity(time.Now())
	opp.TradeAmount = decimal.Zero

	_, err := builder.Build(context.Background(), opp, strategyDomain.DefaultParameters())
	require.Error(t, err)
}
