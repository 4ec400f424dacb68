package session

import (
	"math/big"
	"testing"
	"time"

	"github.com/bnema/poolwallet-cli/internal/application"
	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const address = "0x1111111111111111111111111111111111111111"

func amoyNetwork() application.NetworkView {
	return application.NetworkView{ChainID: "80002", Name: "Polygon Amoy"}
}

func TestRenderConnectedSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

	output, err := Render(application.SessionStatus{
		State:   domain.StateConnected,
		Network: amoyNetwork(),
		Connection: &application.ConnectionView{
			Address:   address,
			ChainID:   "80002",
			AgentKind: domain.AgentMetaMask,
		},
		Snapshot: &application.SnapshotView{
			Address:   address,
			ChainID:   "80002",
			AgentKind: domain.AgentMetaMask,
			SavedAt:   "2026-03-01T12:00:00Z",
		},
	}, RenderOptions{
		Now:            now,
		Balances:       &application.Balances{Token: big.NewInt(12_500_000), Native: big.NewInt(1e17)},
		Allowance:      big.NewInt(0),
		TokenSymbol:    "USDC",
		TokenDecimals:  6,
		NativeSymbol:   "POL",
		NativeDecimals: 18,
	})

	require.NoError(t, err)
	assert.Contains(t, output, "Wallet Session")
	assert.Contains(t, output, "network: Polygon Amoy (80002)")
	assert.Contains(t, output, "state: connected")
	assert.Contains(t, output, address)
	assert.Contains(t, output, "agent: MetaMask")
	assert.Contains(t, output, "balance: 12.5 USDC")
	assert.Contains(t, output, "fees: 0.1 POL")
	assert.Contains(t, output, "allowance: 0 USDC")
	assert.Contains(t, output, "saved 3 hours ago")
	assert.NotContains(t, output, "wrong network")
}

func TestRenderFlagsWrongNetwork(t *testing.T) {
	output, err := Render(application.SessionStatus{
		State:   domain.StateConnected,
		Network: amoyNetwork(),
		Connection: &application.ConnectionView{
			Address:   address,
			ChainID:   "1",
			AgentKind: domain.AgentCoinbase,
		},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "chain: 1 [wrong network]")
	assert.NotContains(t, output, "balance:")
	assert.NotContains(t, output, "saved session")
}

func TestRenderDisconnectedSession(t *testing.T) {
	output, err := Render(application.SessionStatus{
		State:   domain.StateDisconnected,
		Network: amoyNetwork(),
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "state: disconnected")
	assert.Contains(t, output, "No wallet connected.")
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "just now", formatAge(10*time.Second))
	assert.Equal(t, "1 minute ago", formatAge(90*time.Second))
	assert.Equal(t, "5 hours ago", formatAge(5*time.Hour+20*time.Minute))
	assert.Equal(t, "2 days ago", formatAge(50*time.Hour))
}

func TestSavedLineWithoutClock(t *testing.T) {
	assert.Equal(t, "saved 2026-03-01T12:00:00Z", savedLine("2026-03-01T12:00:00Z", time.Time{}))
	assert.Equal(t, "saved yesterday", savedLine("yesterday", time.Now()))
	assert.Empty(t, savedLine("", time.Now()))
}
