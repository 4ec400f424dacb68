package application

import (
	"testing"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverResolve(t *testing.T) {
	t.Parallel()

	agent := newFakeAgent()
	other := newFakeAgent()

	tests := []struct {
		name    string
		kind    domain.AgentKind
		host    *fakeHost
		wantID  string
		wantErr error
	}{
		{
			name:   "single metamask provider",
			kind:   domain.AgentMetaMask,
			host:   &fakeHost{injected: provider("metamask", agent, nil, domain.FlagMetaMask)},
			wantID: "metamask:metamask",
		},
		{
			name: "metamask rejects provider claiming only coinbase",
			kind: domain.AgentMetaMask,
			host: &fakeHost{injected: provider("cb", agent, nil, domain.FlagCoinbaseWallet)},
			// Never cross-resolve to the competing agent.
			wantErr: domain.ErrAgentNotFound,
		},
		{
			name: "sub-provider with exclusive flag beats shared-flag parent",
			kind: domain.AgentMetaMask,
			host: func() *fakeHost {
				parent := provider("aggregate", other, nil, domain.FlagMetaMask, domain.FlagCoinbaseWallet)
				parent.Providers = []*ports.InjectedProvider{
					provider("cb", other, nil, domain.FlagCoinbaseWallet),
					provider("mm", agent, nil, domain.FlagMetaMask),
				}
				return &fakeHost{injected: parent}
			}(),
			wantID: "metamask:mm",
		},
		{
			name:   "shared flags fall back to the aggregate provider",
			kind:   domain.AgentCoinbase,
			host:   &fakeHost{injected: provider("aggregate", agent, nil, domain.FlagMetaMask, domain.FlagCoinbaseWallet)},
			wantID: "coinbase:aggregate",
		},
		{
			name: "coinbase alternate binding",
			kind: domain.AgentCoinbase,
			host: &fakeHost{
				injected: provider("metamask", other, nil, domain.FlagMetaMask),
				globals:  map[string]*ports.InjectedProvider{"coinbaseWalletExtension": provider("", agent, nil)},
			},
			wantID: "coinbase:coinbaseWalletExtension/injected",
		},
		{
			name: "alternate binding outranks shared flags",
			kind: domain.AgentCoinbase,
			host: &fakeHost{
				injected: provider("aggregate", other, nil, domain.FlagMetaMask, domain.FlagCoinbaseWallet),
				globals:  map[string]*ports.InjectedProvider{"walletLinkExtension": provider("link", agent, nil)},
			},
			wantID: "coinbase:walletLinkExtension/link",
		},
		{
			name: "client identifier is the weakest signal",
			kind: domain.AgentCoinbase,
			host: &fakeHost{
				injected: provider("unflagged", agent, nil),
				clientID: "Mozilla/5.0 CoinbaseWallet/29.1",
			},
			wantID: "coinbase:unflagged",
		},
		{
			name:    "unflagged provider without hints",
			kind:    domain.AgentCoinbase,
			host:    &fakeHost{injected: provider("unflagged", agent, nil)},
			wantErr: domain.ErrAgentNotFound,
		},
		{
			name:    "provider without agent is skipped",
			kind:    domain.AgentMetaMask,
			host:    &fakeHost{injected: provider("metamask", nil, nil, domain.FlagMetaMask)},
			wantErr: domain.ErrAgentNotFound,
		},
		{
			name:    "nothing injected",
			kind:    domain.AgentMetaMask,
			host:    &fakeHost{},
			wantErr: domain.ErrAgentNotFound,
		},
		{
			name:    "unknown kind",
			kind:    domain.AgentKind("rabby"),
			host:    &fakeHost{injected: provider("metamask", agent, nil, domain.FlagMetaMask)},
			wantErr: domain.ErrAgentNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handle, err := NewResolver(tc.host, nil).Resolve(tc.kind)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, handle.ID)
			assert.Equal(t, tc.kind, handle.Kind)
			assert.Same(t, agent, handle.Agent)
		})
	}
}

func TestResolverPrefersFirstCandidateOnTie(t *testing.T) {
	t.Parallel()

	first := newFakeAgent()
	parent := provider("aggregate", newFakeAgent(), nil)
	parent.Providers = []*ports.InjectedProvider{
		provider("first", first, nil, domain.FlagMetaMask),
		provider("second", newFakeAgent(), nil, domain.FlagMetaMask),
	}

	handle, err := NewResolver(&fakeHost{injected: parent}, nil).Resolve(domain.AgentMetaMask)
	require.NoError(t, err)
	assert.Equal(t, "metamask:first", handle.ID)
	assert.Same(t, first, handle.Agent)
}

func TestResolverNilHost(t *testing.T) {
	t.Parallel()

	_, err := NewResolver(nil, nil).Resolve(domain.AgentMetaMask)
	assert.ErrorIs(t, err, domain.ErrAgentNotFound)
}
