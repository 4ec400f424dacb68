package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const sampleConfig = `
[host]
client_identifier = "Mozilla/5.0 CoinbaseWallet/29.1"

[host.injected]
name = "injected"

[[host.injected.providers]]
name = "metamask"
endpoint = "ws://127.0.0.1:9545"
flags = ["isMetaMask"]
methods = ["eth_accounts", "eth_requestAccounts", "eth_chainId"]

[[host.injected.providers]]
name = "coinbase"
endpoint = "ws://127.0.0.1:9546"
flags = ["isCoinbaseWallet", " "]

[host.globals.coinbaseWalletExtension]
name = "coinbase-extension"
endpoint = "ws://127.0.0.1:9546"
`

func loadViper(t *testing.T, raw string) *viper.Viper {
	t.Helper()

	cfg := viper.New()
	cfg.SetConfigType("toml")
	require.NoError(t, cfg.ReadConfig(bytes.NewBufferString(raw)))
	return cfg
}

type chainService struct{}

func (chainService) ChainId() string { return "0x13882" }

type walletService struct {
	notify chan string
}

func (w *walletService) ChainChanged(ctx context.Context) (*gethrpc.Subscription, error) {
	notifier, ok := gethrpc.NotifierFromContext(ctx)
	if !ok {
		return nil, gethrpc.ErrNotificationsUnsupported
	}
	sub := notifier.CreateSubscription()
	go func() {
		for {
			select {
			case chainID := <-w.notify:
				_ = notifier.Notify(sub.ID, chainID)
			case <-sub.Err():
				return
			}
		}
	}()
	return sub, nil
}

type countingDialer struct {
	server *gethrpc.Server
	dials  atomic.Int32
	fail   atomic.Bool
}

func newCountingDialer(t *testing.T, wallet *walletService) *countingDialer {
	t.Helper()

	server := gethrpc.NewServer()
	require.NoError(t, server.RegisterName("eth", chainService{}))
	if wallet != nil {
		require.NoError(t, server.RegisterName("wallet", wallet))
	}
	t.Cleanup(server.Stop)
	return &countingDialer{server: server}
}

func (d *countingDialer) dial(_ context.Context, _ string) (*gethrpc.Client, error) {
	d.dials.Add(1)
	if d.fail.Load() {
		return nil, errors.New("connection refused")
	}
	return gethrpc.DialInProc(d.server), nil
}

func TestLoadConfigReadsProviderTree(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(loadViper(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "Mozilla/5.0 CoinbaseWallet/29.1", cfg.ClientIdentifier)
	require.NotNil(t, cfg.Injected)
	require.Len(t, cfg.Injected.Providers, 2)
	assert.Equal(t, "metamask", cfg.Injected.Providers[0].Name)
	assert.Equal(t, []string{"eth_accounts", "eth_requestAccounts", "eth_chainId"}, cfg.Injected.Providers[0].Methods)
	assert.Equal(t, "ws://127.0.0.1:9546", cfg.Globals["coinbasewalletextension"].Endpoint)
}

func TestLoadConfigWithoutHostTable(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(viper.New())
	require.NoError(t, err)
	assert.Nil(t, cfg.Injected)

	h := New(cfg)
	assert.Nil(t, h.Injected())
	assert.Nil(t, h.Global("coinbaseWalletExtension"))
	assert.Empty(t, h.ClientIdentifier())
}

func TestLoadConfigRejectsInvalidProviders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{
			name:    "missing endpoint",
			raw:     "[host.injected]\nname = \"metamask\"\n",
			wantErr: "host provider injected: endpoint is required",
		},
		{
			name: "nested lists",
			raw: `
[[host.injected.providers]]
name = "outer"
[[host.injected.providers.providers]]
endpoint = "ws://127.0.0.1:1"
`,
			wantErr: "nested provider lists are not supported",
		},
		{
			name:    "global without endpoint",
			raw:     "[host.globals.walletLinkExtension]\nname = \"x\"\n",
			wantErr: "globals.walletlinkextension: endpoint is required",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadConfig(loadViper(t, tc.raw))
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestHostBuildsProviderSlots(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(loadViper(t, sampleConfig))
	require.NoError(t, err)

	h := New(cfg)
	defer h.Close()

	injected := h.Injected()
	require.NotNil(t, injected)
	assert.Nil(t, injected.Agent, "wrapper slot without endpoint has no agent")
	require.Len(t, injected.Providers, 2)
	assert.True(t, injected.Providers[0].HasFlag(domain.FlagMetaMask))
	assert.True(t, injected.Providers[1].HasFlag(domain.FlagCoinbaseWallet))
	assert.Len(t, injected.Providers[1].Flags, 1)

	reporter, ok := injected.Providers[0].Agent.(ports.CapabilityReporter)
	require.True(t, ok)
	assert.True(t, reporter.Supports("eth_chainId"))
	assert.False(t, reporter.Supports("wallet_addEthereumChain"))

	unrestricted := injected.Providers[1].Agent.(ports.CapabilityReporter)
	assert.True(t, unrestricted.Supports("wallet_addEthereumChain"))

	assert.NotNil(t, h.Global("coinbaseWalletExtension"))
}

func TestHostDialsLazilyAndSharesEndpoints(t *testing.T) {
	t.Parallel()

	dialer := newCountingDialer(t, nil)
	cfg, err := LoadConfig(loadViper(t, sampleConfig))
	require.NoError(t, err)

	h := New(cfg, WithDialer(dialer.dial))
	defer h.Close()
	assert.Zero(t, dialer.dials.Load(), "building the host must not dial")

	coinbase := h.Injected().Providers[1]
	raw, err := coinbase.Agent.Request(context.Background(), "eth_chainId")
	require.NoError(t, err)
	assert.JSONEq(t, `"0x13882"`, string(raw))

	_, err = h.Global("coinbaseWalletExtension").Agent.Request(context.Background(), "eth_chainId")
	require.NoError(t, err)
	assert.Equal(t, int32(1), dialer.dials.Load())
}

func TestHostDialFailureReadsAsMissingAgent(t *testing.T) {
	t.Parallel()

	dialer := newCountingDialer(t, nil)
	dialer.fail.Store(true)
	h := New(Config{Injected: &ProviderConfig{Name: "metamask", Endpoint: "ws://127.0.0.1:1"}}, WithDialer(dialer.dial))
	defer h.Close()

	_, err := h.Injected().Agent.Request(context.Background(), "eth_chainId")
	require.ErrorIs(t, err, domain.ErrAgentNotFound)
	assert.ErrorContains(t, err, "connection refused")

	remove := h.Injected().Events.On(ports.EventChainChanged, func(json.RawMessage) {})
	remove()

	dialer.fail.Store(false)
	_, err = h.Injected().Agent.Request(context.Background(), "eth_chainId")
	require.NoError(t, err)
	assert.Equal(t, int32(3), dialer.dials.Load())
}

func TestHostRelaysAgentEvents(t *testing.T) {
	t.Parallel()

	wallet := &walletService{notify: make(chan string, 1)}
	dialer := newCountingDialer(t, wallet)
	h := New(Config{Injected: &ProviderConfig{Endpoint: "ws://127.0.0.1:1"}}, WithDialer(dialer.dial))
	defer h.Close()

	got := make(chan json.RawMessage, 1)
	remove := h.Injected().Events.On(ports.EventChainChanged, func(payload json.RawMessage) { got <- payload })
	defer remove()

	wallet.notify <- "0x1"

	select {
	case payload := <-got:
		assert.JSONEq(t, `"0x1"`, string(payload))
	case <-time.After(time.Second):
		t.Fatal("chainChanged not relayed")
	}
}
