package cmd

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/bnema/poolwallet-cli/internal/application"
	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

const (
	keyConnectTimeout      = "connect.timeout"
	keyNetworkChainID      = "network.chain_id"
	keyNetworkName         = "network.name"
	keyNetworkCurrencyName = "network.currency.name"
	keyNetworkCurrencySym  = "network.currency.symbol"
	keyNetworkCurrencyDec  = "network.currency.decimals"
	keyNetworkRPCURLs      = "network.rpc_urls"
	keyNetworkExplorerURL  = "network.explorer_url"
	keyTokenAddress        = "contracts.token"
	keyTokenSymbol         = "contracts.token_symbol"
	keyTokenDecimals       = "contracts.token_decimals"
	keyPoolAddress         = "contracts.pool"
	keyPlatformFee         = "contracts.platform_fee"
	keyLedgerRPCURL        = "ledger.rpc_url"
	keyLedgerSecretRef     = "ledger.rpc_secret_ref"
	keyLedgerPollInterval  = "ledger.poll_interval"
	keyEligibilityURL      = "eligibility.url"
	keySecretsDir          = "secrets.dir"
	keyLogLevel            = "log.level"
	keyLocale              = "locale"
)

var errContractsNotConfigured = errors.New("contract addresses are not configured")

type settings struct {
	connectTimeout time.Duration
	network        domain.NetworkDescriptor
	token          common.Address
	tokenSymbol    string
	tokenDecimals  uint8
	pool           common.Address
	platformFee    *big.Int
	ledgerRPCURL   string
	ledgerSecret   string
	pollInterval   time.Duration
	eligibilityURL string
	secretsDir     string
	logLevel       string
	locale         domain.Locale
}

func setDefaults(cfg *viper.Viper, secretsDir string) {
	amoy := domain.PolygonAmoy

	cfg.SetDefault(keyConnectTimeout, application.DefaultConnectTimeout)
	cfg.SetDefault(keyNetworkChainID, amoy.ChainID.Int64())
	cfg.SetDefault(keyNetworkName, amoy.Name)
	cfg.SetDefault(keyNetworkCurrencyName, amoy.Currency.Name)
	cfg.SetDefault(keyNetworkCurrencySym, amoy.Currency.Symbol)
	cfg.SetDefault(keyNetworkCurrencyDec, amoy.Currency.Decimals)
	cfg.SetDefault(keyNetworkRPCURLs, amoy.RPCURLs)
	cfg.SetDefault(keyNetworkExplorerURL, amoy.ExplorerURL)
	cfg.SetDefault(keyTokenSymbol, "USDC")
	cfg.SetDefault(keyTokenDecimals, 6)
	cfg.SetDefault(keyPlatformFee, "0")
	cfg.SetDefault(keyLedgerSecretRef, application.DefaultLedgerSecretRef)
	cfg.SetDefault(keyLedgerPollInterval, 2*time.Second)
	cfg.SetDefault(keySecretsDir, secretsDir)
	cfg.SetDefault(keyLogLevel, "warn")
	cfg.SetDefault(keyLocale, envOrDefault("LANG", string(domain.LocaleEnglish)))

	cfg.SetEnvPrefix("PW")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
}

func loadSettings(cfg *viper.Viper) (settings, error) {
	network := domain.NetworkDescriptor{
		ChainID: big.NewInt(cfg.GetInt64(keyNetworkChainID)),
		Name:    cfg.GetString(keyNetworkName),
		Currency: domain.NativeCurrency{
			Name:     cfg.GetString(keyNetworkCurrencyName),
			Symbol:   cfg.GetString(keyNetworkCurrencySym),
			Decimals: uint8(cfg.GetUint(keyNetworkCurrencyDec)),
		},
		RPCURLs:     cfg.GetStringSlice(keyNetworkRPCURLs),
		ExplorerURL: cfg.GetString(keyNetworkExplorerURL),
	}
	if err := network.Validate(); err != nil {
		return settings{}, fmt.Errorf("network config: %w", err)
	}

	s := settings{
		connectTimeout: cfg.GetDuration(keyConnectTimeout),
		network:        network,
		tokenSymbol:    cfg.GetString(keyTokenSymbol),
		tokenDecimals:  uint8(cfg.GetUint(keyTokenDecimals)),
		ledgerRPCURL:   strings.TrimSpace(cfg.GetString(keyLedgerRPCURL)),
		ledgerSecret:   cfg.GetString(keyLedgerSecretRef),
		pollInterval:   cfg.GetDuration(keyLedgerPollInterval),
		eligibilityURL: cfg.GetString(keyEligibilityURL),
		secretsDir:     cfg.GetString(keySecretsDir),
		logLevel:       cfg.GetString(keyLogLevel),
		locale:         domain.ParseLocale(cfg.GetString(keyLocale)),
	}

	var err error
	if s.token, err = optionalAddress(cfg.GetString(keyTokenAddress), keyTokenAddress); err != nil {
		return settings{}, err
	}
	if s.pool, err = optionalAddress(cfg.GetString(keyPoolAddress), keyPoolAddress); err != nil {
		return settings{}, err
	}
	if s.platformFee, err = domain.ParseUnits(cfg.GetString(keyPlatformFee), s.tokenDecimals); err != nil {
		return settings{}, fmt.Errorf("%s: %w", keyPlatformFee, err)
	}

	return s, nil
}

// ledgerFallbacks lists configured endpoints in preference order.
func (s settings) ledgerFallbacks() []string {
	return append([]string{s.ledgerRPCURL}, s.network.RPCURLs...)
}

func (s settings) requireContracts() error {
	if s.token == (common.Address{}) || s.pool == (common.Address{}) {
		return fmt.Errorf("%w: set %s and %s in ~/.poolwallet/config.toml", errContractsNotConfigured, keyTokenAddress, keyPoolAddress)
	}
	return nil
}

func optionalAddress(raw, key string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", key, raw)
	}
	return common.HexToAddress(raw), nil
}
