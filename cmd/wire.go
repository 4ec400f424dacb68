package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/poolwallet-cli/internal/adapters/contracts"
	"github.com/bnema/poolwallet-cli/internal/adapters/eligibility"
	"github.com/bnema/poolwallet-cli/internal/adapters/host"
	"github.com/bnema/poolwallet-cli/internal/adapters/ledger"
	"github.com/bnema/poolwallet-cli/internal/adapters/metrics"
	sessionrender "github.com/bnema/poolwallet-cli/internal/adapters/render/session"
	tomlrepo "github.com/bnema/poolwallet-cli/internal/adapters/repo/toml"
	chainstore "github.com/bnema/poolwallet-cli/internal/adapters/secrets/chain"
	"github.com/bnema/poolwallet-cli/internal/application"
	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ledgerClient interface {
	ports.Ledger
	VerifyNetwork(ctx context.Context, network domain.NetworkDescriptor) error
	Close()
}

type app struct {
	settings      settings
	logger        *zap.Logger
	level         zap.AtomicLevel
	host          *host.Host
	session       *application.SessionService
	secretStore   ports.SecretStore
	endpoints     *application.LedgerEndpoints
	codec         *contracts.Codec
	gate          ports.EligibilityGate
	recorder      *metrics.Recorder
	sessionRender func(application.SessionStatus, sessionrender.RenderOptions) (string, error)
	dialLedger    func(ctx context.Context, endpoint string) (ledgerClient, error)
	now           func() time.Time

	ledgerMu sync.Mutex
	ledger   ledgerClient
}

func wireApp() (*app, error) {
	cfg := viper.New()
	repo, err := tomlrepo.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire session repository: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	setDefaults(cfg, filepath.Join(homeDir, ".poolwallet", "secrets"))

	s, err := loadSettings(cfg)
	if err != nil {
		return nil, err
	}

	level, err := zap.ParseAtomicLevel(s.logLevel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyLogLevel, err)
	}
	logger, err := newLogger(level)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	hostCfg, err := host.LoadConfig(cfg)
	if err != nil {
		return nil, err
	}
	agents := host.New(hostCfg, host.WithLogger(logger.Named("host")))

	secretStore, err := chainstore.NewPassFirstWithFileFallback(s.secretsDir)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	codec, err := contracts.NewCodec()
	if err != nil {
		return nil, fmt.Errorf("wire contract codec: %w", err)
	}

	gate, err := eligibility.New(s.eligibilityURL, &http.Client{Timeout: 15 * time.Second})
	if err != nil {
		return nil, err
	}

	recorder, err := metrics.NewRecorder()
	if err != nil {
		return nil, fmt.Errorf("wire metrics: %w", err)
	}

	session := application.NewSessionService(application.SessionDeps{
		Resolver:       application.NewResolver(agents, logger.Named("resolver")),
		Guarantor:      application.NewNetworkGuarantor(s.network, logger.Named("network")),
		Snapshots:      repo,
		Recorder:       recorder,
		Logger:         logger.Named("session"),
		ConnectTimeout: s.connectTimeout,
	})

	return &app{
		settings:      s,
		logger:        logger,
		level:         level,
		host:          agents,
		session:       session,
		secretStore:   secretStore,
		endpoints:     application.NewLedgerEndpoints(secretStore, s.ledgerSecret, s.ledgerFallbacks()...),
		codec:         codec,
		gate:          gate,
		recorder:      recorder,
		sessionRender: sessionrender.Render,
		dialLedger: func(ctx context.Context, endpoint string) (ledgerClient, error) {
			return ledger.Dial(ctx, endpoint)
		},
		now: time.Now,
	}, nil
}

// newLogger writes console logs to stderr so command output stays clean.
func newLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// ledgerFor dials the ledger once per process.
func (a *app) ledgerFor(ctx context.Context) (ledgerClient, error) {
	a.ledgerMu.Lock()
	defer a.ledgerMu.Unlock()

	if a.ledger != nil {
		return a.ledger, nil
	}

	endpoint, err := a.endpoints.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	client, err := a.dialLedger(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if err := client.VerifyNetwork(ctx, a.settings.network); err != nil {
		client.Close()
		return nil, err
	}
	a.logger.Debug("ledger dialed", zap.String("endpoint", application.Redacted(endpoint)))

	a.ledger = client
	return client, nil
}

func (a *app) orchestrator(ctx context.Context) (*application.Orchestrator, error) {
	if err := a.settings.requireContracts(); err != nil {
		return nil, err
	}
	client, err := a.ledgerFor(ctx)
	if err != nil {
		return nil, err
	}

	return application.NewOrchestrator(application.OrchestratorDeps{
		Session: a.session,
		Ledger:  client,
		Codec:   a.codec,
		Gate:    a.gate,
		Network: a.settings.network,
		Config: application.OrchestratorConfig{
			Token:        a.settings.token,
			Pool:         a.settings.pool,
			PlatformFee:  a.settings.platformFee,
			PollInterval: a.settings.pollInterval,
			Locale:       a.settings.locale,
		},
		Recorder: a.recorder,
		Logger:   a.logger.Named("orchestrator"),
	}), nil
}

func (a *app) close() {
	a.ledgerMu.Lock()
	client := a.ledger
	a.ledger = nil
	a.ledgerMu.Unlock()

	if client != nil {
		client.Close()
	}
	a.host.Close()
	_ = a.logger.Sync()
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
