package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
)

const DefaultLedgerSecretRef = "ledger/rpc-url"

var ErrNoLedgerEndpoint = errors.New("no ledger rpc endpoint configured")

// LedgerEndpoints resolves the ledger RPC URL. A URL kept in the secret store
// wins over the configured one, so provider API keys stay out of config files.
type LedgerEndpoints struct {
	secrets  ports.SecretStore
	ref      string
	fallback []string
}

func NewLedgerEndpoints(secrets ports.SecretStore, ref string, fallback ...string) *LedgerEndpoints {
	if strings.TrimSpace(ref) == "" {
		ref = DefaultLedgerSecretRef
	}
	return &LedgerEndpoints{secrets: secrets, ref: ref, fallback: fallback}
}

func (l *LedgerEndpoints) Resolve(ctx context.Context) (string, error) {
	if l.secrets != nil {
		stored, err := l.secrets.Get(ctx, l.ref)
		switch {
		case err == nil && strings.TrimSpace(stored) != "":
			return strings.TrimSpace(stored), nil
		case err == nil, errors.Is(err, domain.ErrSecretNotFound):
		default:
			return "", fmt.Errorf("read ledger endpoint secret: %w", err)
		}
	}

	for _, candidate := range l.fallback {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate, nil
		}
	}
	return "", ErrNoLedgerEndpoint
}

func (l *LedgerEndpoints) Store(ctx context.Context, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid ledger endpoint %q", endpoint)
	}
	switch parsed.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported ledger endpoint scheme %q", parsed.Scheme)
	}
	if l.secrets == nil {
		return errors.New("no secret store configured")
	}

	if err := l.secrets.Put(ctx, l.ref, endpoint); err != nil {
		return fmt.Errorf("store ledger endpoint: %w", err)
	}
	return nil
}

func (l *LedgerEndpoints) Remove(ctx context.Context) error {
	if l.secrets == nil {
		return nil
	}
	if err := l.secrets.Delete(ctx, l.ref); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
		return fmt.Errorf("remove ledger endpoint: %w", err)
	}
	return nil
}

// Redacted hides the path and query of an endpoint, where API keys live.
func Redacted(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return "<invalid>"
	}
	if parsed.Path == "" && parsed.RawQuery == "" && parsed.User == nil {
		return endpoint
	}
	return parsed.Scheme + "://" + parsed.Host + "/***"
}
