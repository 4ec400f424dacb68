package application

import (
	"fmt"
	"strings"

	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/bnema/poolwallet-cli/internal/ports"
	"go.uber.org/zap"
)

// Global bindings the secondary agent registers besides the injected slot.
var secondaryAgentBindings = []string{"coinbaseWalletExtension", "walletLinkExtension"}

const secondaryClientHint = "CoinbaseWallet"

// AgentHandle is a resolved signing agent.
type AgentHandle struct {
	ID     string
	Kind   domain.AgentKind
	Agent  ports.Agent
	Events ports.EventSource
}

type candidate struct {
	provider *ports.InjectedProvider
	binding  string
}

type predicate struct {
	name       string
	confidence int
	match      func(kind domain.AgentKind, c candidate, clientID string) bool
}

// resolverPredicates is ordered by confidence; the first match scores a
// candidate.
var resolverPredicates = []predicate{
	{
		name:       "identity flag only",
		confidence: 100,
		match: func(kind domain.AgentKind, c candidate, _ string) bool {
			return c.provider.HasFlag(kind.IdentityFlag()) && !c.provider.HasFlag(kind.CompetingFlag())
		},
	},
	{
		name:       "alternate binding",
		confidence: 80,
		match: func(kind domain.AgentKind, c candidate, _ string) bool {
			return kind == domain.AgentCoinbase && c.binding != "" && !c.provider.HasFlag(kind.CompetingFlag())
		},
	},
	{
		name:       "shared identity flags",
		confidence: 60,
		match: func(kind domain.AgentKind, c candidate, _ string) bool {
			return c.provider.HasFlag(kind.IdentityFlag()) && c.provider.HasFlag(kind.CompetingFlag())
		},
	},
	{
		name:       "client identifier",
		confidence: 40,
		match: func(kind domain.AgentKind, c candidate, clientID string) bool {
			return kind == domain.AgentCoinbase &&
				strings.Contains(clientID, secondaryClientHint) &&
				!c.provider.HasFlag(kind.CompetingFlag())
		},
	},
}

// Resolver picks the provider that best matches a requested agent kind. It
// never returns a provider that only declares the competing identity.
type Resolver struct {
	host   ports.Host
	logger *zap.Logger
}

func NewResolver(host ports.Host, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{host: host, logger: logger}
}

func (r *Resolver) Resolve(kind domain.AgentKind) (AgentHandle, error) {
	if !kind.Valid() {
		return AgentHandle{}, fmt.Errorf("resolve %q: %w", kind, domain.ErrAgentNotFound)
	}
	if r.host == nil {
		return AgentHandle{}, domain.ErrAgentNotFound
	}

	clientID := r.host.ClientIdentifier()
	var (
		best     candidate
		bestRule predicate
	)
	for _, c := range r.candidates(kind) {
		if c.provider == nil || c.provider.Agent == nil {
			continue
		}
		rule, ok := score(kind, c, clientID)
		if ok && rule.confidence > bestRule.confidence {
			best, bestRule = c, rule
		}
	}

	if best.provider == nil {
		r.logger.Debug("no signing agent matched", zap.String("kind", string(kind)))
		return AgentHandle{}, domain.ErrAgentNotFound
	}

	r.logger.Debug("signing agent resolved",
		zap.String("kind", string(kind)),
		zap.String("provider", best.provider.Name),
		zap.String("rule", bestRule.name),
		zap.Int("confidence", bestRule.confidence),
	)

	return AgentHandle{
		ID:     handleID(kind, best),
		Kind:   kind,
		Agent:  best.provider.Agent,
		Events: best.provider.Events,
	}, nil
}

// candidates lists sub-providers first, then the injected provider itself,
// then alternate bindings for the secondary agent.
func (r *Resolver) candidates(kind domain.AgentKind) []candidate {
	var out []candidate

	if injected := r.host.Injected(); injected != nil {
		for _, sub := range injected.Providers {
			out = append(out, candidate{provider: sub})
		}
		out = append(out, candidate{provider: injected})
	}

	if kind == domain.AgentCoinbase {
		for _, binding := range secondaryAgentBindings {
			if provider := r.host.Global(binding); provider != nil {
				out = append(out, candidate{provider: provider, binding: binding})
			}
		}
	}

	return out
}

func score(kind domain.AgentKind, c candidate, clientID string) (predicate, bool) {
	for _, rule := range resolverPredicates {
		if rule.match(kind, c, clientID) {
			return rule, true
		}
	}
	return predicate{}, false
}

func handleID(kind domain.AgentKind, c candidate) string {
	name := c.provider.Name
	if name == "" {
		name = "injected"
	}
	if c.binding != "" {
		name = c.binding + "/" + name
	}
	return fmt.Sprintf("%s:%s", kind, name)
}
