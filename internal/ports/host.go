package ports

// InjectedProvider is one provider object exposed by the host environment.
// Providers lists the sub-providers when several agents are installed.
type InjectedProvider struct {
	Name      string
	Flags     map[string]bool
	Providers []*InjectedProvider
	Agent     Agent
	Events    EventSource
}

func (p *InjectedProvider) HasFlag(flag string) bool {
	if p == nil || flag == "" {
		return false
	}
	return p.Flags[flag]
}

// Host is the environment the resolver inspects for signing agents.
type Host interface {
	Injected() *InjectedProvider
	Global(binding string) *InjectedProvider
	ClientIdentifier() string
}
