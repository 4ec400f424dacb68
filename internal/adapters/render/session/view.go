package session

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/bnema/poolwallet-cli/internal/application"
	"github.com/bnema/poolwallet-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderOptions carries the optional ledger reads shown under the session.
type RenderOptions struct {
	Now            time.Time
	Balances       *application.Balances
	Allowance      *big.Int
	TokenSymbol    string
	TokenDecimals  uint8
	NativeSymbol   string
	NativeDecimals uint8
}

func renderView(status application.SessionStatus, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Wallet Session"),
		s.header.Render(fmt.Sprintf("network: %s (%s)", status.Network.Name, status.Network.ChainID)),
		stateLine(status, s),
	}

	if status.Connection != nil {
		lines = append(lines, s.section.Render(connectionBlock(status, opts, s)))
	} else {
		lines = append(lines, s.section.Render(s.empty.Render("No wallet connected.")))
	}

	if status.Snapshot != nil {
		lines = append(lines, s.section.Render(snapshotBlock(*status.Snapshot, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func stateLine(status application.SessionStatus, s styles) string {
	label := s.label.Render("state:")
	switch {
	case status.State == domain.StateConnected:
		return label + " " + s.connected.Render(string(status.State))
	case status.State.Pending():
		return label + " " + s.pending.Render(string(status.State))
	default:
		return label + " " + s.detail.Render(string(status.State))
	}
}

func connectionBlock(status application.SessionStatus, opts RenderOptions, s styles) string {
	conn := status.Connection
	parts := []string{
		s.address.Render(conn.Address),
		s.detail.Render(fmt.Sprintf("agent: %s", conn.AgentKind.DisplayName())),
		chainLine(conn.ChainID, status.Network.ChainID, s),
	}

	if opts.Balances != nil {
		parts = append(parts,
			s.detail.Render(fmt.Sprintf("balance: %s", amount(opts.Balances.Token, opts.TokenDecimals, opts.TokenSymbol))),
			s.detail.Render(fmt.Sprintf("fees: %s", amount(opts.Balances.Native, opts.NativeDecimals, opts.NativeSymbol))),
		)
	}
	if opts.Allowance != nil {
		parts = append(parts, s.detail.Render(fmt.Sprintf("allowance: %s", amount(opts.Allowance, opts.TokenDecimals, opts.TokenSymbol))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func chainLine(chainID, required string, s styles) string {
	line := s.detail.Render(fmt.Sprintf("chain: %s", chainID))
	if chainID != required {
		line += " " + s.warning.Render("[wrong network]")
	}
	return line
}

func snapshotBlock(snapshot application.SnapshotView, opts RenderOptions, s styles) string {
	parts := []string{
		s.label.Render("saved session:"),
		s.detail.Render(fmt.Sprintf("%s via %s on chain %s", snapshot.Address, snapshot.AgentKind.DisplayName(), snapshot.ChainID)),
	}
	if saved := savedLine(snapshot.SavedAt, opts.Now); saved != "" {
		parts = append(parts, s.empty.Render(saved))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func savedLine(savedAt string, now time.Time) string {
	if savedAt == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, savedAt)
	if err != nil {
		return "saved " + savedAt
	}
	if now.IsZero() {
		return "saved " + parsed.Format(time.RFC3339)
	}
	return "saved " + formatAge(now.Sub(parsed))
}

func formatAge(age time.Duration) string {
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return plural(int(age.Minutes()), "minute") + " ago"
	case age < 24*time.Hour:
		return plural(int(math.Floor(age.Hours())), "hour") + " ago"
	default:
		return plural(int(math.Floor(age.Hours()/24)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func amount(value *big.Int, decimals uint8, symbol string) string {
	formatted := domain.FormatUnits(value, decimals)
	if symbol == "" {
		return formatted
	}
	return formatted + " " + symbol
}
