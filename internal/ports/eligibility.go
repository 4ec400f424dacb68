package ports

import "context"

// EligibilityGate is the external country-eligibility check run before a
// transaction.
type EligibilityGate interface {
	Allowed(ctx context.Context, address string) (bool, error)
}
