package application

import (
	"errors"
	"strings"

	"github.com/bnema/poolwallet-cli/internal/domain"
)

type classifier struct {
	reason   domain.FailureReason
	sentinel error
	phrases  []string
}

// Checked in order. Phrases match raw agent and node messages.
var failureClassifiers = []classifier{
	{reason: domain.ReasonInvalidRequest, sentinel: domain.ErrInvalidRequest},
	{reason: domain.ReasonNotConnected, sentinel: domain.ErrNotConnected},
	{reason: domain.ReasonNotEligible, sentinel: domain.ErrNotEligible},
	{reason: domain.ReasonUserRejected, sentinel: domain.ErrUserRejected, phrases: []string{"user rejected", "user denied", "rejected by user"}},
	{reason: domain.ReasonWrongNetwork, sentinel: domain.ErrWrongNetwork, phrases: []string{"does not match the target chain", "wrong network", "chain mismatch"}},
	{reason: domain.ReasonInsufficientFunding, sentinel: domain.ErrInsufficientFundingBalance, phrases: []string{"transfer amount exceeds balance", "insufficient balance"}},
	{reason: domain.ReasonInsufficientFee, sentinel: domain.ErrInsufficientFeeBalance, phrases: []string{"insufficient funds"}},
	{reason: domain.ReasonAuthorizationFailed, sentinel: domain.ErrAuthorizationFailed, phrases: []string{"insufficient allowance", "transfer amount exceeds allowance"}},
}

// Classify maps an error to a user-facing failure. Unclassified failures
// forward the raw message verbatim.
func Classify(locale domain.Locale, err error) *domain.Failure {
	if err == nil {
		return nil
	}

	raw := rawMessage(err)
	lowered := strings.ToLower(raw)
	for _, c := range failureClassifiers {
		if c.matches(err, lowered) {
			return &domain.Failure{Reason: c.reason, Message: domain.Message(locale, c.reason), Raw: raw}
		}
	}

	return &domain.Failure{Reason: domain.ReasonUnclassified, Message: raw, Raw: raw}
}

func (c classifier) matches(err error, lowered string) bool {
	if c.sentinel != nil && errors.Is(err, c.sentinel) {
		return true
	}
	for _, phrase := range c.phrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

func rawMessage(err error) string {
	if agentErr, ok := domain.AsAgentError(err); ok && agentErr.Message != "" {
		return agentErr.Message
	}
	return err.Error()
}
