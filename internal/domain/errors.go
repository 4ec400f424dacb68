package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrAgentNotFound              = errors.New("signing agent not found")
	ErrAgentLocked                = errors.New("signing agent is locked")
	ErrUserRejected               = errors.New("request rejected by user")
	ErrRequestTimeout             = errors.New("signing agent did not respond in time")
	ErrAlreadyPending             = errors.New("connection request already pending")
	ErrConnectionSuperseded       = errors.New("connection request superseded")
	ErrWrongNetwork               = errors.New("signing agent is on the wrong network")
	ErrNetworkAddFailed           = errors.New("signing agent could not add network")
	ErrInsufficientFundingBalance = errors.New("insufficient funding token balance")
	ErrInsufficientFeeBalance     = errors.New("insufficient balance for network fees")
	ErrAuthorizationFailed        = errors.New("spend authorization failed")
	ErrNotConnected               = errors.New("no wallet connected")
	ErrNotEligible                = errors.New("address is not eligible")
	ErrCapabilityMissing          = errors.New("signing agent does not support request")
	ErrInvalidRequest             = errors.New("invalid transaction request")
	ErrSnapshotNotFound           = errors.New("session snapshot not found")
	ErrSecretNotFound             = errors.New("secret not found")
)

// Error codes reported by signing agents (EIP-1193 and JSON-RPC).
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
	CodeUnrecognizedChain = 4902
	CodeRequestPending    = -32002
	CodeMethodNotFound    = -32601
	CodeInternal          = -32603
)

// AgentError is a protocol error returned by a signing agent.
type AgentError struct {
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent error %d: %s", e.Code, e.Message)
}

func (e *AgentError) Is(target error) bool {
	switch target {
	case ErrUserRejected:
		return e.HasCode(CodeUserRejected)
	case ErrCapabilityMissing:
		return e.Code == CodeUnsupportedMethod || e.Code == CodeMethodNotFound
	default:
		return false
	}
}

// HasCode checks the top-level code and the code of an original error
// nested in Data (agents wrap 4902 inside a -32603 envelope).
func (e *AgentError) HasCode(code int) bool {
	if e.Code == code {
		return true
	}
	nested, ok := e.nestedCode()
	return ok && nested == code
}

func (e *AgentError) nestedCode() (int, bool) {
	if len(e.Data) == 0 {
		return 0, false
	}

	var envelope struct {
		Code          *int `json:"code"`
		OriginalError *struct {
			Code *int `json:"code"`
		} `json:"originalError"`
	}
	if err := json.Unmarshal(e.Data, &envelope); err != nil {
		return 0, false
	}
	if envelope.OriginalError != nil && envelope.OriginalError.Code != nil {
		return *envelope.OriginalError.Code, true
	}
	if envelope.Code != nil {
		return *envelope.Code, true
	}

	return 0, false
}

func AsAgentError(err error) (*AgentError, bool) {
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr, true
	}
	return nil, false
}
