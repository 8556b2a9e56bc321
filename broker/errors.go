package broker

import (
	"errors"
	"fmt"
)

// FailureCode tags a rejected trade. Every rejection is recoverable by
// the caller; the ledger never mutates state on the failure path.
type FailureCode string

const (
	InvalidInput            FailureCode = "invalid_input"
	InsufficientFunds       FailureCode = "insufficient_funds"
	InsufficientPosition    FailureCode = "insufficient_position"
	PositionPolicyViolation FailureCode = "position_policy_violation"
	UnknownAction           FailureCode = "unknown_action"
)

// TradeError is the tagged failure returned by Buy and Sell.
type TradeError struct {
	Code    FailureCode
	Message string
}

func (e *TradeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func reject(code FailureCode, format string, args ...any) *TradeError {
	return &TradeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the failure code from a trade rejection, or "" for
// nil and non-trade errors.
func CodeOf(err error) FailureCode {
	var te *TradeError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
