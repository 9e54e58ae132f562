// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/btpc/blockchain/foundation/blockchain/consensus"
	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/mempool"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Kind   string            `json:"kind,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap returns the wrapped error.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// =============================================================================

// Verdict converts an error returned by the chain state into a trusted
// error with a status a client can act on. Storage failures stay untrusted
// and surface as internal errors.
//
//	400: the block or transaction is malformed.
//	404: the requested block or output does not exist.
//	410: the requested output existed and has been spent.
//	409: the request conflicts with the ledger or the mempool.
//	422: well formed but breaks a consensus rule.
func Verdict(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, consensus.ErrLockOrIOFailure):
		return err

	case errors.Is(err, consensus.ErrStructural):
		return NewTrusted(err, http.StatusBadRequest)

	case errors.Is(err, database.ErrNotFound):
		return NewTrusted(err, http.StatusNotFound)

	case errors.Is(err, database.ErrSpent):
		return NewTrusted(err, http.StatusGone)

	case errors.Is(err, consensus.ErrAlreadySpent),
		errors.Is(err, consensus.ErrDuplicateTransactionID),
		errors.Is(err, database.ErrConflict),
		errors.Is(err, mempool.ErrConflict):
		return NewTrusted(err, http.StatusConflict)
	}

	if kind, _ := consensus.Kind(err); kind != nil {
		return NewTrusted(err, http.StatusUnprocessableEntity)
	}

	return err
}
