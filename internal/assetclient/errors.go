package assetclient

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Failure taxonomy. Every error returned by Client matches one of these with errors.Is.
var (
	ErrNotConnected           = errors.New("no account connected")
	ErrInvalidInput           = errors.New("invalid input")
	ErrSubmissionFailed       = errors.New("transaction submission failed")
	ErrQueryFailed            = errors.New("contract query failed")
	ErrTimeout                = errors.New("network did not respond in time")
	ErrMintFailed             = errors.New("mint failed on chain")
	ErrIndeterminateOperation = errors.New("operation outcome unknown")

	ErrUnknownOperation = errors.New("no such operation")
)

func invalidInput(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidInput)
}

func queryFailed(err error, msg string) error {
	if isContextErr(err) {
		return errors.Mark(errors.Mark(errors.Wrap(err, msg), ErrTimeout), ErrQueryFailed)
	}
	return errors.Mark(errors.Wrap(err, msg), ErrQueryFailed)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
