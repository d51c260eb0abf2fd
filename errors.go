package mongoleaf

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/ikmak/mongoleaf/bsonx"
)

// The error taxonomy of this package. Every error returned by mongoleaf
// wraps exactly one of these sentinels, so callers can classify failures
// with errors.Is while still reaching the causal driver error through
// errors.As or Unwrap.
var (
	// ErrConfiguration indicates missing or invalid connection parameters.
	ErrConfiguration = errors.New("mongoleaf: invalid configuration")

	// ErrConnection indicates a handshake or transport failure, including
	// transport-level timeouts.
	ErrConnection = errors.New("mongoleaf: connection failure")

	// ErrPoolExhausted indicates that Pop timed out waiting for a free
	// connection.
	ErrPoolExhausted = errors.New("mongoleaf: pool exhausted")

	// ErrPoolClosed indicates an operation against a pool after Close.
	ErrPoolClosed = errors.New("mongoleaf: pool is closed")

	// ErrProtocol indicates that the server rejected a command: write
	// conflicts, duplicate keys, permission failures, invalid queries.
	ErrProtocol = errors.New("mongoleaf: server rejected command")

	// ErrDecode indicates a document that could not be encoded for, or
	// decoded from, the wire.
	ErrDecode = errors.New("mongoleaf: malformed document")
)

func configErr(err error) error {
	if err == nil {
		return ErrConfiguration
	}
	return errors.Join(ErrConfiguration, err)
}

func connectionErr(err error) error {
	if err == nil {
		return ErrConnection
	}
	return errors.Join(ErrConnection, err)
}

func protocolErr(err error) error {
	if err == nil {
		return ErrProtocol
	}
	return errors.Join(ErrProtocol, err)
}

func decodeErr(err error) error {
	if err == nil {
		return ErrDecode
	}
	return errors.Join(ErrDecode, err)
}

// classify maps an operation error from the driver layer onto the package
// taxonomy. Errors that already carry one of the sentinels pass through
// unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		ErrConfiguration, ErrConnection, ErrPoolExhausted,
		ErrPoolClosed, ErrProtocol, ErrDecode,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	var dupKey bsonx.DuplicateKeyError
	var unsupported bsonx.UnsupportedTypeError
	if errors.As(err, &dupKey) || errors.As(err, &unsupported) || errors.Is(err, bsonx.ErrEmptyKey) {
		return decodeErr(err)
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return connectionErr(err)
	}

	return protocolErr(err)
}
