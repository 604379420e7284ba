package abi

import "errors"

var (
	// ErrAbiDecode is returned when calldata, return data or a log does not
	// hold a canonical encoding of the expected types.
	ErrAbiDecode = errors.New("abi decode error")

	// ErrAbiEncode is returned when arguments do not match the declared types.
	ErrAbiEncode = errors.New("abi encode error")

	// ErrInvalidSignature is returned for unparseable function or event
	// signatures.
	ErrInvalidSignature = errors.New("invalid abi signature")

	// ErrNotFound is returned when a contract has no method or event by the
	// requested name, selector or topic.
	ErrNotFound = errors.New("abi entry not found")
)
