package errors

import "fmt"

type NilConfigError struct{}

func (e *NilConfigError) Error() string {
	return "MainConfig can not be nil"
}

// Kind identifies a failure surfaced by the mint proxy.
type Kind uint8

const (
	KindNotAuthorized Kind = iota + 1
	KindReentrantCall
	KindBadMintValue
	KindNoAssetsDefined
	KindTooManyAssetsDefined
	KindMintingError
	KindAddTokenAssetError
	KindOwnershipTransferError
	// Host side failure (block header, state persistence)
	KindEnvironmentError
	// Issuing contract error passed through without reinterpretation
	KindRemoteError
	// Malformed or missing argument, nothing was done
	KindInvalidInput
)

var kindNames = map[Kind]string{
	KindNotAuthorized:          "NotAuthorized",
	KindReentrantCall:          "ReentrantCall",
	KindBadMintValue:           "BadMintValue",
	KindNoAssetsDefined:        "NoAssetsDefined",
	KindTooManyAssetsDefined:   "TooManyAssetsDefined",
	KindMintingError:           "MintingError",
	KindAddTokenAssetError:     "AddTokenAssetError",
	KindOwnershipTransferError: "OwnershipTransferError",
	KindEnvironmentError:       "EnvironmentError",
	KindRemoteError:            "RemoteError",
	KindInvalidInput:           "InvalidInput",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ProxyError is the error type returned by every proxy operation.
// Cause holds the collaborator error, if any. It is kept for server side
// logs only and is never part of Error().
type ProxyError struct {
	Kind  Kind
	Cause error
}

func (e *ProxyError) Error() string {
	return e.Kind.String()
}

func (e *ProxyError) Unwrap() error {
	return e.Cause
}

// Is matches any ProxyError of the same kind, regardless of cause.
func (e *ProxyError) Is(target error) bool {
	t, ok := target.(*ProxyError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, cause error) *ProxyError {
	return &ProxyError{Kind: kind, Cause: cause}
}

var (
	ErrNotAuthorized          = &ProxyError{Kind: KindNotAuthorized}
	ErrReentrantCall          = &ProxyError{Kind: KindReentrantCall}
	ErrBadMintValue           = &ProxyError{Kind: KindBadMintValue}
	ErrNoAssetsDefined        = &ProxyError{Kind: KindNoAssetsDefined}
	ErrTooManyAssetsDefined   = &ProxyError{Kind: KindTooManyAssetsDefined}
	ErrMintingError           = &ProxyError{Kind: KindMintingError}
	ErrAddTokenAssetError     = &ProxyError{Kind: KindAddTokenAssetError}
	ErrOwnershipTransferError = &ProxyError{Kind: KindOwnershipTransferError}
	ErrEnvironmentError       = &ProxyError{Kind: KindEnvironmentError}
	ErrRemoteError            = &ProxyError{Kind: KindRemoteError}
	ErrInvalidInput           = &ProxyError{Kind: KindInvalidInput}
)

// KindOf returns the kind of a ProxyError found in err's chain, or 0.
func KindOf(err error) Kind {
	for err != nil {
		if pe, ok := err.(*ProxyError); ok {
			return pe.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0
		}
		err = u.Unwrap()
	}
	return 0
}
