package domain

import "errors"

// ErrorKind classifies failures by the corrective action they call for.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAuth       ErrorKind = "auth"
	KindNetwork    ErrorKind = "network"
	KindServer     ErrorKind = "server"
)

// NetworkMessage is shown whenever the Evanio API cannot be reached.
const NetworkMessage = "cannot reach server, check your connection and try again"

const serverFallbackMessage = "something went wrong, please try again"

// Error is a classified failure carrying a message that is safe to show to the user.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or missing input. The user may correct it and resubmit.
func Validation(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

// Auth reports rejected credentials or an invalid/expired token.
func Auth(msg string, err error) *Error {
	if msg == "" {
		msg = "invalid email or password"
	}
	return &Error{Kind: KindAuth, Message: msg, Err: err}
}

// Network reports that the Evanio API was unreachable.
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Message: NetworkMessage, Err: err}
}

// Server reports an unexpected failure on a well-formed request.
func Server(msg string, err error) *Error {
	if msg == "" {
		msg = serverFallbackMessage
	}
	return &Error{Kind: KindServer, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage returns the message to show for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return serverFallbackMessage
}

var (
	// ErrSecondFactorRequired is a control-flow signal, not a failure: the login
	// must be repeated with a one-time code.
	ErrSecondFactorRequired = errors.New("second factor required")

	ErrNoSession         = errors.New("sign in to continue")
	ErrCheckoutNotFound  = errors.New("checkout not found")
	ErrInvalidTransition = errors.New("invalid checkout transition")
	ErrSubmitInProgress  = errors.New("a submission is already in progress")
	ErrMissingOrder      = errors.New("no order to attach the transfer to, restart the checkout")
	ErrForbidden         = errors.New("access forbidden")
)
