package providers

import "fmt"

// Kind buckets extraction failures by where they happened, so callers can
// tell a missing key apart from a flaky network or a garbled answer.
type Kind string

const (
	// KindConfig means the call could not even be attempted, such as a
	// missing credential or an unknown model.
	KindConfig Kind = "config"

	// KindTransport means the request never produced a usable HTTP
	// response.
	KindTransport Kind = "transport"

	// KindProvider means the provider answered with a non-success status.
	KindProvider Kind = "provider"

	// KindParse means the provider answered but the body did not contain a
	// decodable field object.
	KindParse Kind = "parse"
)

// Error is a classified extraction failure.
type Error struct {
	Kind     Kind
	Provider Provider
	Status   int
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (%s, status %d)", e.Provider, e.Msg, e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s (%s): %v", e.Provider, e.Msg, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Msg, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func configErr(p Provider, msg string) *Error {
	return &Error{Kind: KindConfig, Provider: p, Msg: msg}
}

func transportErr(p Provider, msg string, err error) *Error {
	return &Error{Kind: KindTransport, Provider: p, Msg: msg, Err: err}
}

func providerErr(p Provider, status int, msg string) *Error {
	return &Error{Kind: KindProvider, Provider: p, Status: status, Msg: msg}
}

func parseErr(p Provider, msg string, err error) *Error {
	return &Error{Kind: KindParse, Provider: p, Msg: msg, Err: err}
}
