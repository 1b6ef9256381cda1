package repository

import (
	"context"
	"errors"
	"fmt"

	"chatsync/internal/remote"
	"chatsync/internal/storage"
)

// Kind is the unified failure category at the repository boundary.
// Callers branch on Kind; Info is for logs only.
type Kind int

const (
	KindUnexpected Kind = iota
	KindAlreadyExist
	KindNotFound
	KindUnauthorized
	KindIncorrectData
	KindRestrictedAccess
	KindConnectionFailed
)

func (k Kind) String() string {
	switch k {
	case KindAlreadyExist:
		return "already exist"
	case KindNotFound:
		return "not found"
	case KindUnauthorized:
		return "unauthorized"
	case KindIncorrectData:
		return "incorrect data"
	case KindRestrictedAccess:
		return "restricted access"
	case KindConnectionFailed:
		return "connection failed"
	default:
		return "unexpected"
	}
}

type Error struct {
	Kind Kind
	Info string
}

func (e *Error) Error() string {
	if e.Info == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Info
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of Info.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrUnexpected       = &Error{Kind: KindUnexpected}
	ErrAlreadyExist     = &Error{Kind: KindAlreadyExist}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrIncorrectData    = &Error{Kind: KindIncorrectData}
	ErrRestrictedAccess = &Error{Kind: KindRestrictedAccess}
	ErrConnectionFailed = &Error{Kind: KindConnectionFailed}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Info: fmt.Sprintf(format, args...)}
}

// KindOf returns the unified kind of err. Errors that did not pass through a
// repository are Unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

var localKinds = []struct {
	source error
	kind   Kind
}{
	{storage.ErrNotFound, KindNotFound},
	{storage.ErrAlreadyExists, KindAlreadyExist},
}

var remoteKinds = []struct {
	source error
	kind   Kind
}{
	{remote.ErrNotFound, KindNotFound},
	{remote.ErrAlreadyExists, KindAlreadyExist},
	{remote.ErrUnauthorized, KindUnauthorized},
	{remote.ErrIncorrectData, KindIncorrectData},
	{remote.ErrRestrictedAccess, KindRestrictedAccess},
	{remote.ErrConnectionFailed, KindConnectionFailed},
	{remote.ErrUnexpected, KindUnexpected},
}

// fromLocal translates a local store error. Context errors belong to the caller
// and pass through unchanged.
func fromLocal(err error) error {
	if err == nil || isContextErr(err) {
		return err
	}
	for _, m := range localKinds {
		if errors.Is(err, m.source) {
			return newError(m.kind, "local: %v", err)
		}
	}
	return newError(KindUnexpected, "local: %v", err)
}

func fromRemote(err error) error {
	if err == nil || isContextErr(err) {
		return err
	}
	for _, m := range remoteKinds {
		if errors.Is(err, m.source) {
			return newError(m.kind, "%v", err)
		}
	}
	return newError(KindUnexpected, "remote: %v", err)
}

// RemoteError translates an error returned by a remote call that has no
// Repository method, such as leaving a dialog.
func RemoteError(err error) error {
	return fromRemote(err)
}
