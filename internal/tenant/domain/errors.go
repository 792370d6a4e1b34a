package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provisioning failures.
type ErrorKind string

const (
	KindLockTimeout   ErrorKind = "lock_timeout"
	KindNameConflict  ErrorKind = "name_conflict"
	KindForbidden     ErrorKind = "forbidden"
	KindPersistence   ErrorKind = "persistence"
	KindRoleProvision ErrorKind = "role_provision"
	KindCacheSync     ErrorKind = "cache_sync"
	KindEventPublish  ErrorKind = "event_publish"
)

// ErrForbidden is returned when no acting user is attached to the context.
// It fails a create before any write happens.
var ErrForbidden = errors.New("tenant: forbidden")

// Error is a classified provisioning failure. Name carries the contested
// entity name for conflicts and the lock key or access scope otherwise.
type Error struct {
	Kind ErrorKind
	Name string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tenant: %s %q: %v", e.Kind, e.Name, e.Err)
	}
	return fmt.Sprintf("tenant: %s %q", e.Kind, e.Name)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors of the same kind, so callers can probe with
// errors.Is(err, &Error{Kind: KindNameConflict}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Name == "" || t.Name == e.Name)
}

func NewLockTimeout(key string, err error) error {
	return &Error{Kind: KindLockTimeout, Name: key, Err: err}
}

func NewNameConflict(name string) error {
	return &Error{Kind: KindNameConflict, Name: name}
}

func NewPersistence(err error) error {
	return &Error{Kind: KindPersistence, Err: err}
}

func NewRoleProvision(scope string, err error) error {
	return &Error{Kind: KindRoleProvision, Name: scope, Err: err}
}

func NewCacheSync(level string, err error) error {
	return &Error{Kind: KindCacheSync, Name: level, Err: err}
}

func NewEventPublish(collection string, err error) error {
	return &Error{Kind: KindEventPublish, Name: collection, Err: err}
}

// IsKind reports whether err is a provisioning error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}

// ConflictName returns the contested name when err is a name conflict.
func ConflictName(err error) (string, bool) {
	var pe *Error
	if errors.As(err, &pe) && pe.Kind == KindNameConflict {
		return pe.Name, true
	}
	return "", false
}
