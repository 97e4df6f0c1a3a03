package sqlhandle

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error. There is one error type for the whole
// package; the kind says which contract was broken.
type Kind int

const (
	// KindConnection covers connect failures, use of a closed handle
	// and use of a handle that never connected.
	KindConnection Kind = iota + 1
	// KindQuery covers prepare/execute failures reported by the driver,
	// including transaction control statements.
	KindQuery
	// KindBind covers parameter binding failures detected before the
	// statement reaches the driver.
	KindBind
	// KindNotPrepared means Execute was called with no current statement.
	KindNotPrepared
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection error"
	case KindQuery:
		return "query error"
	case KindBind:
		return "bind error"
	case KindNotPrepared:
		return "not prepared"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the single error type returned by this package. It carries
// the statement text involved (if any) and the numeric code reported
// by the driver (0 when the driver exposes none). The wrapped cause
// records a stack trace at the point of failure.
type Error struct {
	Kind     Kind
	Code     int
	SQLState string // set for postgresql, where codes are alphanumeric
	SQL      string
	Message  string

	cause error
}

func (e *Error) Error() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %s", e.Kind, e.Message)
	if e.Code != 0 {
		fmt.Fprintf(&buf, " (driver code %d)", e.Code)
	}
	if e.SQLState != "" {
		fmt.Fprintf(&buf, " (sqlstate %s)", e.SQLState)
	}
	if e.SQL != "" {
		fmt.Fprintf(&buf, "\n\tin: %s", e.SQL)
	}
	return buf.String()
}

func (e *Error) Unwrap() error { return e.cause }

// newError builds an *Error around cause, capturing a stack trace. A
// nil cause still gets a stack so the log sink always has one to print.
func newError(kind Kind, query, msg string, cause error) *Error {
	e := &Error{
		Kind:    kind,
		SQL:     query,
		Message: msg,
	}
	if cause != nil {
		e.Message = msg + ": " + cause.Error()
		e.Code, e.SQLState = driverErrorCode(cause)
		e.cause = errors.WithStack(cause)
	} else {
		e.cause = errors.New(msg)
	}
	return e
}

// HasKind reports whether err is (or wraps) an *Error of the given kind.
func HasKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func IsConnection(err error) bool  { return HasKind(err, KindConnection) }
func IsQuery(err error) bool       { return HasKind(err, KindQuery) }
func IsBind(err error) bool        { return HasKind(err, KindBind) }
func IsNotPrepared(err error) bool { return HasKind(err, KindNotPrepared) }
