package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Kind int

const (
	AuthenticationRequired Kind = iota + 1
	AuthorizationDenied
	PreconditionFailed
	ValidationFailed
	StorageError
)

func (k Kind) String() string {
	switch k {
	case AuthenticationRequired:
		return "authentication_required"
	case AuthorizationDenied:
		return "authorization_denied"
	case PreconditionFailed:
		return "precondition_failed"
	case ValidationFailed:
		return "validation_failed"
	case StorageError:
		return "storage_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Reason is the code a caller shows to the user.
type Reason string

const (
	ReasonLogin          Reason = "login"
	ReasonForbidden      Reason = "forbidden"
	ReasonNotFound       Reason = "not_found"
	ReasonInvalid        Reason = "invalid"
	ReasonNotOpen        Reason = "not_open"
	ReasonEditLocked     Reason = "edit_locked"
	ReasonDeleteLocked   Reason = "delete_locked"
	ReasonDeadlinePassed Reason = "deadline_passed"
	ReasonDuplicateBid   Reason = "dup"
	ReasonNotPDF         Reason = "pdf"
	ReasonAwarded        Reason = "awarded"
	ReasonBadBid         Reason = "bad_bid"
	ReasonTooEarly       Reason = "too_early"
	ReasonNotDeliverable Reason = "not_deliverable"
	ReasonFileDup        Reason = "filedup"
	ReasonNoFile         Reason = "nofile"
	ReasonFileTooLarge   Reason = "file_too_large"
	ReasonNotInProgress  Reason = "not_in_progress"
	ReasonServer         Reason = "server"
)

// QueryFlag is the query string fragment a redirect carries for this reason.
func (r Reason) QueryFlag() string {
	switch r {
	case ReasonDuplicateBid, ReasonAwarded, ReasonTooEarly, ReasonFileDup:
		return string(r) + "=1"
	case ReasonNotPDF:
		return "pdf=0"
	default:
		return "e=" + string(r)
	}
}

// Error is returned by every Engine operation that did not apply. Nothing was
// written when an *Error comes back.
type Error struct {
	Kind   Kind
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(k Kind, r Reason) *Error { return &Error{Kind: k, Reason: r} }

func errLogin() *Error                { return fail(AuthenticationRequired, ReasonLogin) }
func errForbidden() *Error            { return fail(AuthorizationDenied, ReasonForbidden) }
func errPrecondition(r Reason) *Error { return fail(PreconditionFailed, r) }
func errValidation(r Reason) *Error   { return fail(ValidationFailed, r) }
func errStorage(err error) *Error     { return &Error{Kind: StorageError, Reason: ReasonServer, Err: err} }

// AsError extracts an *Error. Anything else is reported as a storage failure.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	return errStorage(err)
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var le *Error
	return errors.As(err, &le) && le.Kind == k
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
