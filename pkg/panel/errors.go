package panel

import (
	"errors"
	"fmt"
)

// Kind classifies recoverable panel and session failures.
type Kind int

const (
	Unknown Kind = iota
	DirectoryUnreadable
	NavigationFailed
	NoSelection
	ClipboardEmpty
	TabCapacityExceeded
	RenameFailed
	UnsupportedFileType
	ExternalCommandFailed
	InvalidName
	SourceUnavailable
)

func (k Kind) String() string {
	switch k {
	case DirectoryUnreadable:
		return "directory unreadable"
	case NavigationFailed:
		return "navigation failed"
	case NoSelection:
		return "no selection"
	case ClipboardEmpty:
		return "clipboard empty"
	case TabCapacityExceeded:
		return "tab capacity exceeded"
	case RenameFailed:
		return "rename failed"
	case UnsupportedFileType:
		return "unsupported file type"
	case ExternalCommandFailed:
		return "external command failed"
	case InvalidName:
		return "invalid name"
	case SourceUnavailable:
		return "source unavailable"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Matching compares kinds only.
var (
	ErrDirectoryUnreadable   = &Error{Kind: DirectoryUnreadable}
	ErrNavigationFailed      = &Error{Kind: NavigationFailed}
	ErrNoSelection           = &Error{Kind: NoSelection}
	ErrClipboardEmpty        = &Error{Kind: ClipboardEmpty}
	ErrTabCapacityExceeded   = &Error{Kind: TabCapacityExceeded}
	ErrRenameFailed          = &Error{Kind: RenameFailed}
	ErrUnsupportedFileType   = &Error{Kind: UnsupportedFileType}
	ErrExternalCommandFailed = &Error{Kind: ExternalCommandFailed}
	ErrInvalidName           = &Error{Kind: InvalidName}
	ErrSourceUnavailable     = &Error{Kind: SourceUnavailable}
)

// Error is the error type returned by panel and session operations.
type Error struct {
	Kind Kind
	Msg  string
	Path string
	Err  error
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, msg, path string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Path: path, Err: err}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", msg, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", msg, e.Path)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so callers can match against the Err* sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind carried by err, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
