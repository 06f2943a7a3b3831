// internal/error/error.go

package error

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pkg/sftp"
)

type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

type ErrorType int

const (
	TransportError ErrorType = iota
	ConnectError
	PermissionDenied
	NotConnected
	NotFound
	AlreadyExists
	AlreadyConnected
	Busy
	ConfigError
	ValidationError
	HostKeyUnknown
)

func (t ErrorType) String() string {
	switch t {
	case ConnectError:
		return "connect_error"
	case PermissionDenied:
		return "permission_denied"
	case NotConnected:
		return "not_connected"
	case NotFound:
		return "not_found"
	case AlreadyExists:
		return "already_exists"
	case AlreadyConnected:
		return "already_connected"
	case Busy:
		return "busy"
	case ConfigError:
		return "config_error"
	case ValidationError:
		return "validation_error"
	case HostKeyUnknown:
		return "host_key_unknown"
	default:
		return "transport_error"
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(errType ErrorType, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Często używane błędy bez przyczyny
var (
	ErrNotConnected     = New(NotConnected, "not connected", nil)
	ErrBusy             = New(Busy, "another connection attempt is in progress", nil)
	ErrAlreadyConnected = New(AlreadyConnected, "already connected, disconnect first", nil)
)

// TypeOf zwraca typ błędu; nieznane błędy traktujemy jako TransportError
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return TransportError
}

// Is sprawdza czy err (lub dowolny błąd w łańcuchu) jest danego typu
func Is(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	return TypeOf(err) == errType
}

// Classify mapuje błąd adaptera na typ z naszej taksonomii.
// Błędy już sklasyfikowane zwracane są bez zmian.
func Classify(message string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return New(classifyType(err), message, err)
}

func classifyType(err error) ErrorType {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, fs.ErrExist):
		return AlreadyExists
	}

	var status *sftp.StatusError
	if errors.As(err, &status) {
		switch status.Code {
		case uint32(sftp.ErrSSHFxPermissionDenied):
			return PermissionDenied
		case uint32(sftp.ErrSSHFxNoSuchFile):
			return NotFound
		}
	}

	// Serwery często zwracają tylko tekst (np. "Permission denied" z sudo lub scp)
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission denied"), strings.Contains(msg, "access denied"):
		return PermissionDenied
	case strings.Contains(msg, "no such file"):
		return NotFound
	case strings.Contains(msg, "file exists"), strings.Contains(msg, "already exists"):
		return AlreadyExists
	}
	return TransportError
}
