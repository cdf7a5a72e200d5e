package core

import (
	"errors"
	"fmt"
)

var (
	ErrCancelled        = errors.New("operation cancelled while collecting credentials")
	ErrStopped          = errors.New("coordinator stopped")
	ErrAlreadyCompleted = errors.New("operation already completed")
	ErrInProgress       = errors.New("operation already in progress")
	ErrUnknownSubject   = errors.New("unknown subject")
	ErrOriginMismatch   = errors.New("message origin does not match")
	ErrInvalidNonce     = errors.New("request rejected: invalid or expired nonce")
)

// Error codes reported by the backend that need special handling.
const (
	CodeFilesystemUnreachable = "unable_to_connect_to_filesystem"
	CodeNoPermission          = "no_permission"
	CodeInvalidNonce          = "invalid_nonce"
)

// ErrorClass groups failures by how they are handled.
type ErrorClass int

const (
	// ClassTerminal covers not-found, already-up-to-date and generic failures.
	ClassTerminal ErrorClass = iota
	ClassPermission
	ClassFilesystemCredentials
	ClassTransport
)

func (c ErrorClass) String() string {
	switch c {
	case ClassPermission:
		return "permission"
	case ClassFilesystemCredentials:
		return "filesystem_credentials"
	case ClassTransport:
		return "transport"
	default:
		return "terminal"
	}
}

// ClassifyCode maps a backend error code to its class.
func ClassifyCode(code string) ErrorClass {
	switch code {
	case CodeFilesystemUnreachable:
		return ClassFilesystemCredentials
	case CodeNoPermission, CodeInvalidNonce:
		return ClassPermission
	default:
		return ClassTerminal
	}
}

// OperationError describes a failed job.
type OperationError struct {
	Kind    Kind
	Subject Subject
	Code    string
	Message string
	Class   ErrorClass
	Err     error
}

func (e *OperationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "unknown error"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s failed (%s): %s", e.Kind, e.Subject, e.Code, msg)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Kind, e.Subject, msg)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// FailureFrom builds the error for a job whose request failed. Either resp is a
// server-reported failure or err is a transport error; both are treated alike.
func FailureFrom(job Job, resp *Response, err error) *OperationError {
	opErr := &OperationError{
		Kind:    job.Kind,
		Subject: job.Subject(),
		Err:     err,
	}
	if err != nil {
		opErr.Class = ClassTransport
		if errors.Is(err, ErrInvalidNonce) {
			opErr.Class = ClassPermission
			opErr.Code = CodeInvalidNonce
		}
		opErr.Message = err.Error()
		return opErr
	}
	if resp != nil {
		opErr.Code = resp.Data.ErrorCode
		opErr.Message = resp.Data.Message()
		opErr.Class = ClassifyCode(opErr.Code)
	}
	return opErr
}

// IsCredentialFailure reports whether err asks for filesystem credentials again.
func IsCredentialFailure(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr) && opErr.Class == ClassFilesystemCredentials
}
