package errors

import stderr "errors"

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

var (
	// ErrChannelClosed reports that a pending request was torn down before its response arrived,
	// typically because the peer's output stream ended.
	ErrChannelClosed = New("Response channel closed")
	// ErrRegistryClosed reports that the session registry has already been shut down.
	ErrRegistryClosed = New("session registry is closed")
	// ErrSessionDiscarded reports that a workspace was disconnected while its session was being created.
	ErrSessionDiscarded = New("session was disconnected while connecting")
)

// IsTimeout reports whether the error is a request or probe timeout.
func IsTimeout(e error) bool {
	var rt *RequestTimeoutError
	var pt *ProbeTimeoutError
	return stderr.As(e, &rt) || stderr.As(e, &pt)
}

// IsExecutableNotFound reports whether the error was caused by a missing executable.
func IsExecutableNotFound(e error) bool {
	var nf *ExecutableNotFoundError
	return stderr.As(e, &nf)
}
