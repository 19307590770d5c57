// Package errors annotates errors with the source location and slog
// attributes that explain them, so a single log line carries enough context to
// troubleshoot a failed save or upload.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// AnnotatedError includes more context than a plain error that is useful for troubleshooting.
type AnnotatedError struct {
	// msg is the error message.
	msg string
	// err is the wrapped cause, if any.
	err error
	// pc is the program counter for the location of the error provided by runtime.Callers.
	pc uintptr
	// attrs are slog attributes that are added to the log event to provide more context for the error.
	attrs []slog.Attr
}

// New creates a new AnnotatedError with the given message and attributes.
func New(msg string, attrs ...slog.Attr) error {
	return newAnnotated(msg, nil, attrs)
}

// Wrap annotates err with a message and attributes. It returns nil when err is nil.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return newAnnotated(msg, err, attrs)
}

func newAnnotated(msg string, cause error, attrs []slog.Attr) AnnotatedError {
	var pcs [1]uintptr
	// Skip runtime.Callers, this function and the exported constructor.
	runtime.Callers(3, pcs[:])
	return AnnotatedError{
		msg:   msg,
		err:   cause,
		pc:    pcs[0],
		attrs: attrs,
	}
}

// NewSentinel creates a plain error without other context that can be used as sentinel error that can be detected
// with errors.Is.
func NewSentinel(msg string) error {
	return errors.New(msg)
}

// Error implements error interface. Attributes follow the message in
// parentheses as key=value pairs: "msg (k=v, k2=v2): cause".
func (err AnnotatedError) Error() string {
	var b strings.Builder
	b.WriteString(err.msg)
	if len(err.attrs) > 0 {
		b.WriteString(" (")
		for i, a := range err.attrs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteString(")")
	}
	if err.err != nil {
		b.WriteString(": ")
		b.WriteString(err.err.Error())
	}
	return b.String()
}

// Unwrap exposes the wrapped cause to errors.Is and errors.As.
func (err AnnotatedError) Unwrap() error {
	return err.err
}

// LogValue formats the error for useful logging.
func (err AnnotatedError) LogValue() slog.Value {
	// Retrieve the source location of the error so that developers can locate it faster.
	frames := runtime.CallersFrames([]uintptr{err.pc})
	source, _ := frames.Next()
	sourceAttr := slog.String("source", fmt.Sprintf("%s:%d", source.File, source.Line))

	attrs := make([]slog.Attr, 0, len(err.attrs)+2)
	attrs = append(attrs, slog.String("msg", err.Error()), sourceAttr)
	attrs = append(attrs, err.attrs...)

	return slog.GroupValue(attrs...)
}

// SlogError returns an attribute for logging err under the "error" key.
func SlogError(err error) slog.Attr {
	var annotated AnnotatedError
	if errors.As(err, &annotated) {
		return slog.Any("error", annotated)
	}
	return slog.String("error", err.Error())
}

// As exposes stdlib errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is exposes stdlib errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Unwrap exposes stdlib errors.Unwrap.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join exposes stdlib errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
