package errs

import (
	"github.com/pkg/errors"
)

const (
	CodeConnectURL        = 1001
	CodeResolveHost       = 1002
	CodeSourceClosed      = 1003
	CodeFormatUnsupported = 2001
	CodeDeviceOpen        = 2002
	CodeBufferAlloc       = 2003
	CodeDecoderTimeout    = 2004
	CodeStreamTerminal    = 3001
	CodeUnknown           = 9999
)

var (
	ErrConnectURL        = New(CodeConnectURL, "connect url error")
	ErrResolveHost       = New(CodeResolveHost, "resolve host error")
	ErrSourceClosed      = New(CodeSourceClosed, "source closed")
	ErrFormatUnsupported = New(CodeFormatUnsupported, "pixel format unsupported")
	ErrDeviceOpen        = New(CodeDeviceOpen, "device open error")
	ErrBufferAlloc       = New(CodeBufferAlloc, "buffer alloc error")
	ErrDecoderTimeout    = New(CodeDecoderTimeout, "decoder timeout")
	ErrStreamTerminal    = New(CodeStreamTerminal, "stream is terminal")
)

const (
	Success = "success"
)

type Error struct {
	Code int32
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func New(code int32, msg string) error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

func Code(e error) int32 {
	if e == nil {
		return 0
	}
	err, ok := e.(*Error)
	if !ok {
		return CodeUnknown
	}

	if err == (*Error)(nil) {
		return 0
	}
	return err.Code
}

func Msg(e error) string {
	if e == nil {
		return Success
	}
	err, ok := e.(*Error)
	if !ok {
		return "unknown error: " + e.Error()
	}

	if err == (*Error)(nil) {
		return Success
	}

	return err.Msg
}

func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
