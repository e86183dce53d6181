package errors

import (
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// stackTrace returns the first found stack trace frame carried by given error
// or any wrapped error. It returns nil if no stack trace is found.
func stackTrace(err error) errors.StackTrace {
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}

	for {
		if st, ok := err.(stackTracer); ok {
			return st.StackTrace()
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return nil
		}
	}
}

// Format implements fmt.Formatter. %+v prints the message followed by the
// full stack trace, %v prints the message with the creation frame.
func (e *wrappedError) Format(s fmt.State, verb rune) {
	_, _ = io.WriteString(s, e.Error())
	if verb != 'v' {
		return
	}
	st := trimInternal(stackTrace(e))
	if len(st) == 0 {
		return
	}
	if s.Flag('+') {
		_, _ = fmt.Fprintf(s, "%+v", st)
		return
	}
	_, _ = fmt.Fprintf(s, " [%s:%d]", st[0], st[0])
}

// thisPkg is the import path of this package, used to cut the error
// construction frames from a stack trace.
var thisPkg = func() string {
	name := runtime.FuncForPC(reflect.ValueOf(Wrap).Pointer()).Name()
	return name[:strings.LastIndex(name, ".")]
}()

// trimInternal drops the frames of this package (error creation) from the top
// and the runtime frames from the bottom of the stack.
func trimInternal(st errors.StackTrace) errors.StackTrace {
	for len(st) > 1 && isInternalFrame(st[0]) {
		st = st[1:]
	}
	for len(st) > 1 && strings.HasPrefix(frameFunc(st[len(st)-1]), "runtime.") {
		st = st[:len(st)-1]
	}
	return st
}

func isInternalFrame(f errors.Frame) bool {
	fn := frameFunc(f)
	if !strings.HasPrefix(fn, thisPkg+".") {
		return false
	}
	file := fmt.Sprintf("%s", f)
	return !strings.HasSuffix(file, "_test.go")
}

// frameFunc returns the fully qualified function name of a frame.
func frameFunc(f errors.Frame) string {
	pc := uintptr(f) - 1
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	return fn.Name()
}
