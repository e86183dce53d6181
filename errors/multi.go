package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If no errors are given or all given errors are nil, this function returns
// nil. A single non nil error is returned as it is.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if errIsNil(e) {
			continue
		}
		if m, ok := e.(multiErr); ok {
			res = append(res, m...)
		} else {
			res = append(res, e)
		}
	}
	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

type unpacker interface {
	Unpack() []error
}

// multiErr represents a group of errors. Its ABCI code and cause are taken
// from the first error in the group.
type multiErr []error

func (m multiErr) Error() string {
	points := make([]string, len(m))
	for i, err := range m {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf(
		"%d errors occurred:\n\t%s\n",
		len(m), strings.Join(points, "\n\t"))
}

// Unpack implements unpacker interface.
func (m multiErr) Unpack() []error {
	return m
}

// Cause returns the first error in the group.
func (m multiErr) Cause() error {
	return m[0]
}

func (m multiErr) ABCICode() uint32 {
	return abciCode(m[0])
}

var (
	_ unpacker = multiErr(nil)
	_ causer   = multiErr(nil)
	_ coder    = multiErr(nil)
)
