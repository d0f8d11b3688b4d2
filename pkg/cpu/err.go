package cpu

import (
	"errors"
	"strconv"

	"emu16/pkg/translate"
)

var f = translate.From

var ErrLabelUnresolved = errors.New(f("jump target is an unresolved label"))

// ErrUndefinedExecution is returned when IP points past the end of the program.
type ErrUndefinedExecution struct {
	IP uint16
}

func (err *ErrUndefinedExecution) Error() string {
	return f("execution continued into undefined instructions at IP %s", strconv.Itoa(int(err.IP)))
}

// ErrMalformedDiagnosticPair is returned when a dbg with an address operand
// is not immediately followed by a second one.
type ErrMalformedDiagnosticPair struct {
	IP uint16
}

func (err *ErrMalformedDiagnosticPair) Error() string {
	return f("dbg at IP %s is not followed by another dbg", strconv.Itoa(int(err.IP)))
}
