package asm

import (
	"errors"
	"strconv"

	"emu16/pkg/translate"
)

var f = translate.From

var (
	// Syntax errors, wrapped in ErrSyntax.
	ErrMnemonicUnknown = errors.New(f("unknown mnemonic"))
	ErrOperandCount    = errors.New(f("wrong operand count"))
	ErrOperandKind     = errors.New(f("wrong operand kind"))
	ErrOperandInvalid  = errors.New(f("invalid operand"))
	ErrLiteral         = errors.New(f("malformed literal"))
	ErrBracket         = errors.New(f("malformed bracket expression"))
	ErrRegister        = errors.New(f("unknown register"))
	ErrLabelInvalid    = errors.New(f("invalid label"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrOffsetRange     = errors.New(f("frame offset out of range"))

	// Definitions file errors, wrapped in ErrDefinition.
	ErrDefinitionSyntax    = errors.New(f("definition syntax"))
	ErrDefinitionDuplicate = errors.New(f("definition duplicated"))
)

// ErrSyntax locates a fatal assembly error.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %s '%v' %v", strconv.Itoa(err.LineNo), err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrLabelMissing names a label that was referenced but never defined.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrSourceIO reports a source or definitions file that could not be read.
type ErrSourceIO struct {
	Path string
	Err  error
}

func (err *ErrSourceIO) Error() string {
	return f("%v: %v", err.Path, err.Err)
}

func (err *ErrSourceIO) Unwrap() error {
	return err.Err
}

// ErrDefinition locates an error in a definitions file.
type ErrDefinition struct {
	LineNo int
	Name   string
	Err    error
}

func (err *ErrDefinition) Error() string {
	return f("definition line %s '%v' %v", strconv.Itoa(err.LineNo), err.Name, err.Err)
}

func (err *ErrDefinition) Unwrap() error {
	return err.Err
}

// ErrParseNumber is a token that looked numeric but is not a valid literal.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

func (err ErrParseNumber) Unwrap() error {
	return ErrLiteral
}
