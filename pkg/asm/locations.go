package asm

import (
	"fmt"
	"os"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Locations maps symbolic names to constants. It is loaded once, before any
// source is parsed, so a name must be defined before the line that uses it.
type Locations map[string]uint16

// LoadLocationsFile reads a definitions file from disk.
func LoadLocationsFile(path string) (Locations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ErrSourceIO{Path: path, Err: err}
	}
	return ParseLocations(string(data))
}

// ParseLocations reads "<name> <value>" lines. Blank lines and lines starting
// with ';' are skipped, and anything after the value is ignored. A value is a
// source literal or a $(...) expression over the names defined above it.
func ParseLocations(text string) (locs Locations, err error) {
	locs = Locations{}
	cur := NewCursor(text)

	var lineNo int
	var name string
	defer func() {
		if err != nil {
			err = &ErrDefinition{LineNo: lineNo, Name: name, Err: err}
			locs = nil
		}
	}()

	for !cur.Done() {
		lineNo = cur.Line
		cur.skipBlanks()
		if cur.atLineEnd() {
			cur.skipLine()
			continue
		}

		name = cur.word()
		cur.skipBlanks()
		rest := cur.rest()

		if _, dup := locs[name]; dup {
			return nil, ErrDefinitionDuplicate
		}

		var value uint16
		value, err = locs.evalValue(rest)
		if err != nil {
			return
		}
		locs[name] = value
	}

	return
}

// evalValue evaluates the value part of a definitions line.
func (locs Locations) evalValue(rest string) (uint16, error) {
	if strings.HasPrefix(rest, "$(") {
		expr, ok := parenBody(rest[1:])
		if !ok {
			return 0, ErrDefinitionSyntax
		}
		return locs.exprEval(expr)
	}

	fields := strings.Fields(strings.SplitN(rest, string(commentMarker), 2)[0])
	if len(fields) == 0 {
		return 0, ErrDefinitionSyntax
	}
	if v, ok := locs[fields[0]]; ok {
		return v, nil
	}
	v, ok, err := parseLiteral(fields[0])
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrParseNumber(fields[0])
	}
	return v, nil
}

// parenBody returns the text inside a leading balanced (...) group.
func parenBody(s string) (string, bool) {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], true
			}
		}
	}
	return "", false
}

// exprEval evaluates a Starlark integer expression with the already known
// locations predeclared.
func (locs Locations) exprEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{Name: "locations"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, v := range locs {
		pred[key] = starlark.MakeInt(int(v))
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrDefinitionSyntax, err)
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = fmt.Errorf("%w: $(%v) is not an integer", ErrDefinitionSyntax, expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = fmt.Errorf("%w: $(%v) overflows", ErrDefinitionSyntax, expr)
		return
	}
	value = uint16(st_int64)
	return
}
