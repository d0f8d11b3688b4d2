package asm

// Cursor is a read-only, rune-addressable view over source text that tracks
// the current line (1-based) and column (0-based).
type Cursor struct {
	text  []rune
	index int
	Line  int
	Col   int
}

// NewCursor returns a cursor positioned at the start of text.
func NewCursor(text string) *Cursor {
	return &Cursor{
		text: []rune(text),
		Line: 1,
	}
}

// Peek returns the next rune without consuming it.
func (c *Cursor) Peek() (r rune, ok bool) {
	if c.index >= len(c.text) {
		return 0, false
	}
	return c.text[c.index], true
}

// Next consumes and returns the next rune.
func (c *Cursor) Next() (r rune, ok bool) {
	r, ok = c.Peek()
	if !ok {
		return
	}
	c.index++
	if r == '\n' {
		c.Line++
		c.Col = 0
	} else {
		c.Col++
	}
	return
}

// Done reports whether every rune has been consumed.
func (c *Cursor) Done() bool {
	return c.index >= len(c.text)
}

// atLineEnd reports end of input, a newline or a comment marker.
func (c *Cursor) atLineEnd() bool {
	r, ok := c.Peek()
	return !ok || r == '\n' || r == commentMarker
}

// skipBlanks consumes spaces, tabs and carriage returns.
func (c *Cursor) skipBlanks() {
	for {
		r, ok := c.Peek()
		if !ok || (r != ' ' && r != '\t' && r != '\r') {
			return
		}
		c.Next()
	}
}

// skipLine consumes the rest of the line including its newline.
func (c *Cursor) skipLine() {
	for {
		r, ok := c.Next()
		if !ok || r == '\n' {
			return
		}
	}
}

// word consumes a run of non-blank runes, stopping before a comment marker.
func (c *Cursor) word() string {
	start := c.index
	for {
		r, ok := c.Peek()
		if !ok || r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == commentMarker {
			break
		}
		c.Next()
	}
	return string(c.text[start:c.index])
}

// lineText returns the full text of the line holding the cursor.
func (c *Cursor) lineText() string {
	start := c.index
	for start > 0 && c.text[start-1] != '\n' {
		start--
	}
	end := c.index
	for end < len(c.text) && c.text[end] != '\n' {
		end++
	}
	return string(c.text[start:end])
}

// rest consumes the remainder of the line and returns it without the newline.
func (c *Cursor) rest() string {
	start := c.index
	for {
		r, ok := c.Peek()
		if !ok || r == '\n' {
			break
		}
		c.Next()
	}
	text := string(c.text[start:c.index])
	c.Next()
	return text
}
