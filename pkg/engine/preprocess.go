package engine

import "strings"

// kwPrefix marks a keyword that preprocessSource turned into a string.
const kwPrefix = "__kw_"

// preprocessSource adapts script text to what zygomys accepts. Outside
// string literals it rewrites
//
//	:at         -> "__kw_at"    keywords become tagged strings
//	add-part    -> add_part     zygomys reads a hyphen as minus
//	; note      -> // note      zygomys comments use //
//
// and leaves := and a free-standing minus alone.
func preprocessSource(source string) string {
	s := &scanner{src: source}
	s.out.Grow(len(source) + len(source)/4)
	for !s.done() {
		switch c := s.peek(0); {
		case c == '"':
			s.quoted('"', true)
		case c == '`':
			s.quoted('`', false)
		case c == ';':
			s.comment()
		case c == ':' && isLetter(s.peek(1)):
			s.keyword()
		case c == '-' && isIdentChar(s.peek(-1)) && isLetter(s.peek(1)):
			s.out.WriteByte('_')
			s.pos++
		case c == ':' && s.peek(1) == '=':
			s.copy(2)
		default:
			s.copy(1)
		}
	}
	return s.out.String()
}

type scanner struct {
	src string
	pos int
	out strings.Builder
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

// peek returns the byte at offset from pos, or 0 outside the source.
func (s *scanner) peek(offset int) byte {
	i := s.pos + offset
	if i < 0 || i >= len(s.src) {
		return 0
	}
	return s.src[i]
}

func (s *scanner) copy(n int) {
	end := min(s.pos+n, len(s.src))
	s.out.WriteString(s.src[s.pos:end])
	s.pos = end
}

// quoted copies a literal through its closing delimiter, or to the end of
// the source when it is unterminated.
func (s *scanner) quoted(delim byte, escapes bool) {
	s.copy(1)
	for !s.done() {
		switch c := s.peek(0); {
		case escapes && c == '\\':
			s.copy(2)
		case c == delim:
			s.copy(1)
			return
		default:
			s.copy(1)
		}
	}
}

func (s *scanner) comment() {
	for s.peek(0) == ';' {
		s.pos++
	}
	s.out.WriteString("//")
	for !s.done() && s.peek(0) != '\n' {
		s.copy(1)
	}
}

func (s *scanner) keyword() {
	start := s.pos + 1
	end := start
	for end < len(s.src) && isKWChar(s.src[end]) {
		end++
	}
	s.out.WriteString(`"` + kwPrefix + s.src[start:end] + `"`)
	s.pos = end
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' }

func isKWChar(c byte) bool { return isIdentChar(c) || c == '-' }
