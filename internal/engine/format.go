package engine

import (
	"strconv"
	"strings"
)

// DetectFormat inspects raw JSON text and reports its layout. Properties
// that cannot be observed fall back to DefaultFormat.
func DetectFormat(text string) Format {
	esc := detectEscapes(text)
	return Format{
		Indent:        detectIndent(text),
		Newline:       detectNewline(text),
		FinalNewline:  hasFinalNewline(text),
		EscapeSlashes: esc.slashes,
		EscapeUnicode: esc.unicode,
	}
}

// detectIndent returns the leading whitespace run of the first indented
// line that carries content.
func detectIndent(text string) string {
	lines := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
	for _, line := range lines {
		if line == "" || (line[0] != ' ' && line[0] != '\t') {
			continue
		}
		unit := line[0]
		n := 0
		for n < len(line) && line[n] == unit {
			n++
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line[:n]
	}
	return DefaultFormat.Indent
}

func detectNewline(text string) string {
	i := strings.IndexAny(text, "\r\n")
	if i < 0 {
		return DefaultFormat.Newline
	}
	if text[i] == '\n' {
		return "\n"
	}
	if i+1 < len(text) && text[i+1] == '\n' {
		return "\r\n"
	}
	return "\r"
}

func hasFinalNewline(text string) bool {
	trimmed := strings.TrimRight(text, " \t")
	return strings.HasSuffix(trimmed, "\n") || strings.HasSuffix(trimmed, "\r")
}

type escapes struct {
	slashes bool
	unicode bool
}

// detectEscapes scans escape sequences. Backslashes only occur inside
// strings in valid JSON, so pairs can be consumed without tracking quotes.
// \u2028 and \u2029 are ignored: encoders escape them regardless of style.
func detectEscapes(text string) escapes {
	var e escapes
	for i := 0; i+1 < len(text); i++ {
		if text[i] != '\\' {
			continue
		}
		switch text[i+1] {
		case '/':
			e.slashes = true
		case 'u':
			if i+6 <= len(text) {
				if cp, err := strconv.ParseUint(text[i+2:i+6], 16, 32); err == nil && cp >= 0x80 && cp != 0x2028 && cp != 0x2029 {
					e.unicode = true
				}
			}
		}
		i++
	}
	return e
}
