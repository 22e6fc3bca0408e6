package engine

import (
	"fmt"
	"strconv"
	"strings"
)

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// JoinPointer appends a reference token to a JSON pointer (RFC 6901).
func JoinPointer(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}

// JoinIndex appends an array index to a JSON pointer.
func JoinIndex(base string, i int) string {
	return base + "/" + strconv.Itoa(i)
}

// SplitPointer splits a JSON pointer into unescaped reference tokens. The
// empty pointer refers to the whole document and yields no tokens.
func SplitPointer(p string) ([]string, error) {
	if p == "" {
		return nil, nil
	}
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("json pointer %q must start with '/'", p)
	}
	parts := strings.Split(p[1:], "/")
	for i, part := range parts {
		parts[i] = pointerUnescaper.Replace(part)
	}
	return parts, nil
}

// DisplayPointer renders the document root as "/" for messages.
func DisplayPointer(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
