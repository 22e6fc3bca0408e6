package manifestnorm

import (
	"errors"

	"github.com/reoring/manifestnorm/internal/engine"
)

// malformed maps a decode failure to KindMalformedInput, keeping the
// location reported by the decoder.
func malformed(normalizer string, err error) *Error {
	e := &Error{Kind: KindMalformedInput, Normalizer: normalizer, Message: "input is not valid JSON", Cause: err}
	var ie *engine.IssueError
	if errors.As(err, &ie) {
		e.Path = ie.Path
		if ie.Code == engine.CodeDuplicateKey {
			e.Message = "duplicate object key"
		}
	}
	return e
}

// encode prints a tree between pipeline stages. The final layout is
// decided by AutoFormat.
func encode(normalizer string, doc any) (string, error) {
	text, err := engine.Print(doc, engine.DefaultFormat)
	if err != nil {
		return "", &Error{Kind: KindNormalization, Normalizer: normalizer, Message: "print", Cause: err}
	}
	return text, nil
}
