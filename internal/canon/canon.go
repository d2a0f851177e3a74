// Package canon renders payloads into the canonical text form used for
// decision results, reasons, details and inputs.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/luno/jettison/errors"
)

// Text returns the canonical text of v. Strings are returned as is and nil
// is empty. Errors render as their message and fmt.Stringer values (such as
// time.Duration) as their String text, not as JSON. Everything else is
// rendered as compact JSON without HTML escaping: map keys are sorted and
// struct fields keep their declaration order.
func Text(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case json.RawMessage:
		return string(t), nil
	case error:
		return t.Error(), nil
	case fmt.Stringer:
		return t.String(), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", errors.Wrap(err, "canonical json")
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// MustText is like Text but panics on error. It is only used for values
// that are known to be json encodable.
func MustText(v interface{}) string {
	s, err := Text(v)
	if err != nil {
		panic(err)
	}
	return s
}
