package guflow

import (
	"encoding/json"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrNoField is returned when a result field does not exist or has an
// unexpected type.
var ErrNoField = errors.New("result field not found", j.C("ERR_6c2f9e1b8d04a573"))

// Result is the text result of an activity, lambda or child workflow. The
// engine passes it through unchanged; JSON results can be queried by field.
type Result struct {
	raw string
}

// NewResult returns the result wrapping the raw text.
func NewResult(raw string) Result {
	return Result{raw: raw}
}

func (r Result) String() string {
	return r.raw
}

func (r Result) IsEmpty() bool {
	return r.raw == ""
}

// Value parses the result as a JSON document.
func (r Result) Value() (*structpb.Value, error) {
	var v structpb.Value
	if err := protojson.Unmarshal([]byte(r.raw), &v); err != nil {
		return nil, errors.Wrap(err, "parse result")
	}
	return &v, nil
}

// Field returns the value at the path of object keys.
func (r Result) Field(path ...string) (*structpb.Value, error) {
	v, err := r.Value()
	if err != nil {
		return nil, err
	}

	for _, key := range path {
		s := v.GetStructValue()
		if s == nil {
			return nil, errors.Wrap(ErrNoField, "not an object", j.KS("key", key))
		}

		next, ok := s.Fields[key]
		if !ok {
			return nil, errors.Wrap(ErrNoField, "", j.KS("key", key))
		}
		v = next
	}

	return v, nil
}

// Text returns the string at the path.
func (r Result) Text(path ...string) (string, error) {
	v, err := r.Field(path...)
	if err != nil {
		return "", err
	}

	s, ok := v.Kind.(*structpb.Value_StringValue)
	if !ok {
		return "", errors.Wrap(ErrNoField, "not a string")
	}
	return s.StringValue, nil
}

// Number returns the number at the path.
func (r Result) Number(path ...string) (float64, error) {
	v, err := r.Field(path...)
	if err != nil {
		return 0, err
	}

	n, ok := v.Kind.(*structpb.Value_NumberValue)
	if !ok {
		return 0, errors.Wrap(ErrNoField, "not a number")
	}
	return n.NumberValue, nil
}

// Bool returns the boolean at the path.
func (r Result) Bool(path ...string) (bool, error) {
	v, err := r.Field(path...)
	if err != nil {
		return false, err
	}

	b, ok := v.Kind.(*structpb.Value_BoolValue)
	if !ok {
		return false, errors.Wrap(ErrNoField, "not a bool")
	}
	return b.BoolValue, nil
}

// Unmarshal decodes the JSON result into v.
func (r Result) Unmarshal(v interface{}) error {
	if err := json.Unmarshal([]byte(r.raw), v); err != nil {
		return errors.Wrap(err, "unmarshal result")
	}
	return nil
}
