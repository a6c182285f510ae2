package apicall

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Value is a tagged field value. Exactly three variants exist: Text for
// scalar values, JSON for structured values rendered as compact JSON, and
// File for binary attachments pulled out into their own multipart parts.
type Value interface {
	isValue()
}

// Text is a scalar value emitted verbatim as a text part. An empty Text is
// still a present value and produces an empty part; only a nil Value (or a
// field never added) omits the part entirely.
type Text string

func (Text) isValue() {}

// Int wraps an integer scalar as a Text value.
func Int(i int64) Value {
	return Text(strconv.FormatInt(i, 10))
}

// Bool wraps a boolean scalar as a Text value.
func Bool(b bool) Value {
	return Text(strconv.FormatBool(b))
}

// JSON is a structured value (object or list) serialized as compact JSON so
// the remote endpoint can parse it from a single text field.
type JSON struct {
	V any
}

func (JSON) isValue() {}

// File is a binary attachment. During serialization it is recorded into the
// attachment sink under its field's name and emitted later as a separate
// binary part. Reader is consumed exactly once; if it implements io.Closer
// it is closed when encoding finishes or is abandoned.
type File struct {
	// Filename is used in the part's Content-Disposition. When empty the
	// field name is used instead.
	Filename string
	Reader   io.Reader
}

func (File) isValue() {}

// attachmentSink collects File values discovered during field serialization,
// preserving insertion order. A second write under the same field name
// overwrites the first; well-formed calls never do this.
type attachmentSink struct {
	names []string
	files map[string]File
}

func (s *attachmentSink) put(name string, f File) {
	if s.files == nil {
		s.files = make(map[string]File)
	}
	if _, seen := s.files[name]; !seen {
		s.names = append(s.names, name)
	}
	s.files[name] = f
}

// prepare converts one field value into its text representation. The second
// return reports whether a text part should be emitted: absent values and
// File values (which are diverted into the sink) produce no text part.
func prepare(name string, v Value, sink *attachmentSink) (string, bool, error) {
	switch val := v.(type) {
	case nil:
		return "", false, nil
	case Text:
		return string(val), true, nil
	case JSON:
		data, err := json.Marshal(val.V)
		if err != nil {
			return "", false, fmt.Errorf("marshal structured field %q: %w", name, err)
		}
		return string(data), true, nil
	case File:
		sink.put(name, val)
		return "", false, nil
	default:
		return "", false, fmt.Errorf("field %q: unsupported value type %T", name, v)
	}
}
