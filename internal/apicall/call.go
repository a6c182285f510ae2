// Package apicall models outbound Telegram API calls and encodes them as
// multipart/form-data byte streams suitable for returning directly in the
// body of a webhook response.
package apicall

// Field is a single named value of a call, kept in insertion order.
type Field struct {
	Name  string
	Value Value
}

// Call represents one outbound API operation a handler wants performed,
// e.g. sendMessage with chat_id and text fields. A Call is built by a
// handler and consumed exactly once by Encode.
type Call struct {
	// Method is the Telegram API method name, e.g. "sendMessage".
	Method string

	fields []Field
}

// New creates a call for the given API method.
func New(method string) *Call {
	return &Call{Method: method}
}

// Add appends a field to the call. A nil value marks the field as absent;
// absent fields contribute no part to the encoded stream. Add returns the
// call to allow chaining.
func (c *Call) Add(name string, v Value) *Call {
	c.fields = append(c.fields, Field{Name: name, Value: v})
	return c
}

// Fields returns the call's fields in insertion order.
func (c *Call) Fields() []Field {
	return c.fields
}

// SendMessage builds a sendMessage call addressed to the given chat.
func SendMessage(chatID int64, text string) *Call {
	return New("sendMessage").
		Add("chat_id", Int(chatID)).
		Add("text", Text(text))
}
