package exn

import (
	"fmt"
	"strconv"
	"strings"
)

// Field is a key/value pair attached to a message.
type Field struct {
	Key   string
	Value any
}

// Message builds the text of a user, internal or module exception from a
// fixed description and typed fields, in place of printf-style formatting.
//
//	exn.Msg("cannot load module").Str("path", p).Int("line", 3)
type Message struct {
	text   string
	fields []Field
}

// Msg starts a message with the given description.
func Msg(text string) *Message {
	return &Message{text: text}
}

// Str appends a string field.
func (m *Message) Str(key, val string) *Message {
	return m.add(key, val)
}

// Int appends an integer field.
func (m *Message) Int(key string, val int) *Message {
	return m.add(key, val)
}

// Uint appends an unsigned integer field.
func (m *Message) Uint(key string, val uint64) *Message {
	return m.add(key, val)
}

// Err appends an error under the "error" key. A nil error is ignored.
func (m *Message) Err(err error) *Message {
	if err == nil {
		return m
	}
	return m.add("error", err.Error())
}

// Any appends a field holding an arbitrary value.
func (m *Message) Any(key string, val any) *Message {
	return m.add(key, val)
}

func (m *Message) add(key string, val any) *Message {
	m.fields = append(m.fields, Field{Key: key, Value: val})
	return m
}

// Fields returns a copy of the fields appended so far.
func (m *Message) Fields() []Field {
	if m == nil || len(m.fields) == 0 {
		return nil
	}
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// String renders the message as "text (k=v, k=v)".
func (m *Message) String() string {
	if m == nil {
		return ""
	}
	if len(m.fields) == 0 {
		return m.text
	}
	var sb strings.Builder
	sb.WriteString(m.text)
	sb.WriteString(" (")
	for i, f := range m.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Key)
		sb.WriteByte('=')
		switch v := f.Value.(type) {
		case string:
			sb.WriteString(strconv.Quote(v))
		default:
			sb.WriteString(fmt.Sprint(v))
		}
	}
	sb.WriteByte(')')
	return sb.String()
}
