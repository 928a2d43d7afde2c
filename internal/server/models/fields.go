package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/authapi/internal/common"
)

const fieldsInputName = "fields"

// Field is a named list of string values attached to an account.
type Field struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Fields is an ordered set of Field with unique names.
//
// It encodes to JSON as an object in insertion order:
//
//	{"role": ["admin"], "team": ["core", "ops"]}
//
// and decodes from that object form or from the list form
//
//	[{"name": "role", "values": ["admin"]}]
type Fields []Field

// Get returns the values of the named field.
func (f Fields) Get(name string) ([]string, bool) {
	for _, fld := range f {
		if fld.Name == name {
			return fld.Values, true
		}
	}
	return nil, false
}

// Has reports whether the named field contains value.
func (f Fields) Has(name, value string) bool {
	values, ok := f.Get(name)
	if !ok {
		return false
	}
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// Validate checks that every field has a non-empty, unique name.
func (f Fields) Validate() error {
	seen := make(map[string]struct{}, len(f))
	for _, fld := range f {
		if fld.Name == "" {
			return common.NewValidationError(fieldsInputName, "field name must not be empty")
		}
		if _, dup := seen[fld.Name]; dup {
			return common.NewValidationError(fieldsInputName, fmt.Sprintf("duplicate field %q", fld.Name))
		}
		seen[fld.Name] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for i, fld := range f {
		out[i] = Field{Name: fld.Name, Values: append([]string(nil), fld.Values...)}
	}
	return out
}

func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fld := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(fld.Name)
		if err != nil {
			return nil, err
		}
		values := fld.Values
		if values == nil {
			values = []string{}
		}
		vals, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(vals)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *Fields) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}

	var out Fields
	var err error
	switch data[0] {
	case '{':
		out, err = decodeFieldsObject(data)
	case '[':
		out, err = decodeFieldsList(data)
	default:
		err = common.NewValidationError(fieldsInputName, "must be an object or a list of {name, values}")
	}
	if err != nil {
		return err
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*f = out
	return nil
}

func decodeFieldsObject(data []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, common.NewValidationError(fieldsInputName, err.Error())
	}

	out := Fields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, common.NewValidationError(fieldsInputName, err.Error())
		}
		name, _ := tok.(string)

		var values []string
		if err := dec.Decode(&values); err != nil {
			return nil, common.NewValidationError(fieldsInputName, fmt.Sprintf("field %q: values must be a list of strings", name))
		}
		if values == nil {
			values = []string{}
		}
		out = append(out, Field{Name: name, Values: values})
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, common.NewValidationError(fieldsInputName, err.Error())
	}
	return out, nil
}

func decodeFieldsList(data []byte) (Fields, error) {
	var list []Field
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, common.NewValidationError(fieldsInputName, "list entries must be {name, values}")
	}
	out := make(Fields, 0, len(list))
	for _, fld := range list {
		if fld.Values == nil {
			fld.Values = []string{}
		}
		out = append(out, fld)
	}
	return out, nil
}

// Value stores fields as a JSON list, which keeps the order inside a jsonb column.
func (f Fields) Value() (driver.Value, error) {
	list := []Field(f)
	if list == nil {
		list = []Field{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (f *Fields) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*f = Fields{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("fields: unsupported scan type %T", src)
	}
	return f.UnmarshalJSON(data)
}
