package chart

import (
	"bytes"
	"encoding/json"
)

// Field is an optional column reference. The zero value is absent.
type Field struct {
	name string
	set  bool
}

// Some references the named column
func Some(name string) Field {
	return Field{name: name, set: true}
}

// None is the absent field
func None() Field {
	return Field{}
}

// Name returns the column name and whether the field is set
func (f Field) Name() (string, bool) {
	return f.name, f.set
}

func (f Field) IsSet() bool {
	return f.set
}

// Or returns the field's name, or fallback when absent
func (f Field) Or(fallback string) string {
	if f.set {
		return f.name
	}
	return fallback
}

func (f Field) String() string {
	if !f.set {
		return "<none>"
	}
	return f.name
}

func (f Field) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.name)
}

func (f *Field) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = None()
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*f = Some(name)
	return nil
}
