package validation

import (
	"bytes"
	"encoding/json"
)

// Object walks the fields of a raw JSON object and records a failure for
// every field that is missing or has the wrong shape. Accessors return ok ==
// false when they recorded an error.
type Object struct {
	loc    Loc
	fields map[string]json.RawMessage
	errs   *Errors
}

// DecodeObject parses data as a JSON object located at loc. When data is not
// an object it records a failure in errs and returns ok == false.
func DecodeObject(data []byte, loc Loc, errs *Errors) (Object, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			*errs = append(*errs, JSONInvalid(loc, "document is not valid JSON"))
		} else {
			*errs = append(*errs, ModelType(loc))
		}
		return Object{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		*errs = append(*errs, JSONInvalid(loc, err.Error()))
		return Object{}, false
	}

	return Object{loc: loc, fields: fields, errs: errs}, true
}

// Raw returns the raw value of a required field.
func (o Object) Raw(name string) (json.RawMessage, bool) {
	raw, ok := o.fields[name]
	if !ok {
		*o.errs = append(*o.errs, Missing(o.loc.Field(name)))
		return nil, false
	}
	return raw, true
}

// String returns a required string field with at least minLen bytes.
func (o Object) String(name string, minLen int) (string, bool) {
	raw, ok := o.Raw(name)
	if !ok {
		return "", false
	}

	var s string
	if !isString(raw) || json.Unmarshal(raw, &s) != nil {
		*o.errs = append(*o.errs, StringType(o.loc.Field(name)))
		return "", false
	}

	if len(s) < minLen {
		*o.errs = append(*o.errs, StringTooShort(o.loc.Field(name), minLen))
		return "", false
	}

	return s, true
}

// OptionalString returns a string field that may be absent or null.
func (o Object) OptionalString(name string) (string, bool) {
	raw, ok := o.fields[name]
	if !ok || isNull(raw) {
		return "", true
	}

	var s string
	if !isString(raw) || json.Unmarshal(raw, &s) != nil {
		*o.errs = append(*o.errs, StringType(o.loc.Field(name)))
		return "", false
	}

	return s, true
}

// OptionalInt returns an integer field that may be absent or null.
func (o Object) OptionalInt(name string) (int, bool) {
	raw, ok := o.fields[name]
	if !ok || isNull(raw) {
		return 0, true
	}

	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		*o.errs = append(*o.errs, IntType(o.loc.Field(name)))
		return 0, false
	}

	return n, true
}

// List returns the elements of a required list field with at least minItems
// entries.
func (o Object) List(name string, minItems int) ([]json.RawMessage, bool) {
	raw, ok := o.Raw(name)
	if !ok {
		return nil, false
	}

	trimmed := bytes.TrimSpace(raw)
	var items []json.RawMessage
	if len(trimmed) == 0 || trimmed[0] != '[' || json.Unmarshal(trimmed, &items) != nil {
		*o.errs = append(*o.errs, ListType(o.loc.Field(name)))
		return nil, false
	}

	if len(items) < minItems {
		*o.errs = append(*o.errs, TooShort(o.loc.Field(name), minItems, len(items)))
		return nil, false
	}

	return items, true
}

// Strings returns a required list of strings.
func (o Object) Strings(name string) ([]string, bool) {
	items, ok := o.List(name, 0)
	if !ok {
		return nil, false
	}

	out := make([]string, 0, len(items))
	valid := true
	for i, item := range items {
		var s string
		if !isString(item) || json.Unmarshal(item, &s) != nil {
			*o.errs = append(*o.errs, StringType(o.loc.Field(name).Index(i)))
			valid = false
			continue
		}
		out = append(out, s)
	}

	return out, valid
}

func isString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
