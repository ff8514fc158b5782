// Package validation describes field-level validation failures using the same
// loc/msg/type triple the Maybind API returns with HTTP 422, so failures
// detected locally and failures reported by the server look identical to
// callers.
package validation

import (
	"fmt"
	"strings"
)

// Error types used by the Maybind API and by local validation.
const (
	TypeMissing        = "missing"
	TypeStringType     = "string_type"
	TypeIntType        = "int_type"
	TypeListType       = "list_type"
	TypeModelType      = "model_type"
	TypeEnum           = "enum"
	TypeTooShort       = "too_short"
	TypeStringTooShort = "string_too_short"
	TypeDatetime       = "datetime_parsing"
	TypeValueError     = "value_error"
	TypeJSONInvalid    = "json_invalid"
)

// Error is a single validation failure. Loc identifies the offending field,
// starting at the document root ("body" for requests, "response" for
// responses).
type Error struct {
	Loc  Loc    `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// Error implements the error interface.
func (e Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Loc, e.Msg, e.Type)
}

// Errors is an ordered list of validation failures. A non-empty Errors value
// is itself an error.
type Errors []Error

// Error implements the error interface.
func (es Errors) Error() string {
	switch len(es) {
	case 0:
		return "validation: no errors"
	case 1:
		return "validation: " + es[0].Error()
	}

	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}

	return fmt.Sprintf("validation: %d errors: %s", len(es), strings.Join(parts, "; "))
}

// Err returns es as an error, or nil when es is empty.
func (es Errors) Err() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

// Find returns the first error whose loc equals the given path.
func (es Errors) Find(path ...any) (Error, bool) {
	want := At(path...)
	for _, e := range es {
		if e.Loc.Equal(want) {
			return e, true
		}
	}
	return Error{}, false
}

// Add appends an error at loc.
func (es *Errors) Add(loc Loc, typ, msg string) {
	*es = append(*es, Error{Loc: loc.Append(), Msg: msg, Type: typ})
}

// HTTPError is the body of an HTTP 422 response.
type HTTPError struct {
	Detail Errors `json:"detail"`
}

// Constructors for the common failures. The messages match the server's
// wording.

// Missing reports a required field that is absent.
func Missing(loc Loc) Error {
	return Error{Loc: loc, Msg: "Field required", Type: TypeMissing}
}

// StringType reports a value that should have been a string.
func StringType(loc Loc) Error {
	return Error{Loc: loc, Msg: "Input should be a valid string", Type: TypeStringType}
}

// IntType reports a value that should have been an integer.
func IntType(loc Loc) Error {
	return Error{Loc: loc, Msg: "Input should be a valid integer", Type: TypeIntType}
}

// ListType reports a value that should have been a list.
func ListType(loc Loc) Error {
	return Error{Loc: loc, Msg: "Input should be a valid list", Type: TypeListType}
}

// ModelType reports a value that should have been a JSON object.
func ModelType(loc Loc) Error {
	return Error{Loc: loc, Msg: "Input should be a valid dictionary or object to extract fields from", Type: TypeModelType}
}

// Enum reports a value outside the allowed set.
func Enum(loc Loc, allowed ...string) Error {
	quoted := make([]string, len(allowed))
	for i, a := range allowed {
		quoted[i] = "'" + a + "'"
	}

	var expected string
	switch len(quoted) {
	case 0:
	case 1:
		expected = quoted[0]
	default:
		expected = strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
	}

	return Error{Loc: loc, Msg: "Input should be " + expected, Type: TypeEnum}
}

// TooShort reports a list with fewer than minItems entries.
func TooShort(loc Loc, minItems, got int) Error {
	return Error{
		Loc:  loc,
		Msg:  fmt.Sprintf("List should have at least %d %s after validation, not %d", minItems, plural(minItems, "item"), got),
		Type: TypeTooShort,
	}
}

// StringTooShort reports a string with fewer than minLen characters.
func StringTooShort(loc Loc, minLen int) Error {
	return Error{
		Loc:  loc,
		Msg:  fmt.Sprintf("String should have at least %d %s", minLen, plural(minLen, "character")),
		Type: TypeStringTooShort,
	}
}

// Datetime reports a value that is not an ISO-8601 timestamp.
func Datetime(loc Loc, reason string) Error {
	return Error{Loc: loc, Msg: "Input should be a valid datetime, " + reason, Type: TypeDatetime}
}

// ValueError reports a failed cross-field or semantic check.
func ValueError(loc Loc, reason string) Error {
	return Error{Loc: loc, Msg: "Value error, " + reason, Type: TypeValueError}
}

// JSONInvalid reports a document that is not valid JSON.
func JSONInvalid(loc Loc, reason string) Error {
	return Error{Loc: loc, Msg: "JSON decode error: " + reason, Type: TypeJSONInvalid}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
