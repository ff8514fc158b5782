package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a Loc: either a field name or a list index.
// The zero value is the empty field name.
type Segment struct {
	name    string
	index   int
	isIndex bool
}

// Field returns a field-name segment.
func Field(name string) Segment {
	return Segment{name: name}
}

// Index returns a list-index segment.
func Index(i int) Segment {
	return Segment{index: i, isIndex: true}
}

// IsIndex reports whether the segment is a list index.
func (s Segment) IsIndex() bool { return s.isIndex }

// Name returns the field name; empty for index segments.
func (s Segment) Name() string { return s.name }

// Int returns the list index; zero for field segments.
func (s Segment) Int() int { return s.index }

// String renders the segment as it appears in a dotted path.
func (s Segment) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.name
}

// MarshalJSON encodes field segments as JSON strings and index segments as
// JSON integers.
func (s Segment) MarshalJSON() ([]byte, error) {
	if s.isIndex {
		return []byte(strconv.Itoa(s.index)), nil
	}
	return json.Marshal(s.name)
}

// UnmarshalJSON accepts either a JSON string or a JSON integer.
func (s *Segment) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*s = Field(name)
		return nil
	}

	var i int
	if err := json.Unmarshal(data, &i); err != nil {
		return fmt.Errorf("validation: loc segment must be a string or integer, got %s", data)
	}
	*s = Index(i)

	return nil
}

// Loc is the path from the document root to an offending field.
type Loc []Segment

// At builds a Loc from strings and ints. Other values are formatted with
// fmt.Sprint and used as field names.
func At(parts ...any) Loc {
	loc := make(Loc, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			loc = append(loc, Field(v))
		case int:
			loc = append(loc, Index(v))
		case Segment:
			loc = append(loc, v)
		default:
			loc = append(loc, Field(fmt.Sprint(v)))
		}
	}
	return loc
}

// Append returns a new Loc with segs added. The receiver is never modified.
func (l Loc) Append(segs ...Segment) Loc {
	out := make(Loc, len(l), len(l)+len(segs))
	copy(out, l)
	return append(out, segs...)
}

// Field returns a new Loc extended by a field-name segment.
func (l Loc) Field(name string) Loc { return l.Append(Field(name)) }

// Index returns a new Loc extended by a list-index segment.
func (l Loc) Index(i int) Loc { return l.Append(Index(i)) }

// Last returns the final segment, or the zero Segment for an empty Loc.
func (l Loc) Last() Segment {
	if len(l) == 0 {
		return Segment{}
	}
	return l[len(l)-1]
}

// Equal reports whether l and other name the same path.
func (l Loc) Equal(other Loc) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the path with dots, e.g. "body.messages.0.role".
func (l Loc) String() string {
	parts := make([]string, len(l))
	for i, s := range l {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// MarshalJSON encodes a nil Loc as an empty array.
func (l Loc) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Segment(l))
}
