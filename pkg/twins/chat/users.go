package chat

import (
	"encoding/json"

	"github.com/maybind/maybind-go/pkg/validation"
)

// Users is the body of GET /users: the twins visible to the caller.
type Users struct {
	TwinIDs []string `json:"twin_ids"`
}

// Len returns the number of twins.
func (u Users) Len() int { return len(u.TwinIDs) }

// First returns the first twin id and true, or "" and false when none are
// visible.
func (u Users) First() (string, bool) {
	if len(u.TwinIDs) == 0 {
		return "", false
	}
	return u.TwinIDs[0], true
}

// MarshalJSON always encodes twin_ids as an array, never null.
func (u Users) MarshalJSON() ([]byte, error) {
	ids := u.TwinIDs
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(struct {
		TwinIDs []string `json:"twin_ids"`
	}{ids})
}

// DecodeUsers parses a /users response body. An empty twin_ids array is a
// valid answer.
func DecodeUsers(data []byte) (Users, error) {
	var errs validation.Errors

	obj, ok := validation.DecodeObject(data, validation.At(ResponseRoot), &errs)
	if !ok {
		return Users{}, errs
	}

	ids, ok := obj.Strings("twin_ids")
	if !ok {
		return Users{}, errs
	}

	return Users{TwinIDs: ids}, nil
}
