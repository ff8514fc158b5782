package maybind

import (
	"encoding/json"
	"time"

	"github.com/maybind/maybind-go/pkg/twins/chat"
	"github.com/maybind/maybind-go/pkg/twins/message"
	"github.com/maybind/maybind-go/pkg/validation"
)

// KeyInfo is what the server tells about a verified key. The endpoint
// promises nothing beyond the 200 status, so every field is optional and
// unrecognized bodies are kept in Raw.
type KeyInfo struct {
	Name       string
	UsageCount int
	Timestamp  time.Time
	Raw        json.RawMessage
}

// decodeKeyInfo never fails: fields with an unexpected shape are skipped.
func decodeKeyInfo(body []byte) (KeyInfo, error) {
	info := KeyInfo{}
	if json.Valid(body) {
		info.Raw = json.RawMessage(body)
	}

	var errs validation.Errors
	obj, ok := validation.DecodeObject(body, validation.At(chat.ResponseRoot), &errs)
	if !ok {
		return info, nil
	}

	if name, ok := obj.OptionalString("key_name"); ok {
		info.Name = name
	}
	if n, ok := obj.OptionalInt("usage_count"); ok {
		info.UsageCount = n
	}
	if ts, ok := obj.OptionalString("timestamp"); ok && ts != "" {
		if t, err := message.ParseTime(ts); err == nil {
			info.Timestamp = t
		}
	}

	return info, nil
}
