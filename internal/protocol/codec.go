package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/yourusername/pitchside/internal/game"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrMissingType = errors.New("message has no type")
)

// reserved envelope keys a payload may not overwrite
var envelopeKeys = map[string]bool{"type": true, "gameState": true, "timestamp": true}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Envelope is a decoded message whose body has not been bound yet.
type Envelope struct {
	Type MessageType
	Raw  []byte
}

// DecodeMessage peeks at the type of a raw message.
func DecodeMessage(data []byte) (Envelope, error) {
	if !gjson.ValidBytes(data) {
		return Envelope{}, ErrMalformed
	}
	t := gjson.GetBytes(data, "type")
	if t.Type != gjson.String || t.Str == "" {
		return Envelope{}, ErrMissingType
	}
	return Envelope{Type: MessageType(t.Str), Raw: data}, nil
}

// Bind unmarshals the envelope into v and validates its tags.
func (e Envelope) Bind(v any) error {
	if err := json.Unmarshal(e.Raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("%s: field %q failed %q", e.Type, f.Field(), f.Tag())
		}
		return fmt.Errorf("validate %s: %w", e.Type, err)
	}
	return nil
}

// GameState returns the snapshot attached to the message, if any.
func (e Envelope) GameState() (*game.GameState, error) {
	res := gjson.GetBytes(e.Raw, "gameState")
	if !res.Exists() || res.Type == gjson.Null {
		return nil, nil
	}
	var g game.GameState
	if err := json.Unmarshal([]byte(res.Raw), &g); err != nil {
		return nil, fmt.Errorf("decode gameState: %w", err)
	}
	return &g, nil
}

// Timestamp returns the server send time in unix milliseconds.
func (e Envelope) Timestamp() int64 {
	return gjson.GetBytes(e.Raw, "timestamp").Int()
}

// EncodeMessage builds a flat envelope: the payload's fields next to type,
// an optional gameState snapshot and the send timestamp. payload may be nil.
func EncodeMessage(msgType MessageType, payload any, state *game.GameState, at time.Time) ([]byte, error) {
	out, err := sjson.SetBytes([]byte(`{}`), "type", string(msgType))
	if err != nil {
		return nil, err
	}

	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
		}
		parsed := gjson.ParseBytes(body)
		if !parsed.IsObject() {
			return nil, fmt.Errorf("encode %s payload: not an object", msgType)
		}
		parsed.ForEach(func(key, value gjson.Result) bool {
			if envelopeKeys[key.Str] {
				return true
			}
			out, err = sjson.SetRawBytes(out, escapePath(key.Str), []byte(value.Raw))
			return err == nil
		})
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
		}
	}

	if state != nil {
		snap, err := json.Marshal(state)
		if err != nil {
			return nil, fmt.Errorf("encode game state: %w", err)
		}
		if out, err = sjson.SetRawBytes(out, "gameState", snap); err != nil {
			return nil, err
		}
	}
	return sjson.SetBytes(out, "timestamp", at.UnixMilli())
}

// escapePath quotes sjson path metacharacters in a literal key.
func escapePath(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)
	return r.Replace(key)
}
