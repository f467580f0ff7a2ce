package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Encode serializes m to its tagged JSON form.
//
// Every Message in this package marshals cleanly, so a failure here is a
// programming error and panics.
func Encode(m Message) []byte {
	body, err := json.Marshal(m)
	if err != nil {
		panic(fmt.Sprintf("protocol: encode %s: %v", m.Type(), err))
	}
	out, err := sjson.SetBytes(body, "type", string(m.Type()))
	if err != nil {
		panic(fmt.Sprintf("protocol: tag %s: %v", m.Type(), err))
	}
	return out
}

// EncodeString is Encode for string based transports.
func EncodeString(m Message) string {
	return string(Encode(m))
}

// Decode parses a tagged JSON payload. Errors are always *DecodeError.
func Decode(data []byte) (Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, &DecodeError{Err: ErrMalformed}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &DecodeError{Err: fmt.Errorf("%w: expected an object", ErrMalformed)}
	}

	tag := root.Get("type")
	if !tag.Exists() {
		return nil, &DecodeError{Err: ErrMissingTag}
	}
	if tag.Type != gjson.String {
		return nil, &DecodeError{Err: fmt.Errorf("%w: type must be a string", ErrMalformed)}
	}

	name := tag.String()
	var (
		m   Message
		err error
	)
	switch MessageType(name) {
	case TypeRepeatingMouseClick:
		var v RepeatingMouseClick
		err = json.Unmarshal(data, &v)
		m = v
	case TypeRepeatingKeyboardClick:
		var v RepeatingKeyboardClick
		err = json.Unmarshal(data, &v)
		m = v
	case TypeStopClicking:
		m = StopClicking{}
	case TypeConfirmResponse:
		m = ConfirmResponse{}
	case TypeError:
		var v ErrorResponse
		err = json.Unmarshal(data, &v)
		m = v
	default:
		return nil, &DecodeError{Tag: name, Err: ErrUnknownTag}
	}
	if err != nil {
		if !errors.Is(err, ErrMalformed) && !errors.Is(err, ErrUnknownAction) {
			err = fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return nil, &DecodeError{Tag: name, Err: err}
	}
	return m, nil
}

// DecodeString is Decode for string based transports.
func DecodeString(s string) (Message, error) {
	return Decode([]byte(s))
}
