package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for CyberMix messages.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for CyberMix messages.
var decMode cbor.DecMode

func init() {
	var err error

	// Configure encoder for deterministic output
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Configure decoder to be lenient for forward compatibility
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// validator is implemented by payloads with field-range checks.
type validator interface {
	Validate() error
}

// Encode encodes a message payload for the given type.
// Heartbeat and ButtonPressed carry an empty payload.
func Encode(t MsgType, payload any) ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot encode unknown message type 0x%02X", uint8(t))
	}
	if payload == nil {
		return nil, nil
	}
	if v, ok := payload.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", t, err)
		}
	}
	data, err := Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", t, err)
	}
	return data, nil
}

// Decode decodes a payload for the given message type into its typed form.
// Messages without payload fields decode to their empty struct.
func Decode(t MsgType, data []byte) (any, error) {
	switch t {
	case MsgHeartbeat:
		return &Heartbeat{}, nil
	case MsgButtonPressed:
		return &ButtonPressed{}, nil
	case MsgHello:
		return decodeInto(t, data, &Hello{})
	case MsgFaderMoved:
		return decodeInto(t, data, &FaderMoved{})
	case MsgPageChanged:
		return decodeInto(t, data, &PageChanged{})
	case MsgSetVolume:
		return decodeInto(t, data, &SetVolume{})
	case MsgRenderDisplay:
		return decodeInto(t, data, &RenderDisplay{})
	case MsgSetLED:
		return decodeInto(t, data, &SetLED{})
	case MsgSetLEDBar:
		return decodeInto(t, data, &SetLEDBar{})
	default:
		return nil, fmt.Errorf("cannot decode unknown message type 0x%02X", uint8(t))
	}
}

// decodeInto unmarshals and validates a typed payload.
func decodeInto[T any](t MsgType, data []byte, out *T) (*T, error) {
	if len(data) > 0 {
		if err := Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", t, err)
		}
	}
	if v, ok := any(out).(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", t, err)
		}
	}
	return out, nil
}

// TypeOf returns the wire message type for a typed payload, or false if the
// value is not a known payload.
func TypeOf(payload any) (MsgType, bool) {
	switch payload.(type) {
	case *Heartbeat, Heartbeat:
		return MsgHeartbeat, true
	case *Hello, Hello:
		return MsgHello, true
	case *FaderMoved, FaderMoved:
		return MsgFaderMoved, true
	case *ButtonPressed, ButtonPressed:
		return MsgButtonPressed, true
	case *PageChanged, PageChanged:
		return MsgPageChanged, true
	case *SetVolume, SetVolume:
		return MsgSetVolume, true
	case *RenderDisplay, RenderDisplay:
		return MsgRenderDisplay, true
	case *SetLED, SetLED:
		return MsgSetLED, true
	case *SetLEDBar, SetLEDBar:
		return MsgSetLEDBar, true
	default:
		return 0, false
	}
}
