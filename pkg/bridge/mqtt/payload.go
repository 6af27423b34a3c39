package mqtt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang/protobuf/jsonpb"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/rover.go/pkg/rover/telemetry"
)

var marshaler = jsonpb.Marshaler{}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func boolValue(b bool) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: b}}
}

func structValue(s *structpb.Struct) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: s}}
}

// EncodeSnapshot renders a telemetry snapshot as JSON.
// Slots never reported are omitted.
func EncodeSnapshot(roverID string, snap telemetry.Snapshot, at time.Time) ([]byte, error) {
	values := &structpb.Struct{Fields: make(map[string]*structpb.Value)}
	updated := &structpb.Struct{Fields: make(map[string]*structpb.Value)}
	for _, slot := range telemetry.Slots() {
		if !snap.Received(slot) {
			continue
		}
		values.Fields[slot.String()] = numberValue(float64(snap.Value(slot)))
		updated.Fields[slot.String()] = stringValue(snap.Updated[slot].UTC().Format(time.RFC3339Nano))
	}
	doc := &structpb.Struct{Fields: map[string]*structpb.Value{
		"rover":   stringValue(roverID),
		"time":    stringValue(at.UTC().Format(time.RFC3339Nano)),
		"values":  structValue(values),
		"updated": structValue(updated),
	}}
	if snap.BatteryText != "" {
		doc.Fields["battery_text"] = stringValue(snap.BatteryText)
	}
	out, err := marshaler.MarshalToString(doc)
	return []byte(out), err
}

// Document is a decoded JSON object.
type Document struct {
	*structpb.Struct
}

// DecodeDocument parses a JSON object.
func DecodeDocument(payload []byte) (Document, error) {
	doc := Document{Struct: &structpb.Struct{}}
	if err := jsonpb.UnmarshalString(string(payload), doc.Struct); err != nil {
		return doc, err
	}
	if doc.Fields == nil {
		doc.Fields = make(map[string]*structpb.Value)
	}
	return doc, nil
}

// Has checks the presence of a field.
func (d Document) Has(key string) bool {
	_, ok := d.Fields[key]
	return ok
}

// Text reads a string field, empty if absent.
func (d Document) Text(key string) (string, error) {
	v, ok := d.Fields[key]
	if !ok {
		return "", nil
	}
	s, ok := v.Kind.(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%s: string expected", key)
	}
	return s.StringValue, nil
}

// Uint reads a non-negative integer field, accepting numbers and decimal
// or "#RRGGBB"/"0x" prefixed hex strings.
func (d Document) Uint(key string, max uint64) (uint64, error) {
	v, ok := d.Fields[key]
	if !ok {
		return 0, fmt.Errorf("%s required", key)
	}
	var n uint64
	switch k := v.Kind.(type) {
	case *structpb.Value_NumberValue:
		if k.NumberValue < 0 || k.NumberValue != float64(uint64(k.NumberValue)) {
			return 0, fmt.Errorf("%s: non-negative integer expected", key)
		}
		n = uint64(k.NumberValue)
	case *structpb.Value_StringValue:
		s, base := k.StringValue, 10
		if strings.HasPrefix(s, "#") {
			s, base = s[1:], 16
		} else if strings.HasPrefix(s, "0x") {
			s, base = s[2:], 16
		}
		var err error
		if n, err = strconv.ParseUint(s, base, 64); err != nil {
			return 0, fmt.Errorf("%s: %v", key, err)
		}
	default:
		return 0, fmt.Errorf("%s: number expected", key)
	}
	if n > max {
		return 0, fmt.Errorf("%s: %d exceeds %d", key, n, max)
	}
	return n, nil
}

// Bool reads a boolean field, false if absent.
func (d Document) Bool(key string) (bool, error) {
	v, ok := d.Fields[key]
	if !ok {
		return false, nil
	}
	b, ok := v.Kind.(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%s: bool expected", key)
	}
	return b.BoolValue, nil
}

// encodeReply renders the result of a command.
func encodeReply(id, op string, err error) []byte {
	doc := &structpb.Struct{Fields: map[string]*structpb.Value{
		"op": stringValue(op),
		"ok": boolValue(err == nil),
	}}
	if id != "" {
		doc.Fields["id"] = stringValue(id)
	}
	if err != nil {
		doc.Fields["error"] = stringValue(err.Error())
	}
	out, merr := marshaler.MarshalToString(doc)
	if merr != nil {
		panic(merr)
	}
	return []byte(out)
}

func encodeMeta(variant, device string) []byte {
	out, err := marshaler.MarshalToString(&structpb.Struct{Fields: map[string]*structpb.Value{
		"variant": stringValue(variant),
		"device":  stringValue(device),
	}})
	if err != nil {
		panic(err)
	}
	return []byte(out)
}
