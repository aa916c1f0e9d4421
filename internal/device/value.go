package device

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ValueKind is the primitive type tag of a Value.
//
// The value space is a closed sum: every Param, state value, action argument
// and plugin configuration entry carries exactly one of these kinds, and the
// kind survives serialisation (JSON and the settings store both persist the
// discriminator alongside the payload).
type ValueKind string

// Primitive kinds.
const (
	KindUUID       ValueKind = "uuid"
	KindString     ValueKind = "string"
	KindStringList ValueKind = "stringlist"
	KindInt        ValueKind = "int"
	KindUint       ValueKind = "uint"
	KindDouble     ValueKind = "double"
	KindBool       ValueKind = "bool"
	KindColor      ValueKind = "color"
	KindTime       ValueKind = "time"
	KindObject     ValueKind = "object"
	KindVariant    ValueKind = "variant"
)

// AllValueKinds returns all valid value kinds.
func AllValueKinds() []ValueKind {
	return []ValueKind{
		KindUUID, KindString, KindStringList, KindInt, KindUint, KindDouble,
		KindBool, KindColor, KindTime, KindObject, KindVariant,
	}
}

// colorRegex matches #RRGGBB and #AARRGGBB colour strings.
var colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}([0-9a-fA-F]{2})?$`)

// Value is a tagged variant over the primitive kinds.
//
// The zero Value is invalid (Kind() returns "" and IsZero() reports true).
// Values are immutable; conversions return new Values.
type Value struct {
	kind ValueKind
	v    any
}

// Constructors. Each pins the kind tag; no validation happens here beyond
// what the Go type system enforces. Format checks (uuid, colour) are applied
// during conversion.

func UUIDValue(s string) Value { return Value{KindUUID, s} }
func StringValue(s string) Value { return Value{KindString, s} }
func StringListValue(s []string) Value { return Value{KindStringList, append([]string(nil), s...)} }
func IntValue(i int64) Value { return Value{KindInt, i} }
func UintValue(u uint64) Value { return Value{KindUint, u} }
func DoubleValue(f float64) Value { return Value{KindDouble, f} }
func BoolValue(b bool) Value { return Value{KindBool, b} }
func ColorValue(s string) Value { return Value{KindColor, s} }
func TimeValue(t time.Time) Value { return Value{KindTime, t} }
func ObjectValue(m map[string]any) Value { return Value{KindObject, m} }
func VariantValue(v any) Value { return Value{KindVariant, v} }

// ValueOf maps a natural Go value onto the closest kind. Unknown Go types
// land on KindVariant.
func ValueOf(v any) Value {
	switch val := v.(type) {
	case Value:
		return val
	case string:
		return StringValue(val)
	case bool:
		return BoolValue(val)
	case int:
		return IntValue(int64(val))
	case int64:
		return IntValue(val)
	case uint:
		return UintValue(uint64(val))
	case uint64:
		return UintValue(val)
	case float64:
		return DoubleValue(val)
	case []string:
		return StringListValue(val)
	case map[string]any:
		return ObjectValue(val)
	case time.Time:
		return TimeValue(val)
	default:
		return VariantValue(v)
	}
}

// Kind returns the primitive type tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsZero reports whether the Value is the invalid zero value.
func (v Value) IsZero() bool { return v.kind == "" }

// Interface returns the underlying Go value.
func (v Value) Interface() any { return v.v }

// Int returns the value as int64 if it holds an integer.
func (v Value) Int() (int64, bool) {
	i, ok := v.v.(int64)
	return i, ok
}

// Uint returns the value as uint64 if it holds an unsigned integer.
func (v Value) Uint() (uint64, bool) {
	u, ok := v.v.(uint64)
	return u, ok
}

// Double returns the value as float64 if it holds a double.
func (v Value) Double() (float64, bool) {
	f, ok := v.v.(float64)
	return f, ok
}

// Bool returns the value as bool if it holds a boolean.
func (v Value) Bool() (bool, bool) {
	b, ok := v.v.(bool)
	return b, ok
}

// Text returns the value as string if it holds a string-shaped kind
// (string, uuid or colour).
func (v Value) Text() (string, bool) {
	s, ok := v.v.(string)
	return s, ok
}

// StringList returns the value as a string slice if it holds one.
func (v Value) StringList() ([]string, bool) {
	s, ok := v.v.([]string)
	return s, ok
}

// Time returns the value as time.Time if it holds one.
func (v Value) Time() (time.Time, bool) {
	t, ok := v.v.(time.Time)
	return t, ok
}

// Object returns the value as a map if it holds one.
func (v Value) Object() (map[string]any, bool) {
	m, ok := v.v.(map[string]any)
	return m, ok
}

// ConvertTo attempts to convert the value to the given kind.
//
// Permitted conversions beyond identity:
//   - numeric widening between int, uint and double (doubles convert to the
//     integer kinds only when integral and in range, because JSON numbers
//     always arrive as doubles)
//   - string ↔ uuid by parsing / formatting
//   - string ↔ colour when the string matches #RRGGBB or #AARRGGBB
//   - string ↔ time via RFC 3339
//   - anything → variant, and variant → anything its payload converts to
func (v Value) ConvertTo(kind ValueKind) (Value, bool) {
	if v.IsZero() {
		return Value{}, false
	}
	if v.kind == kind {
		return v, true
	}
	if kind == KindVariant {
		return Value{KindVariant, v.v}, true
	}
	if v.kind == KindVariant {
		return ValueOf(v.v).ConvertTo(kind)
	}

	switch v.kind {
	case KindInt:
		i := v.v.(int64)
		switch kind {
		case KindUint:
			if i >= 0 {
				return UintValue(uint64(i)), true
			}
		case KindDouble:
			return DoubleValue(float64(i)), true
		}
	case KindUint:
		u := v.v.(uint64)
		switch kind {
		case KindInt:
			if u <= math.MaxInt64 {
				return IntValue(int64(u)), true
			}
		case KindDouble:
			return DoubleValue(float64(u)), true
		}
	case KindDouble:
		f := v.v.(float64)
		switch kind {
		case KindInt:
			if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
				return IntValue(int64(f)), true
			}
		case KindUint:
			if f == math.Trunc(f) && f >= 0 && f <= math.MaxUint64 {
				return UintValue(uint64(f)), true
			}
		}
	case KindString:
		s := v.v.(string)
		switch kind {
		case KindUUID:
			if id, err := uuid.Parse(s); err == nil {
				return UUIDValue(id.String()), true
			}
		case KindColor:
			if colorRegex.MatchString(s) {
				return ColorValue(s), true
			}
		case KindTime:
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return TimeValue(t), true
			}
		}
	case KindUUID, KindColor:
		if kind == KindString {
			return StringValue(v.v.(string)), true
		}
	case KindTime:
		if kind == KindString {
			return StringValue(v.v.(time.Time).Format(time.RFC3339)), true
		}
	}
	return Value{}, false
}

// Compare orders two values within the same kind domain.
//
// Returns -1, 0 or 1 and true when the kinds are ordered (numeric kinds,
// string-shaped kinds lexicographically, time chronologically, bool with
// false < true). Unordered kinds (stringlist, object, variant) report false.
func (v Value) Compare(other Value) (int, bool) {
	o, ok := other.ConvertTo(v.kind)
	if !ok {
		return 0, false
	}
	switch v.kind {
	case KindInt:
		return compareOrdered(v.v.(int64), o.v.(int64)), true
	case KindUint:
		return compareOrdered(v.v.(uint64), o.v.(uint64)), true
	case KindDouble:
		return compareOrdered(v.v.(float64), o.v.(float64)), true
	case KindString, KindUUID, KindColor:
		return compareOrdered(v.v.(string), o.v.(string)), true
	case KindTime:
		a, b := v.v.(time.Time), o.v.(time.Time)
		switch {
		case a.Before(b):
			return -1, true
		case a.After(b):
			return 1, true
		default:
			return 0, true
		}
	case KindBool:
		a, b := v.v.(bool), o.v.(bool)
		switch {
		case a == b:
			return 0, true
		case !a:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

func compareOrdered[T int64 | uint64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports whether two values are equal after converting other to v's
// kind. Unordered kinds compare by JSON encoding.
func (v Value) Equal(other Value) bool {
	if c, ok := v.Compare(other); ok {
		return c == 0
	}
	o, ok := other.ConvertTo(v.kind)
	if !ok {
		return false
	}
	va, errA := json.Marshal(v.v)
	vb, errB := json.Marshal(o.v)
	return errA == nil && errB == nil && string(va) == string(vb)
}

// valueEnvelope is the wire form of a Value.
type valueEnvelope struct {
	Kind  ValueKind       `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value with its discriminator:
// {"kind":"int","value":3}.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any = v.v
	if v.kind == KindTime {
		payload = v.v.(time.Time).Format(time.RFC3339Nano)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueEnvelope{Kind: v.kind, Value: raw})
}

// UnmarshalJSON decodes a value envelope, restoring the exact kind.
func (v *Value) UnmarshalJSON(data []byte) error {
	var env valueEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	decoded, err := decodeValuePayload(env.Kind, env.Value)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func decodeValuePayload(kind ValueKind, raw json.RawMessage) (Value, error) {
	switch kind {
	case KindUUID, KindString, KindColor:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, err
		}
		return Value{kind, s}, nil
	case KindStringList:
		var s []string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, err
		}
		return StringListValue(s), nil
	case KindInt:
		var i int64
		if err := json.Unmarshal(raw, &i); err != nil {
			return Value{}, err
		}
		return IntValue(i), nil
	case KindUint:
		var u uint64
		if err := json.Unmarshal(raw, &u); err != nil {
			return Value{}, err
		}
		return UintValue(u), nil
	case KindDouble:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return Value{}, err
		}
		return DoubleValue(f), nil
	case KindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case KindTime:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Value{}, err
		}
		return TimeValue(t), nil
	case KindObject:
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return Value{}, err
		}
		return ObjectValue(m), nil
	case KindVariant:
		var a any
		if err := json.Unmarshal(raw, &a); err != nil {
			return Value{}, err
		}
		return VariantValue(a), nil
	}
	return Value{}, fmt.Errorf("%w: unknown value kind %q", ErrInvalidValue, kind)
}

// EncodeText renders the payload as a single string for the settings store.
// Strings round-trip losslessly; composite kinds use their JSON encoding.
func (v Value) EncodeText() (string, error) {
	switch v.kind {
	case KindUUID, KindString, KindColor:
		return v.v.(string), nil
	case KindInt:
		return strconv.FormatInt(v.v.(int64), 10), nil
	case KindUint:
		return strconv.FormatUint(v.v.(uint64), 10), nil
	case KindDouble:
		return strconv.FormatFloat(v.v.(float64), 'g', -1, 64), nil
	case KindBool:
		return strconv.FormatBool(v.v.(bool)), nil
	case KindTime:
		return v.v.(time.Time).Format(time.RFC3339Nano), nil
	case KindStringList, KindObject, KindVariant:
		raw, err := json.Marshal(v.v)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return "", fmt.Errorf("%w: cannot encode kind %q", ErrInvalidValue, v.kind)
}

// DecodeText is the inverse of EncodeText.
func DecodeText(kind ValueKind, text string) (Value, error) {
	switch kind {
	case KindUUID, KindString, KindColor:
		return Value{kind, text}, nil
	case KindInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return IntValue(i), nil
	case KindUint:
		u, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return UintValue(u), nil
	case KindDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return DoubleValue(f), nil
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return BoolValue(b), nil
	case KindTime:
		t, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return TimeValue(t), nil
	case KindStringList:
		var s []string
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return StringListValue(s), nil
	case KindObject:
		var m map[string]any
		if err := json.Unmarshal([]byte(text), &m); err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return ObjectValue(m), nil
	case KindVariant:
		var a any
		if err := json.Unmarshal([]byte(text), &a); err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return VariantValue(a), nil
	}
	return Value{}, fmt.Errorf("%w: unknown value kind %q", ErrInvalidValue, kind)
}
