package models

import (
	"encoding/json"
	"reflect"
	"strconv"
)

// RawKind identifies which variant a RawValue holds.
type RawKind int

// Raw value variants.
const (
	RawNull RawKind = iota
	RawString
	RawNumber
	RawList
)

// RawValue is a loosely typed cell read from the station store.
// It is one of null, string, number or list. The zero value is null.
type RawValue struct {
	list []RawValue
	str  string
	num  float64
	kind RawKind
}

// RawRow maps column names to cell values. A column missing from the map was
// absent from the source row.
type RawRow map[string]RawValue

// Null returns a null raw value.
func Null() RawValue {
	return RawValue{kind: RawNull}
}

// String returns a string raw value.
func String(s string) RawValue {
	return RawValue{kind: RawString, str: s}
}

// Number returns a numeric raw value.
func Number(f float64) RawValue {
	return RawValue{kind: RawNumber, num: f}
}

// List returns a list raw value.
func List(items ...RawValue) RawValue {
	return RawValue{kind: RawList, list: items}
}

// Kind reports the variant held by v.
func (v RawValue) Kind() RawKind {
	return v.kind
}

// Str returns the string payload and whether v is a string.
func (v RawValue) Str() (string, bool) {
	return v.str, v.kind == RawString
}

// Num returns the numeric payload and whether v is a number.
func (v RawValue) Num() (float64, bool) {
	return v.num, v.kind == RawNumber
}

// Items returns the list payload and whether v is a list.
func (v RawValue) Items() ([]RawValue, bool) {
	return v.list, v.kind == RawList
}

// RawValueFrom converts a decoded JSON (or driver) value into a RawValue.
// Booleans become 0/1, objects and other unknown shapes become their JSON text.
func RawValueFrom(value interface{}) RawValue {
	switch v := value.(type) {
	case nil:
		return Null()
	case RawValue:
		return v
	case string:
		return String(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return Number(f)
		}
		return String(v.String())
	case float64:
		return Number(v)
	case float32:
		return Number(float64(v))
	case int, int8, int16, int32, int64:
		return Number(float64(reflect.ValueOf(v).Int()))
	case uint, uint8, uint16, uint32, uint64:
		return Number(float64(reflect.ValueOf(v).Uint()))
	case bool:
		if v {
			return Number(1)
		}
		return Number(0)
	case []string:
		items := make([]RawValue, 0, len(v))
		for _, s := range v {
			items = append(items, String(s))
		}
		return List(items...)
	case []interface{}:
		items := make([]RawValue, 0, len(v))
		for _, item := range v {
			items = append(items, RawValueFrom(item))
		}
		return List(items...)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return Null()
		}
		return String(string(encoded))
	}
}

// RawRowFrom converts a decoded row object into a RawRow.
func RawRowFrom(row map[string]interface{}) RawRow {
	raw := make(RawRow, len(row))
	for key, value := range row {
		raw[key] = RawValueFrom(value)
	}
	return raw
}

// String renders v for logs.
func (v RawValue) String() string {
	switch v.kind {
	case RawString:
		return strconv.Quote(v.str)
	case RawNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case RawList:
		return "[list:" + strconv.Itoa(len(v.list)) + "]"
	default:
		return "null"
	}
}
