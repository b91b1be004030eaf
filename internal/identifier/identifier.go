// Package identifier normalizes postal-code identifiers coming from record
// sheets and boundary datasets into one comparable string form.
package identifier

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Missing is returned for absent identifiers. The join engine never indexes
// or looks up this value, so it cannot match a polygon.
const Missing = "\x00missing"

// numericSuffix is the artifact left behind when an integer pincode was
// stored as a float by a spreadsheet or dataframe ("560001.0").
const numericSuffix = ".0"

// Normalize coerces v to text and strips one trailing ".0".
// No case folding, trimming or zero padding is applied.
func Normalize(v any) string {
	s, ok := Text(v)
	if !ok {
		return Missing
	}
	return strings.TrimSuffix(s, numericSuffix)
}

// Text coerces v to its text form without the suffix rule. It reports false
// for nil values, nil pointers and NaN.
func Text(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case *string:
		if t == nil {
			return "", false
		}
		return *t, true
	case float64:
		return formatFloat(t, 64)
	case float32:
		return formatFloat(float64(t), 32)
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case uint32:
		return strconv.FormatUint(uint64(t), 10), true
	case fmt.Stringer:
		if isNilPointer(v) {
			return "", false
		}
		return t.String(), true
	}

	if isNilPointer(v) {
		return "", false
	}
	return fmt.Sprint(v), true
}

func formatFloat(f float64, bitSize int) (string, bool) {
	if math.IsNaN(f) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize), true
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
