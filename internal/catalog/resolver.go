package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolve normalizes an attribute to a single canonical scalar plus its
// display string.
//
// When the declared pair (Type/Value) is populated the value is coerced by
// the declared type. Otherwise the first non-null typed field wins, checked
// in the fixed order stringValue, numberValue, booleanValue, dateValue,
// regardless of DataType. That order is part of the wire contract; do not
// reorder it even when several fields are populated at once.
func (a Attribute) Resolve() (any, string) {
	var v any
	if a.Type != "" || a.Value != nil {
		v = coerceDeclared(a.Type, a.Value)
	} else {
		v = a.resolveTyped()
	}
	return v, formatScalar(v)
}

func (a Attribute) resolveTyped() any {
	switch {
	case a.StringValue != nil:
		return parseNumericString(*a.StringValue)
	case a.NumberValue != nil:
		return *a.NumberValue
	case a.BooleanValue != nil:
		return *a.BooleanValue
	case a.DateValue != nil:
		return *a.DateValue
	}
	return ""
}

// coerceDeclared applies the producer-declared type to the raw value.
// Parse failures fall back to zero values rather than erroring: a bad
// attribute must never fail ingestion of the whole entity.
func coerceDeclared(typ string, value any) any {
	switch strings.ToUpper(typ) {
	case "NUMBER":
		switch v := value.(type) {
		case float64:
			return v
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return 0.0
			}
			return f
		}
		return 0.0
	case "INTEGER":
		switch v := value.(type) {
		case float64:
			return int(v)
		case string:
			n, err := strconv.Atoi(v)
			if err != nil {
				return 0
			}
			return n
		}
		return 0
	case "BOOLEAN":
		switch v := value.(type) {
		case bool:
			return v
		case string:
			return v == "true" || v == "True"
		}
		return false
	case "DATE":
		if s, ok := value.(string); ok {
			return s
		}
		return formatScalar(value)
	}
	if value == nil {
		return ""
	}
	return value
}

// parseNumericString turns numeric-looking strings into numbers: integers
// when there is no decimal point, floats otherwise. Anything unparsable is
// returned as the original string.
func parseNumericString(s string) any {
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

func formatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}
