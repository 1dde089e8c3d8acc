package evaluator

import (
	"encoding/json"
	"math"
)

// ValueToJSON marshals a Value to JSON bytes.
// Integers of any size output without a decimal point; unit becomes null; procedures and
// symbols become strings. Non-finite floats become strings since JSON has no
// representation for them.
func ValueToJSON(v Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v))
}

func valueToRaw(v Value) any {
	switch val := v.(type) {
	case nil, Unit:
		return nil
	case Number:
		if !val.IsFloat {
			if val.Big != nil {
				return json.Number(val.Big.String())
			}
			return val.Int
		}
		if math.IsInf(val.Float, 0) || math.IsNaN(val.Float) {
			return FormatValue(val)
		}
		return val.Float
	case Symbol:
		return val.Name
	}
	return FormatValue(v)
}

// ValueToJSONString is a convenience that returns a string.
func ValueToJSONString(v Value) string {
	b, err := ValueToJSON(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
