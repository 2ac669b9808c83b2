package localnode

import (
	"encoding/json"
	"fmt"

	"github.com/rooch-network/rooch-go/pkg/bcs"
)

// jsonValue renders a value the way the node reports decoded values:
// u8..u32 as numbers, wider integers as decimal strings, addresses in full
// hex, vector<u8> as 0x hex, structs as {"type", "value": {fields}} and
// options as the payload or null.
func jsonValue(v bcs.Value) interface{} {
	switch v.Kind() {
	case bcs.KindBool:
		b, _ := v.AsBool()
		return b
	case bcs.KindU8, bcs.KindU16, bcs.KindU32:
		n, _ := v.AsUint64()
		return n
	case bcs.KindU64, bcs.KindU128, bcs.KindU256:
		n, _ := v.AsUint()
		return n.Dec()
	case bcs.KindAddress:
		a, _ := v.AsAddress()
		return a.String()
	case bcs.KindVector:
		if b, ok := v.AsBytes(); ok {
			return fmt.Sprintf("0x%x", b)
		}
		elems := v.Elems()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = jsonValue(e)
		}
		return out
	case bcs.KindStruct:
		fields := make(map[string]interface{})
		for _, f := range v.Fields() {
			fields[f.Name] = jsonValue(f.Value)
		}
		return map[string]interface{}{
			"type":  v.Type().Name(),
			"value": fields,
		}
	case bcs.KindOption:
		if inner, ok := v.Option(); ok {
			return jsonValue(inner)
		}
		return nil
	default:
		return nil
	}
}

func marshalValue(v bcs.Value) (json.RawMessage, error) {
	data, err := json.Marshal(jsonValue(v))
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", v.Type(), err)
	}
	return data, nil
}
