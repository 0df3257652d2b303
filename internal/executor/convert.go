package executor

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/archreview/internal/runctx"
)

// FragmentType is the cty object type fragments take inside argument
// expressions (fragment.all).
var FragmentType = cty.Object(map[string]cty.Type{
	"step":   cty.String,
	"title":  cty.String,
	"body":   cty.String,
	"failed": cty.Bool,
	"reason": cty.String,
})

// buildEvalContext exposes the run state to argument expressions: input.*
// holds the initial inputs, step.<id> the outputs of completed steps, and
// fragment.all the report fragments accumulated so far in declaration order.
func buildEvalContext(rc *runctx.Context, inputs map[string]cty.Value) *hcl.EvalContext {
	if inputs == nil {
		inputs = map[string]cty.Value{}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"input": cty.ObjectVal(inputs),
			"step":  cty.ObjectVal(rc.Outputs()),
			"fragment": cty.ObjectVal(map[string]cty.Value{
				"all": FragmentsValue(rc.Fragments()),
			}),
		},
	}
}

// FragmentsValue converts fragments to a cty list preserving order.
func FragmentsValue(fragments []runctx.Fragment) cty.Value {
	if len(fragments) == 0 {
		return cty.ListValEmpty(FragmentType)
	}
	vals := make([]cty.Value, 0, len(fragments))
	for _, f := range fragments {
		vals = append(vals, cty.ObjectVal(map[string]cty.Value{
			"step":   cty.StringVal(f.StepID),
			"title":  cty.StringVal(f.Title),
			"body":   cty.StringVal(f.Body),
			"failed": cty.BoolVal(f.Failed),
			"reason": cty.StringVal(f.Reason),
		}))
	}
	return cty.ListVal(vals)
}

// toCtyValue converts a capability's native output into a cty.Value for the
// execution context. Struct outputs with cty-tagged fields convert directly;
// anything else falls back to a JSON round-trip.
func toCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.EmptyObjectVal, nil
	}
	if cv, ok := v.(cty.Value); ok {
		return cv, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return cty.EmptyObjectVal, nil
		}
		rv = rv.Elem()
	}
	native := rv.Interface()

	if impliedType, err := gocty.ImpliedType(native); err == nil {
		if val, err := gocty.ToCtyValue(native, impliedType); err == nil {
			return val, nil
		}
	}

	data, err := json.Marshal(native)
	if err != nil {
		return cty.NilVal, fmt.Errorf("output of type %T is not convertible: %w", v, err)
	}
	impliedType, err := ctyjson.ImpliedType(data)
	if err != nil {
		return cty.NilVal, fmt.Errorf("output of type %T has no cty representation: %w", v, err)
	}
	return ctyjson.Unmarshal(data, impliedType)
}
