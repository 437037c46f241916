package service

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"
)

// #region decode
func intsField(in *structpb.Struct, name string) ([]int, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return nil, fmt.Errorf("missing field %q", name)
	}
	return intsValue(v, name)
}

func intsValue(v *structpb.Value, name string) ([]int, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("field %q must be a list", name)
	}
	out := make([]int, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
			return nil, fmt.Errorf("field %q[%d] must be an integer", name, i)
		}
		out = append(out, int(n.NumberValue))
	}
	return out, nil
}

func floatsField(in *structpb.Struct, name string) ([]float64, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return nil, fmt.Errorf("missing field %q", name)
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("field %q must be a list", name)
	}
	out := make([]float64, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("field %q[%d] must be a number", name, i)
		}
		out = append(out, n.NumberValue)
	}
	return out, nil
}

func numberField(in *structpb.Struct, name string) (float64, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("missing field %q", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("field %q must be a number", name)
	}
	return n.NumberValue, nil
}

// #endregion decode

// #region encode
func intsList(v []int) *structpb.Value {
	values := make([]*structpb.Value, len(v))
	for i, n := range v {
		values[i] = structpb.NewNumberValue(float64(n))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func floatsList(v []float64) *structpb.Value {
	values := make([]*structpb.Value, len(v))
	for i, n := range v {
		values[i] = structpb.NewNumberValue(n)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func newStruct(fields map[string]*structpb.Value) *structpb.Struct {
	return &structpb.Struct{Fields: fields}
}

// #endregion encode
