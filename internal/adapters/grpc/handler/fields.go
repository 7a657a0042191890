package handler

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// DateLayout は日付フィールドの書式です。
const DateLayout = "2006-01-02"

func invalidField(key, reason string) error {
	return status.Error(codes.InvalidArgument, fmt.Sprintf("%s: %s", key, reason))
}

func lookup(req *structpb.Struct, key string) (*structpb.Value, bool) {
	if req == nil {
		return nil, false
	}
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

func stringField(req *structpb.Struct, key string) (string, error) {
	v, ok := lookup(req, key)
	if !ok {
		return "", nil
	}
	s, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return "", invalidField(key, "must be a string")
	}
	return s.StringValue, nil
}

func optionalStringField(req *structpb.Struct, key string) (*string, error) {
	if _, ok := lookup(req, key); !ok {
		return nil, nil
	}
	s, err := stringField(req, key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func optionalIntField(req *structpb.Struct, key string) (*int, error) {
	v, ok := lookup(req, key)
	if !ok {
		return nil, nil
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return nil, invalidField(key, "must be a number")
	}
	f := n.NumberValue
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return nil, invalidField(key, "must be an integer")
	}
	i := int(f)
	return &i, nil
}

func intField(req *structpb.Struct, key string) (int, error) {
	v, err := optionalIntField(req, key)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

func optionalStringListField(req *structpb.Struct, key string) (*[]string, error) {
	v, ok := lookup(req, key)
	if !ok {
		return nil, nil
	}
	list, isList := v.GetKind().(*structpb.Value_ListValue)
	if !isList {
		return nil, invalidField(key, "must be a list of strings")
	}
	out := make([]string, 0, len(list.ListValue.GetValues()))
	for _, item := range list.ListValue.GetValues() {
		s, isString := item.GetKind().(*structpb.Value_StringValue)
		if !isString {
			return nil, invalidField(key, "must be a list of strings")
		}
		out = append(out, s.StringValue)
	}
	return &out, nil
}

func stringListField(req *structpb.Struct, key string) ([]string, error) {
	v, err := optionalStringListField(req, key)
	if err != nil || v == nil {
		return nil, err
	}
	return *v, nil
}

func dateField(req *structpb.Struct, key string) (*time.Time, error) {
	raw, err := optionalStringField(req, key)
	if err != nil || raw == nil || *raw == "" {
		return nil, err
	}
	t, err := time.Parse(DateLayout, *raw)
	if err != nil {
		return nil, invalidField(key, "must be a YYYY-MM-DD date")
	}
	return &t, nil
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(DateLayout)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func stringsToValues(items []string) []any {
	out := make([]any, 0, len(items))
	for _, s := range items {
		out = append(out, s)
	}
	return out
}

func toStruct(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return s, nil
}
