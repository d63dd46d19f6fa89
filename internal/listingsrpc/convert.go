package listingsrpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/raderre/cresite/internal/model"
)

// ToStruct converts any JSON-encodable value into a Struct. v must encode
// as a JSON object.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("converting %T to struct: %w", v, err)
	}
	return st, nil
}

// FromStruct decodes st into v through its JSON form.
func FromStruct(st *structpb.Struct, v any) error {
	data, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding struct into %T: %w", v, err)
	}
	return nil
}

// StructJSON returns the JSON form of st.
func StructJSON(st *structpb.Struct) ([]byte, error) {
	return protojson.Marshal(st)
}

// PropertyFromStruct decodes a property message.
func PropertyFromStruct(st *structpb.Struct) (*model.Property, error) {
	var p model.Property
	if err := FromStruct(st, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PropertiesFromList decodes a list of property messages. Entries that are
// not objects are rejected.
func PropertiesFromList(lv *structpb.ListValue) ([]*model.Property, error) {
	out := make([]*model.Property, 0, len(lv.GetValues()))
	for i, v := range lv.GetValues() {
		st := v.GetStructValue()
		if st == nil {
			return nil, fmt.Errorf("entry %d is not an object", i)
		}
		p, err := PropertyFromStruct(st)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}
