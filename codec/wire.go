/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MarshalItemJSON renders an item in the store's documented JSON form,
// e.g. {"pk":{"S":"a"},"n":{"N":"1"}}. Binary values are base64.
func MarshalItemJSON(item map[string]types.AttributeValue) ([]byte, error) {
	tree, err := itemTree(item)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

// MarshalValueJSON renders a single value, e.g. {"S":"a"}.
func MarshalValueJSON(av types.AttributeValue) ([]byte, error) {
	tree, err := valueTree(av)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

// UnmarshalItemJSON parses the form produced by MarshalItemJSON.
func UnmarshalItemJSON(data []byte) (map[string]types.AttributeValue, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("item json: %w", err)
	}
	return parseItem(raw)
}

// UnmarshalValueJSON parses the form produced by MarshalValueJSON.
func UnmarshalValueJSON(data []byte) (types.AttributeValue, error) {
	return parseValue(data)
}

func itemTree(item map[string]types.AttributeValue) (map[string]any, error) {
	out := make(map[string]any, len(item))
	for k, av := range item {
		v, err := valueTree(av)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func valueTree(av types.AttributeValue) (map[string]any, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return map[string]any{"S": v.Value}, nil
	case *types.AttributeValueMemberN:
		return map[string]any{"N": v.Value}, nil
	case *types.AttributeValueMemberB:
		return map[string]any{"B": v.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return map[string]any{"BOOL": v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return map[string]any{"NULL": true}, nil
	case *types.AttributeValueMemberL:
		list := make([]any, len(v.Value))
		for i, e := range v.Value {
			t, err := valueTree(e)
			if err != nil {
				return nil, err
			}
			list[i] = t
		}
		return map[string]any{"L": list}, nil
	case *types.AttributeValueMemberM:
		m, err := itemTree(v.Value)
		if err != nil {
			return nil, err
		}
		return map[string]any{"M": m}, nil
	case *types.AttributeValueMemberSS:
		return map[string]any{"SS": v.Value}, nil
	case *types.AttributeValueMemberNS:
		return map[string]any{"NS": v.Value}, nil
	case *types.AttributeValueMemberBS:
		return map[string]any{"BS": v.Value}, nil
	}
	return nil, fmt.Errorf("unsupported attribute value %T", av)
}

func parseItem(raw map[string]json.RawMessage) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(raw))
	for k, msg := range raw {
		av, err := parseValue(msg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}

func parseValue(data []byte) (types.AttributeValue, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, err
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("attribute value must have exactly one type tag, got %d", len(tagged))
	}
	for tag, body := range tagged {
		switch tag {
		case "S":
			var s string
			err := json.Unmarshal(body, &s)
			return &types.AttributeValueMemberS{Value: s}, err
		case "N":
			var s string
			if err := json.Unmarshal(body, &s); err != nil {
				return nil, err
			}
			if err := validNumber(s); err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberN{Value: s}, nil
		case "B":
			var b []byte
			err := json.Unmarshal(body, &b)
			return &types.AttributeValueMemberB{Value: b}, err
		case "BOOL":
			var b bool
			err := json.Unmarshal(body, &b)
			return &types.AttributeValueMemberBOOL{Value: b}, err
		case "NULL":
			var b bool
			if err := json.Unmarshal(body, &b); err != nil {
				return nil, err
			}
			if !b {
				return nil, fmt.Errorf("NULL must be true")
			}
			return nullValue(), nil
		case "L":
			var raw []json.RawMessage
			if err := json.Unmarshal(body, &raw); err != nil {
				return nil, err
			}
			list := make([]types.AttributeValue, len(raw))
			for i, e := range raw {
				av, err := parseValue(e)
				if err != nil {
					return nil, fmt.Errorf("[%d]: %w", i, err)
				}
				list[i] = av
			}
			return &types.AttributeValueMemberL{Value: list}, nil
		case "M":
			var raw map[string]json.RawMessage
			if err := json.Unmarshal(body, &raw); err != nil {
				return nil, err
			}
			m, err := parseItem(raw)
			if err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberM{Value: m}, nil
		case "SS":
			var ss []string
			err := json.Unmarshal(body, &ss)
			return &types.AttributeValueMemberSS{Value: ss}, err
		case "NS":
			var ns []string
			if err := json.Unmarshal(body, &ns); err != nil {
				return nil, err
			}
			for _, n := range ns {
				if err := validNumber(n); err != nil {
					return nil, err
				}
			}
			return &types.AttributeValueMemberNS{Value: ns}, nil
		case "BS":
			var bs [][]byte
			err := json.Unmarshal(body, &bs)
			return &types.AttributeValueMemberBS{Value: bs}, err
		default:
			return nil, fmt.Errorf("unknown type tag %q", tag)
		}
	}
	return nil, fmt.Errorf("empty attribute value")
}
