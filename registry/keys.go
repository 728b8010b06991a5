/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/codec"
	"github.com/suparena/itemstore/errors"
)

// BuildKey builds the primary key of s from caller values. rangeValue must
// be nil when the table has no range key and non-nil when it has one. An
// empty string counts as absent.
func BuildKey(s *TableSchema, hash, rangeValue any) (map[string]types.AttributeValue, error) {
	if absent(hash) {
		return nil, errors.NewKeyError(s.TableName, s.HashKey, "hash key value is required")
	}
	if s.HasRangeKey() && absent(rangeValue) {
		return nil, errors.NewKeyError(s.TableName, s.RangeKey, "range key value is required")
	}
	if !s.HasRangeKey() && !absent(rangeValue) {
		return nil, errors.NewKeyError(s.TableName, "", "table has no range key")
	}

	key := make(map[string]types.AttributeValue, 2)
	av, err := EncodeKeyValue(s, s.HashKey, hash)
	if err != nil {
		return nil, err
	}
	key[s.HashKey] = av
	if s.HasRangeKey() {
		if key[s.RangeKey], err = EncodeKeyValue(s, s.RangeKey, rangeValue); err != nil {
			return nil, err
		}
	}
	return key, nil
}

// KeyFromItem extracts the primary key from an encoded record, failing when
// a key attribute is missing or empty.
func KeyFromItem(s *TableSchema, item map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	attrs := []string{s.HashKey}
	if s.HasRangeKey() {
		attrs = append(attrs, s.RangeKey)
	}
	key := make(map[string]types.AttributeValue, len(attrs))
	for _, attr := range attrs {
		av, ok := item[attr]
		if !ok {
			return nil, errors.NewKeyError(s.TableName, attr, "record key field is absent")
		}
		if err := checkKeyValue(s, attr, av); err != nil {
			return nil, err
		}
		key[attr] = av
	}
	return key, nil
}

// CheckStartKey validates a continuation key for the table or the named
// index: it must hold exactly the attributes of KeyAttributes(index).
func CheckStartKey(s *TableSchema, index string, key map[string]types.AttributeValue) error {
	attrs := s.KeyAttributes(index)
	if len(key) != len(attrs) {
		return errors.NewKeyError(s.TableName, "", fmt.Sprintf("start key has %d attributes, want %v", len(key), attrs))
	}
	for _, attr := range attrs {
		av, ok := key[attr]
		if !ok {
			return errors.NewKeyError(s.TableName, attr, "start key is missing this attribute")
		}
		if err := checkKeyValue(s, attr, av); err != nil {
			return err
		}
	}
	return nil
}

// ProjectKey picks the attributes of KeyAttributes(index) out of item.
func ProjectKey(s *TableSchema, index string, item map[string]types.AttributeValue) map[string]types.AttributeValue {
	attrs := s.KeyAttributes(index)
	key := make(map[string]types.AttributeValue, len(attrs))
	for _, attr := range attrs {
		if av, ok := item[attr]; ok {
			key[attr] = av
		}
	}
	return key
}

// EncodeKeyValue encodes v as the key attribute attr of s. Typed schemas
// use the field's codec; definition schemas accept strings, byte slices,
// numbers and codec.Decimal.
func EncodeKeyValue(s *TableSchema, attr string, v any) (types.AttributeValue, error) {
	kind, ok := s.KeyKinds[attr]
	if !ok {
		return nil, errors.NewKeyError(s.TableName, attr, "not a key attribute")
	}
	var (
		av  types.AttributeValue
		err error
	)
	if s.Plan != nil {
		av, err = s.Plan.EncodeField(attr, v)
	} else {
		av, err = encodeByKind(kind, v)
	}
	if err != nil {
		return nil, &errors.KeyError{Table: s.TableName, Field: attr, Message: fmt.Sprintf("value %v: %v", v, err)}
	}
	if err := checkKeyValue(s, attr, av); err != nil {
		return nil, err
	}
	return av, nil
}

func checkKeyValue(s *TableSchema, attr string, av types.AttributeValue) error {
	want := s.KeyKinds[attr]
	if got := codec.KindOf(av); got != want {
		return errors.NewKeyError(s.TableName, attr, fmt.Sprintf("expected %s value, got %s", want, codec.Variant(av)))
	}
	text, raw, _ := codec.ScalarText(av)
	if text == "" && len(raw) == 0 {
		return errors.NewKeyError(s.TableName, attr, "key value is empty")
	}
	return nil
}

func absent(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.String:
		return rv.Len() == 0
	}
	return false
}

func encodeByKind(kind codec.Kind, v any) (types.AttributeValue, error) {
	if av, ok := v.(types.AttributeValue); ok {
		return av, nil
	}
	switch x := v.(type) {
	case []byte:
		if kind == codec.KindBinary {
			return &types.AttributeValueMemberB{Value: x}, nil
		}
	case codec.Decimal:
		if kind == codec.KindNumber {
			return &types.AttributeValueMemberN{Value: x.String()}, nil
		}
	case json.Number:
		if kind == codec.KindNumber {
			return &types.AttributeValueMemberN{Value: x.String()}, nil
		}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		if kind == codec.KindString {
			return &types.AttributeValueMemberS{Value: rv.String()}, nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if kind == codec.KindNumber {
			return &types.AttributeValueMemberN{Value: strconv.FormatInt(rv.Int(), 10)}, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if kind == codec.KindNumber {
			return &types.AttributeValueMemberN{Value: strconv.FormatUint(rv.Uint(), 10)}, nil
		}
	case reflect.Float32, reflect.Float64:
		if kind == codec.KindNumber {
			return &types.AttributeValueMemberN{Value: strconv.FormatFloat(rv.Float(), 'g', -1, 64)}, nil
		}
	}
	return nil, fmt.Errorf("%T cannot encode as %s", v, kind)
}

// DescribeKey renders a key as "a=1, b=x" for messages.
func DescribeKey(key map[string]types.AttributeValue) string {
	names := make([]string, 0, len(key))
	for k := range key {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		text, raw, ok := codec.ScalarText(key[k])
		switch {
		case !ok:
			parts[i] = k + "=<" + codec.Variant(key[k]) + ">"
		case raw != nil:
			parts[i] = fmt.Sprintf("%s=%x", k, raw)
		default:
			parts[i] = k + "=" + text
		}
	}
	return strings.Join(parts, ", ")
}
