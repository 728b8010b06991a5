/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/errors"
)

// coder encodes and decodes one Go type. decode receives a settable value.
type coder struct {
	kind   Kind
	encode func(path string, v reflect.Value) (types.AttributeValue, error)
	decode func(path string, av types.AttributeValue, v reflect.Value) error
}

var (
	decimalType     = reflect.TypeOf((*Decimal)(nil)).Elem()
	jsonNumberType  = reflect.TypeOf((*json.Number)(nil)).Elem()
	marshalerType   = reflect.TypeOf((*attributevalue.Marshaler)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*attributevalue.Unmarshaler)(nil)).Elem()
)

// setInfer asks for a set whose variant follows the element type.
const setInfer = KindDynamic

func implementsAV(t reflect.Type) bool {
	return t.Implements(marshalerType) || reflect.PointerTo(t).Implements(unmarshalerType)
}

func nullValue() types.AttributeValue {
	return &types.AttributeValueMemberNULL{Value: true}
}

func isNull(av types.AttributeValue) bool {
	_, ok := av.(*types.AttributeValueMemberNULL)
	return ok
}

func mismatch(path string, want Kind, av types.AttributeValue) error {
	return &errors.DecodeError{Field: path, Variant: Variant(av), Expected: want.String()}
}

func (c *compiler) coder(t reflect.Type, set Kind, ser Serializer) (*coder, error) {
	if ser != nil {
		return serializerCoder(t, ser)
	}
	if set != KindInvalid {
		return c.setCoder(t, set)
	}
	if s, ok := c.opts.serializers[t]; ok {
		return serializerCoder(t, s)
	}
	if implementsAV(t) {
		return marshalerCoder(t), nil
	}
	if isNullableType(t) {
		return nil, fmt.Errorf("%s is only supported as a struct field", t)
	}
	switch t {
	case decimalType:
		return decimalCoder(), nil
	case jsonNumberType:
		return jsonNumberCoder(), nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		return c.pointerCoder(t)
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return nil, fmt.Errorf("unsupported interface type %s", t)
		}
		return dynamicCoder(), nil
	case reflect.String:
		return stringCoder(), nil
	case reflect.Bool:
		return boolCoder(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intCoder(t), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintCoder(t), nil
	case reflect.Float32, reflect.Float64:
		return floatCoder(t), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return bytesCoder(), nil
		}
		return c.listCoder(t)
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return byteArrayCoder(t), nil
		}
		return c.listCoder(t)
	case reflect.Map:
		return c.mapCoder(t)
	case reflect.Struct:
		return c.structCoder(t)
	}
	return nil, fmt.Errorf("unsupported type %s", t)
}

func serializerCoder(t reflect.Type, ser Serializer) (*coder, error) {
	kind := ser.Kind()
	if kind != KindString && kind != KindNumber {
		return nil, fmt.Errorf("serializer for %s must produce S or N, not %s", ser.Type(), kind)
	}
	st := ser.Type()
	if st != t {
		if t.Kind() == reflect.Pointer && t.Elem() == st {
			inner, err := serializerCoder(st, ser)
			if err != nil {
				return nil, err
			}
			return wrapPointer(t, inner), nil
		}
		return nil, fmt.Errorf("serializer handles %s, field is %s", st, t)
	}
	nillable := t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface
	return &coder{
		kind: kind,
		encode: func(path string, v reflect.Value) (types.AttributeValue, error) {
			if nillable && v.IsNil() {
				return nullValue(), nil
			}
			text, err := ser.Encode(v.Interface())
			if err != nil {
				return nil, &errors.EncodeError{Field: path, Message: "serializer rejected value", Cause: err}
			}
			if kind == KindNumber {
				if err := validNumber(text); err != nil {
					return nil, &errors.EncodeError{Field: path, Message: "serializer produced a bad number", Cause: err}
				}
				return &types.AttributeValueMemberN{Value: text}, nil
			}
			return &types.AttributeValueMemberS{Value: text}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			if nillable && isNull(av) {
				v.SetZero()
				return nil
			}
			text, _, ok := ScalarText(av)
			if !ok || KindOf(av) != kind {
				return mismatch(path, kind, av)
			}
			out, err := ser.Decode(text)
			if err != nil {
				return &errors.DecodeError{Field: path, Variant: Variant(av), Message: fmt.Sprintf("cannot decode %q as %s", text, t), Cause: err}
			}
			rv := reflect.ValueOf(out)
			if !rv.IsValid() {
				v.SetZero()
				return nil
			}
			if rv.Type() != t {
				return &errors.DecodeError{Field: path, Variant: Variant(av), Message: fmt.Sprintf("serializer returned %s, want %s", rv.Type(), t)}
			}
			v.Set(rv)
			return nil
		},
	}, nil
}

func (c *compiler) pointerCoder(t reflect.Type) (*coder, error) {
	inner, err := c.coder(t.Elem(), KindInvalid, nil)
	if err != nil {
		return nil, err
	}
	return wrapPointer(t, inner), nil
}

// wrapPointer encodes nil as NULL and otherwise delegates to inner.
func wrapPointer(t reflect.Type, inner *coder) *coder {
	return &coder{
		kind: inner.kind,
		encode: func(path string, v reflect.Value) (types.AttributeValue, error) {
			if v.IsNil() {
				return nullValue(), nil
			}
			return inner.encode(path, v.Elem())
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			if isNull(av) {
				v.SetZero()
				return nil
			}
			if v.IsNil() {
				v.Set(reflect.New(t.Elem()))
			}
			return inner.decode(path, av, v.Elem())
		},
	}
}

func asInterface[I any](v reflect.Value) (I, bool) {
	if i, ok := v.Interface().(I); ok {
		return i, true
	}
	if v.CanAddr() {
		if i, ok := v.Addr().Interface().(I); ok {
			return i, true
		}
	}
	var zero I
	return zero, false
}

func useNumber(o *attributevalue.DecoderOptions) {
	o.UseNumber = true
}

// marshalerCoder delegates to attributevalue.Marshaler and Unmarshaler
// implementations, falling back to the attributevalue defaults for the
// direction the type does not implement.
func marshalerCoder(t reflect.Type) *coder {
	return &coder{
		kind: KindDynamic,
		encode: func(path string, v reflect.Value) (types.AttributeValue, error) {
			if t.Kind() == reflect.Pointer && v.IsNil() {
				return nullValue(), nil
			}
			var (
				av  types.AttributeValue
				err error
			)
			if m, ok := asInterface[attributevalue.Marshaler](v); ok {
				av, err = m.MarshalDynamoDBAttributeValue()
			} else {
				av, err = attributevalue.Marshal(v.Interface())
			}
			if err != nil {
				return nil, &errors.EncodeError{Field: path, Message: "marshal failed", Cause: err}
			}
			return av, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			if t.Kind() == reflect.Pointer {
				if isNull(av) {
					v.SetZero()
					return nil
				}
				if v.IsNil() {
					v.Set(reflect.New(t.Elem()))
				}
			}
			var err error
			if u, ok := asInterface[attributevalue.Unmarshaler](v); ok {
				err = u.UnmarshalDynamoDBAttributeValue(av)
			} else {
				err = attributevalue.UnmarshalWithOptions(av, v.Addr().Interface(), useNumber)
			}
			if err != nil {
				return &errors.DecodeError{Field: path, Variant: Variant(av), Message: "unmarshal failed", Cause: err}
			}
			return nil
		},
	}
}

// dynamicCoder handles interface{} fields through the attributevalue
// package. Numbers decode as attributevalue.Number.
func dynamicCoder() *coder {
	return &coder{
		kind: KindDynamic,
		encode: func(path string, v reflect.Value) (types.AttributeValue, error) {
			if v.IsNil() {
				return nullValue(), nil
			}
			av, err := attributevalue.Marshal(v.Interface())
			if err != nil {
				return nil, &errors.EncodeError{Field: path, Message: "marshal failed", Cause: err}
			}
			return av, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			var out any
			if err := attributevalue.UnmarshalWithOptions(av, &out, useNumber); err != nil {
				return &errors.DecodeError{Field: path, Variant: Variant(av), Message: "unmarshal failed", Cause: err}
			}
			if out == nil {
				v.SetZero()
				return nil
			}
			v.Set(reflect.ValueOf(out))
			return nil
		},
	}
}

func stringCoder() *coder {
	return &coder{
		kind: KindString,
		encode: func(_ string, v reflect.Value) (types.AttributeValue, error) {
			return &types.AttributeValueMemberS{Value: v.String()}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			s, ok := av.(*types.AttributeValueMemberS)
			if !ok {
				return mismatch(path, KindString, av)
			}
			v.SetString(s.Value)
			return nil
		},
	}
}

func boolCoder() *coder {
	return &coder{
		kind: KindBool,
		encode: func(_ string, v reflect.Value) (types.AttributeValue, error) {
			return &types.AttributeValueMemberBOOL{Value: v.Bool()}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			b, ok := av.(*types.AttributeValueMemberBOOL)
			if !ok {
				return mismatch(path, KindBool, av)
			}
			v.SetBool(b.Value)
			return nil
		},
	}
}

func numberText(path string, av types.AttributeValue) (string, error) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return "", mismatch(path, KindNumber, av)
	}
	return n.Value, nil
}

func intCoder(t reflect.Type) *coder {
	return &coder{
		kind: KindNumber,
		encode: func(_ string, v reflect.Value) (types.AttributeValue, error) {
			return &types.AttributeValueMemberN{Value: strconv.FormatInt(v.Int(), 10)}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			text, err := numberText(path, av)
			if err != nil {
				return err
			}
			n, err := strconv.ParseInt(text, 10, t.Bits())
			if err != nil {
				return &errors.DecodeError{Field: path, Variant: "N", Message: fmt.Sprintf("%q does not fit %s", text, t), Cause: err}
			}
			v.SetInt(n)
			return nil
		},
	}
}

func uintCoder(t reflect.Type) *coder {
	return &coder{
		kind: KindNumber,
		encode: func(_ string, v reflect.Value) (types.AttributeValue, error) {
			return &types.AttributeValueMemberN{Value: strconv.FormatUint(v.Uint(), 10)}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			text, err := numberText(path, av)
			if err != nil {
				return err
			}
			n, err := strconv.ParseUint(text, 10, t.Bits())
			if err != nil {
				return &errors.DecodeError{Field: path, Variant: "N", Message: fmt.Sprintf("%q does not fit %s", text, t), Cause: err}
			}
			v.SetUint(n)
			return nil
		},
	}
}

func floatCoder(t reflect.Type) *coder {
	return &coder{
		kind: KindNumber,
		encode: func(path string, v reflect.Value) (types.AttributeValue, error) {
			f := v.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, &errors.EncodeError{Field: path, Message: fmt.Sprintf("%v is not a number the store accepts", f)}
			}
			return &types.AttributeValueMemberN{Value: strconv.FormatFloat(f, 'g', -1, t.Bits())}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			text, err := numberText(path, av)
			if err != nil {
				return err
			}
			f, err := strconv.ParseFloat(text, t.Bits())
			if err != nil {
				return &errors.DecodeError{Field: path, Variant: "N", Message: fmt.Sprintf("%q does not fit %s", text, t), Cause: err}
			}
			v.SetFloat(f)
			return nil
		},
	}
}

func decimalCoder() *coder {
	return &coder{
		kind: KindNumber,
		encode: func(_ string, v reflect.Value) (types.AttributeValue, error) {
			return &types.AttributeValueMemberN{Value: v.Interface().(Decimal).String()}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			text, err := numberText(path, av)
			if err != nil {
				return err
			}
			d, err := ParseDecimal(text)
			if err != nil {
				return &errors.DecodeError{Field: path, Variant: "N", Message: "bad decimal", Cause: err}
			}
			v.Set(reflect.ValueOf(d))
			return nil
		},
	}
}

func jsonNumberCoder() *coder {
	return &coder{
		kind: KindNumber,
		encode: func(path string, v reflect.Value) (types.AttributeValue, error) {
			text := v.String()
			if err := validNumber(text); err != nil {
				return nil, &errors.EncodeError{Field: path, Message: "bad number", Cause: err}
			}
			return &types.AttributeValueMemberN{Value: text}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			text, err := numberText(path, av)
			if err != nil {
				return err
			}
			v.SetString(text)
			return nil
		},
	}
}

func bytesCoder() *coder {
	return &coder{
		kind: KindBinary,
		encode: func(_ string, v reflect.Value) (types.AttributeValue, error) {
			if v.IsNil() {
				return nullValue(), nil
			}
			return &types.AttributeValueMemberB{Value: append([]byte{}, v.Bytes()...)}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			if isNull(av) {
				v.SetZero()
				return nil
			}
			b, ok := av.(*types.AttributeValueMemberB)
			if !ok {
				return mismatch(path, KindBinary, av)
			}
			v.SetBytes(append([]byte{}, b.Value...))
			return nil
		},
	}
}

func byteArrayCoder(t reflect.Type) *coder {
	return &coder{
		kind: KindBinary,
		encode: func(_ string, v reflect.Value) (types.AttributeValue, error) {
			out := make([]byte, t.Len())
			reflect.Copy(reflect.ValueOf(out), v)
			return &types.AttributeValueMemberB{Value: out}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			b, ok := av.(*types.AttributeValueMemberB)
			if !ok {
				return mismatch(path, KindBinary, av)
			}
			if len(b.Value) != t.Len() {
				return &errors.DecodeError{Field: path, Variant: "B", Message: fmt.Sprintf("got %d bytes, want %d", len(b.Value), t.Len())}
			}
			reflect.Copy(v, reflect.ValueOf(b.Value))
			return nil
		},
	}
}

func (c *compiler) listCoder(t reflect.Type) (*coder, error) {
	elem, err := c.coder(t.Elem(), KindInvalid, nil)
	if err != nil {
		return nil, err
	}
	isSlice := t.Kind() == reflect.Slice
	return &coder{
		kind: KindList,
		encode: func(path string, v reflect.Value) (types.AttributeValue, error) {
			if isSlice && v.IsNil() {
				return nullValue(), nil
			}
			out := make([]types.AttributeValue, v.Len())
			for i := range out {
				av, err := elem.encode(fmt.Sprintf("%s[%d]", path, i), v.Index(i))
				if err != nil {
					return nil, err
				}
				out[i] = av
			}
			return &types.AttributeValueMemberL{Value: out}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			if isSlice && isNull(av) {
				v.SetZero()
				return nil
			}
			l, ok := av.(*types.AttributeValueMemberL)
			if !ok {
				return mismatch(path, KindList, av)
			}
			target := v
			if isSlice {
				target = reflect.MakeSlice(t, len(l.Value), len(l.Value))
			} else if len(l.Value) != t.Len() {
				return &errors.DecodeError{Field: path, Variant: "L", Message: fmt.Sprintf("got %d elements, want %d", len(l.Value), t.Len())}
			}
			for i, item := range l.Value {
				if err := elem.decode(fmt.Sprintf("%s[%d]", path, i), item, target.Index(i)); err != nil {
					return err
				}
			}
			if isSlice {
				v.Set(target)
			}
			return nil
		},
	}, nil
}

func (c *compiler) mapCoder(t reflect.Type) (*coder, error) {
	if t.Key().Kind() != reflect.String {
		return nil, fmt.Errorf("map key type %s is not a string", t.Key())
	}
	elem, err := c.coder(t.Elem(), KindInvalid, nil)
	if err != nil {
		return nil, err
	}
	return &coder{
		kind: KindMap,
		encode: func(path string, v reflect.Value) (types.AttributeValue, error) {
			if v.IsNil() {
				return nullValue(), nil
			}
			out := make(map[string]types.AttributeValue, v.Len())
			iter := v.MapRange()
			for iter.Next() {
				k := iter.Key().String()
				av, err := elem.encode(joinPath(path, k), iter.Value())
				if err != nil {
					return nil, err
				}
				out[k] = av
			}
			return &types.AttributeValueMemberM{Value: out}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			if isNull(av) {
				v.SetZero()
				return nil
			}
			m, ok := av.(*types.AttributeValueMemberM)
			if !ok {
				return mismatch(path, KindMap, av)
			}
			out := reflect.MakeMapWithSize(t, len(m.Value))
			for k, item := range m.Value {
				ev := reflect.New(t.Elem()).Elem()
				if err := elem.decode(joinPath(path, k), item, ev); err != nil {
					return err
				}
				out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
			}
			v.Set(out)
			return nil
		},
	}, nil
}

func (c *compiler) structCoder(t reflect.Type) (*coder, error) {
	p, err := c.plan(t, false)
	if err != nil {
		return nil, err
	}
	return &coder{
		kind: KindMap,
		encode: func(path string, v reflect.Value) (types.AttributeValue, error) {
			m, err := p.encodeStruct(path, v)
			if err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberM{Value: m}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			m, ok := av.(*types.AttributeValueMemberM)
			if !ok {
				return mismatch(path, KindMap, av)
			}
			return p.decodeStruct(path, m.Value, v, false)
		},
	}, nil
}

// setCoder encodes a slice as SS, NS or BS. Sets must be non-empty and
// free of duplicates.
func (c *compiler) setCoder(t reflect.Type, want Kind) (*coder, error) {
	if t.Kind() != reflect.Slice {
		return nil, fmt.Errorf("set option on non-slice type %s", t)
	}
	elem, err := c.coder(t.Elem(), KindInvalid, nil)
	if err != nil {
		return nil, err
	}
	var kind Kind
	switch elem.kind {
	case KindString:
		kind = KindStringSet
	case KindNumber:
		kind = KindNumberSet
	case KindBinary:
		kind = KindBinarySet
	default:
		return nil, fmt.Errorf("set element type %s encodes as %s", t.Elem(), elem.kind)
	}
	if want != setInfer && want != kind {
		return nil, fmt.Errorf("%s elements cannot form a %s", t.Elem(), want)
	}
	return &coder{
		kind: kind,
		encode: func(path string, v reflect.Value) (types.AttributeValue, error) {
			if v.Len() == 0 {
				return nil, &errors.EncodeError{Field: path, Message: "empty sets cannot be stored"}
			}
			seen := make(map[string]struct{}, v.Len())
			var (
				texts []string
				blobs [][]byte
			)
			for i := 0; i < v.Len(); i++ {
				av, err := elem.encode(fmt.Sprintf("%s[%d]", path, i), v.Index(i))
				if err != nil {
					return nil, err
				}
				text, raw, ok := ScalarText(av)
				if !ok {
					return nil, &errors.EncodeError{Field: path, Message: fmt.Sprintf("set element encoded as %s", Variant(av))}
				}
				k := text
				switch kind {
				case KindBinarySet:
					k = string(raw)
				case KindNumberSet:
					k = CanonicalNumber(text)
				}
				if _, dup := seen[k]; dup {
					return nil, &errors.EncodeError{Field: path, Message: fmt.Sprintf("duplicate set element at index %d", i)}
				}
				seen[k] = struct{}{}
				if kind == KindBinarySet {
					blobs = append(blobs, raw)
				} else {
					texts = append(texts, text)
				}
			}
			switch kind {
			case KindStringSet:
				return &types.AttributeValueMemberSS{Value: texts}, nil
			case KindNumberSet:
				return &types.AttributeValueMemberNS{Value: texts}, nil
			}
			return &types.AttributeValueMemberBS{Value: blobs}, nil
		},
		decode: func(path string, av types.AttributeValue, v reflect.Value) error {
			var members []types.AttributeValue
			switch s := av.(type) {
			case *types.AttributeValueMemberSS:
				if kind == KindStringSet {
					for _, m := range s.Value {
						members = append(members, &types.AttributeValueMemberS{Value: m})
					}
				}
			case *types.AttributeValueMemberNS:
				if kind == KindNumberSet {
					for _, m := range s.Value {
						members = append(members, &types.AttributeValueMemberN{Value: m})
					}
				}
			case *types.AttributeValueMemberBS:
				if kind == KindBinarySet {
					for _, m := range s.Value {
						members = append(members, &types.AttributeValueMemberB{Value: m})
					}
				}
			}
			if KindOf(av) != kind {
				return mismatch(path, kind, av)
			}
			out := reflect.MakeSlice(t, len(members), len(members))
			for i, m := range members {
				if err := elem.decode(fmt.Sprintf("%s[%d]", path, i), m, out.Index(i)); err != nil {
					return err
				}
			}
			v.Set(out)
			return nil
		},
	}, nil
}
