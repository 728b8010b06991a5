/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stoewer/go-strcase"

	"github.com/suparena/itemstore/errors"
)

// TagKey is the struct tag read for attribute names and options.
const TagKey = "dynamodbav"

// Naming derives an attribute name from a Go field name when the tag does
// not name it.
type Naming func(goName string) string

var (
	// GoNames keeps the Go field name.
	GoNames Naming = func(s string) string { return s }
	// SnakeCase maps UserName to user_name.
	SnakeCase Naming = strcase.SnakeCase
	// LowerCamelCase maps UserName to userName.
	LowerCamelCase Naming = strcase.LowerCamelCase
)

// Field is one compiled attribute of a Plan.
type Field struct {
	// Name is the attribute name on the wire.
	Name   string
	GoName string
	// Type is the Go type encoded. For Nullable fields it is the held type.
	Type      reflect.Type
	Kind      Kind
	OmitEmpty bool
	// Required fields must be present when decoding.
	Required bool
	Nullable bool

	index []int
	coder *coder
}

// Plan is the compiled encoder/decoder of one record type. Plans are
// immutable and safe for concurrent use.
type Plan struct {
	typ    reflect.Type
	fields []*Field
	byAttr map[string]*Field
	byGo   map[string]*Field
}

type options struct {
	serializers Serializers
	fieldSers   map[string]Serializer
	naming      Naming
}

// Option configures plan compilation.
type Option func(*options)

// WithSerializers adds type serializers on top of the defaults.
func WithSerializers(s ...Serializer) Option {
	return func(o *options) {
		o.serializers = o.serializers.With(s...)
	}
}

// WithFieldSerializer binds a serializer to one top-level field, named by
// Go name or attribute name.
func WithFieldSerializer(field string, s Serializer) Option {
	return func(o *options) {
		o.fieldSers[field] = s
	}
}

// WithNaming sets how untagged fields are named.
func WithNaming(n Naming) Option {
	return func(o *options) {
		o.naming = n
	}
}

// Compile builds the plan for struct type t.
func Compile(t reflect.Type, opts ...Option) (*Plan, error) {
	o := &options{
		serializers: DefaultSerializers(),
		fieldSers:   map[string]Serializer{},
		naming:      GoNames,
	}
	for _, opt := range opts {
		opt(o)
	}
	if t == nil {
		return nil, errors.NewSchemaError("", "", "nil record type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.NewSchemaError("", "", fmt.Sprintf("record type %s is not a struct", t))
	}
	c := &compiler{opts: o, plans: map[reflect.Type]*Plan{}}
	p, err := c.plan(t, true)
	if err != nil {
		return nil, err
	}
	for name := range o.fieldSers {
		if _, ok := p.Field(name); !ok {
			return nil, errors.NewSchemaError("", name, "serializer bound to unknown field")
		}
	}
	return p, nil
}

// CompileFor is Compile for the type parameter.
func CompileFor[T any](opts ...Option) (*Plan, error) {
	return Compile(reflect.TypeOf((*T)(nil)).Elem(), opts...)
}

// Type returns the record type.
func (p *Plan) Type() reflect.Type { return p.typ }

// Fields returns the compiled fields in declaration order.
func (p *Plan) Fields() []*Field { return p.fields }

// Field looks a field up by attribute name, then by Go name.
func (p *Plan) Field(name string) (*Field, bool) {
	if f, ok := p.byAttr[name]; ok {
		return f, true
	}
	f, ok := p.byGo[name]
	return f, ok
}

// Encode converts record, a value or pointer of the plan's type, to an item.
func (p *Plan) Encode(record any) (map[string]types.AttributeValue, error) {
	rv := reflect.ValueOf(record)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, &errors.EncodeError{Field: p.typ.Name(), Message: "nil record"}
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != p.typ {
		return nil, &errors.EncodeError{Field: p.typ.Name(), Message: fmt.Sprintf("expected %s, got %T", p.typ, record)}
	}
	return p.encodeStruct("", rv)
}

// Decode fills dst, a non-nil pointer to the plan's type, from item.
// Attributes not in the plan are ignored.
func (p *Plan) Decode(item map[string]types.AttributeValue, dst any) error {
	return p.decodeInto(item, dst, false)
}

// DecodePartial is Decode without the required-attribute check, for
// projections that carry a subset of the record.
func (p *Plan) DecodePartial(item map[string]types.AttributeValue, dst any) error {
	return p.decodeInto(item, dst, true)
}

func (p *Plan) decodeInto(item map[string]types.AttributeValue, dst any, partial bool) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != p.typ {
		return &errors.DecodeError{Field: p.typ.Name(), Message: fmt.Sprintf("decode target must be *%s, got %T", p.typ, dst)}
	}
	return p.decodeStruct("", item, rv.Elem(), partial)
}

// EncodeField encodes a single value as the named field would be encoded.
// v must have the field's type (or its element type for pointer fields);
// a types.AttributeValue of the field's kind is passed through.
func (p *Plan) EncodeField(name string, v any) (types.AttributeValue, error) {
	f, ok := p.Field(name)
	if !ok {
		return nil, &errors.EncodeError{Field: name, Message: "unknown field"}
	}
	if av, ok := v.(types.AttributeValue); ok {
		if f.Kind != KindDynamic && KindOf(av) != f.Kind {
			return nil, &errors.EncodeError{Field: f.Name, Message: fmt.Sprintf("expected %s value, got %s", f.Kind, Variant(av))}
		}
		return av, nil
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, &errors.EncodeError{Field: f.Name, Message: "nil value"}
	}
	rv, ok = assignable(rv, f.Type)
	if !ok {
		return nil, &errors.EncodeError{Field: f.Name, Message: fmt.Sprintf("expected %s, got %T", f.Type, v)}
	}
	return f.coder.encode(f.Name, rv)
}

// assignable adapts rv to t: identical types, the element of a pointer
// type, or a conversion within the same kind family.
func assignable(rv reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if rv.Type() == t {
		return rv, true
	}
	if t.Kind() == reflect.Pointer {
		if inner, ok := assignable(rv, t.Elem()); ok {
			ptr := reflect.New(t.Elem())
			ptr.Elem().Set(inner)
			return ptr, true
		}
		return rv, false
	}
	from, to := family(rv.Kind()), family(t.Kind())
	if from == 0 || from != to || !rv.Type().ConvertibleTo(t) {
		return rv, false
	}
	switch from {
	case familyInt:
		if reflect.Zero(t).OverflowInt(rv.Int()) {
			return rv, false
		}
	case familyUint:
		if reflect.Zero(t).OverflowUint(rv.Uint()) {
			return rv, false
		}
	}
	return rv.Convert(t), true
}

const (
	familyString = iota + 1
	familyInt
	familyUint
	familyFloat
)

func family(k reflect.Kind) int {
	switch k {
	case reflect.String:
		return familyString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return familyInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return familyUint
	case reflect.Float32, reflect.Float64:
		return familyFloat
	}
	return 0
}

func (p *Plan) encodeStruct(prefix string, v reflect.Value) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(p.fields))
	for _, f := range p.fields {
		fv := v.FieldByIndex(f.index)
		path := joinPath(prefix, f.Name)
		if f.Nullable {
			r := fv.Interface().(nullableReader)
			switch r.nullableState() {
			case stateAbsent:
				continue
			case stateNull:
				item[f.Name] = nullValue()
				continue
			}
			fv = r.nullableValue()
		} else if f.OmitEmpty && fv.IsZero() {
			continue
		}
		av, err := f.coder.encode(path, fv)
		if err != nil {
			return nil, err
		}
		item[f.Name] = av
	}
	return item, nil
}

func (p *Plan) decodeStruct(prefix string, item map[string]types.AttributeValue, v reflect.Value, partial bool) error {
	for _, f := range p.fields {
		fv := v.FieldByIndex(f.index)
		path := joinPath(prefix, f.Name)
		av, ok := item[f.Name]
		if f.Nullable {
			w := fv.Addr().Interface().(nullableWriter)
			switch {
			case !ok:
				w.setNullable(stateAbsent)
			case isNull(av):
				w.setNullable(stateNull)
			default:
				if err := f.coder.decode(path, av, w.setNullable(stateValue)); err != nil {
					return err
				}
			}
			continue
		}
		if !ok {
			if f.Required && !partial {
				return &errors.DecodeError{Field: path, Message: "required attribute is missing"}
			}
			fv.SetZero()
			continue
		}
		if err := f.coder.decode(path, av, fv); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

type compiler struct {
	opts  *options
	plans map[reflect.Type]*Plan
}

// plan compiles struct type t. Nested struct plans are cached so
// recursive types terminate.
func (c *compiler) plan(t reflect.Type, top bool) (*Plan, error) {
	if p, ok := c.plans[t]; ok {
		return p, nil
	}
	p := &Plan{typ: t, byAttr: map[string]*Field{}, byGo: map[string]*Field{}}
	c.plans[t] = p
	if err := c.collect(p, t, nil, top); err != nil {
		delete(c.plans, t)
		return nil, err
	}
	return p, nil
}

func (c *compiler) collect(p *Plan, t reflect.Type, index []int, top bool) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get(TagKey)
		if tag == "-" {
			continue
		}
		name, tagOpts, err := parseTag(tag)
		if err != nil {
			return errors.NewSchemaError(t.Name(), sf.Name, err.Error())
		}
		fieldIndex := append(append([]int(nil), index...), i)

		if sf.Anonymous && name == "" && sf.Type.Kind() == reflect.Struct && !c.special(sf.Type) {
			// fields promoted through an unexported embed are not settable
			if !sf.IsExported() {
				continue
			}
			if err := c.collect(p, sf.Type, fieldIndex, top); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = c.opts.naming(sf.Name)
		}

		f := &Field{
			Name:      name,
			GoName:    sf.Name,
			Type:      sf.Type,
			OmitEmpty: tagOpts.omitEmpty,
			index:     fieldIndex,
		}
		ft := sf.Type
		if isNullableType(ft) {
			f.Nullable = true
			ft = reflect.Zero(ft).Interface().(nullableReader).nullableElem()
			f.Type = ft
		}
		f.Required = !f.Nullable && !f.OmitEmpty && ft.Kind() != reflect.Pointer

		var ser Serializer
		if top {
			if s, ok := c.opts.fieldSers[sf.Name]; ok {
				ser = s
			} else if s, ok := c.opts.fieldSers[name]; ok {
				ser = s
			}
		}
		cd, err := c.coder(ft, tagOpts.set, ser)
		if err != nil {
			return errors.NewSchemaError(t.Name(), sf.Name, err.Error())
		}
		f.coder = cd
		f.Kind = cd.kind

		if _, dup := p.byAttr[name]; dup {
			return errors.NewSchemaError(t.Name(), sf.Name, fmt.Sprintf("duplicate attribute name %q", name))
		}
		p.fields = append(p.fields, f)
		p.byAttr[name] = f
		p.byGo[sf.Name] = f
	}
	return nil
}

// special reports struct types that encode as a scalar rather than a map.
func (c *compiler) special(t reflect.Type) bool {
	if _, ok := c.opts.serializers[t]; ok {
		return true
	}
	return isNullableType(t) || implementsAV(t) || t == decimalType
}

type tagOptions struct {
	omitEmpty bool
	set       Kind
}

func parseTag(tag string) (string, tagOptions, error) {
	var o tagOptions
	if tag == "" {
		return "", o, nil
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		switch opt {
		case "omitempty":
			o.omitEmpty = true
		case "set":
			o.set = KindDynamic
		case "stringset":
			o.set = KindStringSet
		case "numberset":
			o.set = KindNumberSet
		case "binaryset":
			o.set = KindBinarySet
		case "":
		default:
			return "", o, fmt.Errorf("unknown tag option %q", opt)
		}
	}
	return parts[0], o, nil
}
