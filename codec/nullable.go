/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"reflect"
)

type nullState uint8

const (
	stateAbsent nullState = iota
	stateNull
	stateValue
)

// Nullable is a three-state field: absent (attribute omitted), null
// (explicit NULL attribute) or a value. The zero value is absent.
type Nullable[T any] struct {
	value T
	state nullState
}

// Null returns a Nullable holding an explicit null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{state: stateNull}
}

// Some returns a Nullable holding v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{value: v, state: stateValue}
}

// Get returns the held value and whether one is present.
func (n Nullable[T]) Get() (T, bool) {
	return n.value, n.state == stateValue
}

// IsNull reports an explicit null.
func (n Nullable[T]) IsNull() bool { return n.state == stateNull }

// IsAbsent reports an omitted attribute.
func (n Nullable[T]) IsAbsent() bool { return n.state == stateAbsent }

func (n Nullable[T]) String() string {
	switch n.state {
	case stateNull:
		return "null"
	case stateValue:
		return "some"
	}
	return "absent"
}

// nullableReader and nullableWriter let the plan compiler recognise any
// Nullable instantiation through reflection.
type nullableReader interface {
	nullableElem() reflect.Type
	nullableState() nullState
	nullableValue() reflect.Value
}

type nullableWriter interface {
	setNullable(state nullState) reflect.Value
}

func (n Nullable[T]) nullableElem() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

func (n Nullable[T]) nullableState() nullState { return n.state }

func (n Nullable[T]) nullableValue() reflect.Value { return reflect.ValueOf(&n.value).Elem() }

// setNullable resets n to state and returns the settable value slot.
func (n *Nullable[T]) setNullable(state nullState) reflect.Value {
	var zero T
	n.value = zero
	n.state = state
	return reflect.ValueOf(&n.value).Elem()
}

var (
	nullableReaderType = reflect.TypeOf((*nullableReader)(nil)).Elem()
	nullableWriterType = reflect.TypeOf((*nullableWriter)(nil)).Elem()
)

func isNullableType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct &&
		t.Implements(nullableReaderType) &&
		reflect.PointerTo(t).Implements(nullableWriterType)
}
