/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Kind is the wire variant a field is bound to when its plan is compiled.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBinary
	KindBool
	KindNull
	KindList
	KindMap
	KindStringSet
	KindNumberSet
	KindBinarySet
	// KindDynamic fields accept any variant (interface values and
	// attributevalue.Marshaler implementations).
	KindDynamic
)

var kindNames = map[Kind]string{
	KindString:    "S",
	KindNumber:    "N",
	KindBinary:    "B",
	KindBool:      "BOOL",
	KindNull:      "NULL",
	KindList:      "L",
	KindMap:       "M",
	KindStringSet: "SS",
	KindNumberSet: "NS",
	KindBinarySet: "BS",
	KindDynamic:   "dynamic",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// Keyable reports whether the kind can be used for a table or index key.
func (k Kind) Keyable() bool {
	return k == KindString || k == KindNumber || k == KindBinary
}

// ScalarAttributeType maps a keyable kind to the attribute definition type.
func (k Kind) ScalarAttributeType() (types.ScalarAttributeType, bool) {
	switch k {
	case KindString:
		return types.ScalarAttributeTypeS, true
	case KindNumber:
		return types.ScalarAttributeTypeN, true
	case KindBinary:
		return types.ScalarAttributeTypeB, true
	}
	return "", false
}

// KindOf returns the kind of a wire value.
func KindOf(av types.AttributeValue) Kind {
	switch av.(type) {
	case *types.AttributeValueMemberS:
		return KindString
	case *types.AttributeValueMemberN:
		return KindNumber
	case *types.AttributeValueMemberB:
		return KindBinary
	case *types.AttributeValueMemberBOOL:
		return KindBool
	case *types.AttributeValueMemberNULL:
		return KindNull
	case *types.AttributeValueMemberL:
		return KindList
	case *types.AttributeValueMemberM:
		return KindMap
	case *types.AttributeValueMemberSS:
		return KindStringSet
	case *types.AttributeValueMemberNS:
		return KindNumberSet
	case *types.AttributeValueMemberBS:
		return KindBinarySet
	}
	return KindInvalid
}

// Variant returns the wire tag of av, e.g. "S" or "NULL".
func Variant(av types.AttributeValue) string {
	if av == nil {
		return "nothing"
	}
	return KindOf(av).String()
}

// ScalarText returns the text carried by an S or N value and the bytes
// carried by a B value. ok is false for every other variant.
func ScalarText(av types.AttributeValue) (text string, raw []byte, ok bool) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value, nil, true
	case *types.AttributeValueMemberN:
		return v.Value, nil, true
	case *types.AttributeValueMemberB:
		return "", v.Value, true
	}
	return "", nil, false
}
