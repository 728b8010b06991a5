/*
Package codec translates Go records to and from the DynamoDB attribute value
union.

A record type is compiled once into a Plan. Every field is bound to a single
wire variant, and decoding refuses any other variant instead of coercing:

	type Order struct {
	    OrderID   string            `dynamodbav:"order_id"`
	    CreatedAt strfmt.Date       `dynamodbav:"created_at"`
	    Total     codec.Decimal     `dynamodbav:"total"`
	    Tags      []string          `dynamodbav:"tags,stringset,omitempty"`
	    Note      codec.Nullable[string] `dynamodbav:"note"`
	}

	plan, err := codec.CompileFor[Order]()
	item, err := plan.Encode(order)
	var back Order
	err = plan.Decode(item, &back)

Mapping rules:

	string                      S
	ints, uints, floats         N
	Decimal, json.Number        N (text kept verbatim)
	[]byte, [N]byte             B
	bool                        BOOL
	nil pointer, slice, map     NULL
	slices and arrays           L
	structs, map[string]T       M
	slices tagged set           SS, NS or BS (never empty)
	Nullable[T]                 omitted, NULL or T
	interface{}                 via the attributevalue package

Domain scalars (time.Time, time.Duration, TimeOfDay, strfmt.DateTime,
strfmt.Date, strfmt.UUID, uuid.UUID, ulid.ULID, *big.Int) go through a
Serializer that yields their canonical S or N text. Serializers can be added
per type with WithSerializers or per field with WithFieldSerializer; Enum
builds one from a name table.

MarshalItemJSON and UnmarshalItemJSON convert items to the JSON form used in
the DynamoDB API documentation.
*/
package codec
