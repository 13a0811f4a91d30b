// Package schema derives a JSON Schema from a Go type and validates untyped
// JSON values against it.
//
// A Shape[T] is built once from T's json and jsonschema struct tags and
// compiled with santhosh-tekuri/jsonschema. The same document is sent to the
// model provider as the requested output format and used to check what comes
// back, so the static type returned by Validate always agrees with the schema
// the provider was asked to honour. Rules the provider cannot be given are
// attached with WithCheck and run locally.
//
//	type Card struct {
//		Front string `json:"front" jsonschema:"description=Question"`
//		Back  string `json:"back"  jsonschema:"description=Answer"`
//	}
//
//	shape := schema.MustDefine[Card]("Card")
//	card, err := shape.Validate(decoded)
package schema
