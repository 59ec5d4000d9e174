package halo

import "go.opentelemetry.io/otel/attribute"

// Attr is a key-value pair used for trace span attributes.
// This is an alias for the OpenTelemetry attribute.KeyValue type.
//
// Create attributes using the standard OTel constructors:
//
//	span.SetAttributes(
//	    attribute.String("order.id", orderID),
//	    attribute.Int64("retry.count", 3),
//	)
//
// Halo intentionally does NOT wrap attribute constructors. This keeps the
// API surface aligned with the standard OpenTelemetry API.
type Attr = attribute.KeyValue

// AttrKey is a type alias for attribute keys.
// Use attribute.Key("mykey").String("value") for advanced patterns.
type AttrKey = attribute.Key
