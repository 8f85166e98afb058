// Package bus implements the in-process publish/subscribe streams.
//
// Two independent typed streams carry user-facing notices and internal
// lifecycle events; subscribers receive the full stream, in publish order.
// Delivery is fire-and-forget per subscriber: a slow consumer has messages
// dropped rather than blocking the publisher or its peers.
package bus
