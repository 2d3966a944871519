// Package ai defines the shared, provider-agnostic types and interfaces used
// by the model gateway. Each provider's conversion layer maps these types to
// its own wire format, keeping the wardrobe services decoupled from whether a
// prompt goes to a remote chat-completion API or a local vision endpoint.
//
// The central interface is [Provider]. Request data flows through
// [ChatRequest] and responses are returned as [ChatResponse].
package ai
