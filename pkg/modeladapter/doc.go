// Package modeladapter defines the Completer interface the reasoning loop
// drives, and an embeddable ModelAdapter with the HTTP plumbing shared by
// JSON-over-HTTP providers.
//
// Token accounting lives in [github.com/germanamz/toolmesh/pkg/modeladapter/usage].
// Concrete providers live in separate packages under pkg/providers.
package modeladapter
