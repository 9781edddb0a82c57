// Package chats is the provider-agnostic conversation model.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/toolmesh/pkg/chats/role]: conversation roles (system, user, assistant, tool)
//   - [github.com/germanamz/toolmesh/pkg/chats/content]: content parts (text, tool call, tool result)
//   - [github.com/germanamz/toolmesh/pkg/chats/message]: messages composed of a role, sender and parts
//   - [github.com/germanamz/toolmesh/pkg/chats/chat]: mutable conversation container
package chats
