// Package role defines who sent a message in a session chat.
package role

import "strings"

// Role is the sender of a message. Its value is the wire name used by both
// the Ollama and OpenAI chat APIs.
type Role string

const (
	System    Role = "system"
	User      Role = "user"
	Assistant Role = "assistant"
	Tool      Role = "tool"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case System, User, Assistant, Tool:
		return true
	}
	return false
}

// String returns the wire name of the role.
func (r Role) String() string {
	return string(r)
}

// Parse maps a wire name from a model reply to a Role, ignoring case and
// surrounding space. Unknown or empty names yield fallback.
func Parse(name string, fallback Role) Role {
	r := Role(strings.ToLower(strings.TrimSpace(name)))
	if !r.Valid() {
		return fallback
	}
	return r
}
