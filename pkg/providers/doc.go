// Package providers groups the model completers.
//
//   - [github.com/germanamz/toolmesh/pkg/providers/ollama]: native Ollama chat API and availability probe
//   - [github.com/germanamz/toolmesh/pkg/providers/openai]: OpenAI-compatible Chat Completions
//
// Both implement [github.com/germanamz/toolmesh/pkg/modeladapter.Completer].
package providers
