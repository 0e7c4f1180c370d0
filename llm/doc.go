// Package llm defines the collaborator boundary to chat model providers.
//
// The conversation core treats providers as opaque request/response
// functions: it builds a ChatRequest, calls Completion, and branches on
// whether the response carries plain text or tool invocation requests.
// Concrete adapters live under providers/.
package llm
