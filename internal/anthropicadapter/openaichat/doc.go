// Package openaichat adapts the Anthropic Messages API onto OpenAI-compatible
// chat completion endpoints.
//
// The package maps requests and buffered responses field by field and
// re-synthesizes the Messages streaming lifecycle (message_start through
// message_stop) from chat completion chunks. Mapping is deliberately lenient:
// malformed tool arguments degrade to empty objects and undecodable stream
// chunks are skipped, so a single bad payload never takes down an otherwise
// usable response.
package openaichat
