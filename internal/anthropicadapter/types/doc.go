// Package types provides Anthropic Messages API types for server-side
// request/response handling.
//
// The types are hand-written closed variants rather than OpenAPI-generated
// unions: the Messages API leans on polymorphic fields (string-or-block-list
// content, string-or-object tool choice) that map poorly onto generated code,
// and a single tagged struct per union keeps pattern matching explicit at
// every use site. Optional fields use standard Go pointers so the types work
// naturally with encoding/json via json.NewDecoder().
package types
