// Package llm wraps an OpenRouter-compatible chat completion API behind a
// JSON-only request helper.
//
// The client retries transient failures (HTTP 408/429/5xx, network timeouts,
// empty completions) with capped exponential backoff, honoring Retry-After
// when the server provides one. DecodeLLMJSON tolerates the usual model
// formatting quirks: code fences, leading prose, trailing commentary.
package llm
