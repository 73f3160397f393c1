// Package openai adapts the official OpenAI Go SDK to the JSON-completion
// contract the analysis layer consumes. It is selected when the configured
// provider is "openai"; OpenAI-compatible gateways are reached through the
// generic HTTP client in services/llm instead.
package openai
