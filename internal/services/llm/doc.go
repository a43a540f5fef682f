// Package llm provides an OpenRouter-compatible chat client used for
// storyboard generation.
//
// # Configuration
//
// Requires api_key, model, and optionally base_url, referer, title,
// timeout. The base_url points at a chat-completions endpoint; any
// OpenAI-compatible provider works.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: decode model output, tolerating code fences and prose.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately.
package llm
