// Package completion streams chat replies from a remote model backend.
//
// A Client opens one stream per request over the full conversation history
// and hands back a Stream, a one-shot iterator over text fragments in
// generation order. Backends sit behind the Provider interface:
//
//   - bedrock: AWS Bedrock Runtime ConverseStream
//   - openai: any OpenAI-compatible chat completions endpoint
//   - anthropic: Anthropic Messages streaming
//   - echo: offline, repeats the last user turn
//
// Every failure is returned as *CompletionError. Nothing is retried; an
// optional circuit breaker makes repeated open failures fail fast instead.
package completion
