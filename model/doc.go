// Package model defines the chat completion interface consumed by the
// conversation pipeline, with adapters for OpenAI-compatible endpoints
// (including LM Studio) and the Anthropic Messages API in subpackages.
package model
