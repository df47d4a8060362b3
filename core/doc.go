// Package core holds the shared value types of the conversation server:
// stored turns, prompt messages, stream events and the error taxonomy.
// It has no dependencies and every other package may import it.
package core
