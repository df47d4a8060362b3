// Package engine sequences the conversation pipeline: store the incoming
// message, trigger summarization when the history is long enough, rebuild
// the bounded prompt window, stream the model call, and demultiplex the
// reply into thinking and response events while persisting the raw text.
package engine
