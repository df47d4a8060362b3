package core

// Turn roles. Summary is synthetic: produced by the summarizer, never shown
// to the end user directly, injected into prompts as a system-level note.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSummary   = "summary"
)

// Turn is one immutable stored conversational unit. "Editing" memory means
// deleting old turns and writing new ones; no update path exists.
type Turn struct {
	// ID is the sole sort key. Format: "<userID>_<unix seconds as float>",
	// monotonically increasing within a user.
	ID string

	// UserID scopes every query.
	UserID string

	// Role is one of RoleUser, RoleAssistant, RoleSummary.
	Role string

	// Content is the raw text of the utterance.
	Content string

	// Embedding is the fixed-dimension vector computed from Content at
	// write time, used for similarity search.
	Embedding []float32
}

// Message is one role-tagged entry of a prompt. Prompts are built fresh per
// request and never persisted.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
