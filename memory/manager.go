package memory

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Gh0stWires/T-800-server/core"
	"github.com/Gh0stWires/T-800-server/model"
)

// Config holds Manager tuning knobs.
type Config struct {
	// MaxRecentTurns is how many turns after the latest summary are injected
	// into a prompt window.
	MaxRecentTurns int

	// SummarizeAfter is how many conversational (non-summary) turns a user
	// accumulates before the oldest window is folded into a summary.
	SummarizeAfter int

	// SummaryTemperature and SummaryMaxTokens parameterize the single
	// summarization completion. Low temperature, small budget.
	SummaryTemperature float64
	SummaryMaxTokens   int64
}

// DefaultConfig mirrors the service defaults: an 8-turn window, summarizing
// every 30 messages.
var DefaultConfig = &Config{
	MaxRecentTurns:     8,
	SummarizeAfter:     30,
	SummaryTemperature: 0.2,
	SummaryMaxTokens:   300,
}

// Manager orchestrates memory operations: appending embedded turns,
// reconstructing the bounded conversation window, and summarization.
type Manager struct {
	store    Store
	embedder Embedder
	model    model.Model
	config   *Config

	// Per-user locks serialize the summarizer's read-then-delete span so two
	// concurrent requests for the same user cannot double-summarize.
	lockMu    sync.Mutex
	userLocks map[string]*sync.Mutex

	// Turn ids are timestamp-based and the sole sort key; the guard below
	// keeps them strictly increasing per user even under clock ties.
	idMu   sync.Mutex
	lastTS map[string]float64
}

// NewManager creates a Manager. The model is used only for summarization
// (one non-streaming call per folded window).
func NewManager(store Store, embedder Embedder, mdl model.Model, config *Config) *Manager {
	if config == nil {
		config = DefaultConfig
	}
	return &Manager{
		store:     store,
		embedder:  embedder,
		model:     mdl,
		config:    config,
		userLocks: make(map[string]*sync.Mutex),
		lastTS:    make(map[string]float64),
	}
}

// Append embeds content and writes a new immutable turn, returning its id.
func (m *Manager) Append(ctx context.Context, userID, role, content string) (string, error) {
	embedding, err := m.embedder.Embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrEmbeddingUnavailable, err)
	}

	turn := core.Turn{
		ID:        m.nextTurnID(userID),
		UserID:    userID,
		Role:      role,
		Content:   content,
		Embedding: embedding,
	}
	if err := m.store.Add(ctx, turn); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return turn.ID, nil
}

// Retrieve reconstructs the conversation window for a user: the latest
// summary (empty string if none) and the last MaxRecentTurns turns written
// after it, oldest first.
//
// A later summary supersedes everything accumulated before it, including any
// earlier summary; superseded summaries are never concatenated. Truncation
// to the window size is a presentation decision, not a delete.
func (m *Manager) Retrieve(ctx context.Context, userID string) (string, []core.Message, error) {
	turns, err := m.listSorted(ctx, userID)
	if err != nil {
		return "", nil, err
	}

	summary := ""
	var recent []core.Message
	for _, t := range turns {
		if t.Role == core.RoleSummary {
			summary = t.Content
			recent = recent[:0]
			continue
		}
		recent = append(recent, core.Message{Role: t.Role, Content: t.Content})
	}

	if k := m.config.MaxRecentTurns; k > 0 && len(recent) > k {
		recent = recent[len(recent)-k:]
	}
	return summary, recent, nil
}

// CountConversational returns the number of non-summary turns for a user.
func (m *Manager) CountConversational(ctx context.Context, userID string) (int, error) {
	turns, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	count := 0
	for _, t := range turns {
		if t.Role != core.RoleSummary {
			count++
		}
	}
	return count, nil
}

// MaybeSummarize folds the oldest SummarizeAfter turns into one synthetic
// summary turn if the user's conversational turn count has reached the
// threshold. Returns the summary text, or "" when nothing was done.
//
// The span is a per-user critical section: count, summarize and delete run
// under one lock so concurrent requests cannot fold the same window twice.
func (m *Manager) MaybeSummarize(ctx context.Context, userID, agentName string) (string, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	count, err := m.CountConversational(ctx, userID)
	if err != nil {
		return "", err
	}
	if count < m.config.SummarizeAfter {
		return "", nil
	}
	return m.summarize(ctx, userID, agentName)
}

// summarize condenses the oldest SummarizeAfter turns, regardless of role,
// into a single summary turn. The new summary is appended before the
// summarized turns are deleted; on any failure the store is left untouched
// (or with one extra summary, never with lost turns).
func (m *Manager) summarize(ctx context.Context, userID, agentName string) (string, error) {
	turns, err := m.listSorted(ctx, userID)
	if err != nil {
		return "", err
	}

	n := m.config.SummarizeAfter
	if n > len(turns) {
		n = len(turns)
	}
	toSummarize := turns[:n]
	if len(toSummarize) == 0 {
		return "", nil
	}

	summary, err := m.complete(ctx, summaryInstruction(agentName, toSummarize))
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)

	if _, err := m.Append(ctx, userID, core.RoleSummary, summary); err != nil {
		return "", fmt.Errorf("write summary turn: %w", err)
	}

	ids := make([]string, len(toSummarize))
	for i, t := range toSummarize {
		ids[i] = t.ID
	}
	if err := m.store.DeleteByIDs(ctx, userID, ids); err != nil {
		return "", fmt.Errorf("%w: delete summarized turns: %v", core.ErrStoreUnavailable, err)
	}

	log.Printf("[MEMORY] Summarized %d turns for user %s", len(toSummarize), userID)
	return summary, nil
}

// summaryInstruction builds the single system message handed to the model:
// the agent identity, note-taking instructions and the role-labeled
// transcript of the window being folded.
func summaryInstruction(agentName string, turns []core.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"You are %s, an advanced assistant. Summarize the following conversation "+
			"so that you remember the important facts, topics, preferences, and any emotional tone. "+
			"Summarize for yourself, as notes to help future responses. Be concise.\n\n",
		agentName)
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", titleRole(t.Role), t.Content)
	}
	return b.String()
}

// complete runs one non-streaming completion and returns the final text.
func (m *Manager) complete(ctx context.Context, instruction string) (string, error) {
	respCh, errCh := m.model.Generate(ctx, model.Request{
		Messages:    []core.Message{{Role: "system", Content: instruction}},
		Temperature: m.config.SummaryTemperature,
		MaxTokens:   m.config.SummaryMaxTokens,
	})

	text := ""
	for resp := range respCh {
		if !resp.Partial {
			text = resp.Text
		}
	}
	if err := <-errCh; err != nil {
		return "", err
	}
	return text, nil
}

// listSorted fetches all turns for a user sorted ascending by the id's
// trailing timestamp. The sort is stable so turns with equal (or sentinel)
// timestamps keep their stored order.
func (m *Manager) listSorted(ctx context.Context, userID string) ([]core.Turn, error) {
	turns, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	sort.SliceStable(turns, func(i, j int) bool {
		return parseTurnTimestamp(turns[i].ID) < parseTurnTimestamp(turns[j].ID)
	})
	return turns, nil
}

// parseTurnTimestamp extracts the trailing timestamp component of a turn id.
// Malformed ids sort to the front with a sentinel of 0 rather than failing
// the whole retrieval.
func parseTurnTimestamp(id string) float64 {
	idx := strings.LastIndex(id, "_")
	if idx < 0 || idx == len(id)-1 {
		return 0
	}
	ts, err := strconv.ParseFloat(id[idx+1:], 64)
	if err != nil {
		return 0
	}
	return ts
}

// nextTurnID issues "<userID>_<unix seconds as float>", bumped by a
// microsecond when the clock has not advanced since the user's last turn.
func (m *Manager) nextTurnID(userID string) string {
	m.idMu.Lock()
	defer m.idMu.Unlock()

	ts := float64(time.Now().UnixMicro()) / 1e6
	if last, ok := m.lastTS[userID]; ok && ts <= last {
		ts = last + 1e-6
	}
	m.lastTS[userID] = ts
	return fmt.Sprintf("%s_%.6f", userID, ts)
}

func (m *Manager) userLock(userID string) *sync.Mutex {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()

	lock, ok := m.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.userLocks[userID] = lock
	}
	return lock
}

func titleRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
