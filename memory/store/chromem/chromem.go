// Package chromem persists conversation turns in chromem-go, a pure Go
// embedded vector database. Each user gets their own collection for
// namespace isolation; embeddings are provided by the caller.
package chromem

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/Gh0stWires/T-800-server/core"
)

// Store wraps chromem-go behind the memory.Store interface.
type Store struct {
	db          *chromem.DB
	dimensions  int
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

// New creates a chromem-backed store. A non-empty path makes the database
// persistent on disk; an empty path keeps everything in memory. dimensions
// must match the embedder writing into this store.
func New(path string, dimensions int) (*Store, error) {
	var db *chromem.DB
	var err error
	if path != "" {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open persistent db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	return &Store{
		db:          db,
		dimensions:  dimensions,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// collection returns the per-user collection, creating it on first use.
func (s *Store) collection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[userID]
	s.mu.RUnlock()
	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock.
	if col, exists := s.collections[userID]; exists {
		return col, nil
	}

	name := fmt.Sprintf("user_%s", userID)
	col, err := s.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get or create collection: %w", err)
	}
	s.collections[userID] = col
	return col, nil
}

// Add persists a turn as a chromem document.
func (s *Store) Add(ctx context.Context, turn core.Turn) error {
	col, err := s.collection(turn.UserID)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:        turn.ID,
		Content:   turn.Content,
		Embedding: turn.Embedding,
		Metadata: map[string]string{
			"user_id": turn.UserID,
			"role":    turn.Role,
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// ListByUser returns all turns for a user. chromem has no list API, so a
// fixed probe vector with nResults equal to the collection size retrieves
// every document; similarity scores are ignored.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]core.Turn, error) {
	col, err := s.collection(userID)
	if err != nil {
		return nil, err
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}

	where := map[string]string{"user_id": userID}

	// chromem requires nResults <= collection size; a concurrent delete can
	// shrink the collection between Count and the query, so retry smaller.
	var results []chromem.Result
	for limit := count; limit >= 1; limit-- {
		results, err = col.QueryEmbedding(ctx, s.probeVector(), limit, where, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if limit == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	turns := make([]core.Turn, 0, len(results))
	for _, result := range results {
		turns = append(turns, core.Turn{
			ID:        result.ID,
			UserID:    result.Metadata["user_id"],
			Role:      result.Metadata["role"],
			Content:   result.Content,
			Embedding: result.Embedding,
		})
	}
	return turns, nil
}

// DeleteByIDs removes the given turns; unknown ids are a no-op.
func (s *Store) DeleteByIDs(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	col, err := s.collection(userID)
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("chromem delete: %w", err)
	}
	log.Printf("[CHROMEM] Deleted %d documents for user %s", len(ids), userID)
	return nil
}

// Close releases resources. chromem persists on write, nothing to flush.
func (s *Store) Close() error { return nil }

// probeVector is a unit vector used to list documents via similarity query.
func (s *Store) probeVector() []float32 {
	vec := make([]float32, s.dimensions)
	vec[0] = 1
	return vec
}

// isInsufficientDocsError checks if the error is chromem telling us the
// requested result count exceeds the collection size.
func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
