// Package memory provides an in-memory implementation of the design document
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"origamicore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.DocumentStore = (*Store)(nil)

type (
	// Document aliases domain.Document.
	Document = domain.Document
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// DocumentView aliases domain.DocumentView providing read-only state.
	DocumentView = domain.DocumentView
)

// Snapshot is the serialisable content of a store.
type Snapshot struct {
	Documents []Document `json:"documents"`
}

type memoryState struct {
	documents map[uuid.UUID]Document
}

func newMemoryState() memoryState {
	return memoryState{documents: make(map[uuid.UUID]Document)}
}

// clone copies the document index. Designs are immutable snapshots and are
// shared.
func (s memoryState) clone() memoryState {
	return memoryState{documents: maps.Clone(s.documents)}
}

func (s memoryState) sorted() []Document {
	out := slices.Collect(maps.Values(s.documents))
	slices.SortFunc(out, func(a, b Document) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// Store provides an in-memory transactional store of design documents.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Documents: s.state.sorted()}
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	state := newMemoryState()
	for _, doc := range snapshot.Documents {
		if doc.Design == nil {
			doc.Design = domain.NewDesign()
		}
		state.documents[doc.ID] = doc
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc replaces the time provider.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

type transaction struct {
	state   memoryState
	before  map[uuid.UUID]*domain.Design
	touched []uuid.UUID
	now     time.Time
}

type documentView struct {
	state *memoryState
}

func (v documentView) ListDocuments() []Document { return v.state.sorted() }

func (v documentView) FindDocument(id uuid.UUID) (Document, bool) {
	doc, ok := v.state.documents[id]
	return doc, ok
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Every design created or replaced by fn is evaluated by the rules engine
// against the design it replaces.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state:  s.state.clone(),
		before: make(map[uuid.UUID]*domain.Design),
		now:    s.nowFn(),
	}
	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		for _, id := range tx.touched {
			doc, ok := tx.state.documents[id]
			if !ok {
				continue
			}
			before := tx.before[id]
			if before == doc.Design {
				continue
			}
			res, err := s.engine.Evaluate(ctx, domain.View(doc.Design), domain.Diff(before, doc.Design))
			if err != nil {
				return Result{}, err
			}
			result.Merge(res)
		}
		if result.HasBlocking() {
			return result, domain.RuleViolationError{Result: result}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(DocumentView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(documentView{state: &snapshot})
}

// GetDocument retrieves a document from committed state.
func (s *Store) GetDocument(id uuid.UUID) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.state.documents[id]
	return doc, ok
}

// ListDocuments returns every committed document ordered by name.
func (s *Store) ListDocuments() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.sorted()
}

func (tx *transaction) touch(id uuid.UUID, before *domain.Design) {
	if _, seen := tx.before[id]; seen {
		return
	}
	tx.before[id] = before
	tx.touched = append(tx.touched, id)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() DocumentView {
	return documentView{state: &tx.state}
}

func (tx *transaction) FindDocument(id uuid.UUID) (Document, bool) {
	doc, ok := tx.state.documents[id]
	return doc, ok
}

func (tx *transaction) CreateDocument(doc Document) (Document, error) {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if _, exists := tx.state.documents[doc.ID]; exists {
		return Document{}, fmt.Errorf("document %q already exists", doc.ID)
	}
	if doc.Design == nil {
		doc.Design = domain.NewDesign()
	}
	if doc.Name == "" {
		doc.Name = doc.Design.Name
	}
	doc.Revision = 1
	doc.CreatedAt = tx.now
	doc.UpdatedAt = tx.now
	tx.touch(doc.ID, nil)
	tx.state.documents[doc.ID] = doc
	return doc, nil
}

func (tx *transaction) UpdateDocument(id uuid.UUID, mutator func(*Document) error) (Document, error) {
	current, ok := tx.state.documents[id]
	if !ok {
		return Document{}, fmt.Errorf("document %q not found", id)
	}
	before := current.Design
	if err := mutator(&current); err != nil {
		return Document{}, err
	}
	if current.Design == nil {
		return Document{}, fmt.Errorf("document %q: design must not be nil", id)
	}
	current.ID = id
	current.Revision++
	current.UpdatedAt = tx.now
	tx.touch(id, before)
	tx.state.documents[id] = current
	return current, nil
}

func (tx *transaction) DeleteDocument(id uuid.UUID) error {
	if _, ok := tx.state.documents[id]; !ok {
		return fmt.Errorf("document %q not found", id)
	}
	delete(tx.state.documents, id)
	return nil
}
