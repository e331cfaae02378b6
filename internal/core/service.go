package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"origamicore/internal/infra/persistence/memory"
	"origamicore/pkg/domain"
)

// Service exposes transactional operations on stored design documents.
// Edits go through a Controller so every operation follows the same rules as
// an interactive session.
type Service struct {
	store   DocumentStore
	engine  *RulesEngine
	now     func() time.Time
	clock   Clock
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
}

// NewService constructs a service backed by the supplied store.
func NewService(store DocumentStore, opts ...ServiceOption) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		store:   store,
		engine:  extractRulesEngine(store),
		now:     selectNowFunc(store, options.clock),
		clock:   options.clock,
		logger:  options.logger,
		audit:   options.audit,
		metrics: options.metrics,
		tracer:  options.tracer,
	}
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() DocumentStore {
	return s.store
}

// ErrNotFound is returned when an operation names a missing document.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func documentNotFound(id uuid.UUID) ErrNotFound {
	return ErrNotFound{Entity: domain.EntityDocument, ID: id.String()}
}

// CreateDocument stores design under name. A nil design starts empty.
func (s *Service) CreateDocument(ctx context.Context, name string, design *Design) (Document, Result, error) {
	var created Document
	var res Result
	err := s.run(ctx, "create_document", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateDocument(Document{Name: name, Design: design})
			return err
		})
		return created.ID.String(), err
	})
	return created, res, err
}

// GetDocument returns the committed document with id.
func (s *Service) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	var doc Document
	err := s.run(ctx, "get_document", func(context.Context) (string, error) {
		var ok bool
		doc, ok = s.store.GetDocument(id)
		if !ok {
			return id.String(), documentNotFound(id)
		}
		return id.String(), nil
	})
	return doc, err
}

// ListDocuments returns every committed document.
func (s *Service) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := s.run(ctx, "list_documents", func(ctx context.Context) (string, error) {
		return "", s.store.View(ctx, func(v DocumentView) error {
			docs = v.ListDocuments()
			return nil
		})
	})
	return docs, err
}

// RenameDocument changes the name of a document and of its design.
func (s *Service) RenameDocument(ctx context.Context, id uuid.UUID, name string) (Document, Result, error) {
	return s.update(ctx, "rename_document", id, func(doc *Document) error {
		if name == "" {
			return fmt.Errorf("document name must not be empty")
		}
		d := doc.Design.Clone()
		d.Name = name
		doc.Name = name
		doc.Design = d
		return nil
	})
}

// DeleteDocument removes a document.
func (s *Service) DeleteDocument(ctx context.Context, id uuid.UUID) (Result, error) {
	var res Result
	err := s.run(ctx, "delete_document", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindDocument(id); !ok {
				return documentNotFound(id)
			}
			return tx.DeleteDocument(id)
		})
		return id.String(), err
	})
	return res, err
}

// ApplyOperations runs ops in order on the document's design and commits the
// result as one revision. The batch is atomic: the first failing operation
// aborts it and the stored document is unchanged.
func (s *Service) ApplyOperations(ctx context.Context, id uuid.UUID, ops []Operation) (Document, Result, error) {
	return s.update(ctx, "apply_operations", id, func(doc *Document) error {
		ctrl := NewController(doc.Design,
			WithControllerRules(s.engine),
			WithControllerLogger(s.logger),
			WithColorIndex(doc.Design.Strands.Len()),
		)
		counter, _ := s.metrics.(OperationCounter)
		for i, op := range ops {
			err := ctrl.Apply(ctx, op)
			if counter != nil {
				counter.CountOperation(op.Kind(), err == nil)
			}
			if err != nil {
				return OperationError{Index: i, Err: err}
			}
		}
		if _, building := ctrl.State().(StateBuildingStrand); building {
			if err := ctrl.Apply(ctx, FinishBuilders{}); err != nil {
				return err
			}
		}
		doc.Design = ctrl.Design()
		return nil
	})
}

// ImportDesign decodes a JSON design document and stores it. An empty name
// keeps the name carried by the document.
func (s *Service) ImportDesign(ctx context.Context, name string, data []byte) (Document, Result, error) {
	design := domain.NewDesign()
	if err := json.Unmarshal(data, design); err != nil {
		return Document{}, Result{}, fmt.Errorf("import design: %w", err)
	}
	if name == "" {
		name = design.Name
	}
	return s.CreateDocument(ctx, name, design)
}

// RestoreDocument writes doc back under its own id, creating it when the
// store no longer has it. Used when restoring archived revisions.
func (s *Service) RestoreDocument(ctx context.Context, doc Document) (Document, Result, error) {
	var restored Document
	var res Result
	err := s.run(ctx, "restore_document", func(ctx context.Context) (string, error) {
		if doc.Design == nil {
			return doc.ID.String(), fmt.Errorf("restore %s: missing design", doc.ID)
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			if _, ok := tx.FindDocument(doc.ID); ok {
				restored, err = tx.UpdateDocument(doc.ID, func(current *Document) error {
					current.Name = doc.Name
					current.Design = doc.Design
					return nil
				})
				return err
			}
			restored, err = tx.CreateDocument(Document{ID: doc.ID, Name: doc.Name, Design: doc.Design})
			return err
		})
		return doc.ID.String(), err
	})
	return restored, res, err
}

func (s *Service) update(ctx context.Context, op string, id uuid.UUID, mutator func(*Document) error) (Document, Result, error) {
	var updated Document
	var res Result
	err := s.run(ctx, op, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindDocument(id); !ok {
				return documentNotFound(id)
			}
			var err error
			updated, err = tx.UpdateDocument(id, mutator)
			return err
		})
		return id.String(), err
	})
	return updated, res, err
}

// run wraps fn with tracing, metrics, audit and logging. fn returns the id of
// the document it acted on.
func (s *Service) run(ctx context.Context, op string, fn func(context.Context) (string, error)) error {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, op)
	entityID, err := fn(ctx)
	dur := s.now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, dur)
	if err != nil {
		if requestError(err) {
			s.logger.Debug("core operation rejected", "operation", op, "id", entityID, "error", err)
		} else {
			s.logger.Error("core operation failed", "operation", op, "id", entityID, "error", err)
		}
		s.recordAudit(ctx, op, entityID, AuditStatusError, err, dur)
		return err
	}
	s.logger.Debug("core operation completed", "operation", op, "id", entityID, "duration", dur)
	s.recordAuditSuccess(ctx, op, entityID, dur)
	return nil
}

// requestError reports whether err comes from the request itself. Those go
// back to the caller and are not logged as failures.
func requestError(err error) bool {
	var notFound ErrNotFound
	var rejected OperationError
	return errors.As(err, &notFound) || errors.As(err, &rejected)
}

type operationMetadata struct {
	entity EntityType
	action Action
}

var auditedOperations = map[string]operationMetadata{
	"create_document":  {entity: domain.EntityDocument, action: ActionCreate},
	"rename_document":  {entity: domain.EntityDocument, action: ActionUpdate},
	"apply_operations": {entity: domain.EntityDocument, action: ActionUpdate},
	"restore_document": {entity: domain.EntityDocument, action: ActionUpdate},
	"delete_document":  {entity: domain.EntityDocument, action: ActionDelete},
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityID string, dur time.Duration) {
	s.recordAudit(ctx, op, entityID, AuditStatusSuccess, nil, dur)
}

// recordAudit ignores read operations.
func (s *Service) recordAudit(ctx context.Context, op, entityID string, status AuditStatus, err error, dur time.Duration) {
	meta, ok := auditedOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    status,
		Duration:  dur,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

func extractRulesEngine(store DocumentStore) *RulesEngine {
	if provider, ok := store.(interface{ RulesEngine() *RulesEngine }); ok {
		return provider.RulesEngine()
	}
	return nil
}

func selectNowFunc(store DocumentStore, clock Clock) func() time.Time {
	if provider, ok := store.(interface{ NowFunc() func() time.Time }); ok {
		if fn := provider.NowFunc(); fn != nil {
			return func() time.Time { return fn().UTC() }
		}
	}
	if clock != nil {
		return clock.Now
	}
	return func() time.Time { return time.Now().UTC() }
}
