// Package export archives design document revisions to a blob store and
// brings them back.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"origamicore/internal/blob"
	"origamicore/pkg/domain"
)

const (
	keyPrefix   = "designs/"
	contentType = "application/json"
)

// ErrNoRevisions is returned when a document has never been archived.
var ErrNoRevisions = errors.New("export: no archived revisions")

// Revision describes one archived document revision.
type Revision struct {
	DocumentID uuid.UUID `json:"document_id"`
	Revision   int       `json:"revision"`
	Name       string    `json:"name,omitempty"`
	Key        string    `json:"key"`
	Size       int64     `json:"size_bytes"`
	ArchivedAt time.Time `json:"archived_at"`
}

// Restorer writes a document back under its own id.
type Restorer interface {
	RestoreDocument(ctx context.Context, doc domain.Document) (domain.Document, domain.Result, error)
}

// Archiver stores each document revision as an immutable JSON blob under
// designs/<document id>/<revision>.json.
type Archiver struct {
	store  blob.Store
	logger *slog.Logger
}

// Option customises an Archiver.
type Option func(*Archiver)

// WithLogger sets the logger; nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(a *Archiver) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewArchiver returns an archiver writing to store.
func NewArchiver(store blob.Store, opts ...Option) *Archiver {
	a := &Archiver{store: store, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the blob key of a revision.
func Key(id uuid.UUID, revision int) string {
	return fmt.Sprintf("%s%s/%d.json", keyPrefix, id, revision)
}

// parseKey is the inverse of Key.
func parseKey(key string) (uuid.UUID, int, bool) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return uuid.Nil, 0, false
	}
	idPart, file, ok := strings.Cut(rest, "/")
	if !ok {
		return uuid.Nil, 0, false
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, 0, false
	}
	rev, err := strconv.Atoi(strings.TrimSuffix(file, ".json"))
	if err != nil || !strings.HasSuffix(file, ".json") || rev < 1 {
		return uuid.Nil, 0, false
	}
	return id, rev, true
}

// Archive writes doc. Revisions are immutable, so archiving a revision that
// is already stored returns the stored entry.
func (a *Archiver) Archive(ctx context.Context, doc domain.Document) (Revision, error) {
	if doc.ID == uuid.Nil || doc.Revision < 1 || doc.Design == nil {
		return Revision{}, fmt.Errorf("archive: document needs an id, a revision and a design")
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return Revision{}, fmt.Errorf("archive %s: %w", doc.ID, err)
	}
	key := Key(doc.ID, doc.Revision)
	info, err := a.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"document": doc.ID.String(),
			"revision": strconv.Itoa(doc.Revision),
			"name":     doc.Name,
		},
	})
	if errors.Is(err, blob.ErrExists) {
		a.logger.Debug("revision already archived", "document", doc.ID, "revision", doc.Revision)
		info, err = a.store.Head(ctx, key)
	}
	if err != nil {
		return Revision{}, fmt.Errorf("archive %s: %w", key, err)
	}
	a.logger.Info("archived design", "document", doc.ID, "revision", doc.Revision, "key", key, "bytes", info.Size)
	return revisionOf(info, doc.ID, doc.Revision), nil
}

func revisionOf(info blob.Info, id uuid.UUID, rev int) Revision {
	return Revision{
		DocumentID: id,
		Revision:   rev,
		Name:       info.Metadata["name"],
		Key:        info.Key,
		Size:       info.Size,
		ArchivedAt: info.LastModified,
	}
}

// Revisions lists the archived revisions of a document, oldest first.
func (a *Archiver) Revisions(ctx context.Context, id uuid.UUID) ([]Revision, error) {
	return a.list(ctx, keyPrefix+id.String()+"/")
}

// All lists every archived revision grouped by document, oldest first.
func (a *Archiver) All(ctx context.Context) ([]Revision, error) {
	return a.list(ctx, keyPrefix)
}

func (a *Archiver) list(ctx context.Context, prefix string) ([]Revision, error) {
	infos, err := a.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list archive %s: %w", prefix, err)
	}
	out := make([]Revision, 0, len(infos))
	for _, info := range infos {
		id, rev, ok := parseKey(info.Key)
		if !ok {
			a.logger.Warn("skipping foreign archive key", "key", info.Key)
			continue
		}
		out = append(out, revisionOf(info, id, rev))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID.String() < out[j].DocumentID.String()
		}
		return out[i].Revision < out[j].Revision
	})
	return out, nil
}

// Load reads an archived revision. A revision of zero means the latest.
func (a *Archiver) Load(ctx context.Context, id uuid.UUID, revision int) (domain.Document, error) {
	if revision == 0 {
		revs, err := a.Revisions(ctx, id)
		if err != nil {
			return domain.Document{}, err
		}
		if len(revs) == 0 {
			return domain.Document{}, fmt.Errorf("%w for %s", ErrNoRevisions, id)
		}
		revision = revs[len(revs)-1].Revision
	}
	key := Key(id, revision)
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return domain.Document{}, fmt.Errorf("load %s: %w", key, err)
	}
	defer rc.Close()
	doc := domain.Document{Design: domain.NewDesign()}
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return domain.Document{}, fmt.Errorf("decode %s: %w", key, err)
	}
	if doc.ID != id || doc.Revision != revision {
		return domain.Document{}, fmt.Errorf("archive %s holds document %s revision %d", key, doc.ID, doc.Revision)
	}
	return doc, nil
}

// Restore loads a revision and writes it back through r.
func (a *Archiver) Restore(ctx context.Context, r Restorer, id uuid.UUID, revision int) (domain.Document, error) {
	doc, err := a.Load(ctx, id, revision)
	if err != nil {
		return domain.Document{}, err
	}
	restored, _, err := r.RestoreDocument(ctx, doc)
	if err != nil {
		return domain.Document{}, fmt.Errorf("restore %s revision %d: %w", id, doc.Revision, err)
	}
	a.logger.Info("restored design", "document", id, "from_revision", doc.Revision, "revision", restored.Revision)
	return restored, nil
}

// URL returns a time-limited download URL for a revision. Backends without
// URLs fail with blob.ErrUnsupported.
func (a *Archiver) URL(ctx context.Context, id uuid.UUID, revision int, expiry time.Duration) (string, error) {
	return a.store.PresignURL(ctx, Key(id, revision), blob.SignedURLOptions{Expiry: expiry})
}
