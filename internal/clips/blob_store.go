package clips

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/clipdeck-backend/pkg/blobstore"
	"github.com/angelmondragon/clipdeck-backend/pkg/db/models"
	"github.com/angelmondragon/clipdeck-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/clipdeck-backend/pkg/errors"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
)

// maxWriteAttempts bounds how many times a contended write is retried before
// the caller gets a conflict back.
const maxWriteAttempts = 3

type documentAPI interface {
	Get(ctx context.Context, path string) (*blobstore.Document, error)
	Put(ctx context.Context, path string, content []byte, sha string) (string, error)
}

type blobDocument struct {
	Clips []models.Clip `json:"clips"`
}

// BlobStore keeps the whole clip collection in one versioned JSON document.
// A mutex serializes access within the process; the document sha guards
// against writers in other processes. On a sha mismatch the cache is dropped,
// the document re-read and the mutation replayed on fresh state.
type BlobStore struct {
	api  documentAPI
	path string
	logg *logger.Logger

	mu     sync.Mutex
	cache  []models.Clip
	sha    string
	loaded bool
}

// NewBlobStore wires the document-backed clip store.
func NewBlobStore(api documentAPI, path string, logg *logger.Logger) *BlobStore {
	return &BlobStore{api: api, path: path, logg: logg}
}

var _ Store = (*BlobStore)(nil)

// loadLocked fills the cache from the remote document. The caller must hold
// the mutex. A missing document is seeded with an empty collection so first
// use never fails.
func (s *BlobStore) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	doc, err := s.api.Get(ctx, s.path)
	if errors.Is(err, blobstore.ErrNotFound) {
		if err = s.seedLocked(ctx); err != nil {
			return err
		}
		doc, err = s.api.Get(ctx, s.path)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading clip document")
	}

	var document blobDocument
	if err := json.Unmarshal(doc.Content, &document.Clips); err != nil {
		// older documents are a bare array; current ones carry the wrapper
		if err := json.Unmarshal(doc.Content, &document); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding clip document")
		}
	}

	s.cache = document.Clips
	s.sha = doc.SHA
	s.loaded = true
	return nil
}

func (s *BlobStore) seedLocked(ctx context.Context) error {
	content, err := json.Marshal(blobDocument{Clips: []models.Clip{}})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding seed document")
	}

	s.logg.Info(ctx, "clip document missing, seeding empty collection")
	if _, err := s.api.Put(ctx, s.path, content, ""); err != nil &&
		!errors.Is(err, blobstore.ErrPreconditionFailed) {
		// precondition failure here means another instance seeded first
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seeding clip document")
	}
	return nil
}

func (s *BlobStore) invalidateLocked() {
	s.cache = nil
	s.sha = ""
	s.loaded = false
}

// mutate applies fn to a copy of the collection and commits the result with
// the last-read sha. Contended writes reload and replay up to
// maxWriteAttempts times; domain errors from fn are returned as-is without
// retrying.
func (s *BlobStore) mutate(ctx context.Context, fn func(collection []models.Clip) ([]models.Clip, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		if err := s.loadLocked(ctx); err != nil {
			return err
		}

		next, err := fn(cloneCollection(s.cache))
		if err != nil {
			return err
		}

		content, err := json.MarshalIndent(blobDocument{Clips: next}, "", "  ")
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding clip document")
		}

		newSHA, err := s.api.Put(ctx, s.path, content, s.sha)
		if errors.Is(err, blobstore.ErrPreconditionFailed) {
			ctx := s.logg.WithFields(ctx, map[string]any{"attempt": attempt})
			s.logg.Warn(ctx, "clip document moved underneath write, reloading")
			s.invalidateLocked()
			continue
		}
		if err != nil {
			s.invalidateLocked()
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing clip document")
		}

		s.cache = next
		s.sha = newSHA
		return nil
	}

	return pkgerrors.New(pkgerrors.CodeConflict, "clip document is contended, retry the request")
}

// GetAll returns every clip, newest first, optionally scoped to an owner.
func (s *BlobStore) GetAll(ctx context.Context, owner string) ([]models.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}

	collection := make([]models.Clip, 0, len(s.cache))
	for i := range s.cache {
		if owner != "" && s.cache[i].Owner != owner {
			continue
		}
		collection = append(collection, cloneClip(s.cache[i]))
	}
	sortNewestFirst(collection)
	return collection, nil
}

// GetByStatus returns every clip in the given review status.
func (s *BlobStore) GetByStatus(ctx context.Context, status enums.ClipStatus) ([]models.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}

	collection := make([]models.Clip, 0)
	for i := range s.cache {
		if s.cache[i].Status == status {
			collection = append(collection, cloneClip(s.cache[i]))
		}
	}
	sortNewestFirst(collection)
	return collection, nil
}

// GetOne fetches a single clip by id.
func (s *BlobStore) GetOne(ctx context.Context, clipID string) (*models.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}

	for i := range s.cache {
		if s.cache[i].ClipID == clipID {
			clip := cloneClip(s.cache[i])
			return &clip, nil
		}
	}
	return nil, notFoundErr(clipID)
}

// Add appends a new clip to the document.
func (s *BlobStore) Add(ctx context.Context, clip *models.Clip) (*models.Clip, error) {
	now := time.Now().UTC()
	if clip.CreatedAt.IsZero() {
		clip.CreatedAt = now
	}
	clip.UpdatedAt = now

	err := s.mutate(ctx, func(collection []models.Clip) ([]models.Clip, error) {
		for i := range collection {
			if collection[i].ClipID == clip.ClipID {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "clip "+clip.ClipID+" already exists")
			}
		}
		return append(collection, cloneClip(*clip)), nil
	})
	if err != nil {
		return nil, err
	}
	return clip, nil
}

// Update applies the patch to the clip inside a single document commit.
func (s *BlobStore) Update(ctx context.Context, clipID string, patch ClipPatch) (*models.Clip, error) {
	var updated models.Clip
	err := s.mutate(ctx, func(collection []models.Clip) ([]models.Clip, error) {
		for i := range collection {
			if collection[i].ClipID == clipID {
				applyPatch(&collection[i], patch, time.Now().UTC())
				updated = cloneClip(collection[i])
				return collection, nil
			}
		}
		return nil, notFoundErr(clipID)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// BulkUpdate applies the patch to each id as its own document commit, so one
// contended or missing item never rolls back the others.
func (s *BlobStore) BulkUpdate(ctx context.Context, clipIDs []string, patch ClipPatch) []BulkItemResult {
	results := make([]BulkItemResult, 0, len(clipIDs))
	for _, clipID := range clipIDs {
		item := BulkItemResult{ClipID: clipID, Success: true}
		if _, err := s.Update(ctx, clipID, patch); err != nil {
			item.Success = false
			item.Error = pkgerrors.Message(err)
		}
		results = append(results, item)
	}
	return results
}

// Remove drops the clip from the document.
func (s *BlobStore) Remove(ctx context.Context, clipID string) error {
	return s.mutate(ctx, func(collection []models.Clip) ([]models.Clip, error) {
		for i := range collection {
			if collection[i].ClipID == clipID {
				return append(collection[:i], collection[i+1:]...), nil
			}
		}
		return nil, notFoundErr(clipID)
	})
}

// Stats derives the dashboard aggregates from the cached collection.
func (s *BlobStore) Stats(ctx context.Context, owner string) (*StatsDTO, error) {
	collection, err := s.GetAll(ctx, owner)
	if err != nil {
		return nil, err
	}
	stats := computeStats(collection, time.Now().UTC())
	return &stats, nil
}

// Categories returns the category breakdown for the cached collection.
func (s *BlobStore) Categories(ctx context.Context, owner string) ([]CategoryCount, error) {
	collection, err := s.GetAll(ctx, owner)
	if err != nil {
		return nil, err
	}
	return computeCategories(collection), nil
}

func cloneCollection(collection []models.Clip) []models.Clip {
	cloned := make([]models.Clip, len(collection))
	for i := range collection {
		cloned[i] = cloneClip(collection[i])
	}
	return cloned
}

func cloneClip(clip models.Clip) models.Clip {
	clip.ScheduledAt = cloneTimePtr(clip.ScheduledAt)
	clip.RejectionNote = cloneStringPtr(clip.RejectionNote)
	clip.PostBridgePostID = cloneStringPtr(clip.PostBridgePostID)
	clip.VizardProjectID = cloneStringPtr(clip.VizardProjectID)
	clip.TargetAccounts = append(clip.TargetAccounts[:0:0], clip.TargetAccounts...)
	return clip
}
