// Package poststore is the single source of truth for post records.
//
// Every mutation is write-through: the candidate collection is saved to the
// repository first and the in-memory index and scheduler queue are only
// updated once the save succeeded, so a failed write leaves no trace.
// MarkPublished is the exception: the post is already live, so memory
// records it as published and Flush retries the save.
package poststore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/viralink-scheduler/internal/domain"
	"github.com/orgball2608/viralink-scheduler/internal/publisher"
	"github.com/orgball2608/viralink-scheduler/internal/queue"
	"github.com/orgball2608/viralink-scheduler/internal/repositories/post"
	apperrors "github.com/orgball2608/viralink-scheduler/pkg/errors"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Repo      post.Repository
	Queue     *queue.Queue
	Publisher publisher.Client
	Clock     clockwork.Clock
	Logger    logger.Logger
	Validate  *validator.Validate
}

type Store struct {
	// mu serialises every read and write, including the direct publish
	// attempt of a post moved straight to published.
	mu    sync.Mutex
	posts map[string]domain.Post

	// inflight holds the ids taken by the sweeper and not yet settled.
	// Updates never put them back in the queue.
	inflight map[string]struct{}
	// unsaved is set when memory is ahead of the repository.
	unsaved bool

	repo      post.Repository
	queue     *queue.Queue
	publisher publisher.Client
	clock     clockwork.Clock
	logger    logger.Logger
	validate  *validator.Validate
	newID     func() (string, error)
}

func New(opts Opts) *Store {
	return &Store{
		posts:     make(map[string]domain.Post),
		inflight:  make(map[string]struct{}),
		repo:      opts.Repo,
		queue:     opts.Queue,
		publisher: opts.Publisher,
		clock:     opts.Clock,
		logger:    opts.Logger.WithComponent("PostStore"),
		validate:  opts.Validate,
		newID:     newUUIDv7,
	}
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Load replaces the in-memory state with the persisted collection and
// rebuilds the queue from it.
func (s *Store) Load(ctx context.Context) error {
	posts, err := s.repo.Load(ctx)
	if err != nil {
		return apperrors.Persistence(err, "load posts")
	}

	index := make(map[string]domain.Post, len(posts))
	entries := make([]domain.QueueEntry, 0)
	for _, p := range posts {
		if _, dup := index[p.ID]; dup {
			s.logger.Warn("Duplicate post id in collection, keeping the last record", "postID", p.ID)
		}
		index[p.ID] = p
	}
	for _, p := range index {
		if p.Status == domain.StatusScheduled && p.PublishAt == nil {
			s.logger.Warn("Scheduled post without publishAt, not queued", "postID", p.ID)
			continue
		}
		if p.Queued() {
			entries = append(entries, domain.QueueEntry{PostID: p.ID, PublishAt: *p.PublishAt})
		}
	}

	s.mu.Lock()
	s.posts = index
	s.inflight = make(map[string]struct{})
	s.unsaved = false
	s.queue.Rebuild(entries)
	s.mu.Unlock()

	s.logger.Info("Posts loaded", "posts", len(index), "queued", len(entries))
	return nil
}

func (s *Store) Get(_ context.Context, id string) (domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return domain.Post{}, apperrors.NotFound(id)
	}
	return p.Clone(), nil
}

// List returns every post, most recently created first.
func (s *Store) List(_ context.Context) []domain.Post {
	s.mu.Lock()
	out := make([]domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p.Clone())
	}
	s.mu.Unlock()

	sortNewestFirst(out)
	return out
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return apperrors.NotFound(id)
	}
	if err := s.commit(ctx, nil, id); err != nil {
		return err
	}

	s.logger.Info("Post deleted", "postID", id)
	return nil
}

// QueueEntries is a snapshot of the scheduler queue in dequeue order.
func (s *Store) QueueEntries() []domain.QueueEntry {
	return s.queue.Entries()
}

// TakeDue removes the entries due at now from the queue and holds their
// posts in flight until MarkPublished, RecordPublishFailure or Release
// settles them.
func (s *Store) TakeDue(now time.Time) []domain.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := s.queue.DequeueDue(now)
	for _, e := range due {
		s.inflight[e.PostID] = struct{}{}
	}
	return due
}

// Release ends the hold on a post the sweeper skipped. A post that is
// still waiting for publication goes back in the queue.
func (s *Store) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inflight, id)
	if p, ok := s.posts[id]; ok && p.Queued() {
		s.queue.Enqueue(p.ID, *p.PublishAt)
	}
}

// Flush saves the collection when an earlier save left memory ahead of
// the repository.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.unsaved {
		return nil
	}
	if err := s.commit(ctx, nil, ""); err != nil {
		return err
	}
	s.logger.Info("Unsaved posts flushed")
	return nil
}

// commit persists the collection with changed upserted and removed dropped,
// then applies the same change to the index and the queue.
// Callers must hold s.mu.
func (s *Store) commit(ctx context.Context, changed *domain.Post, removed string) error {
	candidate := make([]domain.Post, 0, len(s.posts)+1)
	for id, p := range s.posts {
		if id == removed || (changed != nil && id == changed.ID) {
			continue
		}
		candidate = append(candidate, p)
	}
	if changed != nil {
		candidate = append(candidate, *changed)
	}
	sortNewestFirst(candidate)

	if err := s.repo.Save(ctx, candidate); err != nil {
		s.logger.Error("Failed to persist posts", "error", err)
		return apperrors.Persistence(err, "save posts")
	}
	s.unsaved = false

	if removed != "" {
		delete(s.posts, removed)
		delete(s.inflight, removed)
		s.queue.Remove(removed)
	}
	if changed != nil {
		s.posts[changed.ID] = *changed
		if changed.Queued() {
			if _, held := s.inflight[changed.ID]; !held {
				s.queue.Enqueue(changed.ID, *changed.PublishAt)
			}
		} else {
			s.queue.Remove(changed.ID)
		}
	}
	return nil
}

func sortNewestFirst(posts []domain.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
}
