// Package queue holds scheduled posts ordered by their publish time.
//
// The queue is derived state: every entry can be rebuilt from the post store
// by scanning for scheduled posts, so it is never persisted on its own.
package queue

import (
	"container/heap"
	"sort"
	"sync"
	"time"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
)

const DefaultGranularity = time.Minute

type Option func(*Queue)

// WithGranularity sets the resolution used when comparing due times.
// Zero compares exact instants.
func WithGranularity(d time.Duration) Option {
	return func(q *Queue) {
		q.granularity = d
	}
}

type Queue struct {
	mu          sync.Mutex
	items       entryHeap
	index       map[string]*item
	granularity time.Duration
}

func New(opts ...Option) *Queue {
	q := &Queue{
		index:       make(map[string]*item),
		granularity: DefaultGranularity,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue adds an entry for postID or replaces the existing one.
func (q *Queue) Enqueue(postID string, publishAt time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if it, ok := q.index[postID]; ok {
		it.entry.PublishAt = publishAt
		heap.Fix(&q.items, it.pos)
		return
	}
	it := &item{entry: domain.QueueEntry{PostID: postID, PublishAt: publishAt}}
	heap.Push(&q.items, it)
	q.index[postID] = it
}

// DequeueDue removes and returns every entry due at now, earliest first.
func (q *Queue) DequeueDue(now time.Time) []domain.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.truncate(now)
	var due []domain.QueueEntry
	for q.items.Len() > 0 {
		top := q.items[0]
		if q.truncate(top.entry.PublishAt).After(cutoff) {
			break
		}
		heap.Pop(&q.items)
		delete(q.index, top.entry.PostID)
		due = append(due, top.entry)
	}
	return due
}

// Remove drops the entry for postID; absent ids are ignored.
func (q *Queue) Remove(postID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	it, ok := q.index[postID]
	if !ok {
		return
	}
	heap.Remove(&q.items, it.pos)
	delete(q.index, postID)
}

// Rebuild replaces the whole content of the queue.
func (q *Queue) Rebuild(entries []domain.QueueEntry) {
	items := make(entryHeap, 0, len(entries))
	index := make(map[string]*item, len(entries))
	for _, e := range entries {
		if it, ok := index[e.PostID]; ok {
			it.entry.PublishAt = e.PublishAt
			continue
		}
		it := &item{entry: e, pos: len(items)}
		items = append(items, it)
		index[e.PostID] = it
	}
	heap.Init(&items)

	q.mu.Lock()
	q.items = items
	q.index = index
	q.mu.Unlock()
}

func (q *Queue) Contains(postID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.index[postID]
	return ok
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Entries returns a snapshot in dequeue order.
func (q *Queue) Entries() []domain.QueueEntry {
	q.mu.Lock()
	out := make([]domain.QueueEntry, 0, len(q.items))
	for _, it := range q.items {
		out = append(out, it.entry)
	}
	q.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

func (q *Queue) truncate(t time.Time) time.Time {
	if q.granularity <= 0 {
		return t
	}
	return t.Truncate(q.granularity)
}

type item struct {
	entry domain.QueueEntry
	pos   int
}

func less(a, b domain.QueueEntry) bool {
	if !a.PublishAt.Equal(b.PublishAt) {
		return a.PublishAt.Before(b.PublishAt)
	}
	return a.PostID < b.PostID
}

type entryHeap []*item

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool { return less(h[i].entry, h[j].entry) }

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].pos = i
	h[j].pos = j
}

func (h *entryHeap) Push(x any) {
	it := x.(*item)
	it.pos = len(*h)
	*h = append(*h, it)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.pos = -1
	*h = old[:n-1]
	return it
}
