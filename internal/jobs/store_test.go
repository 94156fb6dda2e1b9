package job

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
)

// memStore keeps posts, pages, media and units in memory with the same transition rules
// as the Postgres repositories.
type memStore struct {
	mu        sync.Mutex
	posts     map[int64]*models.Post
	pages     map[int64]*models.SocialPage
	media     map[int64][]*models.Media
	units     map[int64]*models.ScheduledPost
	dueCalls  int
	published []publishedCall
}

type publishedCall struct {
	UnitID     int64
	ExternalID string
}

func newMemStore() *memStore {
	return &memStore{
		posts: map[int64]*models.Post{},
		pages: map[int64]*models.SocialPage{},
		media: map[int64][]*models.Media{},
		units: map[int64]*models.ScheduledPost{},
	}
}

func (s *memStore) addPost(p *models.Post, media ...*models.Media) {
	s.posts[p.ID] = p
	s.media[p.ID] = media
}

func (s *memStore) addPage(p *models.SocialPage) { s.pages[p.ID] = p }

func (s *memStore) addUnit(u *models.ScheduledPost) { s.units[u.ID] = u }

func (s *memStore) unit(id int64) models.ScheduledPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.units[id]
}

func (s *memStore) postStatus(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posts[id].Status
}

// units

func (s *memStore) Create(ctx context.Context, tx *sql.Tx, unit *models.ScheduledPost) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unit.ID = int64(len(s.units) + 1)
	s.units[unit.ID] = unit
	return unit.ID, nil
}

func (s *memStore) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (s *memStore) DueUnits(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dueCalls++

	var out []*models.ScheduledPost
	for _, u := range s.units {
		if !u.IsPending() || u.ScheduledAt.After(now) {
			continue
		}
		if u.NextAttemptAt != nil && u.NextAttemptAt.After(now) {
			continue
		}
		c := *u
		c.Progress = append([]string(nil), u.Progress...)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) Claim(ctx context.Context, id int64, token string, now time.Time, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[id]
	if !ok || u.PublishedAt != nil || u.FailedAt != nil {
		return false, nil
	}
	if u.ClaimedAt != nil && !u.ClaimedAt.Before(now.Add(-ttl)) {
		return false, nil
	}
	u.ClaimedAt = &now
	u.ClaimToken = token
	return true, nil
}

func (s *memStore) RenewClaim(ctx context.Context, id int64, token string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[id]
	if !ok || u.PublishedAt != nil || u.ClaimToken != token {
		return false, nil
	}
	u.ClaimedAt = &now
	return true, nil
}

// holds reports whether token owns the unit's claim. Callers hold s.mu.
func (s *memStore) holds(id int64, token string) (*models.ScheduledPost, bool) {
	u, ok := s.units[id]
	if !ok || u.PublishedAt != nil || u.ClaimToken != token {
		return nil, false
	}
	return u, true
}

func (s *memStore) MarkPublished(ctx context.Context, id int64, token, externalID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.holds(id, token)
	if !ok {
		return repository.ErrClaimLost
	}
	u.PublishedAt = &publishedAt
	u.ExternalPostID = externalID
	u.ClaimedAt = nil
	u.ClaimToken = ""
	if p, ok := s.posts[u.PostID]; ok {
		p.Status = models.PostStatusPublished
	}
	s.published = append(s.published, publishedCall{UnitID: id, ExternalID: externalID})
	return nil
}

func (s *memStore) MarkError(ctx context.Context, id int64, token string, failure repository.UnitFailure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.holds(id, token)
	if !ok {
		return repository.ErrClaimLost
	}
	u.Error = failure.Message
	u.Attempts++
	u.NextAttemptAt = failure.NextAttemptAt
	u.Progress = append([]string(nil), failure.Progress...)
	u.ClaimedAt = nil
	u.ClaimToken = ""
	if failure.Permanent {
		at := failure.At
		u.FailedAt = &at
		if p, ok := s.posts[u.PostID]; ok {
			p.Status = models.PostStatusFailed
		}
	}
	return nil
}

func (s *memStore) List(ctx context.Context, filter repository.UnitFilter) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (s *memStore) ListByPostID(ctx context.Context, postID int64) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (s *memStore) DeletePending(ctx context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.units, id)
	return nil
}

// posts, pages and media are read through small views over the same store.

type memPosts struct{ s *memStore }

func (r memPosts) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r memPosts) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	return 0, nil
}

func (r memPosts) List(ctx context.Context, userID int64, status string) ([]*models.Post, error) {
	return nil, nil
}

func (r memPosts) UpdatePostStatus(ctx context.Context, tx *sql.Tx, status string, postID int64) error {
	return nil
}

func (r memPosts) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	return true, nil
}

func (r memPosts) Remove(ctx context.Context, id int64) error { return nil }

type memPages struct{ s *memStore }

func (r memPages) Upsert(ctx context.Context, tx *sql.Tx, page *models.SocialPage) (int64, error) {
	return 0, nil
}

func (r memPages) GetByID(ctx context.Context, id int64) (*models.SocialPage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.pages[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r memPages) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialPage, error) {
	return nil, nil
}

func (r memPages) ListActive(ctx context.Context) ([]*models.SocialPage, error) { return nil, nil }

func (r memPages) CheckByUserID(ctx context.Context, pageID, userID int64) (bool, error) {
	return true, nil
}

func (r memPages) UpdateTokenStatus(ctx context.Context, id int64, status string, checkedAt time.Time) error {
	return nil
}

func (r memPages) UpdateFollowers(ctx context.Context, tx *sql.Tx, id int64, followers int) error {
	return nil
}

func (r memPages) Remove(ctx context.Context, id, userID int64) error { return nil }

type memPostMedia struct{ s *memStore }

func (r memPostMedia) Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) error { return nil }

func (r memPostMedia) ListMediaByPostID(ctx context.Context, postID int64) ([]*models.Media, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.media[postID], nil
}

func (r memPostMedia) Update(ctx context.Context, pm *models.PostMedia) error { return nil }

func (r memPostMedia) Remove(ctx context.Context, postID int64) error { return nil }

type plainTokens struct{}

func (plainTokens) Resolve(stored string) string { return stored }

type memHistory struct {
	mu      sync.Mutex
	entries []*models.PostingHistory
}

func (h *memHistory) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, ph)
	return int64(len(h.entries)), nil
}

func (h *memHistory) ListByPostID(ctx context.Context, postID int64) ([]*models.PostingHistory, error) {
	return h.entries, nil
}
