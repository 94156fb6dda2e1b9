package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"sort"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

type txStub struct {
	calls int
	err   error
}

func (s *txStub) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return fn(nil)
}

type pageRepoStub struct {
	pages       map[int64]*models.SocialPage
	statuses    map[int64]string
	followers   map[int64]int
	upserted    []*models.SocialPage
	listErr     error
	statusCalls int
}

func newPageRepoStub(pages ...*models.SocialPage) *pageRepoStub {
	s := &pageRepoStub{pages: map[int64]*models.SocialPage{}, statuses: map[int64]string{}, followers: map[int64]int{}}
	for _, p := range pages {
		s.pages[p.ID] = p
	}
	return s
}

func (s *pageRepoStub) Upsert(ctx context.Context, tx *sql.Tx, page *models.SocialPage) (int64, error) {
	s.upserted = append(s.upserted, page)
	id := int64(len(s.pages) + 1)
	s.pages[id] = page
	return id, nil
}

func (s *pageRepoStub) GetByID(ctx context.Context, id int64) (*models.SocialPage, error) {
	return s.pages[id], nil
}

func (s *pageRepoStub) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialPage, error) {
	var out []*models.SocialPage
	for _, p := range s.sorted() {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *pageRepoStub) ListActive(ctx context.Context) ([]*models.SocialPage, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.sorted(), nil
}

func (s *pageRepoStub) sorted() []*models.SocialPage {
	out := make([]*models.SocialPage, 0, len(s.pages))
	for _, p := range s.pages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *pageRepoStub) CheckByUserID(ctx context.Context, pageID, userID int64) (bool, error) {
	p, ok := s.pages[pageID]
	return ok && p.UserID == userID, nil
}

func (s *pageRepoStub) UpdateTokenStatus(ctx context.Context, id int64, status string, checkedAt time.Time) error {
	s.statusCalls++
	s.statuses[id] = status
	return nil
}

func (s *pageRepoStub) UpdateFollowers(ctx context.Context, tx *sql.Tx, id int64, followers int) error {
	s.followers[id] = followers
	return nil
}

func (s *pageRepoStub) Remove(ctx context.Context, id, userID int64) error {
	delete(s.pages, id)
	return nil
}

type verifierStub struct {
	calls   []string
	results map[string]error
	panicOn string
}

func (s *verifierStub) Me(ctx context.Context, accessToken string) (*transfer.GraphMeResponse, error) {
	s.calls = append(s.calls, accessToken)
	if accessToken == s.panicOn {
		panic("unexpected payload")
	}
	if err := s.results[accessToken]; err != nil {
		return nil, err
	}
	return &transfer.GraphMeResponse{ID: "me"}, nil
}

type postRepoStub struct {
	created []*models.Post
	owned   map[int64]int64
}

func (s *postRepoStub) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	for _, p := range s.created {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (s *postRepoStub) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	s.created = append(s.created, post)
	return int64(len(s.created)), nil
}

func (s *postRepoStub) List(ctx context.Context, userID int64, status string) ([]*models.Post, error) {
	return s.created, nil
}

func (s *postRepoStub) UpdatePostStatus(ctx context.Context, tx *sql.Tx, status string, postID int64) error {
	return nil
}

func (s *postRepoStub) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	return s.owned[postID] == userID, nil
}

func (s *postRepoStub) Remove(ctx context.Context, id int64) error {
	return nil
}

type unitRepoStub struct {
	created   []*models.ScheduledPost
	byPost    map[int64][]*models.ScheduledPost
	deleteErr error
	deleted   []int64
}

func (s *unitRepoStub) Create(ctx context.Context, tx *sql.Tx, unit *models.ScheduledPost) (int64, error) {
	if unit.PostType == models.PostTypeBoth {
		return 0, errors.New("combined shape")
	}
	s.created = append(s.created, unit)
	return int64(len(s.created)), nil
}

func (s *unitRepoStub) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	return nil, nil
}

func (s *unitRepoStub) DueUnits(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (s *unitRepoStub) Claim(ctx context.Context, id int64, token string, now time.Time, ttl time.Duration) (bool, error) {
	return true, nil
}

func (s *unitRepoStub) RenewClaim(ctx context.Context, id int64, token string, now time.Time) (bool, error) {
	return true, nil
}

func (s *unitRepoStub) MarkPublished(ctx context.Context, id int64, token, externalID string, publishedAt time.Time) error {
	return nil
}

func (s *unitRepoStub) MarkError(ctx context.Context, id int64, token string, failure repository.UnitFailure) error {
	return nil
}

func (s *unitRepoStub) List(ctx context.Context, filter repository.UnitFilter) ([]*models.ScheduledPost, error) {
	return s.created, nil
}

func (s *unitRepoStub) ListByPostID(ctx context.Context, postID int64) ([]*models.ScheduledPost, error) {
	return s.byPost[postID], nil
}

func (s *unitRepoStub) DeletePending(ctx context.Context, id, userID int64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type mediaRepoStub struct {
	media   map[int64]*models.Media
	created []*models.Media
	err     error
}

func (s *mediaRepoStub) Create(ctx context.Context, tx *sql.Tx, m *models.Media) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.created = append(s.created, m)
	return int64(100 + len(s.created)), nil
}

func (s *mediaRepoStub) GetByID(ctx context.Context, id int64) (*models.Media, error) {
	return s.media[id], nil
}

func (s *mediaRepoStub) ListByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.Media, error) {
	var out []*models.Media
	// Deliberately unordered relative to ids.
	for i := len(ids) - 1; i >= 0; i-- {
		if m, ok := s.media[ids[i]]; ok && m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *mediaRepoStub) ListByUserID(ctx context.Context, userID int64) ([]*models.Media, error) {
	return nil, nil
}

func (s *mediaRepoStub) Remove(ctx context.Context, id, userID int64) error {
	delete(s.media, id)
	return nil
}

type postMediaRepoStub struct {
	created []*models.PostMedia
}

func (s *postMediaRepoStub) Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) error {
	s.created = append(s.created, pm)
	return nil
}

func (s *postMediaRepoStub) ListMediaByPostID(ctx context.Context, postID int64) ([]*models.Media, error) {
	return nil, nil
}

func (s *postMediaRepoStub) Update(ctx context.Context, pm *models.PostMedia) error {
	return nil
}

func (s *postMediaRepoStub) Remove(ctx context.Context, postID int64) error {
	return nil
}

type historyRepoStub struct {
	entries []*models.PostingHistory
}

func (s *historyRepoStub) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	s.entries = append(s.entries, ph)
	return int64(len(s.entries)), nil
}

func (s *historyRepoStub) ListByPostID(ctx context.Context, postID int64) ([]*models.PostingHistory, error) {
	var out []*models.PostingHistory
	for _, e := range s.entries {
		if e.PostID == postID {
			out = append(out, e)
		}
	}
	return out, nil
}

type analyticsRepoStub struct {
	post      *models.PostAnalytics
	snapshots []*models.PageAnalyticsSnapshot
}

func (s *analyticsRepoStub) UpsertPostAnalytics(ctx context.Context, a *models.PostAnalytics) error {
	s.post = a
	return nil
}

func (s *analyticsRepoStub) GetPostAnalytics(ctx context.Context, postID int64) (*models.PostAnalytics, error) {
	return s.post, nil
}

func (s *analyticsRepoStub) InsertPageSnapshot(ctx context.Context, tx *sql.Tx, snap *models.PageAnalyticsSnapshot) (int64, error) {
	s.snapshots = append(s.snapshots, snap)
	return int64(len(s.snapshots)), nil
}

// graphReaderStub answers GETs by path.
type graphReaderStub struct {
	responses map[string]func(params url.Values, out any) error
	paths     []string
}

func (s *graphReaderStub) Get(ctx context.Context, path, accessToken string, params url.Values, out any) error {
	s.paths = append(s.paths, path+"?"+params.Get("fields"))
	fn, ok := s.responses[path]
	if !ok {
		return errors.New("unexpected path " + path)
	}
	return fn(params, out)
}
