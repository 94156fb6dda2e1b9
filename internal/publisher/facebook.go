package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/maheshrc27/socialflow/internal/graph"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

const (
	phaseStart  = "start"
	phaseUpload = "upload"
	phaseFinish = "finish"
)

type facebookPublisher struct {
	client   *graph.Client
	cfg      Config
	composer StoryComposer
}

// NewFacebookPublisher builds the Facebook Page publisher. composer may be nil, in which
// case photo stories are published without a text overlay.
func NewFacebookPublisher(client *graph.Client, cfg Config, composer StoryComposer) Publisher {
	return &facebookPublisher{client: client, cfg: cfg, composer: composer}
}

func (p *facebookPublisher) Publish(ctx context.Context, req Request) (Result, error) {
	if req.Post == nil || req.Page == nil {
		return Result{}, errors.New("publish: post and page are required")
	}

	plan, err := Classify(req.Shape, req.Media)
	if err != nil {
		return Result{}, err
	}

	// Earlier attempts may have published a prefix of a story.
	completed := append([]string(nil), req.Progress...)
	if len(completed) > len(plan.Items) {
		completed = completed[:len(plan.Items)]
	}

	for i := len(completed); i < len(plan.Items); i++ {
		item := plan.Items[i]
		id, err := p.publishItem(ctx, req, item)
		if err != nil {
			slog.Error("publish failed",
				"page_id", req.Page.PageID,
				"post_id", req.Post.ID,
				"content", Kind(item),
				"item", i,
				"error", err,
			)
			if len(plan.Items) > 1 {
				return Result{Progress: completed}, &PartialError{Completed: completed, Err: err}
			}
			return Result{}, err
		}
		completed = append(completed, id)
		slog.Info("content published", "page_id", req.Page.PageID, "post_id", req.Post.ID, "content", Kind(item), "external_id", id)
	}

	return Result{ExternalID: strings.Join(completed, ","), Progress: completed}, nil
}

func (p *facebookPublisher) publishItem(ctx context.Context, req Request, item Content) (string, error) {
	pageID := req.Page.PageID
	token := req.AccessToken
	text := req.Post.Content

	switch c := item.(type) {
	case FeedText:
		return p.publishText(ctx, pageID, token, text)
	case FeedSinglePhoto:
		return p.publishPhoto(ctx, pageID, token, c.Photo.FeedURL(), text)
	case FeedCarousel:
		urls := make([]string, len(c.Photos))
		for i, m := range c.Photos {
			urls[i] = m.FeedURL()
		}
		return p.publishCarousel(ctx, pageID, token, urls, text)
	case FeedVideo:
		return p.publishVideo(ctx, pageID, token, TranscodeURL(c.Video.OriginalURL, p.cfg.TranscodeHosts), text)
	case PhotoStory:
		return p.publishPhotoStory(ctx, pageID, token, p.storyImageURL(ctx, c.Photo.StoryURL(), text))
	case VideoStory:
		return p.publishVideoStory(ctx, pageID, token, TranscodeURL(c.Video.OriginalURL, p.cfg.TranscodeHosts))
	case Reel:
		if c.Data != nil {
			return p.publishReelBuffer(ctx, pageID, token, c.Data, text)
		}
		return p.publishReel(ctx, pageID, token, TranscodeURL(c.Video.OriginalURL, p.cfg.TranscodeHosts), text)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownShape, item)
	}
}

func (p *facebookPublisher) storyImageURL(ctx context.Context, imageURL, text string) string {
	if p.composer == nil || strings.TrimSpace(text) == "" {
		return imageURL
	}
	composite, err := p.composer.StoryCompositeURL(ctx, imageURL, text)
	if err != nil {
		slog.Warn("story text composite failed, using original image", "url", imageURL, "error", err)
		return imageURL
	}
	return composite
}

func (p *facebookPublisher) publishText(ctx context.Context, pageID, token, message string) (string, error) {
	var resp transfer.GraphIDResponse
	err := p.client.Post(ctx, "/"+pageID+"/feed", token, url.Values{"message": {message}}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (p *facebookPublisher) publishPhoto(ctx context.Context, pageID, token, photoURL, message string) (string, error) {
	form := url.Values{"url": {photoURL}}
	if message != "" {
		form.Set("message", message)
	}

	var resp transfer.GraphIDResponse
	if err := p.client.Post(ctx, "/"+pageID+"/photos", token, form, &resp); err != nil {
		return "", err
	}
	if resp.PostID != "" {
		return resp.PostID, nil
	}
	return resp.ID, nil
}

// uploadUnpublishedPhoto returns a photo handle usable as attached media or story source.
func (p *facebookPublisher) uploadUnpublishedPhoto(ctx context.Context, pageID, token, photoURL string) (string, error) {
	var resp transfer.GraphIDResponse
	form := url.Values{"url": {photoURL}, "published": {"false"}}
	if err := p.client.Post(ctx, "/"+pageID+"/photos", token, form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errors.New("unpublished photo upload returned no id")
	}
	return resp.ID, nil
}

func (p *facebookPublisher) publishCarousel(ctx context.Context, pageID, token string, photoURLs []string, message string) (string, error) {
	form := url.Values{}
	if message != "" {
		form.Set("message", message)
	}

	for i, photoURL := range photoURLs {
		id, err := p.uploadUnpublishedPhoto(ctx, pageID, token, photoURL)
		if err != nil {
			return "", fmt.Errorf("carousel photo %d: %w", i, err)
		}
		ref, _ := json.Marshal(map[string]string{"media_fbid": id})
		form.Set("attached_media["+strconv.Itoa(i)+"]", string(ref))
	}

	var resp transfer.GraphIDResponse
	if err := p.client.Post(ctx, "/"+pageID+"/feed", token, form, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (p *facebookPublisher) publishVideo(ctx context.Context, pageID, token, videoURL, description string) (string, error) {
	form := url.Values{"file_url": {videoURL}}
	if description != "" {
		form.Set("description", description)
	}

	var resp transfer.GraphIDResponse
	if err := p.client.Post(ctx, "/"+pageID+"/videos", token, form, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (p *facebookPublisher) publishPhotoStory(ctx context.Context, pageID, token, photoURL string) (string, error) {
	photoID, err := p.uploadUnpublishedPhoto(ctx, pageID, token, photoURL)
	if err != nil {
		return "", err
	}

	var resp transfer.GraphSuccessResponse
	if err := p.client.Post(ctx, "/"+pageID+"/photo_stories", token, url.Values{"photo_id": {photoID}}, &resp); err != nil {
		return "", err
	}
	if resp.PostID != "" {
		return resp.PostID, nil
	}
	return photoID, nil
}

func (p *facebookPublisher) publishVideoStory(ctx context.Context, pageID, token, videoURL string) (string, error) {
	endpoint := "/" + pageID + "/video_stories"

	session, err := p.startUpload(ctx, endpoint, token)
	if err != nil {
		return "", err
	}
	if err := p.uploadByURL(ctx, session, token, videoURL); err != nil {
		return "", err
	}

	var resp transfer.GraphSuccessResponse
	form := url.Values{"upload_phase": {phaseFinish}, "video_id": {session.VideoID}}
	if err := p.client.Post(ctx, endpoint, token, form, &resp); err != nil {
		return "", graph.WithPhase(phaseFinish, err)
	}
	if resp.PostID != "" {
		return resp.PostID, nil
	}
	return session.VideoID, nil
}

func (p *facebookPublisher) publishReel(ctx context.Context, pageID, token, videoURL, description string) (string, error) {
	endpoint := "/" + pageID + "/video_reels"

	session, err := p.startUpload(ctx, endpoint, token)
	if err != nil {
		return "", err
	}
	if err := p.uploadByURL(ctx, session, token, videoURL); err != nil {
		return "", err
	}
	return p.finishReel(ctx, endpoint, token, session.VideoID, description)
}

func (p *facebookPublisher) publishReelBuffer(ctx context.Context, pageID, token string, data []byte, description string) (string, error) {
	endpoint := "/" + pageID + "/video_reels"

	session, err := p.startUpload(ctx, endpoint, token)
	if err != nil {
		return "", err
	}

	headers := map[string]string{
		"offset":       "0",
		"file_size":    strconv.Itoa(len(data)),
		"Content-Type": "application/octet-stream",
	}
	var resp transfer.GraphSuccessResponse
	if err := p.client.Upload(ctx, p.sessionURL(session), token, headers, bytes.NewReader(data), &resp); err != nil {
		return "", graph.WithPhase(phaseUpload, err)
	}
	if !resp.Success {
		return "", softFailure(phaseUpload, "upload was not accepted")
	}
	return p.finishReel(ctx, endpoint, token, session.VideoID, description)
}

func (p *facebookPublisher) finishReel(ctx context.Context, endpoint, token, videoID, description string) (string, error) {
	form := url.Values{
		"upload_phase": {phaseFinish},
		"video_id":     {videoID},
		"video_state":  {"PUBLISHED"},
	}
	if description != "" {
		form.Set("description", description)
	}

	var resp transfer.GraphSuccessResponse
	if err := p.client.Post(ctx, endpoint, token, form, &resp); err != nil {
		return "", graph.WithPhase(phaseFinish, err)
	}
	if !resp.Success {
		return "", softFailure(phaseFinish, "reel was not published")
	}
	return videoID, nil
}

func (p *facebookPublisher) startUpload(ctx context.Context, endpoint, token string) (transfer.UploadSessionResponse, error) {
	var session transfer.UploadSessionResponse
	if err := p.client.Post(ctx, endpoint, token, url.Values{"upload_phase": {phaseStart}}, &session); err != nil {
		return session, graph.WithPhase(phaseStart, err)
	}
	if session.VideoID == "" {
		return session, softFailure(phaseStart, "no video id in upload session")
	}
	return session, nil
}

func (p *facebookPublisher) uploadByURL(ctx context.Context, session transfer.UploadSessionResponse, token, videoURL string) error {
	var resp transfer.GraphSuccessResponse
	err := p.client.Upload(ctx, p.sessionURL(session), token, map[string]string{"file_url": videoURL}, nil, &resp)
	if err != nil {
		return graph.WithPhase(phaseUpload, err)
	}
	if !resp.Success {
		return softFailure(phaseUpload, "upload was not accepted")
	}
	return nil
}

func (p *facebookPublisher) sessionURL(session transfer.UploadSessionResponse) string {
	if session.UploadURL != "" {
		return session.UploadURL
	}
	return p.client.UploadURL(session.VideoID)
}

// softFailure is a platform-level rejection carried in a 2xx reply.
func softFailure(phase, message string) error {
	return &graph.APIError{Status: 200, Message: message, Phase: phase}
}
