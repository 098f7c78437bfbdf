package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomhq/loom/internal/api"
	"github.com/loomhq/loom/internal/models"
)

// VideoService wraps the backend's transcription endpoints.
type VideoService struct {
	client *api.Client
}

func NewVideoService(client *api.Client) *VideoService {
	return &VideoService{client: client}
}

func (s *VideoService) UploadFile(ctx context.Context, filePath string) (*models.VideoNote, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}
	return s.client.UploadVideo(ctx, filePath)
}

func (s *VideoService) ProcessYouTubeURL(ctx context.Context, videoURL string) (*models.VideoNote, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return nil, fmt.Errorf("video url is required")
	}
	return s.client.ProcessYouTubeURL(ctx, videoURL)
}
