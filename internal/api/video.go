package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/loomhq/loom/internal/models"
)

// UploadVideo sends a local video file for transcription as a multipart
// form. The part's content type is left to the transport, matching the
// reference client.
func (c *Client) UploadVideo(ctx context.Context, filePath string) (*models.VideoNote, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read video file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/video/upload", &body, true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video upload failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.responseError(resp)
	}

	var note models.VideoNote
	if err := decodeJSON(resp.Body, &note); err != nil {
		return nil, fmt.Errorf("failed to decode video note: %w", err)
	}

	return &note, nil
}

func (c *Client) ProcessYouTubeURL(ctx context.Context, videoURL string) (*models.VideoNote, error) {
	payload := map[string]string{"url": videoURL}
	var note models.VideoNote
	if err := c.doJSON(ctx, http.MethodPost, "/video/youtube", payload, &note, true); err != nil {
		return nil, err
	}
	return &note, nil
}
