// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package charts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// Uploader publishes a rendered chart and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// HTTPUploader posts the PNG as a multipart form to an image-host endpoint
// that answers with a JSON body carrying the public URL.
type HTTPUploader struct {
	endpoint string
	field    string
	key      string
	client   *http.Client
}

// NewHTTPUploader creates an uploader for the given endpoint. field is the
// multipart form field name the host expects ("image" for most hosts).
func NewHTTPUploader(endpoint, field string) *HTTPUploader {
	if field == "" {
		field = "image"
	}
	return &HTTPUploader{
		endpoint: endpoint,
		field:    field,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// WithKey sets an api key sent as an extra "key" form field. Hosts that
// authenticate in the URL can ignore this and encode the key there.
func (u *HTTPUploader) WithKey(key string) *HTTPUploader {
	u.key = key
	return u
}

// WithTimeout overrides the default 30s request timeout.
func (u *HTTPUploader) WithTimeout(timeout time.Duration) *HTTPUploader {
	if timeout > 0 {
		u.client.Timeout = timeout
	}
	return u
}

// uploadResponse covers the two common host response shapes: a top-level
// url field or a data object wrapping it.
type uploadResponse struct {
	URL  string `json:"url"`
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Upload sends the image and returns the URL from the host's response.
func (u *HTTPUploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile(u.field, filename)
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if u.key != "" {
		if err := form.WriteField("key", u.key); err != nil {
			return "", fmt.Errorf("building upload form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading chart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return "", fmt.Errorf("image host returned HTTP %d: %s", resp.StatusCode, snippet)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding upload response: %w", err)
	}
	url := parsed.URL
	if url == "" {
		url = parsed.Data.URL
	}
	if url == "" {
		return "", fmt.Errorf("image host response carried no URL")
	}
	return url, nil
}
