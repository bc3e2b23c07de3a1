package peer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

const (
	uploadPath = "/files"
	filesPath  = "/files/"

	formFieldFile = "file"
)

// Client talks to the media storage peer over HTTP. It is only ever used by
// the application's own server-side code; the peer trusts its callers.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No client-wide timeout: fetches stream large media files and are
		// bounded by the caller's context instead.
		http: &http.Client{},
	}
}

type uploadResponse struct {
	StorageKey string `json:"storageKey"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Upload streams a file to the peer's ingest endpoint and returns the
// storage key it was persisted under. The multipart body is produced
// through a pipe so the file is never buffered whole.
func (c *Client) Upload(ctx context.Context, fileName string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile(formFieldFile, fileName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, pr)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload to media store failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("media store rejected upload: %s", readError(resp))
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}

	return parsed.StorageKey, nil
}

// Fetch requests a stored file from the peer. The Range header, when given,
// is forwarded so the peer can answer partial requests. The caller owns the
// response and must close its body.
func (c *Client) Fetch(ctx context.Context, name, rangeHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+filesPath+url.PathEscape(name), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch request: %w", err)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch from media store failed: %w", err)
	}

	return resp, nil
}

// Delete asks the peer to remove a stored file and its waveform sibling.
func (c *Client) Delete(ctx context.Context, name string) error {
	body, err := json.Marshal(map[string]string{"fileName": name})
	if err != nil {
		return fmt.Errorf("failed to encode delete request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+uploadPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete on media store failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("media store refused delete of %s: %s", name, readError(resp))
	}

	return nil
}

func readError(resp *http.Response) string {
	var parsed errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&parsed); err == nil && parsed.Error != "" {
		return fmt.Sprintf("%s (status %d)", parsed.Error, resp.StatusCode)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
