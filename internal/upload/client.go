package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// FormField is the multipart field carrying the file.
const FormField = "file"

// Response is the JSON body returned by an upload endpoint.
type Response struct {
	Links []string `json:"links,omitempty"`
	Error string   `json:"error,omitempty"`
}

// Client posts media to an external upload endpoint. A non-empty token is
// sent as a bearer credential.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

func NewClient(endpoint string, timeout time.Duration, token string) *Client {
	return &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Upload(ctx context.Context, filename, contentType string, body io.Reader) ([]string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", multipart.FileContentDisposition(FormField, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	_, err = io.Copy(part, body)
	if err != nil {
		return nil, fmt.Errorf("failed to read media: %w", err)
	}
	err = mw.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	var out Response
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && out.Error != "" {
			return nil, fmt.Errorf("upload endpoint returned %d: %s", resp.StatusCode, out.Error)
		}
		return nil, fmt.Errorf("upload endpoint returned %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", decodeErr)
	}
	if len(out.Links) == 0 || out.Links[0] == "" {
		return nil, ErrNoLinks
	}

	return out.Links, nil
}
