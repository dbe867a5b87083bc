// Package translator provides a DeepL API client for document translation.
// Documents are uploaded whole so DeepL preserves the .docx structure;
// the client covers upload, status polling, result download, and account
// usage queries.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docx-translator/internal/logger"
	"docx-translator/internal/types"
)

const (
	// DefaultMaxRetries is the maximum number of attempts for retryable
	// API errors (rate limits and server errors).
	DefaultMaxRetries = 3

	// BaseRetryDelay is the base delay between retries (exponential backoff).
	BaseRetryDelay = 2 * time.Second

	// DefaultPollInterval is used when the status response does not
	// suggest how long to wait before polling again.
	DefaultPollInterval = 5 * time.Second
)

// Client talks to the DeepL v2 API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a DeepL client. baseURL distinguishes the paid endpoint
// from api-free.deepl.com; an empty value selects the paid endpoint.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.deepl.com"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		maxRetries: DefaultMaxRetries,
		retryDelay: BaseRetryDelay,
	}
}

// Usage is the account's character consumption for the current period.
type Usage struct {
	CharacterCount int64 `json:"character_count"`
	CharacterLimit int64 `json:"character_limit"`
}

// Remaining returns how many billable characters are left in the period.
func (u Usage) Remaining() int64 {
	return u.CharacterLimit - u.CharacterCount
}

// Usage queries the account's character usage and limit.
func (c *Client) Usage(ctx context.Context) (*Usage, error) {
	body, err := c.do(ctx, http.MethodGet, "/v2/usage", "", nil)
	if err != nil {
		return nil, err
	}
	var u Usage
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, types.NewAppError(types.ErrAPICall, "failed to decode usage response", err)
	}
	return &u, nil
}

// CheckQuota verifies the account has at least need characters available.
func (c *Client) CheckQuota(ctx context.Context, need int64) error {
	u, err := c.Usage(ctx)
	if err != nil {
		return err
	}
	if u.CharacterLimit > 0 && u.Remaining() < need {
		return types.NewAppErrorWithDetails(types.ErrQuota,
			"insufficient character quota",
			fmt.Sprintf("need %d, %d remaining", need, u.Remaining()), nil)
	}
	return nil
}

// documentHandle identifies an uploaded document for polling and download.
type documentHandle struct {
	DocumentID  string `json:"document_id"`
	DocumentKey string `json:"document_key"`
}

type documentStatus struct {
	DocumentID       string `json:"document_id"`
	Status           string `json:"status"` // queued, translating, done, error
	SecondsRemaining int    `json:"seconds_remaining"`
	BilledCharacters int64  `json:"billed_characters"`
	ErrorMessage     string `json:"error_message"`
}

// TranslateDocument uploads a document, waits for DeepL to finish, and
// writes the translated result to outputPath. It returns the number of
// characters DeepL billed for the document.
func (c *Client) TranslateDocument(ctx context.Context, inputPath, outputPath, sourceLang, targetLang string) (int64, error) {
	handle, err := c.uploadDocument(ctx, inputPath, sourceLang, targetLang)
	if err != nil {
		return 0, err
	}

	logger.Info("document uploaded",
		logger.String("file", filepath.Base(inputPath)),
		logger.String("document_id", handle.DocumentID))

	status, err := c.waitForDocument(ctx, handle)
	if err != nil {
		return 0, err
	}

	if err := c.downloadDocument(ctx, handle, outputPath); err != nil {
		return status.BilledCharacters, err
	}

	logger.Info("document translated",
		logger.String("file", filepath.Base(inputPath)),
		logger.Int64("billed_characters", status.BilledCharacters))

	return status.BilledCharacters, nil
}

func (c *Client) uploadDocument(ctx context.Context, inputPath, sourceLang, targetLang string) (*documentHandle, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrDocumentRead,
			"failed to read document for upload", inputPath, err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if sourceLang != "" {
		if err := mw.WriteField("source_lang", sourceLang); err != nil {
			return nil, types.NewAppError(types.ErrInternal, "failed to build upload form", err)
		}
	}
	if err := mw.WriteField("target_lang", targetLang); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to build upload form", err)
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(inputPath))
	if err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to build upload form", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to build upload form", err)
	}
	if err := mw.Close(); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to build upload form", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/v2/document", mw.FormDataContentType(), buf.Bytes())
	if err != nil {
		return nil, err
	}

	var handle documentHandle
	if err := json.Unmarshal(body, &handle); err != nil {
		return nil, types.NewAppError(types.ErrAPICall, "failed to decode upload response", err)
	}
	if handle.DocumentID == "" || handle.DocumentKey == "" {
		return nil, types.NewAppError(types.ErrAPICall, "upload response missing document handle", nil)
	}
	return &handle, nil
}

func (c *Client) waitForDocument(ctx context.Context, handle *documentHandle) (*documentStatus, error) {
	form := url.Values{"document_key": {handle.DocumentKey}}.Encode()

	for {
		body, err := c.do(ctx, http.MethodPost,
			"/v2/document/"+handle.DocumentID,
			"application/x-www-form-urlencoded", []byte(form))
		if err != nil {
			return nil, err
		}

		var status documentStatus
		if err := json.Unmarshal(body, &status); err != nil {
			return nil, types.NewAppError(types.ErrAPICall, "failed to decode status response", err)
		}

		switch status.Status {
		case "done":
			return &status, nil
		case "error":
			msg := status.ErrorMessage
			if msg == "" {
				msg = "translation failed"
			}
			return nil, types.NewAppErrorWithDetails(types.ErrAPICall,
				"document translation failed", msg, nil)
		}

		wait := DefaultPollInterval
		if status.SecondsRemaining > 0 && status.SecondsRemaining < int(wait/time.Second) {
			wait = time.Duration(status.SecondsRemaining) * time.Second
		}

		logger.Debug("document in progress",
			logger.String("document_id", handle.DocumentID),
			logger.String("status", status.Status),
			logger.Duration("wait", wait))

		select {
		case <-ctx.Done():
			return nil, types.NewAppError(types.ErrAPICall, "translation cancelled", ctx.Err())
		case <-time.After(wait):
		}
	}
}

func (c *Client) downloadDocument(ctx context.Context, handle *documentHandle, outputPath string) error {
	form := url.Values{"document_key": {handle.DocumentKey}}.Encode()
	body, err := c.do(ctx, http.MethodPost,
		"/v2/document/"+handle.DocumentID+"/result",
		"application/x-www-form-urlencoded", []byte(form))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return types.NewAppErrorWithDetails(types.ErrDocumentWrite,
			"failed to create output directory", filepath.Dir(outputPath), err)
	}
	if err := os.WriteFile(outputPath, body, 0644); err != nil {
		return types.NewAppErrorWithDetails(types.ErrDocumentWrite,
			"failed to write translated document", outputPath, err)
	}
	return nil
}

// do issues one API request with authentication and retry on transient
// failures. The response body is returned on any 2xx status.
func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1))
			logger.Debug("retrying API request",
				logger.String("path", path),
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, types.NewAppError(types.ErrAPICall, "request cancelled", ctx.Err())
			case <-time.After(delay):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, types.NewAppError(types.ErrInternal, "failed to build request", err)
		}
		req.Header.Set("Authorization", "DeepL-Auth-Key "+c.apiKey)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, types.NewAppError(types.ErrAPICall, "request cancelled", ctx.Err())
			}
			lastErr = types.NewAppError(types.ErrNetwork, "API request failed", err)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = types.NewAppError(types.ErrNetwork, "failed to read API response", readErr)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return respBody, nil
		}

		apiErr := statusToError(resp.StatusCode, respBody)
		if !isRetryable(resp.StatusCode) {
			return nil, apiErr
		}
		lastErr = apiErr
	}

	return nil, lastErr
}

// statusToError maps a DeepL HTTP status to a typed application error.
func statusToError(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return types.NewAppErrorWithDetails(types.ErrAuth,
			"API key rejected", detail, nil)
	case status == 456:
		return types.NewAppErrorWithDetails(types.ErrQuota,
			"character quota exceeded", detail, nil)
	case status == http.StatusTooManyRequests:
		return types.NewAppErrorWithDetails(types.ErrRateLimit,
			"too many requests", detail, nil)
	case status >= 500:
		return types.NewAppErrorWithDetails(types.ErrAPICall,
			fmt.Sprintf("server error (HTTP %d)", status), detail, nil)
	default:
		return types.NewAppErrorWithDetails(types.ErrAPICall,
			fmt.Sprintf("unexpected status (HTTP %d)", status), detail, nil)
	}
}

// isRetryable reports whether an HTTP status warrants another attempt.
// Auth failures, quota exhaustion, and client errors never do.
func isRetryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
