package docstore

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/camp-network/marketplace/internal/httputil"
)

// Bucket names used by the marketplace.
const (
	BucketMedia = "media"
)

// Object paths group uploads per owning entity. The timestamp prefix keeps
// repeated uploads of the same filename distinct.
func AvatarPath(userID, filename string) string {
	return objectPath("avatars", userID, filename)
}

func AgentMediaPath(agentID, filename string) string {
	return objectPath("agents", agentID, filename)
}

func ListingMediaPath(listingID, filename string) string {
	return objectPath("rwa", listingID, filename)
}

func objectPath(prefix, ownerID, filename string) string {
	return path.Join(prefix, ownerID, fmt.Sprintf("%d_%s", time.Now().UnixMilli(), filename))
}

// Objects returns the binary object API scoped to one bucket.
func (c *Client) Objects(bucket string) *ObjectBucket {
	return &ObjectBucket{client: c, bucket: bucket}
}

// ObjectBucket uploads and retrieves binary objects in one bucket.
type ObjectBucket struct {
	client *Client
	bucket string
}

// Upload stores data at the given path and returns its public URL.
func (b *ObjectBucket) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	reqURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", b.client.baseURL, b.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	b.client.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := b.client.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _, readErr := httputil.ReadAllWithLimit(resp.Body, maxErrorBodyBytes)
		if readErr != nil {
			return "", fmt.Errorf("read error response: %w", readErr)
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: string(errBody)}
	}

	return b.PublicURL(objectPath), nil
}

// Download fetches the object at path.
func (b *ObjectBucket) Download(ctx context.Context, objectPath string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", b.client.baseURL, b.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	b.client.setHeaders(req)

	resp, err := b.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}
	return httputil.ReadAllStrict(resp.Body, maxResponseBytes)
}

// PublicURL returns the unauthenticated URL for a stored object.
func (b *ObjectBucket) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", b.client.baseURL, b.bucket, objectPath)
}
