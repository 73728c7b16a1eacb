package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jroman/agencydir/internal/model"
)

const (
	defaultTimeout = 60 * time.Second
	maxRetries     = 3
	initialBackoff = 2 * time.Second
	pageLimit      = 100
)

// ContentClient reads records from the content API the site used to be
// managed in. The API is paginated; linked assets arrive alongside the
// entries and are resolved against the records that reference them.
type ContentClient struct {
	client     *http.Client
	baseURL    string
	space      string
	token      string
	retryDelay time.Duration
}

// NewContentClient creates a content API client for the given space.
func NewContentClient(baseURL, space, token string) *ContentClient {
	return &ContentClient{
		client:     &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		space:      space,
		token:      token,
		retryDelay: initialBackoff,
	}
}

// sysJSON carries the stable external identifier of an entry or asset.
type sysJSON struct {
	ID string `json:"id"`
}

// linkJSON is a reference to another entry or asset.
type linkJSON struct {
	Sys sysJSON `json:"sys"`
}

// entryJSON is one record in a page. Fields is kind-specific and decoded
// in a second pass.
type entryJSON struct {
	Sys    sysJSON         `json:"sys"`
	Fields json.RawMessage `json:"fields"`
}

// assetJSON is a binary asset delivered with a page.
type assetJSON struct {
	Sys    sysJSON `json:"sys"`
	Fields struct {
		File struct {
			URL         string `json:"url"`
			FileName    string `json:"fileName"`
			ContentType string `json:"contentType"`
		} `json:"file"`
	} `json:"fields"`
}

// pageJSON is the paginated envelope for an entries query.
type pageJSON struct {
	Total    int         `json:"total"`
	Skip     int         `json:"skip"`
	Limit    int         `json:"limit"`
	Items    []entryJSON `json:"items"`
	Includes struct {
		Assets []assetJSON `json:"Asset"`
	} `json:"includes"`
}

type agencyFieldsJSON struct {
	Name    string     `json:"name"`
	URL     string     `json:"url"`
	Founded int        `json:"founded"`
	Logo    *linkJSON  `json:"logo"`
	Size    *linkJSON  `json:"size"`
	Tags    []linkJSON `json:"tags"`
}

type tagFieldsJSON struct {
	Name string `json:"name"`
}

type sizeFieldsJSON struct {
	Label string `json:"label"`
}

// FetchAgencies retrieves all agency records with their asset references
// resolved.
func (c *ContentClient) FetchAgencies(ctx context.Context) ([]model.AgencyEntry, error) {
	entries, assets, err := c.fetchAll(ctx, "agency")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agencies: %w", err)
	}

	agencies := make([]model.AgencyEntry, 0, len(entries))
	for _, e := range entries {
		var fields agencyFieldsJSON
		if err := json.Unmarshal(e.Fields, &fields); err != nil {
			return nil, fmt.Errorf("failed to parse agency %s: %w", e.Sys.ID, err)
		}

		agency := model.AgencyEntry{
			ID:      e.Sys.ID,
			Name:    fields.Name,
			URL:     fields.URL,
			Founded: fields.Founded,
		}
		if fields.Size != nil {
			agency.SizeRef = &model.EntryRef{ID: fields.Size.Sys.ID}
		}
		for _, ref := range fields.Tags {
			agency.TagRefs = append(agency.TagRefs, model.EntryRef{ID: ref.Sys.ID})
		}
		if fields.Logo != nil {
			if asset, ok := assets[fields.Logo.Sys.ID]; ok {
				agency.Logo = &model.AssetRef{
					ID:          asset.Sys.ID,
					URL:         asset.Fields.File.URL,
					FileName:    asset.Fields.File.FileName,
					ContentType: asset.Fields.File.ContentType,
				}
			}
		}
		agencies = append(agencies, agency)
	}

	return agencies, nil
}

// FetchTags retrieves all tag records.
func (c *ContentClient) FetchTags(ctx context.Context) ([]model.TagEntry, error) {
	entries, _, err := c.fetchAll(ctx, "tag")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}

	tags := make([]model.TagEntry, 0, len(entries))
	for _, e := range entries {
		var fields tagFieldsJSON
		if err := json.Unmarshal(e.Fields, &fields); err != nil {
			return nil, fmt.Errorf("failed to parse tag %s: %w", e.Sys.ID, err)
		}
		tags = append(tags, model.TagEntry{ID: e.Sys.ID, Name: fields.Name})
	}

	return tags, nil
}

// FetchSizes retrieves all size records.
func (c *ContentClient) FetchSizes(ctx context.Context) ([]model.SizeEntry, error) {
	entries, _, err := c.fetchAll(ctx, "size")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sizes: %w", err)
	}

	sizes := make([]model.SizeEntry, 0, len(entries))
	for _, e := range entries {
		var fields sizeFieldsJSON
		if err := json.Unmarshal(e.Fields, &fields); err != nil {
			return nil, fmt.Errorf("failed to parse size %s: %w", e.Sys.ID, err)
		}
		sizes = append(sizes, model.SizeEntry{ID: e.Sys.ID, Label: fields.Label})
	}

	return sizes, nil
}

// FetchAsset downloads a binary asset. Protocol-relative URLs (the form
// the API serves) get an https scheme first.
func (c *ContentClient) FetchAsset(ctx context.Context, assetURL string) ([]byte, error) {
	if strings.HasPrefix(assetURL, "//") {
		assetURL = "https:" + assetURL
	}
	return c.fetchWithRetry(ctx, assetURL)
}

// fetchAll walks every page for a record kind, collecting entries and the
// assets delivered with them.
func (c *ContentClient) fetchAll(ctx context.Context, contentType string) ([]entryJSON, map[string]assetJSON, error) {
	var entries []entryJSON
	assets := make(map[string]assetJSON)

	skip := 0
	for {
		q := url.Values{}
		q.Set("content_type", contentType)
		q.Set("limit", fmt.Sprintf("%d", pageLimit))
		q.Set("skip", fmt.Sprintf("%d", skip))
		q.Set("access_token", c.token)
		pageURL := fmt.Sprintf("%s/spaces/%s/environments/master/entries?%s", c.baseURL, c.space, q.Encode())

		body, err := c.fetchWithRetry(ctx, pageURL)
		if err != nil {
			return nil, nil, err
		}

		var page pageJSON
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, nil, fmt.Errorf("failed to parse page: %w", err)
		}

		entries = append(entries, page.Items...)
		for _, asset := range page.Includes.Assets {
			assets[asset.Sys.ID] = asset
		}

		skip += len(page.Items)
		if len(page.Items) == 0 || skip >= page.Total {
			break
		}
	}

	return entries, assets, nil
}

// fetchWithRetry performs an HTTP GET with exponential backoff retry
func (c *ContentClient) fetchWithRetry(ctx context.Context, fetchURL string) ([]byte, error) {
	var lastErr error
	backoff := c.retryDelay

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (HTTP 429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			continue
		}

		return body, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}
