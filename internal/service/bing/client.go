package bing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/muratoffalex/poegram/internal/config"
	"github.com/muratoffalex/poegram/internal/logger"
)

var (
	ErrPromptBlocked = errors.New("prompt has been blocked")
	ErrNoRedirect    = errors.New("image request was not accepted")
	ErrNoImages      = errors.New("no images in result")
	ErrTimeout       = errors.New("timed out waiting for images")
)

// Client drives Bing Image Creator with an "_U" auth cookie.
type Client struct {
	cfg    config.BingConfig
	api    *http.Client
	files  *http.Client
	logger logger.Logger
}

// NewClient expects api to return redirects instead of following them.
func NewClient(cfg config.BingConfig, api, files *http.Client, log logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		api:    api,
		files:  files,
		logger: log.WithField("backend", "bing"),
	}
}

// Create submits prompt and waits for the generated image URLs.
func (c *Client) Create(ctx context.Context, cookie, prompt string) ([]string, error) {
	id, err := c.submit(ctx, cookie, prompt)
	if err != nil {
		return nil, err
	}
	c.logger.WithField("request_id", id).Debug("Image request accepted")

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	interval := c.cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}

	pollURL := fmt.Sprintf("%s/images/create/async/results/%s?q=%s", c.baseURL(), id, url.QueryEscape(prompt))
	for {
		body, status, err := c.do(ctx, http.MethodGet, pollURL, cookie, nil)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrTimeout
			}
			return nil, err
		}
		if status == http.StatusOK && len(bytes.TrimSpace(body)) > 0 && !bytes.Contains(body, []byte("errorMessage")) {
			return ParseImageURLs(body)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrTimeout
			}
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (c *Client) submit(ctx context.Context, cookie, prompt string) (string, error) {
	form := url.Values{"q": {prompt}, "qs": {"ds"}}

	// rt=4 is the boosted queue; rt=3 is the slow fallback once boosts run out.
	for _, rt := range []string{"4", "3"} {
		endpoint := fmt.Sprintf("%s/images/create?q=%s&rt=%s&FORM=GENCRE", c.baseURL(), url.QueryEscape(prompt), rt)
		body, status, location, err := c.post(ctx, endpoint, cookie, form)
		if err != nil {
			return "", err
		}
		if bytes.Contains(bytes.ToLower(body), []byte("this prompt has been blocked")) {
			return "", ErrPromptBlocked
		}
		if status != http.StatusFound || location == "" {
			continue
		}

		redirect := strings.ReplaceAll(location, "&nfy=1", "")
		_, id, found := strings.Cut(redirect, "id=")
		if !found || id == "" {
			return "", fmt.Errorf("%w: no request id in %q", ErrNoRedirect, redirect)
		}
		if i := strings.IndexByte(id, '&'); i >= 0 {
			id = id[:i]
		}
		return id, nil
	}
	return "", ErrNoRedirect
}

func (c *Client) post(ctx context.Context, endpoint, cookie string, form url.Values) ([]byte, int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setHeaders(req, cookie)

	resp, err := c.api.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("submit prompt: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, "", fmt.Errorf("read submit response: %w", err)
	}
	return body, resp.StatusCode, resp.Header.Get("Location"), nil
}

func (c *Client) do(ctx context.Context, method, endpoint, cookie string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, 0, err
	}
	c.setHeaders(req, cookie)

	resp, err := c.api.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return data, resp.StatusCode, nil
}

func (c *Client) setHeaders(req *http.Request, cookie string) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36 Edg/110.0.1587.63")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", c.baseURL()+"/images/create/")
	req.AddCookie(&http.Cookie{Name: "_U", Value: cookie})
}

func (c *Client) baseURL() string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/")
}

// ParseImageURLs extracts full-size image links from a results page.
func ParseImageURLs(page []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	seen := make(map[string]bool)
	var urls []string
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || !strings.HasPrefix(src, "http") {
			return
		}
		src, _, _ = strings.Cut(src, "?w=")
		// /rp/ assets are Bing's own placeholders.
		if strings.Contains(src, "/rp/") || seen[src] {
			return
		}
		seen[src] = true
		urls = append(urls, src)
	})

	if len(urls) == 0 {
		return nil, ErrNoImages
	}
	return urls, nil
}

// Download saves every URL into dir and returns the file paths in input order.
func (c *Client) Download(ctx context.Context, urls []string, dir string) ([]string, error) {
	paths := make([]string, 0, len(urls))
	for _, u := range urls {
		path, err := c.download(ctx, u, dir)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	c.logger.WithFields(logger.Fields{
		"count": len(paths),
		"dir":   dir,
	}).Debug("Images downloaded")
	return paths, nil
}

func (c *Client) download(ctx context.Context, imageURL, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.files.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %d", imageURL, resp.StatusCode)
	}

	path := filepath.Join(dir, uuid.NewString()+extension(resp.Header.Get("Content-Type")))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}

func extension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".jpeg"
	}
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpeg"
	}
}
