package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chatsync/internal/content"
	"chatsync/internal/models"
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the chat backend REST API.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid remote base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid remote base url scheme %q", base.Scheme)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: base,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Users() *Resource[models.User] {
	return &Resource[models.User]{client: c, path: "users", inbound: func(u models.User) models.User {
		u.DisplayName = content.Sanitize(u.DisplayName)
		u.LastSeen = u.LastSeen.UTC()
		return u
	}}
}

func (c *Client) Dialogs() *Resource[models.Dialog] {
	return &Resource[models.Dialog]{client: c, path: "dialogs", inbound: func(d models.Dialog) models.Dialog {
		d.Name = content.Sanitize(d.Name)
		d.LastMessage.Summary = content.Sanitize(d.LastMessage.Summary)
		d.LastMessage.SentAt = d.LastMessage.SentAt.UTC()
		d.CreatedAt = d.CreatedAt.UTC()
		d.UpdatedAt = d.UpdatedAt.UTC()
		return d
	}}
}

func (c *Client) Messages() *Resource[models.Message] {
	return &Resource[models.Message]{client: c, path: "messages", inbound: sanitizeMessage}
}

func (c *Client) Files() *Resource[models.File] {
	return &Resource[models.File]{client: c, path: "files"}
}

// LeaveDialog removes the current user from a dialog.
func (c *Client) LeaveDialog(ctx context.Context, dialogID string) error {
	return c.do(ctx, http.MethodPost, "dialogs/"+url.PathEscape(dialogID)+"/leave", nil, nil, nil)
}

func sanitizeMessage(m models.Message) models.Message {
	m.Text = content.Sanitize(m.Text)
	m.SentAt = m.SentAt.UTC()
	return m
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIncorrectData, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("token", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", ErrIncorrectData, path, err)
	}
	return nil
}

// Resource is the CRUD surface of one entity kind.
type Resource[E models.Entity] struct {
	client  *Client
	path    string
	inbound func(E) E
}

type listResponse[E any] struct {
	Items []E `json:"items"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

func (r *Resource[E]) received(e E) E {
	if r.inbound != nil {
		return r.inbound(e)
	}
	return e
}

func (r *Resource[E]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func (r *Resource[E]) Get(ctx context.Context, id string) (E, error) {
	var entity E
	if id == "" {
		return entity, fmt.Errorf("%w: empty %s id", ErrIncorrectData, r.path)
	}
	if err := r.client.do(ctx, http.MethodGet, r.itemPath(id), nil, nil, &entity); err != nil {
		return entity, err
	}
	if entity.EntityID() != id {
		return entity, fmt.Errorf("%w: requested %s %s, got %q", ErrIncorrectData, r.path, id, entity.EntityID())
	}
	return r.received(entity), nil
}

func (r *Resource[E]) Create(ctx context.Context, entity E) (E, error) {
	var created E
	if err := r.client.do(ctx, http.MethodPost, r.path, nil, entity, &created); err != nil {
		return created, err
	}
	return r.received(created), nil
}

func (r *Resource[E]) Update(ctx context.Context, entity E) (E, error) {
	var updated E
	if err := r.client.do(ctx, http.MethodPut, r.itemPath(entity.EntityID()), nil, entity, &updated); err != nil {
		return updated, err
	}
	return r.received(updated), nil
}

func (r *Resource[E]) Delete(ctx context.Context, id string) error {
	return r.client.do(ctx, http.MethodDelete, r.itemPath(id), nil, nil, nil)
}

// List fetches one page, optionally narrowed by query filters such as dialogId.
// The returned cursor carries the backend's total.
func (r *Resource[E]) List(ctx context.Context, page models.Pagination, filter url.Values) ([]E, models.Pagination, error) {
	query := url.Values{}
	for k, v := range filter {
		query[k] = v
	}
	query.Set("skip", strconv.Itoa(page.Skip))
	query.Set("limit", strconv.Itoa(page.Limit))

	var resp listResponse[E]
	if err := r.client.do(ctx, http.MethodGet, r.path, query, nil, &resp); err != nil {
		return nil, page, err
	}

	items := make([]E, 0, len(resp.Items))
	for _, item := range resp.Items {
		items = append(items, r.received(item))
	}
	page.Total = resp.Total
	return items, page, nil
}
