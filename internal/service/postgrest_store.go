package service

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

	"github.com/linkpage/internal/db"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// PostgRESTStore 通过 PostgREST 接口（例如 Supabase）读写托管的链接表。
// 每次调用相互独立，不做重试，也不跨调用使用事务。
type PostgRESTStore struct {
	baseURL    string
	table      string
	apiKey     string
	httpClient httpDoer
}

// NewPostgRESTStore 构造 PostgRESTStore，baseURL 形如 https://xyz.supabase.co
func NewPostgRESTStore(baseURL, apiKey, table string) *PostgRESTStore {
	if strings.TrimSpace(table) == "" {
		table = "links"
	}
	return &PostgRESTStore{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		table:      table,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetHTTPClient 替换访问 PostgREST 的 HTTP 客户端，主要面向测试场景。
func (s *PostgRESTStore) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.httpClient = &http.Client{Timeout: 10 * time.Second}
		return
	}
	s.httpClient = client
}

type postgrestLinkBody struct {
	Text  string `json:"text"`
	Href  string `json:"href"`
	Icon  string `json:"icon"`
	Order *int   `json:"order,omitempty"`
}

func (s *PostgRESTStore) List(ctx context.Context) ([]db.Link, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "order.asc,id.asc")

	var links []db.Link
	if err := s.do(ctx, "list", http.MethodGet, query, nil, &links); err != nil {
		return nil, err
	}
	return links, nil
}

func (s *PostgRESTStore) Get(ctx context.Context, id uint) (*db.Link, error) {
	query := idQuery(id)
	query.Set("select", "*")

	var links []db.Link
	if err := s.do(ctx, "get", http.MethodGet, query, nil, &links); err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, ErrLinkNotFound
	}
	return &links[0], nil
}

func (s *PostgRESTStore) MaxOrder(ctx context.Context) (int, error) {
	query := url.Values{}
	query.Set("select", "order")
	query.Set("order", "order.desc.nullslast")
	query.Set("limit", "1")

	var rows []struct {
		Order *int `json:"order"`
	}
	if err := s.do(ctx, "max order", http.MethodGet, query, nil, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return -1, nil
	}
	// 只剩 order 为空的行时按 0 计
	if rows[0].Order == nil {
		return 0, nil
	}
	return *rows[0].Order, nil
}

func (s *PostgRESTStore) Insert(ctx context.Context, link *db.Link) error {
	order := link.Order
	body := postgrestLinkBody{Text: link.Text, Href: link.Href, Icon: link.Icon, Order: &order}

	var created []db.Link
	if err := s.do(ctx, "insert", http.MethodPost, nil, body, &created); err != nil {
		return err
	}
	if len(created) == 0 {
		return &StoreError{Op: "insert", Err: fmt.Errorf("no record returned")}
	}
	*link = created[0]
	return nil
}

func (s *PostgRESTStore) Update(ctx context.Context, id uint, patch db.LinkPatch) (*db.Link, error) {
	body := postgrestLinkBody{Text: patch.Text, Href: patch.Href, Icon: patch.Icon}

	var updated []db.Link
	if err := s.do(ctx, "update", http.MethodPatch, idQuery(id), body, &updated); err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return nil, ErrLinkNotFound
	}
	return &updated[0], nil
}

func (s *PostgRESTStore) Delete(ctx context.Context, id uint) error {
	var deleted []db.Link
	if err := s.do(ctx, "delete", http.MethodDelete, idQuery(id), nil, &deleted); err != nil {
		return err
	}
	if len(deleted) == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (s *PostgRESTStore) SetOrder(ctx context.Context, ids []uint) error {
	for index, id := range ids {
		body := map[string]int{"order": index}
		if err := s.do(ctx, "reorder", http.MethodPatch, idQuery(id), body, nil); err != nil {
			return err
		}
	}
	return nil
}

func idQuery(id uint) url.Values {
	query := url.Values{}
	query.Set("id", "eq."+strconv.FormatUint(uint64(id), 10))
	return query
}

func (s *PostgRESTStore) do(ctx context.Context, op, method string, query url.Values, body any, dst any) error {
	endpoint := s.baseURL + "/rest/v1/" + url.PathEscape(s.table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &StoreError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &StoreError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "linkpage/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		if dst != nil {
			req.Header.Set("Prefer", "return=representation")
		} else {
			req.Header.Set("Prefer", "return=minimal")
		}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &StoreError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := strings.TrimSpace(string(raw))
		if msg != "" {
			return &StoreError{Op: op, Err: fmt.Errorf("%s: %s", resp.Status, msg)}
		}
		return &StoreError{Op: op, Err: fmt.Errorf("%s", resp.Status)}
	}

	if dst == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &StoreError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
