package bulletin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"sync"
	"time"

	"boletin-iglesia/internal/model"
	"boletin-iglesia/internal/store"
)

// Source produces a bulletin record.
type Source interface {
	// Name is the human-readable name used in status messages.
	Name() string

	// Fetch retrieves the bulletin from this source.
	Fetch(ctx context.Context) (model.Bulletin, error)
}

var errNullDocument = errors.New("document is null")

// Decode parses a bulletin JSON document. Unknown fields are ignored.
func Decode(data []byte) (model.Bulletin, error) {
	var b model.Bulletin
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return b, errNullDocument
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return model.Bulletin{}, err
	}
	return b, nil
}

// EmbeddedSource reads the bulletin inlined in the page markup.
type EmbeddedSource struct {
	page *Page
}

// NewEmbeddedSource creates a source reading page's initial-data tag.
func NewEmbeddedSource(page *Page) *EmbeddedSource {
	return &EmbeddedSource{page: page}
}

func (s *EmbeddedSource) Name() string {
	return "HTML (embebido)"
}

func (s *EmbeddedSource) Fetch(ctx context.Context) (model.Bulletin, error) {
	data, ok := s.page.EmbeddedData()
	if !ok {
		return model.Bulletin{}, ErrNoEmbeddedData
	}
	b, err := Decode(data)
	if errors.Is(err, errNullDocument) {
		return model.Bulletin{}, ErrNoEmbeddedData
	}
	if err != nil {
		return model.Bulletin{}, &EmbeddedParseError{Err: err}
	}
	return b, nil
}

// HTTPSource fetches the bulletin JSON over HTTP, bypassing every cache on the way.
type HTTPSource struct {
	url    *url.URL
	client *http.Client
	now    func() time.Time

	mu     sync.Mutex
	lastCB int64
}

// NewHTTPSource creates a source for the JSON document at rawURL.
// A nil client uses http.DefaultClient.
func NewHTTPSource(rawURL string, client *http.Client) (*HTTPSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing data URL: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{url: u, client: client, now: time.Now}, nil
}

// Name returns the last path element of the URL, e.g. "data.json".
func (s *HTTPSource) Name() string {
	name := path.Base(s.url.Path)
	if name == "." || name == "/" {
		return s.url.Host
	}
	return name
}

// cacheBuster returns the epoch-millis value for the cb parameter. Values are
// strictly increasing even when two calls land in the same millisecond.
func (s *HTTPSource) cacheBuster() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	cb := s.now().UnixMilli()
	if cb <= s.lastCB {
		cb = s.lastCB + 1
	}
	s.lastCB = cb
	return cb
}

func (s *HTTPSource) requestURL() string {
	u := *s.url
	q := u.Query()
	q.Set("cb", strconv.FormatInt(s.cacheBuster(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *HTTPSource) Fetch(ctx context.Context) (model.Bulletin, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.requestURL(), nil)
	if err != nil {
		return model.Bulletin{}, &NetworkError{Source: s.Name(), Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return model.Bulletin{}, &NetworkError{Source: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Bulletin{}, &NetworkError{
			Source:     s.Name(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Bulletin{}, &NetworkError{Source: s.Name(), Err: fmt.Errorf("reading response: %w", err)}
	}

	b, err := Decode(data)
	if err != nil {
		return model.Bulletin{}, &RemoteParseError{Source: s.Name(), Err: err}
	}
	return b, nil
}

// StoreSource reads the bulletin JSON from a Store key (local disk or a GCS bucket).
type StoreSource struct {
	store store.Store
	key   string
}

// NewStoreSource creates a source reading key from s.
func NewStoreSource(s store.Store, key string) *StoreSource {
	return &StoreSource{store: s, key: key}
}

func (s *StoreSource) Name() string {
	return s.key
}

func (s *StoreSource) Fetch(ctx context.Context) (model.Bulletin, error) {
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		return model.Bulletin{}, &NetworkError{Source: s.key, Err: err}
	}
	b, err := Decode(data)
	if err != nil {
		return model.Bulletin{}, &RemoteParseError{Source: s.key, Err: err}
	}
	return b, nil
}

// FuncSource adapts a fetch function, such as an archive lookup, to a Source.
// Errors that are not already a NetworkError or RemoteParseError are reported as NetworkError.
type FuncSource struct {
	name  string
	fetch func(ctx context.Context) (model.Bulletin, error)
}

// NewFuncSource creates a named source from fetch.
func NewFuncSource(name string, fetch func(ctx context.Context) (model.Bulletin, error)) *FuncSource {
	return &FuncSource{name: name, fetch: fetch}
}

func (s *FuncSource) Name() string {
	return s.name
}

func (s *FuncSource) Fetch(ctx context.Context) (model.Bulletin, error) {
	b, err := s.fetch(ctx)
	if err == nil {
		return b, nil
	}
	var netErr *NetworkError
	var parseErr *RemoteParseError
	if errors.As(err, &netErr) || errors.As(err, &parseErr) {
		return model.Bulletin{}, err
	}
	return model.Bulletin{}, &NetworkError{Source: s.name, Err: err}
}
