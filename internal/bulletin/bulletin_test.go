package bulletin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"boletin-iglesia/internal/model"
	"boletin-iglesia/internal/store"
)

const testPageHTML = `<!DOCTYPE html>
<html><head><title>Boletín</title>%s</head>
<body>
<p id="service-time"></p>
<span id="sermon-leader"></span>
<span id="worship-leader"></span>
<span id="ss-adults"></span><span id="ss-youth"></span><span id="ss-pre"></span><span id="ss-children"></span>
<ul id="ann-list"><li>stale entry</li></ul>
<button id="reload-data">Actualizar datos</button>
<span id="data-status"></span>
<span id="year"></span>
</body></html>`

func newTestPage(t *testing.T, embedded string) *Page {
	t.Helper()
	head := ""
	if embedded != "" {
		head = `<script type="application/json" id="initial-data">` + embedded + `</script>`
	}
	page, err := ParsePage([]byte(strings.Replace(testPageHTML, "%s", head, 1)))
	require.NoError(t, err)
	return page
}

// countingSource records how often it is fetched.
type countingSource struct {
	name  string
	b     model.Bulletin
	err   error
	calls atomic.Int32
}

func (s *countingSource) Name() string { return s.name }

func (s *countingSource) Fetch(ctx context.Context) (model.Bulletin, error) {
	s.calls.Add(1)
	return s.b, s.err
}

func jsonServer(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func httpSource(t *testing.T, url string) *HTTPSource {
	t.Helper()
	src, err := NewHTTPSource(url+"/data.json", nil)
	require.NoError(t, err)
	return src
}

func announcementTitles(page *Page) []string {
	var titles []string
	page.View(func(doc *goquery.Document) {
		doc.Find("#ann-list li.ann-item h4").Each(func(i int, s *goquery.Selection) {
			titles = append(titles, s.Text())
		})
	})
	return titles
}

func TestLoadEmbeddedShortCircuits(t *testing.T) {
	page := newTestPage(t, `{"week_of":"2026-02-01","service_time":"Domingo 9:00"}`)
	remote := &countingSource{name: "data.json"}

	out := NewLoader(NewEmbeddedSource(page), remote, DefaultFallback(), nil).Load(context.Background())

	assert.Equal(t, OriginEmbedded, out.Origin)
	assert.False(t, out.IsError)
	assert.Equal(t, "Datos cargados desde HTML (embebido)", out.Message)
	assert.Equal(t, "Domingo 9:00 · Semana: 2026-02-01", out.Record.MetaLine())
	assert.Zero(t, remote.calls.Load(), "remote source must not be fetched")
}

func TestLoadEmbeddedNoNetworkFetch(t *testing.T) {
	var hits atomic.Int32
	srv := jsonServer(t, http.StatusOK, `{}`, &hits)
	page := newTestPage(t, `{"sermon_leader":"Pastor Gregorio Gironda"}`)

	out := NewLoader(NewEmbeddedSource(page), httpSource(t, srv.URL), DefaultFallback(), nil).Load(context.Background())

	assert.Equal(t, OriginEmbedded, out.Origin)
	assert.Equal(t, "Pastor Gregorio Gironda", out.Record.SermonLeaderText())
	assert.Zero(t, hits.Load())
}

func TestLoadMalformedEmbeddedFallsThroughToRemote(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	srv := jsonServer(t, http.StatusOK, `{"week_of":"2026-02-08","worship_leader":"Hno. Audon Suxo"}`, nil)
	page := newTestPage(t, `{"week_of": `)

	out := NewLoader(NewEmbeddedSource(page), httpSource(t, srv.URL), DefaultFallback(), zap.New(core)).Load(context.Background())

	assert.Equal(t, OriginRemote, out.Origin)
	assert.Equal(t, "Datos cargados desde data.json", out.Message)
	assert.Equal(t, "Hno. Audon Suxo", out.Record.WorshipLeaderText())
	assert.Equal(t, 1, logs.FilterMessage("embedded JSON parse error").Len())
}

func TestLoadAbsentEmbeddedUsesRemote(t *testing.T) {
	for _, embedded := range []string{"", "   ", "null"} {
		t.Run(strconv.Quote(embedded), func(t *testing.T) {
			srv := jsonServer(t, http.StatusOK, `{"announcements":[]}`, nil)
			page := newTestPage(t, embedded)

			out := NewLoader(NewEmbeddedSource(page), httpSource(t, srv.URL), DefaultFallback(), nil).Load(context.Background())

			assert.Equal(t, OriginRemote, out.Origin)
			assert.Empty(t, out.Record.Announcements)
		})
	}
}

func TestLoadFallback(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name    string
		url     string
		wantErr interface{}
	}{
		{"HTTP 500", jsonServer(t, http.StatusInternalServerError, "oops", nil).URL, &NetworkError{}},
		{"HTTP 404", jsonServer(t, http.StatusNotFound, "", nil).URL, &NetworkError{}},
		{"transport failure", closedURL, &NetworkError{}},
		{"malformed JSON", jsonServer(t, http.StatusOK, `{"week_of":`, nil).URL, &RemoteParseError{}},
		{"null document", jsonServer(t, http.StatusOK, `null`, nil).URL, &RemoteParseError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newTestPage(t, "")

			out := NewLoader(NewEmbeddedSource(page), httpSource(t, tt.url), DefaultFallback(), nil).Load(context.Background())

			assert.Equal(t, OriginFallback, out.Origin)
			assert.True(t, out.IsError)
			assert.Equal(t, "No se pudo cargar data.json — usando fallback", out.Message)
			assert.Equal(t, DefaultFallback(), out.Record)

			switch tt.wantErr.(type) {
			case *NetworkError:
				var netErr *NetworkError
				assert.True(t, errors.As(out.Err, &netErr), "got %v", out.Err)
			case *RemoteParseError:
				var parseErr *RemoteParseError
				assert.True(t, errors.As(out.Err, &parseErr), "got %v", out.Err)
			}
		})
	}
}

func TestNetworkErrorCarriesStatus(t *testing.T) {
	srv := jsonServer(t, http.StatusInternalServerError, "", nil)
	_, err := httpSource(t, srv.URL).Fetch(context.Background())

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusInternalServerError, netErr.StatusCode)
	assert.Equal(t, "loading data.json: HTTP 500", err.Error())
}

func TestLoadWithoutSources(t *testing.T) {
	out := NewLoader(nil, nil, DefaultFallback(), nil).Load(context.Background())
	assert.Equal(t, OriginFallback, out.Origin)
	assert.True(t, out.IsError)
	assert.Len(t, out.Record.Announcements, 3)
}

func TestHTTPSourceCacheBusting(t *testing.T) {
	var (
		mu      sync.Mutex
		cbs     []int64
		headers []http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cb, err := strconv.ParseInt(r.URL.Query().Get("cb"), 10, 64)
		assert.NoError(t, err)
		assert.Equal(t, "/data.json", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("v"), "existing query parameters are kept")
		mu.Lock()
		cbs = append(cbs, cb)
		headers = append(headers, r.Header.Clone())
		mu.Unlock()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL+"/data.json?v=2", srv.Client())
	require.NoError(t, err)
	frozen := time.UnixMilli(1769904000000)
	src.now = func() time.Time { return frozen }

	for i := 0; i < 3; i++ {
		_, err := src.Fetch(context.Background())
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, cbs, 3)
	assert.Equal(t, frozen.UnixMilli(), cbs[0])
	assert.Less(t, cbs[0], cbs[1])
	assert.Less(t, cbs[1], cbs[2])
	for _, h := range headers {
		assert.Equal(t, "no-store", h.Get("Cache-Control"))
		assert.Equal(t, "no-cache", h.Get("Pragma"))
	}
}

func TestStoreSource(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewLocal(t.TempDir())
	require.NoError(t, err)
	src := NewStoreSource(s, "data.json")

	_, err = src.Fetch(ctx)
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr), "missing key: got %v", err)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Put(ctx, "data.json", "application/json", []byte(`{"week_of":`)))
	_, err = src.Fetch(ctx)
	var parseErr *RemoteParseError
	assert.True(t, errors.As(err, &parseErr), "malformed: got %v", err)

	require.NoError(t, s.Put(ctx, "data.json", "application/json", []byte(`{"week_of":"2026-02-22"}`)))
	b, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Semana: 2026-02-22", b.MetaLine())
}

func TestFuncSourceErrors(t *testing.T) {
	src := NewFuncSource("archivo", func(ctx context.Context) (model.Bulletin, error) {
		return model.Bulletin{}, errors.New("deadline exceeded")
	})
	_, err := src.Fetch(context.Background())

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "archivo", netErr.Source)

	parseFail := NewFuncSource("archivo", func(ctx context.Context) (model.Bulletin, error) {
		return model.Bulletin{}, &RemoteParseError{Source: "archivo", Err: errors.New("bad")}
	})
	_, err = parseFail.Fetch(context.Background())
	var parseErr *RemoteParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestRenderScenario(t *testing.T) {
	page := newTestPage(t, "")
	b := model.Bulletin{WeekOf: model.Str("2026-02-01"), ServiceTime: model.Str("Domingo 9:00")}

	Render(page, b, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))

	assert.Equal(t, "Domingo 9:00 · Semana: 2026-02-01", page.Text(SlotMeta))
	assert.Equal(t, "2026", page.Text(SlotYear))
	for _, id := range []string{SlotSermonLeader, SlotWorshipLeader, SlotSSAdults, SlotSSYouth, SlotSSPre, SlotSSChildren} {
		assert.Equal(t, model.Placeholder, page.Text(id), id)
	}
	assert.Empty(t, announcementTitles(page))
	assert.Empty(t, strings.TrimSpace(page.Text(SlotAnnouncements)), "empty list renders no placeholder")
}

func TestRenderAnnouncementsReplaceAndEscape(t *testing.T) {
	page := newTestPage(t, "")
	now := time.Now()

	Render(page, DefaultFallback(), now)
	assert.Equal(t, []string{
		"Torneo Bíblico - Sociedad Cristiana de Jóvenes",
		"Oración de Madrugada",
		"Taller de Pedagogía para Maestros de Escuela Dominical",
	}, announcementTitles(page))
	assert.NotContains(t, page.Text(SlotAnnouncements), "stale entry")

	b := model.Bulletin{Announcements: []model.Announcement{{Title: "<b>Ayuno</b>", Body: "Miércoles & jueves"}}}
	Render(page, b, now)

	assert.Equal(t, []string{"<b>Ayuno</b>"}, announcementTitles(page))
	html, err := page.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, "&lt;b&gt;Ayuno&lt;/b&gt;")
	assert.Contains(t, html, `<p>Miércoles &amp; jueves</p>`)
}

func TestRenderIdempotent(t *testing.T) {
	page := newTestPage(t, "")
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	Render(page, DefaultFallback(), now)
	first, err := page.HTML()
	require.NoError(t, err)

	Render(page, DefaultFallback(), now)
	second, err := page.HTML()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReportStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	page := newTestPage(t, "")

	ReportStatus(page, logger, "Datos cargados desde data.json", false)
	assert.Equal(t, "Datos cargados desde data.json", page.Text(SlotStatus))
	style, _ := page.Attr(SlotStatus, "style")
	assert.Equal(t, "color: "+InfoColor, style)

	ReportStatus(page, logger, "No se pudo cargar data.json — usando fallback", true)
	style, _ = page.Attr(SlotStatus, "style")
	assert.Equal(t, "color: "+ErrorColor, style)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "No se pudo cargar data.json — usando fallback", entries[1].Message)
}

func TestBoardRefreshHTTP500(t *testing.T) {
	srv := jsonServer(t, http.StatusInternalServerError, "", nil)
	page := newTestPage(t, "")
	board := NewBoard(page, NewLoader(NewEmbeddedSource(page), httpSource(t, srv.URL), DefaultFallback(), nil), nil)

	out := board.Refresh(context.Background())

	assert.Equal(t, OriginFallback, out.Origin)
	assert.Equal(t, "No se pudo cargar data.json — usando fallback", page.Text(SlotStatus))
	style, _ := page.Attr(SlotStatus, "style")
	assert.Equal(t, "color: "+ErrorColor, style)
	assert.Len(t, announcementTitles(page), 3)

	last, loadedAt := board.Last()
	assert.Equal(t, OriginFallback, last.Origin)
	assert.False(t, loadedAt.IsZero())
}

func TestSetEmbeddedData(t *testing.T) {
	page := newTestPage(t, "")
	page.SetEmbeddedData([]byte(`{"week_of":"2026-02-15","announcements":[{"title":"</script>","body":""}]}`))

	out := NewLoader(NewEmbeddedSource(page), nil, DefaultFallback(), nil).Load(context.Background())

	require.Equal(t, OriginEmbedded, out.Origin)
	assert.Equal(t, "Semana: 2026-02-15", out.Record.MetaLine())
	assert.Equal(t, "</script>", out.Record.Announcements[0].Title)
}

func TestTriggerClick(t *testing.T) {
	page := newTestPage(t, "")
	var (
		ran         atomic.Int32
		labelDuring string
	)
	release := make(chan struct{})
	trigger := NewTrigger(page, 0, func(ctx context.Context) {
		ran.Add(1)
		labelDuring = page.Text(SlotReload)
		<-release
	})

	done, err := trigger.Click(context.Background())
	require.NoError(t, err)

	assert.True(t, trigger.Busy())
	assert.Equal(t, ReloadingLabel, page.Text(SlotReload))
	_, disabled := page.Attr(SlotReload, "disabled")
	assert.True(t, disabled)

	_, err = trigger.Click(context.Background())
	assert.ErrorIs(t, err, ErrTriggerBusy)

	close(release)
	<-done

	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, ReloadingLabel, labelDuring)
	assert.Equal(t, "Actualizar datos", page.Text(SlotReload))
	_, disabled = page.Attr(SlotReload, "disabled")
	assert.False(t, disabled)
	assert.False(t, trigger.Busy())
}

func TestTriggerRestoresAfterFailedReload(t *testing.T) {
	srv := jsonServer(t, http.StatusInternalServerError, "", nil)
	page := newTestPage(t, "")
	board := NewBoard(page, NewLoader(NewEmbeddedSource(page), httpSource(t, srv.URL), DefaultFallback(), nil), nil)
	trigger := NewTrigger(page, 0, func(ctx context.Context) { board.Refresh(ctx) })

	done, err := trigger.Click(context.Background())
	require.NoError(t, err)
	<-done

	assert.Equal(t, "Actualizar datos", page.Text(SlotReload))
	_, disabled := page.Attr(SlotReload, "disabled")
	assert.False(t, disabled)
	assert.Equal(t, "No se pudo cargar data.json — usando fallback", page.Text(SlotStatus))
}

func TestTriggerCancelledBeforeDelay(t *testing.T) {
	page := newTestPage(t, "")
	var ran atomic.Int32
	trigger := NewTrigger(page, time.Hour, func(ctx context.Context) { ran.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done, err := trigger.Click(ctx)
	require.NoError(t, err)
	cancel()
	<-done

	assert.Zero(t, ran.Load())
	assert.Equal(t, "Actualizar datos", page.Text(SlotReload))
	assert.False(t, trigger.Busy())
}
