package bulletin

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Element ids of the display slots in the bulletin page.
const (
	SlotYear          = "year"
	SlotMeta          = "service-time"
	SlotSermonLeader  = "sermon-leader"
	SlotWorshipLeader = "worship-leader"
	SlotSSAdults      = "ss-adults"
	SlotSSYouth       = "ss-youth"
	SlotSSPre         = "ss-pre"
	SlotSSChildren    = "ss-children"
	SlotAnnouncements = "ann-list"
	SlotStatus        = "data-status"
	SlotReload        = "reload-data"

	embeddedDataID = "initial-data"
)

// Page is the bulletin HTML document. All reads and writes go through its lock,
// so concurrent loads never interleave inside a single render.
type Page struct {
	mu  sync.RWMutex
	doc *goquery.Document
}

// NewPage parses an HTML document.
func NewPage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &Page{doc: doc}, nil
}

// ParsePage parses an HTML document held in memory.
func ParsePage(data []byte) (*Page, error) {
	return NewPage(bytes.NewReader(data))
}

// Update runs fn with exclusive access to the document.
func (p *Page) Update(fn func(doc *goquery.Document)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.doc)
}

// View runs fn with shared access to the document.
func (p *Page) View(fn func(doc *goquery.Document)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fn(p.doc)
}

// Text returns the text content of the element with the given id.
func (p *Page) Text(id string) string {
	var text string
	p.View(func(doc *goquery.Document) {
		text = byID(doc, id).Text()
	})
	return text
}

// Attr returns an attribute of the element with the given id.
func (p *Page) Attr(id, name string) (string, bool) {
	var (
		val string
		ok  bool
	)
	p.View(func(doc *goquery.Document) {
		val, ok = byID(doc, id).Attr(name)
	})
	return val, ok
}

// Has reports whether the page contains an element with the given id.
func (p *Page) Has(id string) bool {
	var found bool
	p.View(func(doc *goquery.Document) {
		found = byID(doc, id).Length() > 0
	})
	return found
}

// EmbeddedData returns the JSON inlined in the page's initial-data script tag.
// A missing or blank tag reports false.
func (p *Page) EmbeddedData() ([]byte, bool) {
	var text string
	p.View(func(doc *goquery.Document) {
		text = strings.TrimSpace(byID(doc, embeddedDataID).Text())
	})
	if text == "" {
		return nil, false
	}
	return []byte(text), true
}

// SetEmbeddedData inlines data into the initial-data script tag, creating the
// tag in <head> when the page has none.
func (p *Page) SetEmbeddedData(data []byte) {
	// "</" would close the script element early; "<\/" is the same JSON string.
	text := strings.ReplaceAll(string(data), "</", `<\/`)

	p.Update(func(doc *goquery.Document) {
		sel := byID(doc, embeddedDataID)
		if sel.Length() == 0 {
			doc.Find("head").AppendHtml(`<script type="application/json" id="` + embeddedDataID + `"></script>`)
			sel = byID(doc, embeddedDataID)
		}
		sel.SetText(text)
	})
}

// HTML serializes the current document.
func (p *Page) HTML() (string, error) {
	var (
		out string
		err error
	)
	p.View(func(doc *goquery.Document) {
		out, err = doc.Html()
	})
	return out, err
}

func byID(doc *goquery.Document, id string) *goquery.Selection {
	return doc.Find("#" + id)
}
