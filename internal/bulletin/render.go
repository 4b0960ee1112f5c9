package bulletin

import (
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"boletin-iglesia/internal/model"
)

// Status colors for the data-status slot.
const (
	InfoColor  = "#0b5aa6"
	ErrorColor = "#b91c1c"
)

// Render projects b onto the page's display slots. Rendering the same record
// twice leaves the page unchanged.
func Render(page *Page, b model.Bulletin, now time.Time) {
	school := b.School()
	texts := map[string]string{
		SlotYear:          strconv.Itoa(now.Year()),
		SlotMeta:          b.MetaLine(),
		SlotSermonLeader:  b.SermonLeaderText(),
		SlotWorshipLeader: b.WorshipLeaderText(),
		SlotSSAdults:      school.AdultsText(),
		SlotSSYouth:       school.YouthText(),
		SlotSSPre:         school.PreText(),
		SlotSSChildren:    school.ChildrenText(),
	}

	page.Update(func(doc *goquery.Document) {
		for id, text := range texts {
			byID(doc, id).SetText(text)
		}

		list := byID(doc, SlotAnnouncements)
		list.Empty()
		var items strings.Builder
		for _, a := range b.Announcements {
			items.WriteString(`<li class="ann-item"><h4>`)
			items.WriteString(html.EscapeString(a.Title))
			items.WriteString(`</h4><p>`)
			items.WriteString(html.EscapeString(a.Body))
			items.WriteString(`</p></li>`)
		}
		if items.Len() > 0 {
			list.AppendHtml(items.String())
		}
	})
}

// ReportStatus writes msg to the status slot, colored by severity, and logs it
// at the matching level.
func ReportStatus(page *Page, logger *zap.Logger, msg string, isError bool) {
	if isError {
		logger.Warn(msg)
	} else {
		logger.Info(msg)
	}

	color := InfoColor
	if isError {
		color = ErrorColor
	}
	page.Update(func(doc *goquery.Document) {
		el := byID(doc, SlotStatus)
		if el.Length() == 0 {
			return
		}
		el.SetText(msg)
		el.SetAttr("style", "color: "+color)
	})
}
