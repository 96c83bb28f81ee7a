package ingestion

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/guttosm/spimexpulse/internal/domain/models"
)

func listingItem(href, title string) string {
	link := ""
	if href != "" {
		link = fmt.Sprintf(`<a class="accordeon-inner__item-title link xls" href="%s" target="_blank">Бюллетень по итогам торгов</a>`, href)
	}
	return fmt.Sprintf(`
<div class="accordeon-inner__item">
  <div class="accordeon-inner__header">
    %s
    <div class="accordeon-inner__item-inner__title"><p>Дата торгов: <span>%s</span></p></div>
  </div>
</div>`, link, title)
}

func listingPage(items ...string) string {
	return `<!DOCTYPE html><html><body><div class="page-content">` + strings.Join(items, "") + `</div></body></html>`
}

func mustLinks(t *testing.T, page string) []models.DocumentLink {
	t.Helper()
	links, err := ExtractLinks(strings.NewReader(page), 2023, 2024)
	if err != nil {
		t.Fatalf("ExtractLinks: %v", err)
	}
	return links
}

func TestExtractLinks_StopsAtFirstOutOfRangeItem(t *testing.T) {
	page := listingPage(
		listingItem("/upload/reports/oil_xls/oil_xls_20240315162000.xls", "15.03.2024"),
		listingItem("/upload/reports/oil_xls/oil_xls_20240314162000.xls", "14.03.2024"),
		listingItem("/upload/reports/oil_xls/oil_xls_20200101162000.xls", "01.01.2020"),
		listingItem("/upload/reports/oil_xls/oil_xls_20230301162000.xls", "01.03.2023"),
	)

	links := mustLinks(t, page)
	if len(links) != 2 {
		t.Fatalf("want 2 links, got %+v", links)
	}
	if links[0].URL != "/upload/reports/oil_xls/oil_xls_20240315162000.xls" {
		t.Fatalf("url: %s", links[0].URL)
	}
	if !links[0].TradingDate.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) ||
		!links[1].TradingDate.Equal(time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("dates: %v %v", links[0].TradingDate, links[1].TradingDate)
	}
}

func TestExtractLinks_YearAboveMaxStops(t *testing.T) {
	page := listingPage(
		listingItem("/a.xls", "10.01.2025"),
		listingItem("/b.xls", "09.01.2024"),
	)
	if links := mustLinks(t, page); len(links) != 0 {
		t.Fatalf("want no links, got %+v", links)
	}
}

func TestExtractLinks_SkipsBadItems(t *testing.T) {
	page := listingPage(
		listingItem("/a.xls", "15.03.2024"),
		listingItem("", "14.03.2024"),             // no xls link
		listingItem("/c.xls", "без даты"),         // no date
		listingItem("/d.xls", "31.02.2024"),       // impossible date
		listingItem("/e.xls", "Торги 12.03.2024"), // date embedded in text
	)

	links := mustLinks(t, page)
	if len(links) != 2 || links[0].URL != "/a.xls" || links[1].URL != "/e.xls" {
		t.Fatalf("unexpected links: %+v", links)
	}
	if !links[1].TradingDate.Equal(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date: %v", links[1].TradingDate)
	}
}

func TestExtractLinks_IgnoresNonXLSAnchors(t *testing.T) {
	page := listingPage(`
<div class="accordeon-inner__item">
  <a class="link pdf" href="/a.pdf">PDF</a>
  <div class="accordeon-inner__item-inner__title"><span>15.03.2024</span></div>
</div>`)
	if links := mustLinks(t, page); len(links) != 0 {
		t.Fatalf("want no links, got %+v", links)
	}
}

func TestExtractLinks_EmptyPage(t *testing.T) {
	if links := mustLinks(t, ""); len(links) != 0 {
		t.Fatalf("want no links, got %+v", links)
	}
}
