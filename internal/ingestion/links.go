package ingestion

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/guttosm/spimexpulse/internal/domain/models"
	"github.com/guttosm/spimexpulse/internal/logger"
)

const (
	selItem  = ".accordeon-inner__item"
	selLink  = "a.link.xls"
	selTitle = ".accordeon-inner__item-inner__title span"

	titleDateLayout = "02.01.2006"
)

var titleDateRe = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)

// ExtractLinks scans a listing page for bulletin links and their trading dates.
//
// Items are expected newest first. Scanning stops at the first item whose year
// falls outside [minYear, maxYear]: nothing after it on this page is relevant.
// Items without an .xls link or a readable date are logged and skipped.
//
// The returned error is non-nil only when the markup cannot be parsed at all.
func ExtractLinks(markup io.Reader, minYear, maxYear int) ([]models.DocumentLink, error) {
	doc, err := goquery.NewDocumentFromReader(markup)
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	var links []models.DocumentLink
	doc.Find(selItem).EachWithBreak(func(i int, item *goquery.Selection) bool {
		link, date, ok := scanItem(i, item)
		if !ok {
			return true
		}
		if y := date.Year(); y < minYear || y > maxYear {
			logger.L().Info().
				Str("trading_date", date.Format(dateLayout)).
				Int("min_year", minYear).
				Int("max_year", maxYear).
				Msg("trading date out of range, stop scanning page")
			return false
		}
		links = append(links, models.DocumentLink{URL: link, TradingDate: date})
		return true
	})

	logger.L().Debug().Int("links", len(links)).Msg("listing page scanned")
	return links, nil
}

// scanItem extracts href and trading date of one accordion item. A panic
// while inspecting the node is logged and the item skipped.
func scanItem(idx int, item *goquery.Selection) (href string, date time.Time, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error().Int("item", idx).Str("panic", fmt.Sprintf("%v", r)).Msg("listing item skipped")
			ok = false
		}
	}()

	href, found := item.Find(selLink).First().Attr("href")
	href = strings.TrimSpace(href)
	if !found || href == "" {
		return "", time.Time{}, false
	}

	title := strings.TrimSpace(item.Find(selTitle).First().Text())
	match := titleDateRe.FindString(title)
	if match == "" {
		logger.L().Warn().Int("item", idx).Str("title", title).Str("href", href).Msg("no trading date in listing item")
		return "", time.Time{}, false
	}
	date, err := time.Parse(titleDateLayout, match)
	if err != nil {
		logger.L().Warn().Int("item", idx).Str("title", title).Err(err).Msg("invalid trading date in listing item")
		return "", time.Time{}, false
	}
	return href, date, true
}
