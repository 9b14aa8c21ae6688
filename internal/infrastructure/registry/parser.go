package registry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	domain "github.com/datadik/portal/internal/domain/registry"
)

const (
	listingRowSelector = "#table1 tbody tr"
	minListingColumns  = 6
)

var (
	latPattern = regexp.MustCompile(`Lintang:\s*(-?\d+\.\d+)`)
	lngPattern = regexp.MustCompile(`Bujur:\s*(-?\d+\.\d+)`)
)

// ParseListing extracts school rows from a registry listing page. Rows with
// fewer than six cells, a blank name, or a non-numeric NPSN are skipped.
func ParseListing(html string) ([]domain.SchoolRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	var records []domain.SchoolRecord
	doc.Find(listingRowSelector).Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < minListingColumns {
			return
		}
		cell := func(i int) string {
			return strings.TrimSpace(cols.Eq(i).Text())
		}
		rec := domain.SchoolRecord{
			NPSN:      cell(1),
			Name:      cell(2),
			Address:   cell(3),
			Kelurahan: cell(4),
			Status:    cell(5),
		}
		if rec.Valid() {
			records = append(records, rec)
		}
	})
	return records, nil
}

// ParseCoordinates reads Lintang and Bujur from the text of a detail page.
// Each one is independently optional.
func ParseCoordinates(html string) (domain.Coordinates, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("failed to parse detail page: %w", err)
	}
	text := doc.Find("body").Text()

	return domain.Coordinates{
		Lat: matchFloat(latPattern, text),
		Lng: matchFloat(lngPattern, text),
	}, nil
}

func matchFloat(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}
