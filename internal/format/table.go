// Package format renders listing result sets into size-bounded text
// pages suitable for a single chat message each.
package format

import (
	"bytes"
	"fmt"

	"github.com/ejjonny/bort/internal/model"

	"github.com/olekukonko/tablewriter"
)

var headerRow = []string{"Offer", "Request", "Location", "ID"}

// Pages renders listings in input order into one or more pages. Rows are
// appended greedily; once the rendered table would exceed byteLimit the
// last two appended rows are carried forward onto the next page (so a
// split listing pair is never orphaned), the current page closes with a
// "Show more" marker, and rendering continues. Empty input still yields
// exactly one page.
func Pages(listings []model.Listing, byteLimit int) []string {
	var pages []string
	rows := [][]string{headerRow}

	for _, l := range listings {
		rows = append(rows, listingRow(l))
		if len(render(rows)) <= byteLimit {
			continue
		}
		// Carry the two most recent rows onto the next page.
		carryFrom := len(rows) - 2
		if carryFrom < 1 {
			carryFrom = 1
		}
		carried := make([][]string, len(rows)-carryFrom)
		copy(carried, rows[carryFrom:])
		kept := rows[:carryFrom:carryFrom]
		kept = append(kept, []string{fmt.Sprintf("Show more... add page:%d to your command", len(pages)+2)})
		pages = append(pages, fence(render(kept)))

		rows = [][]string{headerRow}
		rows = append(rows, carried...)
	}
	pages = append(pages, fence(render(rows)))
	return pages
}

// Paginate renders the requested 1-indexed page. Out-of-range requests
// clamp to the nearest available page.
func Paginate(listings []model.Listing, byteLimit, page int) string {
	pages := Pages(listings, byteLimit)
	if page < 1 {
		page = 1
	}
	if page > len(pages) {
		page = len(pages)
	}
	return pages[page-1]
}

// Detail renders the full single-listing view.
func Detail(l *model.Listing) string {
	return fmt.Sprintf(
		"```Description: %s\nOffer: %d %s\nRequest: %d %s\nLocation: N:%d E:%d\nStock: %d\nUser: %s\n```",
		l.Description,
		l.OfferQuantity, l.OfferItem,
		l.RequestQuantity, l.RequestItem,
		l.LocationNorth, l.LocationEast,
		l.OfferCount,
		l.Owner,
	)
}

func listingRow(l model.Listing) []string {
	return []string{
		fmt.Sprintf("%d %s", l.OfferQuantity, l.OfferItem),
		fmt.Sprintf("%d %s", l.RequestQuantity, l.RequestItem),
		fmt.Sprintf("N:%d E:%d", l.LocationNorth, l.LocationEast),
		fmt.Sprintf("%d", l.ID),
	}
}

func render(rows [][]string) string {
	var buf bytes.Buffer
	t := tablewriter.NewWriter(&buf)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	t.SetBorder(false)
	t.SetHeaderLine(false)
	t.SetRowSeparator("")
	t.SetCenterSeparator("")
	t.SetColumnSeparator(" ")
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.AppendBulk(rows)
	t.Render()
	return buf.String()
}

func fence(table string) string {
	return fmt.Sprintf("```\n%s\n```", table)
}
