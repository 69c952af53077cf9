package progress

import "github.com/shelfmates/bookshelf/pkg/models"

// PagesInYear sums the pages of books attributable to year.
func PagesInYear(books []models.Book, year int) int {
	total := 0
	for i := range books {
		total += PagesForBook(&books[i], year)
	}
	return total
}

// PagesForBook returns the share of b's pages read during year. A year-only
// record counts in full for its year. A date range is prorated by the number
// of its days that fall inside the year, both ends inclusive. Unfinished
// ranges count for nothing.
func PagesForBook(b *models.Book, year int) int {
	if b.PageCount <= 0 {
		return 0
	}

	switch p := b.Period.(type) {
	case models.YearPeriod:
		if p.Year == year {
			return b.PageCount
		}
		return 0

	case models.RangePeriod:
		if p.End == nil {
			return 0
		}
		start, end := p.Start, *p.End
		totalDays := start.DaysUntil(end) + 1
		if totalDays <= 0 {
			// Malformed range; credit it to the start day.
			if start.Year() == year {
				return b.PageCount
			}
			return 0
		}

		overlapStart := models.MaxDate(start, models.YearStart(year))
		overlapEnd := models.MinDate(end, models.YearEnd(year))
		if overlapEnd.Before(overlapStart) {
			return 0
		}
		overlapDays := overlapStart.DaysUntil(overlapEnd) + 1
		return roundHalfUp(b.PageCount*overlapDays, totalDays)
	}
	return 0
}

// roundHalfUp divides non-negative num by positive den, rounding .5 up.
func roundHalfUp(num, den int) int {
	return (2*num + den) / (2 * den)
}
