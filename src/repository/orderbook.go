package repository

import "tsetmc-pusher/src/models"

// mergeOrderBook applies incoming rows onto current by rank position and
// returns the merged book plus the number of rows whose quote changed.
// Row ranks are 1-based; rows beyond the current depth extend the book.
func mergeOrderBook(current, incoming []models.MOrderBookRow) ([]models.MOrderBookRow, int) {
	updated := 0
	for _, row := range incoming {
		if row.Rank <= 0 {
			continue
		}
		for len(current) < row.Rank {
			current = append(current, models.MOrderBookRow{Rank: len(current) + 1})
		}

		slot := &current[row.Rank-1]
		if slot.SameQuote(row) {
			if row.RowID > slot.RowID {
				slot.RowID = row.RowID
			}
			continue
		}
		*slot = row
		updated++
	}
	return current, updated
}
