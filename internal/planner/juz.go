package planner

import (
	"fmt"

	"github.com/verte-zerg/hifz/internal/model"
)

// JuzCount is the number of juz in the mushaf.
const JuzCount = 30

// JuzStartPages holds the first page of each juz in the 604-page mushaf.
var JuzStartPages = [JuzCount]int{
	1, 22, 42, 62, 82, 102, 121, 142, 162, 182,
	201, 222, 242, 262, 282, 302, 322, 342, 362, 382,
	402, 422, 442, 462, 482, 502, 522, 542, 562, 582,
}

// JuzRange returns the page range of juz n (1-based).
func JuzRange(n int) (model.PageRange, error) {
	if n < 1 || n > JuzCount {
		return model.PageRange{}, fmt.Errorf("%w: %d", ErrInvalidJuz, n)
	}
	end := model.TotalPages
	if n < JuzCount {
		end = JuzStartPages[n] - 1
	}
	return model.PageRange{Start: JuzStartPages[n-1], End: end}, nil
}

// JuzSpan returns the pages from the first page of juz from to the last
// page of juz to.
func JuzSpan(from, to int) (model.PageRange, error) {
	first, err := JuzRange(from)
	if err != nil {
		return model.PageRange{}, err
	}
	last, err := JuzRange(to)
	if err != nil {
		return model.PageRange{}, err
	}
	if last.End < first.Start {
		return model.PageRange{}, fmt.Errorf("%w: juz %d comes after juz %d", ErrInvalidJuz, from, to)
	}
	return model.PageRange{Start: first.Start, End: last.End}, nil
}

// JuzOfPage returns the juz (1-based) containing page, or 0 when the page
// is outside the mushaf.
func JuzOfPage(page int) int {
	if page < 1 || page > model.TotalPages {
		return 0
	}
	juz := 1
	for i, start := range JuzStartPages {
		if page >= start {
			juz = i + 1
		}
	}
	return juz
}
