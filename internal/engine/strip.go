package engine

import (
	"slices"
	"strconv"

	"bingohall/internal/model"
)

// 90-ball strip geometry
const (
	StripTickets   = 6
	TicketRows     = 3
	TicketCols     = 9
	TicketCells    = TicketRows * TicketCols
	StripCells     = StripTickets * TicketCells
	numbersPerRow  = 5
	maxColPerTkt   = TicketRows
	maxStripTrials = 64
)

// columnRange returns the inclusive number range of strip column c: 1-9, 10-19 ... 80-90
func columnRange(c int) (lo, hi int) {
	switch c {
	case 0:
		return 1, 9
	case TicketCols - 1:
		return 80, 90
	}
	return c * 10, c*10 + 9
}

// GenerateStrip deals all of 1..90 across six tickets of three rows by nine columns.
// Every row carries exactly five numbers, every ticket column one to three numbers
// sorted top to bottom, and column c only holds numbers of its decade.
// The result is flat: ticket t, row r, column c sits at t*27 + r*9 + c.
func GenerateStrip(rng Rand) model.CallItems {
	var counts [StripTickets][TicketCols]int
	for trial := 0; ; trial++ {
		var ok bool
		counts, ok = dealColumnCounts(rng)
		if ok {
			break
		}
		if trial >= maxStripTrials {
			counts = fallbackCounts()
			break
		}
	}

	cells := make(model.CallItems, StripCells)
	for i := range cells {
		cells[i] = model.CallItem{Type: model.ItemEmpty}
	}

	var pools [TicketCols][]int
	for c := 0; c < TicketCols; c++ {
		lo, hi := columnRange(c)
		nums := make([]int, 0, hi-lo+1)
		for n := lo; n <= hi; n++ {
			nums = append(nums, n)
		}
		pools[c] = Shuffle(rng, nums)
	}

	for t := 0; t < StripTickets; t++ {
		rows := placeRows(rng, counts[t])
		for c := 0; c < TicketCols; c++ {
			k := counts[t][c]
			nums := pools[c][:k]
			pools[c] = pools[c][k:]
			slices.Sort(nums)
			for i, r := range rows[c] {
				n := nums[i]
				cells[t*TicketCells+r*TicketCols+c] = model.CallItem{
					Key:   n,
					Type:  model.ItemNumber,
					Value: strconv.Itoa(n),
				}
			}
		}
	}
	return cells
}

// dealColumnCounts decides how many numbers each ticket takes from each column.
// Every ticket gets one per column first, then the surplus is spread so each ticket
// ends with fifteen numbers and no column above three.
func dealColumnCounts(rng Rand) ([StripTickets][TicketCols]int, bool) {
	var counts [StripTickets][TicketCols]int
	var totals [StripTickets]int
	surplus := make([]int, TicketCols)
	for c := 0; c < TicketCols; c++ {
		lo, hi := columnRange(c)
		surplus[c] = hi - lo + 1 - StripTickets
		for t := 0; t < StripTickets; t++ {
			counts[t][c] = 1
			totals[t]++
		}
	}

	order := Shuffle(rng, []int{0, 1, 2, 3, 4, 5, 6, 7, 8})
	slices.SortStableFunc(order, func(a, b int) int { return surplus[b] - surplus[a] })

	for _, c := range order {
		for ; surplus[c] > 0; surplus[c]-- {
			best := -1
			for _, t := range Shuffle(rng, []int{0, 1, 2, 3, 4, 5}) {
				if counts[t][c] >= maxColPerTkt || totals[t] >= TicketRows*numbersPerRow {
					continue
				}
				if best < 0 || totals[t] < totals[best] {
					best = t
				}
			}
			if best < 0 {
				return counts, false
			}
			counts[best][c]++
			totals[best]++
		}
	}
	return counts, true
}

// fallbackCounts is a fixed valid distribution used if random dealing keeps failing
func fallbackCounts() [StripTickets][TicketCols]int {
	return [StripTickets][TicketCols]int{
		{1, 2, 2, 2, 2, 1, 2, 1, 2},
		{1, 2, 2, 1, 2, 2, 1, 2, 2},
		{1, 1, 2, 2, 1, 2, 2, 2, 2},
		{2, 2, 1, 2, 2, 1, 2, 2, 1},
		{2, 1, 2, 2, 1, 2, 2, 1, 2},
		{2, 2, 1, 1, 2, 2, 1, 2, 2},
	}
}

// placeRows picks, for every column of one ticket, the rows its numbers occupy.
// Columns always go to the least filled rows, which keeps the rows within one of
// each other and so lands on exactly five per row.
func placeRows(rng Rand, counts [TicketCols]int) [TicketCols][]int {
	var fill [TicketRows]int
	var out [TicketCols][]int

	cols := Shuffle(rng, []int{0, 1, 2, 3, 4, 5, 6, 7, 8})
	slices.SortStableFunc(cols, func(a, b int) int { return counts[b] - counts[a] })

	for _, c := range cols {
		rows := Shuffle(rng, []int{0, 1, 2})
		slices.SortStableFunc(rows, func(a, b int) int { return fill[a] - fill[b] })
		picked := slices.Clone(rows[:counts[c]])
		slices.Sort(picked)
		for _, r := range picked {
			fill[r]++
		}
		out[c] = picked
	}
	return out
}
