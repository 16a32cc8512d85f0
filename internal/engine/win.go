package engine

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"bingohall/internal/model"
)

// CheckWinningPattern reports whether marked keys satisfy the pattern on a card.
//
// For 90-ball strips the pattern is a line count: any ticket with at least that many
// fully marked rows wins. For the other grids the pattern is a comma separated list
// of flat cell indices that must all be marked; the free space cell counts as marked
// whenever key -1 is.
func CheckWinningPattern(markedKeys []int, card model.CallItems, pattern string, grid int) bool {
	marked := make(map[int]bool, len(markedKeys))
	for _, k := range markedKeys {
		marked[k] = true
	}
	if grid == model.Grid90 {
		return checkStrip(marked, card, pattern)
	}
	return checkGrid(marked, markedKeys, card, pattern, grid)
}

func checkStrip(marked map[int]bool, card model.CallItems, pattern string) bool {
	required, ok := leadingInt(pattern)
	if !ok {
		return false
	}

	for t := 0; t < len(card); t += TicketCells {
		ticket := card[t:min(t+TicketCells, len(card))]
		complete := 0
		for r := 0; r < len(ticket); r += TicketCols {
			if rowComplete(marked, ticket[r:min(r+TicketCols, len(ticket))]) {
				complete++
			}
		}
		if complete >= required {
			return true
		}
	}
	return false
}

// rowComplete is true when the row has at least one number and all of them are marked
func rowComplete(marked map[int]bool, row model.CallItems) bool {
	seen := 0
	for _, cell := range row {
		if cell.IsEmpty() {
			continue
		}
		seen++
		if !marked[cell.Key] {
			return false
		}
	}
	return seen > 0
}

func checkGrid(marked map[int]bool, markedKeys []int, card model.CallItems, pattern string, grid int) bool {
	size := grid * grid
	required := make([]bool, size)
	for _, idx := range patternIndices(pattern) {
		if idx >= 0 && idx < size {
			required[idx] = true
		}
	}

	center := FreeSpaceIndex(grid)
	achieved := make([]bool, size)
	for _, key := range markedKeys {
		if key == model.FreeSpaceKey {
			if center < size {
				achieved[center] = true
			}
			continue
		}
		if i := card.IndexOfKey(key); i >= 0 && i < size {
			achieved[i] = true
		}
	}

	freeMarked := marked[model.FreeSpaceKey]
	for i, need := range required {
		if !need || (i == center && freeMarked) {
			continue
		}
		if !achieved[i] {
			return false
		}
	}
	return true
}

// patternIndices parses a comma separated index list. Blank entries mean 0;
// entries that are not whole numbers are dropped.
func patternIndices(pattern string) []int {
	parts := strings.Split(pattern, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			out = append(out, 0)
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
			continue
		}
		out = append(out, int(f))
	}
	return out
}

// leadingInt reads an optionally signed integer prefix, ignoring leading space
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
