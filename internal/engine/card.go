package engine

import "bingohall/internal/model"

// FreeSpaceIndex is the card cell a free space overwrites
func FreeSpaceIndex(grid int) int {
	switch grid {
	case model.Grid3:
		return 4
	case model.Grid4:
		return 5
	case model.Grid5:
		return 12
	}
	return 0
}

// band returns the b-th column band of a deck, clamped to the deck length
func band(deck model.CallItems, grid, b int) model.CallItems {
	per := GetLimit(grid) / grid
	lo, hi := b*per, (b+1)*per
	if lo > len(deck) {
		lo = len(deck)
	}
	if hi > len(deck) {
		hi = len(deck)
	}
	return deck[lo:hi]
}

// CreateCardItems generates one player's card from the original deck.
// 90-ball cards are a full six ticket strip; the other grids are grid² cells,
// column by column when the card uses bands.
func CreateCardItems(rng Rand, card *model.BingoCard, original model.CallItems) model.CallItems {
	grid := card.CardGrid
	if grid == model.Grid90 {
		return GenerateStrip(rng)
	}

	var cells model.CallItems
	if card.UsesBands() {
		cells = make(model.CallItems, 0, grid*grid)
		for b := 0; b < grid; b++ {
			col := Shuffle(rng, band(original, grid, b))
			cells = append(cells, col[:min(grid, len(col))]...)
		}
	} else {
		shuffled := Shuffle(rng, original)
		cells = shuffled[:min(grid*grid, len(shuffled))]
	}
	for i := range cells {
		cells[i].Called = false
	}

	if card.CardSettings.FreeSpace {
		idx := FreeSpaceIndex(grid)
		if idx < len(cells) {
			if img := card.CardStyle.FreeSpaceImg; img != nil && img.Value != "" {
				cells[idx] = model.CallItem{Key: model.FreeSpaceKey, Type: model.ItemImage, Value: img.Value, Head: " "}
			} else if card.CardSettings.FreeSpaceText != "" {
				cells[idx] = model.CallItem{Key: model.FreeSpaceKey, Type: model.ItemText, Value: card.CardSettings.FreeSpaceText, Head: " "}
			}
		}
	}
	return cells
}
