package engine

import (
	"strconv"

	"bingohall/internal/model"
)

var defaultHeaders = []string{"B", "I", "N", "G", "O"}

// GetLimit is the highest number of a numeric deck, and the item cap of a banded combo deck
func GetLimit(grid int) int {
	switch grid {
	case model.Grid90:
		return 90
	case model.Grid5:
		return 75
	case model.Grid4:
		return 80
	}
	return 30
}

// bandCount is the number of column bands a deck splits into; 90-ball decks call in five
func bandCount(grid int) int {
	if grid == model.Grid90 {
		return 5
	}
	return grid
}

// HeaderLabels pads custom header text to the grid width, or falls back to B I N G O
func HeaderLabels(headerText []string, grid int) []string {
	if len(headerText) == 0 {
		return defaultHeaders
	}
	labels := make([]string, 0, max(grid, len(headerText)))
	for _, h := range headerText {
		if h == "" {
			h = " "
		}
		labels = append(labels, h)
	}
	for len(labels) < grid {
		labels = append(labels, " ")
	}
	return labels
}

func label(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return " "
}

// NumberDeck builds the numeric deck in band order: every band holds a contiguous
// range of numbers, shuffled within the band and tagged with its column header.
func NumberDeck(rng Rand, grid int, headerText []string) model.CallItems {
	limit := GetLimit(grid)
	bands := bandCount(grid)
	perBand := limit / bands
	labels := HeaderLabels(headerText, bands)

	deck := make(model.CallItems, 0, perBand*bands)
	for b := 0; b < bands; b++ {
		band := make(model.CallItems, 0, perBand)
		for n := b*perBand + 1; n <= (b+1)*perBand; n++ {
			band = append(band, model.CallItem{
				Key:   n,
				Type:  model.ItemNumber,
				Value: strconv.Itoa(n),
				Head:  label(labels, b),
			})
		}
		deck = append(deck, Shuffle(rng, band)...)
	}
	return deck
}

// ComboDeckWithHeaders interleaves text and image items up to the grid's limit and heads
// each by its band. It also returns the per-type items that made the cut.
func ComboDeckWithHeaders(grid int, text, images []model.CallItem, headerText []string) (deck model.CallItems, textUsed, imagesUsed []model.CallItem) {
	limit := GetLimit(grid)
	perBand := limit / grid
	labels := HeaderLabels(headerText, grid)

	all := make(model.CallItems, 0, len(text)+len(images))
	for i := 0; i < max(len(text), len(images)); i++ {
		if i < len(text) {
			it := text[i]
			it.Key = i
			all = append(all, it)
		}
		if i < len(images) {
			it := images[i]
			it.Key = len(text) + i
			all = append(all, it)
		}
	}
	if len(all) > limit {
		all = all[:limit]
	}

	textUsed = []model.CallItem{}
	imagesUsed = []model.CallItem{}
	for i := range all {
		all[i].Head = label(labels, i/perBand)
		all[i].Called = false
		switch all[i].Type {
		case model.ItemText:
			textUsed = append(textUsed, all[i])
		case model.ItemImage:
			imagesUsed = append(imagesUsed, all[i])
		}
	}
	return all, textUsed, imagesUsed
}

// SequentialDeck keys text items first then image items, in submission order
func SequentialDeck(text, images []model.CallItem) (deck model.CallItems, textKeyed, imagesKeyed []model.CallItem) {
	textKeyed = make([]model.CallItem, len(text))
	for i, it := range text {
		it.Key = i
		it.Called = false
		textKeyed[i] = it
	}
	imagesKeyed = make([]model.CallItem, len(images))
	for i, it := range images {
		it.Key = len(text) + i
		it.Called = false
		imagesKeyed[i] = it
	}
	deck = make(model.CallItems, 0, len(text)+len(images))
	deck = append(deck, textKeyed...)
	deck = append(deck, imagesKeyed...)
	return deck, textKeyed, imagesKeyed
}

// BuildDeck derives the original deck for a caller's card, and the card as it should be
// stored with keyed items. The working deck is a Shuffle of the original.
func BuildDeck(rng Rand, card *model.BingoCard) (model.CallItems, *model.BingoCard) {
	stored := *card
	grid := card.CardGrid

	switch {
	case card.CardType == model.CardTraditional:
		return NumberDeck(rng, grid, card.CardSettings.HeaderText), &stored

	case card.CardType == model.CardCombo && card.CardSettings.TraditionalRandomization:
		deck, text, images := ComboDeckWithHeaders(grid, card.CardItems.TextItems, card.CardItems.ImageItems, card.CardSettings.HeaderText)
		stored.CardItems = model.CardItems{TextItems: text, ImageItems: images}
		return deck, &stored

	default:
		deck, text, images := SequentialDeck(card.CardItems.TextItems, card.CardItems.ImageItems)
		stored.CardItems = model.CardItems{TextItems: text, ImageItems: images}
		return deck, &stored
	}
}
