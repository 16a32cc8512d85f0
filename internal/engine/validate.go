package engine

import (
	"errors"
	"fmt"

	"bingohall/internal/model"
)

var (
	ErrUnsupportedGrid = errors.New("unsupported card grid")
	ErrNotEnoughItems  = errors.New("not enough items to fill a card")
	ErrMissingCard     = errors.New("bingo card is required")
)

// ValidateCard checks a caller's card configuration before any deck is built
func ValidateCard(card *model.BingoCard) error {
	if card == nil {
		return ErrMissingCard
	}
	switch card.CardGrid {
	case model.Grid3, model.Grid4, model.Grid5:
	case model.Grid90:
		if card.CardType != model.CardTraditional {
			return fmt.Errorf("%w: grid 9 is numbers only", ErrUnsupportedGrid)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedGrid, card.CardGrid)
	}
	switch card.CardType {
	case model.CardTraditional, model.CardCombo, model.CardText, model.CardImage:
	default:
		return fmt.Errorf("unknown card type %q", card.CardType)
	}
	return nil
}

// ValidateDeck checks that a deck can fill a player's card
func ValidateDeck(card *model.BingoCard, deck model.CallItems) error {
	grid := card.CardGrid
	if grid == model.Grid90 {
		return nil
	}
	if card.UsesBands() {
		for b := 0; b < grid; b++ {
			if n := len(band(deck, grid, b)); n < grid {
				return fmt.Errorf("%w: column %d has %d of %d items", ErrNotEnoughItems, b, n, grid)
			}
		}
		return nil
	}
	if len(deck) < grid*grid {
		return fmt.Errorf("%w: %d of %d items", ErrNotEnoughItems, len(deck), grid*grid)
	}
	return nil
}
