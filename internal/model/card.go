package model

// CardType selects how the call deck is built
type CardType string

const (
	CardTraditional CardType = "traditional"
	CardCombo       CardType = "combo"
	CardText        CardType = "text"
	CardImage       CardType = "image"
)

// Supported grid sizes. Grid 9 is the 90-ball strip variant.
const (
	Grid3  = 3
	Grid4  = 4
	Grid5  = 5
	Grid90 = 9
)

// CardItems holds the caller-supplied content of a non-numeric card
type CardItems struct {
	TextItems  []CallItem `json:"textItems"`
	ImageItems []CallItem `json:"imageItems"`
}

type ImageRef struct {
	Value string `json:"value"`
}

type CardStyle struct {
	FreeSpaceImg *ImageRef `json:"freeSpaceImg,omitempty"`
}

type CardSettings struct {
	FreeSpace                bool     `json:"freeSpace"`
	FreeSpaceText            string   `json:"freeSpaceText"`
	TraditionalRandomization bool     `json:"traditionalRandomization"`
	HeaderText               []string `json:"headerText"`
}

// BingoCard is the caller's card configuration submitted on CREATE_GAME
type BingoCard struct {
	UserID          string       `json:"userId"`
	CardGrid        int          `json:"cardGrid"`
	CardType        CardType     `json:"cardType"`
	CardItems       CardItems    `json:"cardItems"`
	CardStyle       CardStyle    `json:"cardStyle"`
	CardSettings    CardSettings `json:"cardSettings"`
	PlayingSettings Settings     `json:"playingSettings,omitempty"`
}

// UsesBands reports whether player cards are drawn column by column from deck bands
func (b *BingoCard) UsesBands() bool {
	return b.CardSettings.TraditionalRandomization || b.CardType == CardTraditional
}
