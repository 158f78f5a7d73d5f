package selector

// Descriptor is the rendering decision for one search response. It is one of
// PlainText, RichCard or NoMatch; channels switch on the concrete type.
type Descriptor interface {
	descriptor()
}

// PlainText is a single text reply, sent verbatim.
type PlainText string

// RichCard is an ordered list of blocks shown as one card.
type RichCard []Block

// NoMatch means nothing usable was found. Channels answer with their
// fallback message.
type NoMatch struct{}

func (PlainText) descriptor() {}
func (RichCard) descriptor()  {}
func (NoMatch) descriptor()   {}

// Block is one element of a RichCard: Info, Chips or Image.
type Block interface {
	block()
}

// Info is a title with an optional subtitle.
type Info struct {
	Title    string
	Subtitle string
}

// Chips is a row of link suggestions.
type Chips struct {
	Options []Chip
}

// Chip is one suggestion; Link is opened when it is tapped.
type Chip struct {
	Text string
	Link string
}

// Image shows the picture at URL, described by AltText.
type Image struct {
	URL     string
	AltText string
}

func (Info) block()  {}
func (Chips) block() {}
func (Image) block() {}

// Kind names the descriptor variant, for logs and metrics labels.
func Kind(d Descriptor) string {
	switch d.(type) {
	case PlainText:
		return "plain_text"
	case RichCard:
		return "rich_card"
	case NoMatch:
		return "no_match"
	}
	return "unknown"
}
