package domain

import "strconv"

const (
	maxTitleLen      = 15
	truncatedTitleLn = 14

	LabelAddToCart     = "Add To Cart"
	LabelAlreadyInCart = "Already In Cart"
)

// Card is the read-only projection of one catalog item for the current session.
type Card struct {
	Item         CatalogItem `json:"item"`
	IsLiked      bool        `json:"isLiked"`
	IsInCart     bool        `json:"isInCart"`
	CanLike      bool        `json:"canLike"`
	CanAddToCart bool        `json:"canAddToCart"`
	DisplayTitle string      `json:"displayTitle"`
	DisplayPrice string      `json:"displayPrice"`
	CartLabel    string      `json:"cartLabel"`
}

// NewCard projects item against user. A nil user means no session: every membership
// flag is false and both affordances are disabled.
func NewCard(item CatalogItem, user *UserSnapshot) Card {
	c := Card{
		Item:         item,
		DisplayTitle: displayTitle(item.Title),
		DisplayPrice: "$" + strconv.FormatFloat(item.Price, 'f', -1, 64),
		CartLabel:    LabelAddToCart,
	}
	if user == nil {
		return c
	}

	c.IsLiked = user.Liked(item.ID)
	c.IsInCart = user.InCart(item.ID)
	c.CanLike = true
	c.CanAddToCart = !c.IsInCart
	if c.IsInCart {
		c.CartLabel = LabelAlreadyInCart
	}
	return c
}

func NewCards(items []CatalogItem, user *UserSnapshot) []Card {
	cards := make([]Card, len(items))
	for i, item := range items {
		cards[i] = NewCard(item, user)
	}
	return cards
}

func displayTitle(title string) string {
	r := []rune(title)
	if len(r) > maxTitleLen {
		return string(r[:truncatedTitleLn]) + "..."
	}
	if len(r) > truncatedTitleLn {
		return string(r[:truncatedTitleLn])
	}
	return title
}
