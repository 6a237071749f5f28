package domain

// UserSnapshot is the persisted session document of a signed-in user.
// An item id appears at most once in Cart and at most once in Likes.
type UserSnapshot struct {
	ID    string        `json:"_id" bson:"_id"`
	Email string        `json:"email,omitempty" bson:"email,omitempty"`
	Cart  []CatalogItem `json:"cart" bson:"cart"`
	Likes []CatalogItem `json:"likes" bson:"likes"`
}

func NewUserSnapshot(id, email string) *UserSnapshot {
	return &UserSnapshot{
		ID:    id,
		Email: email,
		Cart:  []CatalogItem{},
		Likes: []CatalogItem{},
	}
}

func (u *UserSnapshot) InCart(itemID int64) bool {
	return indexOf(u.Cart, itemID) >= 0
}

func (u *UserSnapshot) Liked(itemID int64) bool {
	return indexOf(u.Likes, itemID) >= 0
}

// AddToCart appends item unless it is already present and reports whether the cart changed.
func (u *UserSnapshot) AddToCart(item CatalogItem) bool {
	if u.InCart(item.ID) {
		return false
	}
	u.Cart = append(u.Cart, item)
	return true
}

// ToggleLike flips the membership of item in Likes and reports the new state.
func (u *UserSnapshot) ToggleLike(item CatalogItem) bool {
	if i := indexOf(u.Likes, item.ID); i >= 0 {
		u.Likes = append(u.Likes[:i:i], u.Likes[i+1:]...)
		return false
	}
	u.Likes = append(u.Likes, item)
	return true
}

// Normalize drops duplicate entries and replaces nil collections with empty ones.
func (u *UserSnapshot) Normalize() {
	u.Cart = dedupe(u.Cart)
	u.Likes = dedupe(u.Likes)
}

func (u *UserSnapshot) Clone() *UserSnapshot {
	if u == nil {
		return nil
	}
	c := *u
	c.Cart = append(make([]CatalogItem, 0, len(u.Cart)), u.Cart...)
	c.Likes = append(make([]CatalogItem, 0, len(u.Likes)), u.Likes...)
	return &c
}

func indexOf(items []CatalogItem, id int64) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func dedupe(items []CatalogItem) []CatalogItem {
	out := make([]CatalogItem, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}
