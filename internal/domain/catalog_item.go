package domain

type CatalogItem struct {
	ID       int64   `json:"_id" bson:"_id"`
	Title    string  `json:"title" bson:"title"`
	Price    float64 `json:"price" bson:"price"`
	ImageSrc string  `json:"imageSrc" bson:"imageSrc"`
}
