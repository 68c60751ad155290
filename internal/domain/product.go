package domain

import "time"

// Product is a catalog entry. Price is in the smallest currency unit.
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Price       int64     `json:"price" bson:"price"`
	ImageURL    string    `json:"imageUrl" bson:"image_url"`
	Category    string    `json:"category" bson:"category"`
	Stock       int       `json:"stock" bson:"stock"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}
