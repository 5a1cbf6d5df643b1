package model

import "time"

// Category is a row in the closed `categories` lookup table.  Earlier
// revisions of the system duplicated products into one table per
// category; the schema here keeps a single products table and
// references categories by foreign key, with the slug acting as the
// stable key exposed to clients.
//
// Fields:
//
//	ID   – numeric identifier of the category.
//	Slug – unique, URL-safe category key (e.g. "electronics").
//	Name – display name.
type Category struct {
	ID   uint64 // categories.id
	Slug string // categories.slug
	Name string // categories.name
}

// Product mirrors the `products` table.  Images live in the separate
// product_images table because a product owns zero or more binary
// payloads.
//
// Fields:
//
//	ID          – primary key identifier.
//	CategoryID  – foreign key into categories.
//	Title       – product title shown in listings.
//	Description – free-text description.
//	Price       – unit price (DECIMAL(10,2) in storage).
//	IsNew       – marks the product for the deals listing.
//	CreatedAt   – creation timestamp.
type Product struct {
	ID          uint64    // products.id
	CategoryID  uint64    // products.category_id
	Title       string    // products.title
	Description string    // products.description
	Price       float64   // products.price
	IsNew       bool      // products.is_new
	CreatedAt   time.Time // products.created_at
}

// ProductImage mirrors the `product_images` table.  Data holds the raw
// image bytes as stored; handlers encode them as base64 data URIs on the
// way out.
type ProductImage struct {
	ID        uint64 // product_images.id
	ProductID uint64 // product_images.product_id
	Data      []byte // product_images.image
}
