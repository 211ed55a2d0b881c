package domain

import "time"

// Product price and related money fields are tiyin (minor units). Images,
// Features and Specs are JSON documents.
type Product struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Collection      string    `json:"collection"`
	Price           int64     `json:"price"`
	Image           string    `json:"image,omitempty"`
	Images          string    `json:"images,omitempty"`
	Description     string    `json:"description,omitempty"`
	Features        string    `json:"features,omitempty"`
	Specs           string    `json:"specs,omitempty"`
	InStock         bool      `json:"in_stock"`
	StockQuantity   int       `json:"stock_quantity"`
	SKU             string    `json:"sku,omitempty"`
	Movement        string    `json:"movement,omitempty"`
	CaseMaterial    string    `json:"case_material,omitempty"`
	DialColor       string    `json:"dial_color,omitempty"`
	WaterResistance string    `json:"water_resistance,omitempty"`
	SEOTitle        string    `json:"seo_title,omitempty"`
	SEODescription  string    `json:"seo_description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Collection is a product line (e.g. "Classic", "Sports"). ID is a URL slug.
type Collection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Number      string `json:"number,omitempty"`
	Active      bool   `json:"active"`
}
