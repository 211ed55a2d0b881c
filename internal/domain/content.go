package domain

import "time"

// Content block names. Each block is a single JSON document keyed by name;
// the admin panel owns the document shape.
const (
	BlockHero     = "hero"
	BlockPromo    = "promo_banner"
	BlockHeritage = "heritage"
	BlockLogo     = "logo"
)

type ContentBlock struct {
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}
