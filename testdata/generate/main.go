// Command generate writes testdata/catalog.json, the catalog seed used when
// the server starts with an empty database.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/orientwatch/backend/internal/domain"
)

var collections = []domain.Collection{
	{ID: "classic", Name: "Classic", Description: "Строгая классика на каждый день", Number: "01", Active: true},
	{ID: "sports", Name: "Sports", Description: "Спортивные дайверы и хронографы", Number: "02", Active: true},
	{ID: "contemporary", Name: "Contemporary", Description: "Современный городской стиль", Number: "03", Active: true},
	{ID: "mstar", Name: "M-Force", Description: "Профессиональные инструментальные часы", Number: "04", Active: false},
}

type template struct {
	name       string
	collection string
	priceSums  int64
	movement   string
	caseMat    string
	dial       string
	water      string
}

var templates = []template{
	{"Orient Bambino V4", "classic", 2450000, "automatic", "stainless steel", "white", "30m"},
	{"Orient Bambino Open Heart", "classic", 2890000, "automatic", "stainless steel", "blue", "30m"},
	{"Orient Symphony III", "classic", 2150000, "automatic", "stainless steel", "champagne", "50m"},
	{"Orient Kamasu", "sports", 3350000, "automatic", "stainless steel", "black", "200m"},
	{"Orient Mako II", "sports", 2980000, "automatic", "stainless steel", "blue", "200m"},
	{"Orient Ray II", "sports", 2980000, "automatic", "stainless steel", "black", "200m"},
	{"Orient Triton", "sports", 4650000, "automatic", "stainless steel", "green", "200m"},
	{"Orient Star Contemporary", "contemporary", 8900000, "automatic", "stainless steel", "silver", "100m"},
	{"Orient Multi-Year Calendar", "contemporary", 3180000, "automatic", "stainless steel", "black", "30m"},
	{"Orient Defender II", "contemporary", 2760000, "automatic", "stainless steel", "grey", "100m"},
}

func main() {
	var products []domain.Product
	for i, t := range templates {
		specs, _ := json.Marshal(map[string]string{
			"movement":         t.movement,
			"case_material":    t.caseMat,
			"water_resistance": t.water,
		})
		products = append(products, domain.Product{
			Name:            t.name,
			Collection:      t.collection,
			Price:           t.priceSums * 100, // tiyin
			Images:          "[]",
			Features:        "[]",
			Specs:           string(specs),
			InStock:         true,
			StockQuantity:   3 + i%5,
			SKU:             fmt.Sprintf("OW-%04d", i+1),
			Movement:        t.movement,
			CaseMaterial:    t.caseMat,
			DialColor:       t.dial,
			WaterResistance: t.water,
		})
	}

	out := map[string]any{
		"collections": collections,
		"products":    products,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile("testdata/catalog.json", data, 0o644); err != nil {
		log.Fatalf("write: %v", err)
	}
	fmt.Printf("wrote testdata/catalog.json: %d collections, %d products\n",
		len(collections), len(products))
}
