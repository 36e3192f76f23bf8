package wix

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is the Stores catalog v3 product-creation payload. Optional
// sections are pointers so that absent data is omitted, never sent empty.
type Product struct {
	Name                 string          `json:"name,omitempty"`
	ProductType          string          `json:"productType,omitempty"`
	Visible              *bool           `json:"visible,omitempty"`
	PlainDescription     string          `json:"plainDescription,omitempty"`
	Brand                *Brand          `json:"brand,omitempty"`
	Media                *Media          `json:"media,omitempty"`
	DirectCategoriesInfo *CategoriesInfo `json:"directCategoriesInfo,omitempty"`
	VariantsInfo         *VariantsInfo   `json:"variantsInfo,omitempty"`
}

type Brand struct {
	Name string `json:"name"`
}

type Media struct {
	Items []MediaItem `json:"items"`
}

type MediaItem struct {
	URL string `json:"url"`
}

type CategoriesInfo struct {
	Categories []CategoryRef `json:"categories"`
}

type CategoryRef struct {
	ID string `json:"id"`
}

type VariantsInfo struct {
	Variants []Variant `json:"variants"`
}

// Variant carries price and physical properties in the v3 schema. Prices
// are decimal strings, not numbers.
type Variant struct {
	SKU                string              `json:"sku,omitempty"`
	Barcode            string              `json:"barcode,omitempty"`
	Price              *VariantPrice       `json:"price,omitempty"`
	PhysicalProperties *PhysicalProperties `json:"physicalProperties,omitempty"`
}

type VariantPrice struct {
	ActualPrice *Money `json:"actualPrice,omitempty"`
}

type Money struct {
	Amount string `json:"amount"`
}

type PhysicalProperties struct {
	Weight *float64 `json:"weight,omitempty"`
}

const ProductTypePhysical = "PHYSICAL"

// Source is the snapshot of an item the transformer reads.
type Source struct {
	Code         string
	Name         string
	Description  string
	Brand        string
	Barcode      string
	Image        string
	Price        decimal.NullDecimal
	Weight       *float64
	Visible      bool
	CategoryID   string
	ImageBaseURL string
}

// ProductResponse is the outcome of a successful create/update/get call.
type ProductResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	StatusCode int    `json:"status_code"`
	Body       string `json:"body,omitempty"`
}

type productEnvelope struct {
	Product Product `json:"product"`
}

type productResult struct {
	Product struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"product"`
}

// SiteProperties is the read-only response used to check connectivity.
type SiteProperties struct {
	Properties json.RawMessage `json:"properties"`
	StatusCode int             `json:"-"`
}
