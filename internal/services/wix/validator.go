package wix

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Catalog field limits.
const (
	MaxNameLength        = 80
	MaxSKULength         = 40
	MaxDescriptionLength = 8000
)

// Validate checks p against the catalog constraints and returns one
// human-readable message per problem. An empty result means p may be sent.
func Validate(p *Product) []string {
	if p == nil {
		return []string{"product payload is required"}
	}

	var errs []string

	name := strings.TrimSpace(p.Name)
	if name == "" {
		errs = append(errs, "product name is required")
	} else if n := utf8.RuneCountInString(name); n > MaxNameLength {
		errs = append(errs, fmt.Sprintf("product name exceeds %d character limit (%d)", MaxNameLength, n))
	}

	if p.ProductType == "" {
		errs = append(errs, "product type is required")
	}

	if utf8.RuneCountInString(p.PlainDescription) > MaxDescriptionLength {
		errs = append(errs, fmt.Sprintf("description exceeds %d character limit", MaxDescriptionLength))
	}

	if p.VariantsInfo == nil || len(p.VariantsInfo.Variants) == 0 {
		errs = append(errs, "price is required: at least one variant with a price is required")
		return errs
	}

	for i, v := range p.VariantsInfo.Variants {
		errs = append(errs, validateVariant(i+1, v)...)
	}

	return errs
}

func validateVariant(n int, v Variant) []string {
	var errs []string

	if strings.TrimSpace(v.SKU) == "" {
		errs = append(errs, fmt.Sprintf("variant %d: sku is required", n))
	} else if utf8.RuneCountInString(v.SKU) > MaxSKULength {
		errs = append(errs, fmt.Sprintf("variant %d: sku exceeds %d character limit", n, MaxSKULength))
	}

	if v.Price == nil || v.Price.ActualPrice == nil || strings.TrimSpace(v.Price.ActualPrice.Amount) == "" {
		errs = append(errs, fmt.Sprintf("variant %d: price is required", n))
		return errs
	}

	amount, err := decimal.NewFromString(v.Price.ActualPrice.Amount)
	if err != nil {
		errs = append(errs, fmt.Sprintf("variant %d: price must be numeric", n))
	} else if !amount.IsPositive() {
		errs = append(errs, fmt.Sprintf("variant %d: price must be greater than zero", n))
	}

	return errs
}
