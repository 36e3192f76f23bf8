package wix

import (
	"strings"

	"catalogsync/internal/config"
	"catalogsync/internal/models"
)

// SourceFromItem snapshots the item fields the catalog cares about.
func SourceFromItem(item *models.Item, categoryID, imageBaseURL string) Source {
	return Source{
		Code:         item.Code,
		Name:         item.Name,
		Description:  deref(item.Description),
		Brand:        deref(item.Brand),
		Barcode:      deref(item.Barcode),
		Image:        deref(item.Image),
		Price:        item.Price,
		Weight:       item.Weight,
		Visible:      !item.Disabled,
		CategoryID:   categoryID,
		ImageBaseURL: imageBaseURL,
	}
}

// Transform maps an item snapshot to the current catalog product shape.
// Name and price are always emitted because the catalog requires them on
// create; use Product.ForUpdate to honour their toggles on update.
func Transform(src Source, fields config.FieldToggles) *Product {
	visible := src.Visible
	p := &Product{
		Name:        strings.TrimSpace(src.Name),
		ProductType: ProductTypePhysical,
		Visible:     &visible,
	}

	if fields.Description {
		if desc := strings.TrimSpace(src.Description); desc != "" {
			p.PlainDescription = desc
		}
	}

	if brand := strings.TrimSpace(src.Brand); brand != "" {
		p.Brand = &Brand{Name: brand}
	}

	if fields.Images && strings.TrimSpace(src.Image) != "" {
		p.Media = &Media{Items: []MediaItem{{URL: imageURL(src.Image, src.ImageBaseURL)}}}
	}

	if fields.Categories && src.CategoryID != "" {
		p.DirectCategoriesInfo = &CategoriesInfo{Categories: []CategoryRef{{ID: src.CategoryID}}}
	}

	variant := Variant{SKU: src.Code}
	if src.Price.Valid {
		variant.Price = &VariantPrice{
			ActualPrice: &Money{Amount: src.Price.Decimal.StringFixed(2)},
		}
	}
	if barcode := strings.TrimSpace(src.Barcode); barcode != "" {
		variant.Barcode = barcode
	}
	if src.Weight != nil && *src.Weight > 0 {
		w := *src.Weight
		variant.PhysicalProperties = &PhysicalProperties{Weight: &w}
	}
	p.VariantsInfo = &VariantsInfo{Variants: []Variant{variant}}

	return p
}

// ForUpdate returns a copy of p without the fields whose toggles are off.
func (p *Product) ForUpdate(fields config.FieldToggles) *Product {
	out := *p
	if !fields.Name {
		out.Name = ""
	}
	if !fields.Price && p.VariantsInfo != nil {
		variants := make([]Variant, len(p.VariantsInfo.Variants))
		for i, v := range p.VariantsInfo.Variants {
			v.Price = nil
			variants[i] = v
		}
		out.VariantsInfo = &VariantsInfo{Variants: variants}
	}
	return &out
}

func imageURL(path, base string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || base == "" {
		return path
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
