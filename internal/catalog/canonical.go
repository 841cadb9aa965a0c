package catalog

import (
	"strconv"
	"strings"
)

// ProductText renders the canonical embedding text for a product. The output
// is a pure function of the input: field order is fixed and missing optional
// fields render as empty strings so the position of later fields never moves.
// This text is the sole embedding input, so any change to the layout silently
// invalidates every stored vector.
func ProductText(p Product) string {
	var variants strings.Builder
	for _, v := range p.Variants {
		parts := []string{
			"SKU: " + v.SKU,
			"Price: " + formatPrice(v.Price),
			"Stock: " + strconv.Itoa(v.Stock),
		}
		if attrs := joinAttributes(v.Attributes); attrs != "" {
			parts = append(parts, attrs)
		}
		variants.WriteString(strings.Join(parts, " | "))
		variants.WriteString("\n")
	}

	var b strings.Builder
	b.WriteString("\nName: " + p.Name)
	b.WriteString("\nDescription: " + p.Description)
	b.WriteString("\nBase Price: " + formatPrice(p.BasePrice))
	b.WriteString("\nCategory: " + p.CategoryName)
	b.WriteString("\nBrand: " + p.Brand)
	b.WriteString("\nTags: " + strings.Join(p.Tags, ", "))
	b.WriteString("\nVariants:\n" + variants.String())
	b.WriteString("\nProduct Attributes:\n" + attributeLines(p.Attributes))
	b.WriteString("\n")
	return b.String()
}

// ServiceText renders the canonical embedding text for a service. Same
// determinism contract as ProductText; services have no brand line and
// carry packages instead of variants.
func ServiceText(s Service) string {
	var packages strings.Builder
	for _, p := range s.Packages {
		parts := []string{
			"Package: " + p.Name,
			"Price: " + formatPrice(p.Price),
			"Description: " + p.Description,
		}
		if attrs := joinAttributes(p.Attributes); attrs != "" {
			parts = append(parts, attrs)
		}
		packages.WriteString(strings.Join(parts, " | "))
		packages.WriteString("\n")
	}

	var b strings.Builder
	b.WriteString("\nName: " + s.Name)
	b.WriteString("\nDescription: " + s.Description)
	b.WriteString("\nBase Price: " + formatPrice(s.BasePrice))
	b.WriteString("\nCategory: " + s.CategoryName)
	b.WriteString("\nTags: " + strings.Join(s.Tags, ", "))
	b.WriteString("\nPackages:\n" + packages.String())
	b.WriteString("\nService Attributes:\n" + attributeLines(s.Attributes))
	b.WriteString("\n")
	return b.String()
}

// joinAttributes renders sub-item attributes as "name: value | name: value".
func joinAttributes(attrs []Attribute) string {
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		_, display := a.Resolve()
		parts = append(parts, a.Name+": "+display)
	}
	return strings.Join(parts, " | ")
}

// attributeLines renders entity-level attributes, one "name: value" per line.
func attributeLines(attrs []Attribute) string {
	var b strings.Builder
	for _, a := range attrs {
		_, display := a.Resolve()
		b.WriteString(a.Name + ": " + display + "\n")
	}
	return b.String()
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
