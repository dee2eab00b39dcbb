package product

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// AllCategories is the category filter value that matches everything.
const AllCategories = "all"

// Search returns the products whose name, brand, description or category
// contains query, case-insensitively. An empty query returns products as is.
func Search(products []Product, query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Brand), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	return out
}

// FilterCategory keeps products in category. Empty or AllCategories keeps all.
func FilterCategory(products []Product, category string) []Product {
	if category == "" || category == AllCategories {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// FilterPrice keeps products priced within [minPrice, maxPrice]. A nil bound
// is open.
func FilterPrice(products []Product, minPrice, maxPrice *decimal.Decimal) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if minPrice != nil && p.Price.LessThan(*minPrice) {
			continue
		}
		if maxPrice != nil && p.Price.GreaterThan(*maxPrice) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sort returns a sorted copy. field is one of "price", "name" or
// "created_at"; a leading "-" sorts descending. Unknown fields leave the
// order unchanged.
func Sort(products []Product, field string) []Product {
	desc := strings.HasPrefix(field, "-")
	field = strings.TrimPrefix(field, "-")

	var cmp func(a, b Product) int
	switch field {
	case "price":
		cmp = func(a, b Product) int { return a.Price.Cmp(b.Price) }
	case "name":
		cmp = func(a, b Product) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case "created_at":
		cmp = func(a, b Product) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return slices.Clone(products)
	}

	sorted := slices.Clone(products)
	slices.SortStableFunc(sorted, func(a, b Product) int {
		if desc {
			return cmp(b, a)
		}
		return cmp(a, b)
	})
	return sorted
}

// Similar ranks other products by shared category (2 points) and brand
// (1 point) and returns up to limit of them.
func Similar(p Product, all []Product, limit int) []Product {
	score := func(o Product) int {
		s := 0
		if o.Category == p.Category {
			s += 2
		}
		if o.Brand == p.Brand {
			s++
		}
		return s
	}

	out := make([]Product, 0, limit)
	for _, o := range all {
		if o.ID != p.ID && score(o) > 0 {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b Product) int { return score(b) - score(a) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
