package client

import (
	"sort"
	"strings"

	"github.com/kedhead/embPO/internal/models"
)

// StatusFilter selects orders by status; FilterAll passes everything through.
type StatusFilter string

const FilterAll StatusFilter = "all"

// Filter returns the orders matching both the free-text search term and the
// status filter, newest first. The term matches case-insensitively against
// the order number, customer name and customer email; an empty term matches
// everything. Pure projection: the input slice is never mutated.
func Filter(orders []models.PurchaseOrder, term string, status StatusFilter) []models.PurchaseOrder {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]models.PurchaseOrder, 0, len(orders))
	for _, po := range orders {
		if status != "" && status != FilterAll && string(po.Status) != string(status) {
			continue
		}
		if needle != "" && !matches(po, needle) {
			continue
		}
		out = append(out, po)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func matches(po models.PurchaseOrder, needle string) bool {
	for _, hay := range []string{po.OrderNumber, po.Customer.Name, po.Customer.Email} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}
