package cart

// Package cart models the kiosk cart as an explicit, serializable value
// mutated only through a small set of pure update functions.

import (
	"regexp"
	"sort"
	"strings"

	"github.com/seung7-arch/als-deli-website/internal/models"
)

type Cart struct {
	Items []models.LineItem `json:"items"`
}

// Add merges the item into the cart: lines with the same normalized name and
// the same modifier set are collapsed by summing quantities; anything else
// appends a new line. Items with a non-positive price or quantity are
// silently dropped, matching kiosk behavior.
func Add(c *Cart, item models.LineItem) {
	if c == nil || item.UnitPriceCents <= 0 {
		return
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	key := lineKey(item.Name, item.Modifiers)
	for i := range c.Items {
		if lineKey(c.Items[i].Name, c.Items[i].Modifiers) == key {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// Remove deletes the line at index, preserving cart order. Out-of-range
// indexes are a no-op.
func Remove(c *Cart, index int) {
	if c == nil || index < 0 || index >= len(c.Items) {
		return
	}
	c.Items = append(c.Items[:index], c.Items[index+1:]...)
}

func Clear(c *Cart) {
	if c == nil {
		return
	}
	c.Items = nil
}

func (c *Cart) SubtotalCents() int64 {
	if c == nil {
		return 0
	}
	var total int64
	for _, item := range c.Items {
		total += item.UnitPriceCents * item.Quantity
	}
	return total
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// NormalizeName produces the merge key for a menu item name: trimmed,
// lowercased, whitespace collapsed, with the "with fries" spelling folded
// into the menu's "w/fries" shorthand.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = whitespaceRE.ReplaceAllString(n, " ")
	n = strings.ReplaceAll(n, "with fries", "w/fries")
	return n
}

func lineKey(name string, modifiers []string) string {
	mods := make([]string, len(modifiers))
	copy(mods, modifiers)
	sort.Strings(mods)
	return NormalizeName(name) + "|" + strings.Join(mods, ",")
}
