// Package models defines the catalog record types for csaharvest.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Placeholder is the id value written for item references whose identity is
// resolved later by the catalog consumer.
const Placeholder = "leave_empty"

// Item categories.
const (
	CategoryProduct    = "products"
	CategoryIngredient = "ingredients"
	CategoryRecipe     = "recipes"
)

// IDField returns the id key of a category's registry file.
func IDField(category string) string {
	switch category {
	case CategoryIngredient:
		return "ingredient_id"
	case CategoryRecipe:
		return "recipe_id"
	default:
		return "product_id"
	}
}

// RefIDField is the id key of every item reference in the hauls and recipes
// catalogs, ingredients included.
const RefIDField = "product_id"

// ItemRef records that a haul or recipe uses a product or ingredient.
// It is serialized as {"product_id": ID, "alias": Alias} whatever its
// category; the category only selects the registry that resolves it.
type ItemRef struct {
	Category string
	Alias    string
	ID       string
}

// NewItemRef returns an unresolved reference.
func NewItemRef(category, alias string) ItemRef {
	return ItemRef{Category: category, Alias: alias, ID: Placeholder}
}

// Resolved reports whether the reference carries a real identity.
func (r ItemRef) Resolved() bool {
	return r.ID != "" && r.ID != Placeholder
}

// MarshalJSON writes the id field first, matching the catalog layout.
func (r ItemRef) MarshalJSON() ([]byte, error) {
	id := r.ID
	if id == "" {
		id = Placeholder
	}
	return Identity{Field: RefIDField, ID: id, Alias: r.Alias}.MarshalJSON()
}

// Identity is one registry entry, serialized as {"<Field>": ID, "alias": Alias}.
type Identity struct {
	Field string
	ID    string
	Alias string
}

// MarshalJSON writes the id field first.
func (e Identity) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeJSONPair(&buf, e.Field, e.ID); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeJSONPair(&buf, "alias", e.Alias); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts product_id or ingredient_id. Category is inferred
// from the field present and may be overridden by the owning record.
func (r *ItemRef) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Alias = raw["alias"]
	switch {
	case raw["ingredient_id"] != "":
		r.Category = CategoryIngredient
		r.ID = raw["ingredient_id"]
	default:
		r.Category = CategoryProduct
		r.ID = raw["product_id"]
	}
	return nil
}

// Haul is one week's share contents.
type Haul struct {
	TimeStamp string    `json:"time_stamp"`
	Title     string    `json:"title"`
	Alias     string    `json:"alias"`
	Picture   string    `json:"picture"`
	Items     []ItemRef `json:"csa_items"`
	Message   string    `json:"message,omitempty"`
}

// Recipe is one recipe scraped from a week's page.
type Recipe struct {
	Alias       string       `json:"alias"`
	ID          string       `json:"recipe_id"`
	Picture     string       `json:"picture"`
	Items       []ItemRef    `json:"csa_items"`
	Ingredients []ItemRef    `json:"ingredients"`
	Message     []Paragraphs `json:"message,omitempty"`
}

// Instructions flattens the recipe message into its paragraphs in order.
func (r Recipe) Instructions() []string {
	var out []string
	for _, p := range r.Message {
		out = append(out, p...)
	}
	return out
}

// Paragraphs is an ordered list of instruction paragraphs serialized as
// {"paragraph_1": ..., "paragraph_2": ...} with keys in paragraph order.
type Paragraphs []string

// MarshalJSON keeps paragraph_10 after paragraph_9.
func (p Paragraphs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, text := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONPair(&buf, fmt.Sprintf("paragraph_%d", i+1), text); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON orders paragraphs by their numeric suffix. Keys without a
// numeric suffix sort after numbered ones.
func (p *Paragraphs) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return paragraphIndex(keys[i]) < paragraphIndex(keys[j])
	})
	out := make(Paragraphs, 0, len(keys))
	for _, k := range keys {
		out = append(out, raw[k])
	}
	*p = out
	return nil
}

func paragraphIndex(key string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(key, "paragraph_"))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

func writeJSONPair(buf *bytes.Buffer, key, value string) error {
	k, err := marshalString(key)
	if err != nil {
		return err
	}
	v, err := marshalString(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// Encode renders v as two-space indented JSON without HTML escaping. Equal
// inputs always produce identical bytes.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
