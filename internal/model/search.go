package model

import (
	"fmt"
	"strconv"
)

// SearchItem is a single result from the external shopping catalog.
// Prices arrive in the listed currency's smallest unit.
type SearchItem struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Image  string `json:"image"`
	LPrice int64  `json:"lprice"`
}

// CachedSearchItem represents a search result stored in Redis.
// Uses string types for Redis hash compatibility.
type CachedSearchItem struct {
	Title  string `redis:"title"`
	Link   string `redis:"link"`
	Image  string `redis:"image"`
	LPrice string `redis:"lprice"`
}

// ToSearchItem converts CachedSearchItem to the domain type.
// A malformed price string is an error; an empty one means zero.
func (c *CachedSearchItem) ToSearchItem() (*SearchItem, error) {
	item := &SearchItem{
		Title: c.Title,
		Link:  c.Link,
		Image: c.Image,
	}
	if c.LPrice != "" {
		price, err := strconv.ParseInt(c.LPrice, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid lprice %q: %w", c.LPrice, err)
		}
		item.LPrice = price
	}
	return item, nil
}

// ToCachedSearchItem converts a SearchItem for Redis storage.
func (s *SearchItem) ToCachedSearchItem() *CachedSearchItem {
	return &CachedSearchItem{
		Title:  s.Title,
		Link:   s.Link,
		Image:  s.Image,
		LPrice: strconv.FormatInt(s.LPrice, 10),
	}
}
