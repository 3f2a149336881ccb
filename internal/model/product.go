// Package model defines domain entities for the application.
package model

import "time"

// MinMyPrice is the lowest target price a user may set, in the listed
// currency's smallest unit.
const MinMyPrice int64 = 100

// Product represents an interest product a user tracks.
// Catalog fields (Title, Link, Image, LPrice) mirror the external
// shopping catalog; MyPrice is the user's target price.
type Product struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Image     string    `json:"image"`
	LPrice    int64     `json:"lprice"`
	MyPrice   int64     `json:"myprice"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBy reports whether the product belongs to the given user.
func (p *Product) OwnedBy(userID string) bool {
	return p.OwnerID == userID
}

// PriceReached reports whether the listed price has met the target price.
// A zero target means the user has not set one yet.
func (p *Product) PriceReached() bool {
	return p.MyPrice > 0 && p.LPrice > 0 && p.LPrice <= p.MyPrice
}
