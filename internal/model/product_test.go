package model

import "testing"

func TestProductPriceReached(t *testing.T) {
	tests := []struct {
		name    string
		lprice  int64
		myprice int64
		want    bool
	}{
		{"below_target", 9000, 10000, true},
		{"at_target", 10000, 10000, true},
		{"above_target", 11000, 10000, false},
		{"no_target", 9000, 0, false},
		{"no_listing_price", 0, 10000, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := &Product{LPrice: test.lprice, MyPrice: test.myprice}
			if got := p.PriceReached(); got != test.want {
				t.Fatalf("PriceReached() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestProductOwnedBy(t *testing.T) {
	p := &Product{OwnerID: "alice"}
	if !p.OwnedBy("alice") {
		t.Error("expected owner match")
	}
	if p.OwnedBy("bob") {
		t.Error("expected owner mismatch")
	}
}
