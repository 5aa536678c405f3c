package proto

import (
	"testing"
	"time"

	"github.com/ecamli/borsa/pkg/book"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    OrderRequest
		wantErr bool
	}{
		{
			name: "buy order",
			line: "EMIR|THYAO|AL|285.50|100",
			want: OrderRequest{Symbol: "THYAO", Side: book.Buy, Price: 28550, Quantity: 100},
		},
		{
			name: "sell order",
			line: "EMIR|GARAN|SAT|112.40|5",
			want: OrderRequest{Symbol: "GARAN", Side: book.Sell, Price: 11240, Quantity: 5},
		},
		{
			name: "integer price",
			line: "EMIR|ASELS|AL|64|1",
			want: OrderRequest{Symbol: "ASELS", Side: book.Buy, Price: 6400, Quantity: 1},
		},
		{name: "not an order", line: "MERHABA|X", wantErr: true},
		{name: "missing fields", line: "EMIR|THYAO|AL|285.50", wantErr: true},
		{name: "extra fields", line: "EMIR|THYAO|AL|285.50|100|junk", wantErr: true},
		{name: "bad side", line: "EMIR|THYAO|BUY|285.50|100", wantErr: true},
		{name: "garbage price", line: "EMIR|THYAO|AL|abc|100", wantErr: true},
		{name: "negative price", line: "EMIR|THYAO|AL|-1.00|100", wantErr: true},
		{name: "sub-kurus price", line: "EMIR|THYAO|AL|285.505|100", wantErr: true},
		{name: "garbage quantity", line: "EMIR|THYAO|AL|285.50|yüz", wantErr: true},
		{name: "zero quantity", line: "EMIR|THYAO|AL|285.50|0", wantErr: true},
		{name: "negative quantity", line: "EMIR|THYAO|AL|285.50|-5", wantErr: true},
		{name: "empty symbol", line: "EMIR||AL|285.50|100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOrder(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseOrder(%q) expected error, got %+v", tt.line, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOrder(%q): %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("ParseOrder(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		kurus int64
		want  string
	}{
		{28550, "285.50"},
		{100, "1.00"},
		{5, "0.05"},
		{0, "0.00"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.kurus); got != tt.want {
			t.Errorf("FormatPrice(%d) = %q, want %q", tt.kurus, got, tt.want)
		}
	}
}

func TestOrderLineRoundTrip(t *testing.T) {
	line := Order("THYAO", book.Buy, 28550, 100)
	req, err := ParseOrder(line)
	if err != nil {
		t.Fatalf("ParseOrder(%q): %v", line, err)
	}
	want := OrderRequest{Symbol: "THYAO", Side: book.Buy, Price: 28550, Quantity: 100}
	if req != want {
		t.Errorf("round trip = %+v, want %+v", req, want)
	}
}

func TestTradeNotice(t *testing.T) {
	trade := book.Trade{
		ID:          "TRD000007",
		BuyOrderID:  "ORD000010",
		SellOrderID: "ORD000003",
		BuyerID:     4,
		SellerID:    2,
		Symbol:      "THYAO",
		Price:       28550,
		Quantity:    60,
		Time:        time.Now(),
	}

	buyerMsg := TradeNotice(trade, book.Buy)
	if buyerMsg != "TRADE|TRD000007|ALIM|THYAO|285.50|60|ORD000003" {
		t.Errorf("buyer notice = %q", buyerMsg)
	}
	sellerMsg := TradeNotice(trade, book.Sell)
	if sellerMsg != "TRADE|TRD000007|SATIM|THYAO|285.50|60|ORD000010" {
		t.Errorf("seller notice = %q", sellerMsg)
	}
}

func TestAcceptedAndRejected(t *testing.T) {
	if got := Accepted("ORD000042"); got != "ORDER_ACCEPTED|ORD000042" {
		t.Errorf("Accepted = %q", got)
	}
	if got := Rejected(ErrBadQuantity); got != "ERROR|"+ErrBadQuantity.Error() {
		t.Errorf("Rejected = %q", got)
	}
}
