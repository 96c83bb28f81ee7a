package models

import (
	"testing"
	"time"
)

func TestSplitProductID(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		want    ProductCodes
		wantErr bool
	}{
		{name: "regular", id: "A100ANK060F", want: ProductCodes{OilID: "A100", DeliveryBasisID: "ANK", DeliveryTypeID: "F"}},
		{name: "minimal", id: "DT5KBB1J", want: ProductCodes{OilID: "DT5K", DeliveryBasisID: "BB1", DeliveryTypeID: "J"}},
		{name: "too short", id: "A100ANK", wantErr: true},
		{name: "empty", id: "", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SplitProductID(tc.id)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("SplitProductID(%q): expected error, got %+v", tc.id, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitProductID(%q): %v", tc.id, err)
			}
			if got != tc.want {
				t.Fatalf("SplitProductID(%q) = %+v, want %+v", tc.id, got, tc.want)
			}
		})
	}
}

func TestNewTradingResult_DerivedIDsMatchProductID(t *testing.T) {
	rec, err := NewTradingResult("A592ACH005A")
	if err != nil {
		t.Fatalf("NewTradingResult: %v", err)
	}
	id := rec.ExchangeProductID
	if rec.OilID != id[0:4] || rec.DeliveryBasisID != id[4:7] || rec.DeliveryTypeID != id[len(id)-1:] {
		t.Fatalf("derived ids: %+v", rec)
	}
}

func TestTruncateToDate(t *testing.T) {
	in := time.Date(2024, 3, 15, 18, 42, 7, 99, time.FixedZone("MSK", 3*3600))
	if got, want := TruncateToDate(in), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC); got != want {
		t.Fatalf("TruncateToDate = %v, want %v", got, want)
	}
}

func TestStoredTimestamp(t *testing.T) {
	in := time.Date(2024, 3, 16, 2, 30, 0, 123456789, time.FixedZone("MSK", 3*3600))
	want := time.Date(2024, 3, 15, 23, 30, 0, 123456000, time.UTC)
	if got := StoredTimestamp(in); got != want {
		t.Fatalf("StoredTimestamp = %v, want %v", got, want)
	}
}
