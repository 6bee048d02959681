package store

import (
	"encoding/json"
	"testing"
)

func TestWireBillDecodesMixedNumbers(t *testing.T) {
	raw := `{"id":"47qAXb6fIm2zOKkLzMro","vat":"80","status":"pending","type":"Hôtel et logement",
		"name":"encore","fileName":"preview.jpg","date":"2004-04-04","amount":400,"email":"a@a","pct":20}`
	var w WireBill
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b := w.ToCore()
	if b.Amount.Cents != 40000 || b.VAT.Cents != 8000 || b.Pct != 20 {
		t.Fatalf("unexpected numbers: %+v", b)
	}

	if err := json.Unmarshal([]byte(`{"vat":"","amount":"12,5","pct":null}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b = w.ToCore()
	if b.VAT.Cents != 0 || b.Amount.Cents != 1250 || b.Pct != 0 {
		t.Fatalf("unexpected numbers: %+v", b)
	}

	if err := json.Unmarshal([]byte(`{"amount":"abc"}`), &w); err == nil {
		t.Fatal("expected error for non-numeric amount")
	}
}
