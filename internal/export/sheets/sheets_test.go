package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goption "google.golang.org/api/option"

	"billed/internal/core"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{
		SpreadsheetID: "sheet-id",
		SheetName:     "Bills",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithHTTPClient(srv.Client()),
		},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBillRow(t *testing.T) {
	row := BillRow(core.Bill{
		ID:      "b1",
		Date:    "2004-04-04",
		Status:  core.StatusPending,
		Amount:  core.Money{Cents: 40000},
		VAT:     core.Money{Cents: 8000},
		Pct:     20,
		Type:    "Hôtel et logement",
		Name:    "encore",
		Email:   "a@a",
		FileURL: "/receipts/r1",
	})
	if len(row) != len(Header) {
		t.Fatalf("row has %d cells, header %d", len(row), len(Header))
	}
	if row[4] != 400.0 || row[7] != "En attente" || row[9] != "b1" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestAppendBill(t *testing.T) {
	var gotValues [][]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, ":append") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			t.Errorf("missing valueInputOption: %s", r.URL.RawQuery)
		}
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		gotValues = body.Values
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"updates":{"updatedRange":"Bills!A2:J2"}}`))
	})

	ref, err := c.AppendBill(context.Background(), core.Bill{
		ID:     "b1",
		Date:   "2024-01-02",
		Status: core.StatusAccepted,
		Amount: core.Money{Cents: 1250},
		Email:  "a@a",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "Bills!A2:J2" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if len(gotValues) != 1 || gotValues[0][9] != "b1" || gotValues[0][7] != "Accepté" {
		t.Fatalf("unexpected values: %v", gotValues)
	}
}

func TestAppendBillRequiresID(t *testing.T) {
	c := &Client{svc: nil}
	if _, err := c.AppendBill(context.Background(), core.Bill{}); err == nil {
		t.Fatal("expected error without service")
	}
}

func TestExportedIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Bills!J1:J4","values":[["ID"],["b1"],[],["b2"]]}`))
	})

	ids, err := c.ExportedIDs(context.Background())
	if err != nil {
		t.Fatalf("exported ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
	if _, ok := ids["b2"]; !ok {
		t.Fatalf("missing b2 in %v", ids)
	}
}
