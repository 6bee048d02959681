package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"billed/internal/core"
	"billed/internal/store"
)

func TestListDecodesBills(t *testing.T) {
	var logins int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
			atomic.AddInt32(&logins, 1)
			_ = json.NewEncoder(w).Encode(map[string]string{"jwt": "tok"})
		case r.Method == http.MethodGet && r.URL.Path == "/bills":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `[{"id":"47qAXb6fIm2zOKkLzMro","date":"2004-04-04","status":"pending","amount":400,"vat":"80","pct":20,"type":"Hôtel et logement","name":"encore","email":"a@a"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Email: "a@a", Password: "pw"})
	bills, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bills) != 1 {
		t.Fatalf("expected 1 bill, got %d", len(bills))
	}
	b := bills[0]
	if b.Date != "2004-04-04" || b.Status != core.StatusPending || b.Amount.Cents != 40000 || b.VAT.Cents != 8000 {
		t.Fatalf("unexpected bill: %+v", b)
	}
	// token cached
	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if got := atomic.LoadInt32(&logins); got != 1 {
		t.Fatalf("expected a single login, got %d", got)
	}
}

func TestListErrorStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusNotFound, "Erreur 404"},
		{http.StatusInternalServerError, "Erreur 500"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := New(Config{BaseURL: srv.URL}).List(context.Background())
			if err == nil || err.Error() != tt.want {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
			var se *core.StoreError
			if !errors.As(err, &se) || se.Status != tt.status {
				t.Fatalf("expected StoreError %d, got %v", tt.status, err)
			}
		})
	}
}

func TestCreateSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/bills" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var wb store.WireBill
		if err := json.Unmarshal([]byte(r.FormValue("bill")), &wb); err != nil {
			t.Errorf("decode bill field: %v", err)
		}
		_, fh, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		wb.ID = "new-id"
		wb.FileName = fh.Filename
		wb.FileURL = "https://files.test/" + fh.Filename
		_ = json.NewEncoder(w).Encode(wb)
	}))
	defer srv.Close()

	created, err := New(Config{BaseURL: srv.URL}).Create(context.Background(), store.NewBill{
		Bill: core.Bill{
			Date:   "2024-03-01",
			Status: core.StatusPending,
			Amount: core.Money{Cents: 1250},
			Pct:    20,
			Type:   "Transports",
			Email:  "a@a",
		},
		Receipt: &core.Receipt{Name: "ticket.jpg", Data: []byte("jpg")},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "new-id" || created.FileName != "ticket.jpg" || created.Amount.Cents != 1250 {
		t.Fatalf("unexpected created bill: %+v", created)
	}
}
