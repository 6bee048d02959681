package memory

import "billed/internal/core"

// Demo accounts registered by NewFromFiles. The fixture bills belong to
// DemoEmployee.
const (
	DemoEmployee = "employee@test.tld"
	DemoAdmin    = "admin@test.tld"
)

const fixtureFileURL = "https://test.storage.tld/v0/b/billable.appspot.com/o/preview-facture-free-201801-pdf-1.jpg?alt=media"

// Fixtures returns the demo bills the memory backend starts with.
func Fixtures() []core.Bill {
	return []core.Bill{
		{
			ID:           "47qAXb6fIm2zOKkLzMro",
			VAT:          core.Money{Cents: 8000},
			FileURL:      fixtureFileURL,
			Status:       core.StatusPending,
			Type:         "Hôtel et logement",
			Commentary:   "séminaire billed",
			Name:         "encore",
			FileName:     "preview-facture-free-201801-pdf-1.jpg",
			Date:         "2004-04-04",
			Amount:       core.Money{Cents: 40000},
			CommentAdmin: "ok",
			Email:        DemoEmployee,
			Pct:          20,
		},
		{
			ID:           "BeKy5Mo4jkmdfPGYpTxZ",
			Amount:       core.Money{Cents: 10000},
			Name:         "test1",
			FileName:     "1592770761.jpeg",
			Commentary:   "plop",
			Pct:          20,
			Type:         "Transports",
			Email:        DemoEmployee,
			FileURL:      fixtureFileURL,
			Date:         "2001-01-01",
			Status:       core.StatusRefused,
			CommentAdmin: "en fait non",
		},
		{
			ID:           "UIUZtnPQvnbFnB0ozvJh",
			Name:         "test3",
			Email:        DemoEmployee,
			Type:         "Services en ligne",
			VAT:          core.Money{Cents: 6000},
			Pct:          20,
			CommentAdmin: "bon bah d'accord",
			Amount:       core.Money{Cents: 30000},
			Status:       core.StatusAccepted,
			Date:         "2003-03-03",
			FileName:     "facture-client-php-exportee-dans-document-pdf-enregistre-sur-disque-dur.png",
			FileURL:      fixtureFileURL,
		},
		{
			ID:           "qcCK3SzECmaZAGRrHjaC",
			Status:       core.StatusRefused,
			Pct:          20,
			Amount:       core.Money{Cents: 20000},
			Email:        DemoEmployee,
			Name:         "test2",
			VAT:          core.Money{Cents: 4000},
			FileName:     "preview-facture-free-201801-pdf-1.jpg",
			Date:         "2002-02-02",
			CommentAdmin: "pas la bonne facture",
			Commentary:   "test2",
			Type:         "Restaurants et bars",
			FileURL:      fixtureFileURL,
		},
	}
}
