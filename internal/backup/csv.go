package backup

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"kasirinaja/dashboard/internal/domain"
)

const bom = "\ufeff"

type productRow struct {
	ID          string `csv:"ID"`
	Name        string `csv:"Name"`
	Category    string `csv:"Category"`
	Price       int64  `csv:"Price"`
	Cost        int64  `csv:"Cost"`
	Stock       int    `csv:"Stock"`
	Description string `csv:"Description"`
	CreatedAt   string `csv:"CreatedAt"`
}

type transactionRow struct {
	ID            string `csv:"ID"`
	Date          string `csv:"Date"`
	Time          string `csv:"Time"`
	Total         int64  `csv:"Total"`
	Profit        int64  `csv:"Profit"`
	PaymentMethod string `csv:"PaymentMethod"`
	Status        string `csv:"Status"`
	ItemCount     int    `csv:"ItemCount"`
}

// WriteProductsCSV writes the catalog as UTF-8 CSV with a byte order mark.
func (b *Service) WriteProductsCSV(w io.Writer) error {
	products := b.store.Catalog().List()
	if len(products) == 0 {
		return fmt.Errorf("%w: catalog is empty", ErrNothingToExport)
	}
	loc := b.store.Now().Location()
	rows := make([]productRow, len(products))
	for i, p := range products {
		rows[i] = productRow{
			ID:          p.ID,
			Name:        p.Name,
			Category:    domain.CategoryLabel(p.Category),
			Price:       p.Price,
			Cost:        p.Cost,
			Stock:       p.Stock,
			Description: p.Description,
			CreatedAt:   p.CreatedAt.In(loc).Format("2006-01-02"),
		}
	}
	return writeCSV(w, rows)
}

// WriteTransactionsCSV writes the ledger as UTF-8 CSV with a byte order mark.
func (b *Service) WriteTransactionsCSV(w io.Writer) error {
	txs := b.store.Ledger().All()
	if len(txs) == 0 {
		return fmt.Errorf("%w: ledger is empty", ErrNothingToExport)
	}
	loc := b.store.Now().Location()
	rows := make([]transactionRow, len(txs))
	for i, tx := range txs {
		local := tx.Timestamp.In(loc)
		rows[i] = transactionRow{
			ID:            tx.ID,
			Date:          local.Format("2006-01-02"),
			Time:          local.Format("15:04:05"),
			Total:         tx.Total,
			Profit:        tx.Profit,
			PaymentMethod: tx.PaymentMethod,
			Status:        tx.Status,
			ItemCount:     len(tx.Items),
		}
	}
	return writeCSV(w, rows)
}

func writeCSV[T any](w io.Writer, rows []T) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	return nil
}
