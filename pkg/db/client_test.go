package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ledgerRow struct {
	ID   int
	Note string
}

func newClient(t *testing.T) *Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:db_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&ledgerRow{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &Client{conn: conn}
}

func countRows(t *testing.T, client *Client) int64 {
	t.Helper()
	var count int64
	if err := client.DB().Model(&ledgerRow{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

func TestWithTxCommitsOnNil(t *testing.T) {
	client := newClient(t)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&ledgerRow{Note: "kept"}).Error
	})
	if err != nil {
		t.Fatalf("commit path: %v", err)
	}
	if got := countRows(t, client); got != 1 {
		t.Fatalf("expected 1 row after commit, got %d", got)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := newClient(t)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&ledgerRow{Note: "discarded"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected the callback error back")
	}
	if got := countRows(t, client); got != 0 {
		t.Fatalf("expected rollback to leave 0 rows, got %d", got)
	}
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	client := newClient(t)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the panic to propagate")
			}
		}()
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&ledgerRow{Note: "discarded"}).Error; err != nil {
				return err
			}
			panic("boom")
		})
	}()

	if got := countRows(t, client); got != 0 {
		t.Fatalf("expected rollback to leave 0 rows, got %d", got)
	}
}

func TestExecAndRaw(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()

	if err := client.Exec(ctx, "INSERT INTO ledger_rows (note) VALUES (?)", "raw").Error; err != nil {
		t.Fatalf("exec: %v", err)
	}
	var note string
	if err := client.Raw(ctx, "SELECT note FROM ledger_rows LIMIT 1").Scan(&note).Error; err != nil {
		t.Fatalf("raw: %v", err)
	}
	if note != "raw" {
		t.Fatalf("unexpected note %q", note)
	}
}

func TestPing(t *testing.T) {
	client := newClient(t)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
