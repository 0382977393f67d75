package inventory

import (
	"context"
	"regexp"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *Repo) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new pgxmock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, NewRepo(mock)
}

func TestRepoList(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(listQuery)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "localized_name", "unit"}).
			AddRow(int64(1), "Chini", "चीनी", "किग्रा").
			AddRow(int64(2), "Kaju", "काजू", "ग्राम"))

	products, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[1].LocalizedName != "काजू" {
		t.Fatalf("unexpected localized name %q", products[1].LocalizedName)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRepoSearchCapped(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(searchQuery)).
		WithArgs("chi", 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "localized_name", "unit"}).
			AddRow(int64(1), "Chini", "चीनी", "किग्रा"))

	products, err := repo.Search(context.Background(), "chi", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Chini" {
		t.Fatalf("unexpected result %+v", products)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRepoCreateReturnsID(t *testing.T) {
	mock, repo := newMockRepo(t)
	input := ProductInput{Name: "Maida", LocalizedName: "मैदा", Unit: "किग्रा"}
	mock.ExpectQuery(regexp.QuoteMeta(createQuery)).
		WithArgs(input.Name, input.LocalizedName, input.Unit).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	product, err := repo.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if product.ID != 7 {
		t.Fatalf("expected id 7, got %d", product.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRepoUpdateReportsMissingRow(t *testing.T) {
	mock, repo := newMockRepo(t)
	input := ProductInput{Name: "Maida", LocalizedName: "मैदा", Unit: "किग्रा"}
	mock.ExpectExec(regexp.QuoteMeta(updateQuery)).
		WithArgs(input.Name, input.LocalizedName, input.Unit, int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	found, err := repo.Update(context.Background(), 42, input)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if found {
		t.Fatal("expected missing row")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRepoDelete(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	found, err := repo.Delete(context.Background(), 3)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !found {
		t.Fatal("expected row to exist")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
