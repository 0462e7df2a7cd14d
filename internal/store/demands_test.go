package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/erazemk/trznica/internal/db"
	"github.com/erazemk/trznica/internal/model"
)

func seedUsers(t *testing.T, database *sql.DB) (buyer, farmer *model.User) {
	t.Helper()
	ctx := context.Background()

	buyer, err := CreateUser(ctx, database, "Bea Buyer", "buyer@example.com", "hash", model.RoleBuyer)
	if err != nil {
		t.Fatalf("CreateUser buyer: %v", err)
	}
	farmer, err = CreateUser(ctx, database, "Fran Farmer", "farmer@example.com", "hash", model.RoleFarmer)
	if err != nil {
		t.Fatalf("CreateUser farmer: %v", err)
	}
	return buyer, farmer
}

func newDemand(t *testing.T, database *sql.DB, buyerID, commodity string) *model.Demand {
	t.Helper()
	d, err := CreateDemand(context.Background(), database, &model.Demand{
		BuyerID:   buyerID,
		Commodity: commodity,
		Quantity:  10,
		Unit:      model.DefaultUnit,
	})
	if err != nil {
		t.Fatalf("CreateDemand: %v", err)
	}
	return d
}

func TestCreateAndGetDemand(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buyer, _ := seedUsers(t, database)

	desired := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	d, err := CreateDemand(ctx, database, &model.Demand{
		BuyerID:   buyer.ID,
		Commodity: "tomato",
		Quantity:  2000,
		Unit:      "kg",
		Location:  model.Location{"city": "Ljubljana"},
		DesiredBy: &desired,
		Notes:     "fresh",
	})
	if err != nil {
		t.Fatalf("CreateDemand: %v", err)
	}

	if d.Status != model.DemandStatusOpen {
		t.Errorf("expected status open, got %q", d.Status)
	}
	if d.SellerID != nil {
		t.Errorf("expected no seller, got %v", *d.SellerID)
	}
	if d.Location["city"] != "Ljubljana" {
		t.Errorf("expected location city, got %v", d.Location)
	}
	if d.DesiredBy == nil || !d.DesiredBy.Equal(desired) {
		t.Errorf("expected desiredBy %v, got %v", desired, d.DesiredBy)
	}
	if d.Buyer == nil || d.Buyer.Name != "Bea Buyer" {
		t.Errorf("expected buyer summary, got %+v", d.Buyer)
	}
	if d.Seller != nil {
		t.Errorf("expected no seller summary, got %+v", d.Seller)
	}

	missing, err := GetDemand(ctx, database, "00000000-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("GetDemand: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing demand")
	}
}

func TestCreateDemandEmptyLocation(t *testing.T) {
	database := db.NewTestDB(t)
	buyer, _ := seedUsers(t, database)

	d := newDemand(t, database, buyer.ID, "corn")
	if d.Location == nil || len(d.Location) != 0 {
		t.Errorf("expected empty location, got %v", d.Location)
	}
}

func TestListDemandsOrderAndFilter(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buyer, farmer := seedUsers(t, database)

	first := newDemand(t, database, buyer.ID, "tomato")
	second := newDemand(t, database, buyer.ID, "corn")
	third := newDemand(t, database, buyer.ID, "tomato")

	if _, err := RespondDemand(ctx, database, second.ID, model.DemandStatusAccepted, farmer.ID, nil, ""); err != nil {
		t.Fatalf("RespondDemand: %v", err)
	}

	all, err := ListDemands(ctx, database, All(), 10, 0)
	if err != nil {
		t.Fatalf("ListDemands: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 demands, got %d", len(all))
	}
	if all[0].ID != third.ID || all[2].ID != first.ID {
		t.Errorf("expected newest first, got %s, %s, %s", all[0].ID, all[1].ID, all[2].ID)
	}

	tomatoes, _ := ListDemands(ctx, database, Eq(ColCommodity, "tomato"), 10, 0)
	if len(tomatoes) != 2 {
		t.Errorf("expected 2 tomato demands, got %d", len(tomatoes))
	}

	open, _ := ListDemands(ctx, database, Or(Eq(ColStatus, model.DemandStatusOpen), Eq(ColSeller, "nobody")), 10, 0)
	if len(open) != 2 {
		t.Errorf("expected 2 open demands, got %d", len(open))
	}

	page, _ := ListDemands(ctx, database, All(), 2, 2)
	if len(page) != 1 || page[0].ID != first.ID {
		t.Errorf("expected last page to hold the oldest demand, got %v", page)
	}

	none, _ := ListDemands(ctx, database, None(), 10, 0)
	if len(none) != 0 {
		t.Errorf("expected no demands, got %d", len(none))
	}
}

func TestUpdateDemandFields(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buyer, _ := seedUsers(t, database)
	d := newDemand(t, database, buyer.ID, "tomato")

	qty := 500.0
	notes := ""
	updated, err := UpdateDemandFields(ctx, database, d.ID, model.DemandPatch{
		Quantity: &qty,
		Notes:    &notes,
	}, true)
	if err != nil {
		t.Fatalf("UpdateDemandFields: %v", err)
	}
	if updated.Quantity != 500 {
		t.Errorf("expected quantity 500, got %v", updated.Quantity)
	}
	if updated.Commodity != "tomato" {
		t.Errorf("expected commodity untouched, got %q", updated.Commodity)
	}
	if updated.UpdatedAt.Before(d.UpdatedAt) {
		t.Error("expected updatedAt to move forward")
	}
}

func TestUpdateDemandFieldsClearsDesiredBy(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buyer, _ := seedUsers(t, database)
	d := newDemand(t, database, buyer.ID, "tomato")

	when := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	got, err := UpdateDemandFields(ctx, database, d.ID, model.DemandPatch{DesiredBy: &when}, true)
	if err != nil {
		t.Fatalf("setting desiredBy: %v", err)
	}
	if got.DesiredBy == nil {
		t.Fatal("expected desiredBy to be set")
	}

	got, err = UpdateDemandFields(ctx, database, d.ID, model.DemandPatch{ClearDesiredBy: true}, true)
	if err != nil {
		t.Fatalf("clearing desiredBy: %v", err)
	}
	if got.DesiredBy != nil {
		t.Errorf("expected desiredBy cleared, got %v", got.DesiredBy)
	}
}

func TestUpdateDemandFieldsRequiresOpen(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buyer, _ := seedUsers(t, database)
	d := newDemand(t, database, buyer.ID, "tomato")

	if _, err := CancelDemand(ctx, database, d.ID); err != nil {
		t.Fatalf("CancelDemand: %v", err)
	}

	unit := "t"
	_, err := UpdateDemandFields(ctx, database, d.ID, model.DemandPatch{Unit: &unit}, true)
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("expected ErrPreconditionFailed, got %v", err)
	}

	got, err := UpdateDemandFields(ctx, database, d.ID, model.DemandPatch{Unit: &unit}, false)
	if err != nil {
		t.Fatalf("unguarded update: %v", err)
	}
	if got.Unit != "t" {
		t.Errorf("expected unit 't', got %q", got.Unit)
	}
}

func TestCancelDemandTwice(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buyer, _ := seedUsers(t, database)
	d := newDemand(t, database, buyer.ID, "tomato")

	got, err := CancelDemand(ctx, database, d.ID)
	if err != nil {
		t.Fatalf("CancelDemand: %v", err)
	}
	if got.Status != model.DemandStatusCancelled {
		t.Errorf("expected cancelled, got %q", got.Status)
	}

	if _, err := CancelDemand(ctx, database, d.ID); !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("expected ErrPreconditionFailed, got %v", err)
	}
}

func TestRespondDemand(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	buyer, farmer := seedUsers(t, database)

	d, err := CreateDemand(ctx, database, &model.Demand{
		BuyerID: buyer.ID, Commodity: "tomato", Quantity: 2000, Unit: "kg", Notes: "Need fresh produce",
	})
	if err != nil {
		t.Fatalf("CreateDemand: %v", err)
	}

	price := 25000.0
	got, err := RespondDemand(ctx, database, d.ID, model.DemandStatusAccepted, farmer.ID, &price, "3 days")
	if err != nil {
		t.Fatalf("RespondDemand: %v", err)
	}
	if got.Status != model.DemandStatusAccepted {
		t.Errorf("expected accepted, got %q", got.Status)
	}
	if got.SellerID == nil || *got.SellerID != farmer.ID {
		t.Errorf("expected seller %s, got %v", farmer.ID, got.SellerID)
	}
	if got.PriceOffer == nil || *got.PriceOffer != 25000 {
		t.Errorf("expected price offer 25000, got %v", got.PriceOffer)
	}
	if got.Notes != "Need fresh produce\nSeller note: 3 days" {
		t.Errorf("unexpected notes %q", got.Notes)
	}
	if got.Seller == nil || got.Seller.Name != "Fran Farmer" {
		t.Errorf("expected seller summary, got %+v", got.Seller)
	}

	_, err = RespondDemand(ctx, database, d.ID, model.DemandStatusRejected, farmer.ID, nil, "")
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("expected ErrPreconditionFailed on second response, got %v", err)
	}
}

func TestRespondDemandMissing(t *testing.T) {
	database := db.NewTestDB(t)
	_, farmer := seedUsers(t, database)

	_, err := RespondDemand(context.Background(), database, "no-such-id", model.DemandStatusAccepted, farmer.ID, nil, "")
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("expected ErrPreconditionFailed, got %v", err)
	}
}

func TestRespondDemandExecError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer mockDB.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE demands")).
		WillReturnError(errors.New("disk I/O error"))

	_, err = RespondDemand(context.Background(), mockDB, "d1", model.DemandStatusAccepted, "f1", nil, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrPreconditionFailed) {
		t.Error("exec failure must not look like a failed precondition")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListDemandsQueryError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer mockDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM demands d")).
		WithArgs("open", 20, 0).
		WillReturnError(sql.ErrConnDone)

	_, err = ListDemands(context.Background(), mockDB, Eq(ColStatus, "open"), 20, 0)
	if !errors.Is(err, sql.ErrConnDone) {
		t.Errorf("expected wrapped ErrConnDone, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
