package stores_test

import (
	"context"
	"errors"
	"testing"

	"github.com/panyam/gatekey"
	"github.com/panyam/gatekey/stores"
)

func TestMemoryAccountStoreCRUD(t *testing.T) {
	store := stores.NewMemoryAccountStore()
	ctx := context.Background()

	missing, err := store.GetByEmail(ctx, "nobody@x.com")
	if err != nil || missing != nil {
		t.Fatalf("absent account: got %+v, %v", missing, err)
	}

	created, err := store.Create(ctx, &gatekey.Account{
		Email:        "a@x.com",
		AuthProvider: gatekey.ProviderLocal,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("Create did not assign an id")
	}
	if created.CreatedAt.IsZero() {
		t.Error("Create did not stamp CreatedAt")
	}

	fetched, err := store.GetByEmail(ctx, "a@x.com")
	if err != nil || fetched == nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if fetched.ID != created.ID {
		t.Errorf("ids differ: %d vs %d", fetched.ID, created.ID)
	}

	fetched.IsVerified = true
	if _, err := store.Save(ctx, fetched); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	again, _ := store.GetByEmail(ctx, "a@x.com")
	if !again.IsVerified {
		t.Error("Save did not persist the change")
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	gone, err := store.GetByEmail(ctx, "a@x.com")
	if err != nil || gone != nil {
		t.Errorf("account survived delete: %+v", gone)
	}
}

func TestMemoryAccountStoreDuplicateEmail(t *testing.T) {
	store := stores.NewMemoryAccountStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, &gatekey.Account{Email: "a@x.com"}); err != nil {
		t.Fatal(err)
	}
	_, err := store.Create(ctx, &gatekey.Account{Email: "a@x.com"})
	if !errors.Is(err, gatekey.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestMemoryAccountStoreReturnsCopies(t *testing.T) {
	store := stores.NewMemoryAccountStore()
	ctx := context.Background()

	created, err := store.Create(ctx, &gatekey.Account{Email: "a@x.com"})
	if err != nil {
		t.Fatal(err)
	}

	// Mutating a returned value must not leak into the store.
	created.IsActive = true
	fetched, _ := store.GetByEmail(ctx, "a@x.com")
	if fetched.IsActive {
		t.Error("store shares memory with callers")
	}
}

func TestMemoryAccountStoreListAll(t *testing.T) {
	store := stores.NewMemoryAccountStore()
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		if _, err := store.Create(ctx, &gatekey.Account{Email: email}); err != nil {
			t.Fatal(err)
		}
	}
	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("ListAll returned %d accounts", len(all))
	}
}
