package ledger

import (
	"context"
	"reflect"
	"testing"
)

func TestRegisterCurrencyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	tx := begin(t, NewInMemory("admin"))

	for _, id := range []string{"A", "B", "A"} {
		if err := RegisterCurrency(ctx, tx, id); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	ids, err := Currencies(ctx, tx)
	if err != nil {
		t.Fatalf("currencies: %v", err)
	}
	// re-adding moves the id to the end
	if !reflect.DeepEqual(ids, []string{"B", "A"}) {
		t.Fatalf("expected [B A], got %v", ids)
	}
	for _, id := range []string{"A", "B"} {
		if ok, _ := IsRegistered(ctx, tx, id); !ok {
			t.Fatalf("expected %s registered", id)
		}
	}
	if ok, _ := IsRegistered(ctx, tx, "Y"); ok {
		t.Fatalf("expected Y unregistered")
	}
}

func TestAuthorizationDirectory(t *testing.T) {
	ctx := context.Background()
	tx := begin(t, NewInMemory("admin"))

	if ok, _ := IsAdmin(ctx, tx, "admin"); !ok {
		t.Fatalf("expected admin to be admin")
	}
	if ok, _ := IsAdmin(ctx, tx, "mallory"); ok {
		t.Fatalf("expected mallory not to be admin")
	}
	if ok, err := IsAuthorizedHandler(ctx, tx, "svc"); ok || err != nil {
		t.Fatalf("expected unknown handler to read false without error, got %v %v", ok, err)
	}

	if err := SetHandlerAuthorization(ctx, tx, "svc", true); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if ok, _ := IsAuthorizedHandler(ctx, tx, "svc"); !ok {
		t.Fatalf("expected svc authorized")
	}
	if err := SetHandlerAuthorization(ctx, tx, "svc", false); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := IsAuthorizedHandler(ctx, tx, "svc"); ok {
		t.Fatalf("expected svc revoked")
	}

	if err := SetAdmin(ctx, tx, "next"); err != nil {
		t.Fatalf("set admin: %v", err)
	}
	if ok, _ := IsAdmin(ctx, tx, "admin"); ok {
		t.Fatalf("previous admin must lose authority")
	}
}
