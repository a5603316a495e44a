package ledger

import "context"

// RegisterCurrency adds id to the accepted currencies. Re-registering an
// existing id moves it to the end instead of duplicating it.
func RegisterCurrency(ctx context.Context, st State, id string) error {
	ids, err := st.Currencies(ctx)
	if err != nil {
		return err
	}
	next := make([]string, 0, len(ids)+1)
	for _, existing := range ids {
		if existing != id {
			next = append(next, existing)
		}
	}
	next = append(next, id)
	return st.SetCurrencies(ctx, next)
}

// IsRegistered reports whether id is an accepted currency.
func IsRegistered(ctx context.Context, st State, id string) (bool, error) {
	ids, err := st.Currencies(ctx)
	if err != nil {
		return false, err
	}
	for _, existing := range ids {
		if existing == id {
			return true, nil
		}
	}
	return false, nil
}

// Currencies returns the accepted currencies in registry order.
func Currencies(ctx context.Context, st State) ([]string, error) {
	return st.Currencies(ctx)
}

// IsAdmin reports whether caller is the administrator.
func IsAdmin(ctx context.Context, st State, caller string) (bool, error) {
	admin, err := st.Admin(ctx)
	if err != nil {
		return false, err
	}
	return admin == caller, nil
}

// SetAdmin replaces the administrator.
func SetAdmin(ctx context.Context, st State, admin string) error {
	return st.SetAdmin(ctx, admin)
}

// IsAuthorizedHandler reports whether caller may lock, unlock and transfer
// locked funds. Unknown callers are not authorized.
func IsAuthorizedHandler(ctx context.Context, st State, caller string) (bool, error) {
	return st.HandlerAuthorized(ctx, caller)
}

// SetHandlerAuthorization overwrites the authorization flag of target.
func SetHandlerAuthorization(ctx context.Context, st State, target string, authorized bool) error {
	return st.SetHandlerAuthorized(ctx, target, authorized)
}
