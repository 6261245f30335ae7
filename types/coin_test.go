package types

import "testing"

func TestCoinBySymbol(t *testing.T) {
	c, ok := CoinBySymbol("btc")
	if !ok {
		t.Fatalf("btc not registered")
	}
	if c.ProviderID != "bitcoin" {
		t.Errorf("provider id = %q, want bitcoin", c.ProviderID)
	}
	if c.Family != FamilyUTXO {
		t.Errorf("family = %q, want %q", c.Family, FamilyUTXO)
	}

	if _, ok := CoinBySymbol("doge"); ok {
		t.Errorf("doge should not be registered")
	}
}

func TestCoinLookupIsCaseInsensitive(t *testing.T) {
	if _, ok := CoinBySymbol(" LTC "); !ok {
		t.Errorf("symbol lookup should trim and lowercase")
	}
	if _, ok := CoinByProviderID("Litecoin"); !ok {
		t.Errorf("provider lookup should lowercase")
	}
}

func TestCoinRoundTrip(t *testing.T) {
	for _, c := range RegisteredCoins() {
		id, ok := CoinProviderID(c.Symbol)
		if !ok || id != c.ProviderID {
			t.Errorf("CoinProviderID(%q) = %q, %v", c.Symbol, id, ok)
		}
		back, ok := CoinByProviderID(id)
		if !ok || back.Symbol != c.Symbol {
			t.Errorf("CoinByProviderID(%q) = %q, %v, want %q", id, back.Symbol, ok, c.Symbol)
		}
	}
}

func TestRegisterCoinReplaces(t *testing.T) {
	RegisterCoin(Coin{Symbol: "tst", ProviderID: "test-coin", Family: FamilyUTXO})
	RegisterCoin(Coin{Symbol: "tst", ProviderID: "test-coin-v2", Family: FamilyUTXO})

	c, ok := CoinBySymbol("tst")
	if !ok || c.ProviderID != "test-coin-v2" {
		t.Fatalf("re-registering tst did not replace provider id: %+v, %v", c, ok)
	}
	if _, ok := CoinByProviderID("test-coin"); ok {
		t.Errorf("stale provider id should be dropped on replace")
	}
}
