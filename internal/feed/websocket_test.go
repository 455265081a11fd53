package feed

import (
	"testing"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

func TestParseQuoteBuildsValidTick(t *testing.T) {
	raw := []byte(`{"ALTIN":{"satis":"2090.50"},"USDTRY":{"satis":"32.50"},"ONS":{"satis":"2000.00"}}`)
	tick, err := parseQuote(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick.Source != model.SourceLive {
		t.Errorf("expected source live, got %s", tick.Source)
	}
	gram, _ := tick.GramLocal.Float64()
	if gram != 2090.50 {
		t.Errorf("expected gram local 2090.50, got %v", gram)
	}
	if err := tick.Validate(); err != nil {
		t.Errorf("expected a valid tick, got %v", err)
	}
}

func TestParseQuoteRejectsMalformedPrice(t *testing.T) {
	raw := []byte(`{"ALTIN":{"satis":"not-a-number"},"USDTRY":{"satis":"32.50"},"ONS":{"satis":"2000.00"}}`)
	if _, err := parseQuote(raw); err == nil {
		t.Fatal("expected an error parsing a malformed gram quote")
	}
}

func TestParseQuoteRejectsZeroPrice(t *testing.T) {
	raw := []byte(`{"ALTIN":{"satis":"0"},"USDTRY":{"satis":"32.50"},"ONS":{"satis":"2000.00"}}`)
	if _, err := parseQuote(raw); err == nil {
		t.Fatal("expected validation to reject a zero-priced quote")
	}
}
