package llm

import (
	"encoding/json"
	"testing"

	"github.com/docupay/invoice-capture/constants"
)

func sanitizeToMap(t *testing.T, doc string) map[string]any {
	t.Helper()
	out, _, err := NormalizeAndSanitizeJSON([]byte(doc), nil)
	if err != nil {
		t.Fatalf("sanitize error: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("sanitize produced invalid JSON: %v", err)
	}
	return m
}

func TestSanitizeCoercesNumericAmount(t *testing.T) {
	m := sanitizeToMap(t, `{"amount": 1500}`)
	if m["amount"] != "1500.00" {
		t.Fatalf("amount = %v, want 1500.00", m["amount"])
	}
}

func TestSanitizeStripsAmountDecoration(t *testing.T) {
	m := sanitizeToMap(t, `{"amount": "PHP 1,500.00"}`)
	if m["amount"] != "1500.00" {
		t.Fatalf("amount = %v, want 1500.00", m["amount"])
	}
}

func TestSanitizeNormalizesCurrency(t *testing.T) {
	for in, want := range map[string]string{
		"P":   "PHP",
		"₱":   "PHP",
		"php": "PHP",
		"usd": "USD",
	} {
		m := sanitizeToMap(t, `{"currency": "`+in+`"}`)
		if m["currency"] != want {
			t.Fatalf("currency %q -> %v, want %v", in, m["currency"], want)
		}
	}

	m := sanitizeToMap(t, `{"currency": "pesos and cents"}`)
	if m["currency"] != nil {
		t.Fatalf("unresolvable currency should become null, got %v", m["currency"])
	}
}

func TestSanitizeCategoryFallsBackToOthers(t *testing.T) {
	m := sanitizeToMap(t, `{"category": "Travel"}`)
	if m["category"] != string(constants.Others) {
		t.Fatalf("category = %v, want Others", m["category"])
	}

	m = sanitizeToMap(t, `{"category": "consulting"}`)
	if m["category"] != string(constants.ManpowerConsultant) {
		t.Fatalf("category = %v, want Manpower / Consultant", m["category"])
	}

	m = sanitizeToMap(t, `{}`)
	if m["category"] != string(constants.Others) {
		t.Fatalf("missing category should default to Others, got %v", m["category"])
	}
}

func TestSanitizeEnforcesExactKeySet(t *testing.T) {
	m := sanitizeToMap(t, `{"payee": "Acme Corp", "confidence": 0.8, "purpose": ""}`)

	if _, ok := m["confidence"]; ok {
		t.Fatal("unknown key survived sanitize")
	}
	if m["purpose"] != nil {
		t.Fatalf("empty string should become null, got %v", m["purpose"])
	}
	if len(m) != len(recordKeys) {
		t.Fatalf("key count = %d, want %d", len(m), len(recordKeys))
	}
	for _, k := range recordKeys {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing key %q after sanitize", k)
		}
	}
}

func TestSanitizedOutputPassesSchema(t *testing.T) {
	out, _, err := NormalizeAndSanitizeJSON([]byte(`{
		"payee": "Acme Corp",
		"amount": 1500,
		"currency": "₱",
		"category": "payroll",
		"note": "extra"
	}`), nil)
	if err != nil {
		t.Fatalf("sanitize error: %v", err)
	}
	if err := compileSchema(t).Validate(out); err != nil {
		t.Fatalf("sanitized output still invalid: %v", err)
	}
}

func TestSanitizeRejectsNonObject(t *testing.T) {
	if _, _, err := NormalizeAndSanitizeJSON([]byte(`"prose answer"`), nil); err == nil {
		t.Fatal("expected error for non-object response")
	}
}
