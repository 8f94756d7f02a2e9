package llm

import (
	"testing"

	"github.com/docupay/invoice-capture/constants"
)

const validRecordJSON = `{
	"payee": "Acme Corp",
	"tin": "001-222-333-000",
	"address": "123 Ayala Ave",
	"sib": "12345",
	"amount": "1500.00",
	"amountinwords": "one thousand five hundred",
	"currency": "PHP",
	"category": "Others",
	"purpose": "security services",
	"accountnum": null,
	"mobilenum": null
}`

func compileSchema(t *testing.T) *RecordSchema {
	t.Helper()
	schema, err := NewRecordSchema(constants.AsStringSlice())
	if err != nil {
		t.Fatalf("NewRecordSchema() error = %v", err)
	}
	return schema
}

func TestSchemaAcceptsValidRecord(t *testing.T) {
	if err := compileSchema(t).Validate([]byte(validRecordJSON)); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}
}

func TestSchemaAcceptsAllNullsExceptCategory(t *testing.T) {
	doc := `{
		"payee": null, "tin": null, "address": null, "sib": null,
		"amount": null, "amountinwords": null, "currency": null,
		"category": "Others", "purpose": null, "accountnum": null, "mobilenum": null
	}`
	if err := compileSchema(t).Validate([]byte(doc)); err != nil {
		t.Fatalf("all-null record rejected: %v", err)
	}
}

func TestSchemaReusableAcrossValidations(t *testing.T) {
	schema := compileSchema(t)
	for i := 0; i < 3; i++ {
		if err := schema.Validate([]byte(validRecordJSON)); err != nil {
			t.Fatalf("validation %d failed on reused schema: %v", i, err)
		}
	}
	if err := schema.Validate([]byte(`{"payee": "Acme Corp"}`)); err == nil {
		t.Fatal("reused schema accepted an incomplete record")
	}
}

func TestSchemaRejects(t *testing.T) {
	schema := compileSchema(t)
	cases := []struct {
		name string
		doc  string
	}{
		{"not an object", `"just text"`},
		{"missing keys", `{"payee": "Acme Corp"}`},
		{"unknown key", `{
			"payee": null, "tin": null, "address": null, "sib": null,
			"amount": null, "amountinwords": null, "currency": null,
			"category": "Others", "purpose": null, "accountnum": null,
			"mobilenum": null, "confidence": 0.9
		}`},
		{"category outside enum", `{
			"payee": null, "tin": null, "address": null, "sib": null,
			"amount": null, "amountinwords": null, "currency": null,
			"category": "Travel", "purpose": null, "accountnum": null, "mobilenum": null
		}`},
		{"currency symbol", `{
			"payee": null, "tin": null, "address": null, "sib": null,
			"amount": null, "amountinwords": null, "currency": "P",
			"category": "Others", "purpose": null, "accountnum": null, "mobilenum": null
		}`},
		{"amount with separators", `{
			"payee": null, "tin": null, "address": null, "sib": null,
			"amount": "1,500.00", "amountinwords": null, "currency": null,
			"category": "Others", "purpose": null, "accountnum": null, "mobilenum": null
		}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := schema.Validate([]byte(tc.doc)); err == nil {
				t.Fatalf("schema accepted %s", tc.name)
			}
		})
	}
}
