package quotation

import (
	"strings"
	"testing"

	"go-quotepdf/internal/apperr"

	"github.com/shopspring/decimal"
)

func mustParse(t *testing.T, body string) Quotation {
	t.Helper()
	q, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse(%s): %v", body, err)
	}
	return q
}

func TestParse_Defaults(t *testing.T) {
	q := mustParse(t, `{}`)

	checks := map[string][2]string{
		"Label":        {q.Label, "COT-"},
		"Currency":     {q.Currency, "USD"},
		"MoneySymbol":  {q.MoneySymbol, "$"},
		"ACRInfo":      {q.ACRInfo, "Aplica según el alcance del ensayo."},
		"Observations": {q.Observations, "Ninguna."},
		"CompanyTop":   {q.CompanyTop, "LUMINOTEST S.A.S."},
		"DocCode":      {q.DocCode, "FO-COM-001 V21 2023/10/31"},
		"Organization": {q.Organization, ""},
		"ExtraText":    {q.ExtraText, ""},
	}
	for field, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", field, c[0], c[1])
		}
	}
	if !q.TaxRate.Equal(DefaultTaxRate) {
		t.Errorf("TaxRate = %s, want 0.19", q.TaxRate)
	}
	if !q.Discount.IsZero() {
		t.Errorf("Discount = %s, want 0", q.Discount)
	}
	if len(q.Items) != 0 {
		t.Errorf("expected no items, got %d", len(q.Items))
	}
}

func TestParse_EmptyBody(t *testing.T) {
	q := mustParse(t, "  ")
	if q.Label != "COT-" || q.Currency != "USD" {
		t.Errorf("empty body should resolve to defaults, got label %q currency %q", q.Label, q.Currency)
	}
}

func TestParse_RejectsNonObject(t *testing.T) {
	for _, body := range []string{`[1,2]`, `"text"`, `{"organizacion":`} {
		_, err := Parse([]byte(body))
		if err == nil {
			t.Fatalf("Parse(%s): expected error", body)
		}
		if !apperr.Is(err, apperr.KindBadRequest) {
			t.Errorf("Parse(%s): expected bad request, got %v", body, err)
		}
	}
}

func TestParse_Aliases(t *testing.T) {
	q := mustParse(t, `{
		"cot": "77",
		"organization": "Acme",
		"firstName": "Ana",
		"lastName": "Ruiz",
		"address": "Calle 1",
		"phone": "300",
		"city": "Bogotá",
		"discount": 10,
		"taxRate": "0.05"
	}`)

	if q.Label != "COT-77" {
		t.Errorf("Label = %q", q.Label)
	}
	if q.Organization != "Acme" || q.FirstName != "Ana" || q.LastName != "Ruiz" {
		t.Errorf("unexpected client fields: %+v", q)
	}
	if q.Address != "Calle 1" || q.Phone != "300" || q.City != "Bogotá" {
		t.Errorf("unexpected contact fields: %+v", q)
	}
	if !q.Discount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Discount = %s", q.Discount)
	}
	if !q.TaxRate.Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("TaxRate = %s", q.TaxRate)
	}
}

func TestParse_PrimaryNameWinsOverAlias(t *testing.T) {
	q := mustParse(t, `{"organizacion": "Primaria", "organization": "Alias"}`)
	if q.Organization != "Primaria" {
		t.Errorf("Organization = %q, want primary", q.Organization)
	}
}

func TestParse_NullFallsThrough(t *testing.T) {
	q := mustParse(t, `{"organizacion": null, "organization": "Alias", "observaciones": null, "ivaRate": null}`)
	if q.Organization != "Alias" {
		t.Errorf("Organization = %q, want alias value", q.Organization)
	}
	if q.Observations != "Ninguna." {
		t.Errorf("Observations = %q, want default", q.Observations)
	}
	if !q.TaxRate.Equal(DefaultTaxRate) {
		t.Errorf("TaxRate = %s, want default", q.TaxRate)
	}
}

func TestParse_ScalarText(t *testing.T) {
	q := mustParse(t, `{"cotNumber": 1234, "telefono": 3001234567, "extraText": true}`)
	if q.Label != "COT-1234" {
		t.Errorf("Label = %q", q.Label)
	}
	if q.Phone != "3001234567" {
		t.Errorf("Phone = %q", q.Phone)
	}
	if q.ExtraText != "true" {
		t.Errorf("ExtraText = %q", q.ExtraText)
	}
}

func TestLabel(t *testing.T) {
	cases := map[string]string{
		"1234":      "COT-1234",
		"COT-1234":  "COT-1234",
		"  98  ":    "COT-98",
		"":          "COT-",
		"cot-5":     "COT-cot-5",
		" COT-2026": "COT-2026",
	}
	for in, want := range cases {
		if got := Label(in); got != want {
			t.Errorf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParse_ItemsNotArray(t *testing.T) {
	q := mustParse(t, `{"items": {"cantidad": 2}}`)
	if len(q.Items) != 0 {
		t.Errorf("expected non-array items to be ignored, got %d", len(q.Items))
	}
}

func TestParse_ItemCoercion(t *testing.T) {
	q := mustParse(t, `{"items": [
		{"tecnologia": "LED", "codigoEnsayo": "E-1", "ensayo": "Flujo", "metodoEnsayo": "IES LM-79", "cantidad": 2, "valorUnitario": 150000.5},
		{"productName": "Driver", "essayCode": "E-2", "essayName": "THD", "method": "IEC", "quantity": "3", "unitPrice": "10"},
		{"cantidad": "abc", "valorUnitario": {"x": 1}},
		{},
		7
	]}`)

	if len(q.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(q.Items))
	}

	first := q.Items[0]
	if first.Technology != "LED" || first.EssayCode != "E-1" || first.EssayName != "Flujo" || first.Method != "IES LM-79" {
		t.Errorf("unexpected first item: %+v", first)
	}
	if !first.LineTotal().Equal(decimal.RequireFromString("300001")) {
		t.Errorf("first line total = %s", first.LineTotal())
	}

	second := q.Items[1]
	if second.Technology != "Driver" || second.Method != "IEC" {
		t.Errorf("aliases not applied: %+v", second)
	}
	if !second.LineTotal().Equal(decimal.NewFromInt(30)) {
		t.Errorf("second line total = %s", second.LineTotal())
	}

	for i, it := range q.Items[2:] {
		if !it.Quantity.IsZero() || !it.UnitPrice.IsZero() {
			t.Errorf("item %d: expected non-numeric input to coerce to zero, got %s x %s", i+2, it.Quantity, it.UnitPrice)
		}
	}
}

func TestItemACR(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`true`, "Si"},
		{`"SI"`, "Si"},
		{`"Si"`, "Si"},
		{`false`, "No"},
		{`"no"`, "No"},
		{`"si"`, "No"},
		{`1`, "No"},
		{`null`, "No"},
	}
	for _, tc := range cases {
		q := mustParse(t, `{"items":[{"acr":`+tc.raw+`}]}`)
		if got := q.Items[0].ACR(); got != tc.want {
			t.Errorf("acr %s => %q, want %q", tc.raw, got, tc.want)
		}
	}

	q := mustParse(t, `{"items":[{}]}`)
	if got := q.Items[0].ACR(); got != "No" {
		t.Errorf("absent acr => %q, want No", got)
	}
}

func TestParse_TextIsNotEscaped(t *testing.T) {
	q := mustParse(t, `{"firstname": "<script>alert(1)</script>"}`)
	if !strings.Contains(q.FirstName, "<script>") {
		t.Errorf("parsed text should stay raw until rendering, got %q", q.FirstName)
	}
}
