// Package quotation maps the loosely typed quotation payload onto a fully
// defaulted record and computes its totals, money strings and table rows.
//
// Every field has a primary JSON name and an optional alias. Absent, null or
// mistyped fields never fail: they resolve through the tables below.
package quotation

import (
	"bytes"
	"encoding/json"
	"strings"

	"go-quotepdf/internal/apperr"

	"github.com/shopspring/decimal"
)

// LabelPrefix starts every quote label.
const LabelPrefix = "COT-"

// DefaultTaxRate is applied when the payload carries no tax rate.
var DefaultTaxRate = decimal.RequireFromString("0.19")

// Quotation is the normalized request.
type Quotation struct {
	Number       string
	Label        string
	Organization string
	FirstName    string
	LastName     string
	Email        string
	Address      string
	Phone        string
	City         string
	Currency     string
	MoneySymbol  string
	Discount     decimal.Decimal
	TaxRate      decimal.Decimal
	ACRInfo      string
	Observations string
	ExtraText    string
	FooterLeft   string
	FooterRight  string
	CompanyTop   string
	DocCode      string
	Items        []Item
}

// Item is one quoted test row.
type Item struct {
	Technology string
	EssayCode  string
	EssayName  string
	Method     string
	Accredited bool
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
}

// LineTotal is quantity times unit price.
func (it Item) LineTotal() decimal.Decimal {
	return it.Quantity.Mul(it.UnitPrice)
}

// ACR renders the accreditation flag.
func (it Item) ACR() string {
	if it.Accredited {
		return "Si"
	}
	return "No"
}

// Totals returns the computed totals for q.
func (q Quotation) Totals() Totals {
	return ComputeTotals(q.Items, q.Discount, q.TaxRate)
}

type textField struct {
	name, alias string
	def         string
	set         func(q *Quotation, v string)
}

type numberField struct {
	name, alias string
	def         decimal.Decimal
	set         func(q *Quotation, v decimal.Decimal)
}

type itemTextField struct {
	name, alias string
	set         func(it *Item, v string)
}

var textFields = []textField{
	{"cotNumber", "cot", "", func(q *Quotation, v string) { q.Number = strings.TrimSpace(v) }},
	{"organizacion", "organization", "", func(q *Quotation, v string) { q.Organization = v }},
	{"firstname", "firstName", "", func(q *Quotation, v string) { q.FirstName = v }},
	{"lastname", "lastName", "", func(q *Quotation, v string) { q.LastName = v }},
	{"email", "", "", func(q *Quotation, v string) { q.Email = v }},
	{"direccion", "address", "", func(q *Quotation, v string) { q.Address = v }},
	{"telefono", "phone", "", func(q *Quotation, v string) { q.Phone = v }},
	{"ciudad", "city", "", func(q *Quotation, v string) { q.City = v }},
	{"moneda", "currency", "USD", func(q *Quotation, v string) { q.Currency = v }},
	{"moneySymbol", "currencySymbol", "$", func(q *Quotation, v string) { q.MoneySymbol = v }},
	{"acrInfo", "", "Aplica según el alcance del ensayo.", func(q *Quotation, v string) { q.ACRInfo = v }},
	{"observaciones", "observations", "Ninguna.", func(q *Quotation, v string) { q.Observations = v }},
	{"extraText", "", "", func(q *Quotation, v string) { q.ExtraText = v }},
	{"footerLeft", "", "", func(q *Quotation, v string) { q.FooterLeft = v }},
	{"footerRight", "", "", func(q *Quotation, v string) { q.FooterRight = v }},
	{"companyTop", "", "LUMINOTEST S.A.S.", func(q *Quotation, v string) { q.CompanyTop = v }},
	{"docCode", "", "FO-COM-001 V21 2023/10/31", func(q *Quotation, v string) { q.DocCode = v }},
}

var numberFields = []numberField{
	{"descuento", "discount", decimal.Zero, func(q *Quotation, v decimal.Decimal) { q.Discount = v }},
	{"ivaRate", "taxRate", DefaultTaxRate, func(q *Quotation, v decimal.Decimal) { q.TaxRate = v }},
}

var itemTextFields = []itemTextField{
	{"tecnologia", "productName", func(it *Item, v string) { it.Technology = v }},
	{"codigoEnsayo", "essayCode", func(it *Item, v string) { it.EssayCode = v }},
	{"ensayo", "essayName", func(it *Item, v string) { it.EssayName = v }},
	{"metodoEnsayo", "method", func(it *Item, v string) { it.Method = v }},
}

// Parse decodes a request body. An empty body is an empty quotation; only a
// body that is not a JSON object is rejected.
func Parse(body []byte) (Quotation, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return fromObject(object{}), nil
	}
	if body[0] != '{' {
		return Quotation{}, apperr.BadRequest("request body must be a JSON object", nil)
	}
	var o object
	if err := json.Unmarshal(body, &o); err != nil {
		return Quotation{}, apperr.BadRequest("invalid JSON body", err)
	}
	return fromObject(o), nil
}

func fromObject(o object) Quotation {
	var q Quotation
	for _, f := range textFields {
		v := f.def
		if raw, ok := o.lookup(f.name, f.alias); ok {
			v = textOf(raw)
		}
		f.set(&q, v)
	}
	for _, f := range numberFields {
		v := f.def
		if raw, ok := o.lookup(f.name, f.alias); ok {
			v = numberOf(raw)
		}
		f.set(&q, v)
	}
	q.Label = Label(q.Number)

	if raw, ok := o.lookup("items"); ok {
		for _, obj := range objectsOf(raw) {
			q.Items = append(q.Items, itemFromObject(obj))
		}
	}
	return q
}

func itemFromObject(o object) Item {
	var it Item
	for _, f := range itemTextFields {
		if raw, ok := o.lookup(f.name, f.alias); ok {
			f.set(&it, textOf(raw))
		}
	}
	if raw, ok := o.lookup("acr"); ok {
		it.Accredited = flagOf(raw)
	}
	it.Quantity = decimal.Zero
	if raw, ok := o.lookup("cantidad", "quantity"); ok {
		it.Quantity = numberOf(raw)
	}
	it.UnitPrice = decimal.Zero
	if raw, ok := o.lookup("valorUnitario", "unitPrice"); ok {
		it.UnitPrice = numberOf(raw)
	}
	return it
}

// Label prefixes a quote number with COT- unless it already carries it.
func Label(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, LabelPrefix) {
		return number
	}
	return LabelPrefix + number
}
