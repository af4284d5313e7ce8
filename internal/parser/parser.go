package parser

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/sales-tracker/internal/domain"
)

// ErrNotASaleReport is returned when a message lacks the minimum fields of
// a sale report (name and amount). Callers treat the message as ordinary
// chat history; this is not a fault.
var ErrNotASaleReport = errors.New("not a sale report")

// ParsedSale is the structured result of parsing a report message.
type ParsedSale struct {
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	Amount        decimal.Decimal
	Currency      domain.Currency
	Product       string
	Funnel        string
	PaymentMethod string
	PaymentType   string
	Extras        string

	// HasConfirmationMark is auxiliary signal only; a report without the
	// ✅ glyph is still valid.
	HasConfirmationMark bool
}

// Parser combines the field extractor with amount and currency
// normalization. Stateless and safe for concurrent use.
type Parser struct {
	extractor *Extractor
}

// New returns a parser over the default label table.
func New() *Parser {
	return &Parser{extractor: NewExtractor()}
}

// NewWithExtractor returns a parser over a customized extractor, e.g. one
// carrying label synonyms loaded from a rules file.
func NewWithExtractor(extractor *Extractor) *Parser {
	return &Parser{extractor: extractor}
}

// IsSaleReport is the cheap pre-filter run before full parsing: true iff
// both the name and amount label patterns match. Most group traffic is
// plain chat and never reaches Parse.
func (p *Parser) IsSaleReport(text string) bool {
	return p.extractor.HasField(FieldName, text) && p.extractor.HasAmount(text)
}

// Parse extracts a complete sale from free text, or fails with
// ErrNotASaleReport when name or amount is missing or the amount does not
// parse as a non-negative number.
func (p *Parser) Parse(text string) (*ParsedSale, error) {
	fields := p.extractor.Extract(text)
	if !fields.Has(FieldName) || fields.Amount == nil {
		return nil, ErrNotASaleReport
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(fields.Amount.Number, ",", "."))
	if err != nil || amount.IsNegative() {
		return nil, ErrNotASaleReport
	}

	return &ParsedSale{
		ClientName:          fields.Get(FieldName),
		ClientEmail:         fields.Get(FieldEmail),
		ClientPhone:         fields.Get(FieldPhone),
		Amount:              amount,
		Currency:            resolveCurrency(fields.Amount),
		Product:             fields.Get(FieldProduct),
		Funnel:              fields.Get(FieldFunnel),
		PaymentMethod:       fields.Get(FieldPaymentMethod),
		PaymentType:         fields.Get(FieldPaymentType),
		Extras:              fields.Get(FieldExtras),
		HasConfirmationMark: strings.Contains(text, confirmationMark),
	}, nil
}

// resolveCurrency picks the parenthesized hint first, then the trailing
// unit word after the number, defaulting to USD. The ordering matters for
// formats like "Monto(usd): 100 USD" where both appear.
func resolveCurrency(m *AmountMatch) domain.Currency {
	token := m.ParenHint
	if strings.TrimSpace(token) == "" {
		token = m.TrailingUnit
	}
	return NormalizeCurrency(token)
}

// NormalizeCurrency maps a free-form currency token to a 3-letter code:
// anything containing "peso" or exactly ARS becomes ARS, anything
// containing "euro" becomes EUR, everything else (including empty) USD.
func NormalizeCurrency(token string) domain.Currency {
	token = strings.ToUpper(strings.TrimSpace(token))
	switch {
	case strings.Contains(token, "PESO") || token == "ARS":
		return domain.CurrencyARS
	case strings.Contains(token, "EURO"):
		return domain.CurrencyEUR
	default:
		return domain.CurrencyUSD
	}
}
