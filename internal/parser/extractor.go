package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Field names a value the extractor can pull out of a report message.
type Field string

const (
	FieldName          Field = "name"
	FieldEmail         Field = "email"
	FieldPhone         Field = "phone"
	FieldAmount        Field = "amount"
	FieldProduct       Field = "product"
	FieldFunnel        Field = "funnel"
	FieldPaymentMethod Field = "paymentMethod"
	FieldPaymentType   Field = "paymentType"
	FieldExtras        Field = "extras"
	FieldStatus        Field = "status"
)

// fieldRule declares how one field is located: a set of label patterns
// (case-insensitive regex fragments) followed by a colon and the value
// running to end of line. Fields with ColonOptional tolerate reports that
// drop the colon, e.g. "Producto Silver".
type fieldRule struct {
	Field         Field
	Labels        []string
	ColonOptional bool
}

// defaultRules covers the report formats the closers actually send.
// "Tipo" is deliberately broad: it matches "Tipo:", "Tipo de pago:",
// "Tipo de Unico:" and similar through a single generic pattern.
func defaultRules() []fieldRule {
	return []fieldRule{
		{Field: FieldName, Labels: []string{`Nombre`}},
		{Field: FieldEmail, Labels: []string{`Email`, `Correo`}},
		{Field: FieldPhone, Labels: []string{`Tel[eé]fono`}},
		{Field: FieldProduct, Labels: []string{`Producto`}, ColonOptional: true},
		{Field: FieldFunnel, Labels: []string{`Funnel`}},
		{Field: FieldPaymentMethod, Labels: []string{`Medio de Pago`}},
		{Field: FieldPaymentType, Labels: []string{`Tipo(?:\s+de\s+\p{L}+)?`}},
		{Field: FieldExtras, Labels: []string{`Extras`}},
		{Field: FieldStatus, Labels: []string{`Status`}},
	}
}

// amountPattern handles "Monto: 100usd", "Monto (USD): 100" and
// "Monto(usd): 100 USD": optional parenthesized currency hint, decimal
// number with "." or "," separator, optional trailing unit word.
const amountPattern = `(?i)Monto\s*(?:\(([^)]+)\))?\s*:\s*(\d+(?:[.,]\d+)?)\s*(usd|ars|euros?|pesos?)?`

const confirmationMark = "✅"

// AmountMatch carries the three capture groups of the amount pattern.
type AmountMatch struct {
	ParenHint    string
	Number       string
	TrailingUnit string
}

// ExtractedFields maps recognized fields to their raw line values. Absent
// fields are simply missing from the map; that is normal input, not an
// error.
type ExtractedFields struct {
	Values map[Field]string
	Amount *AmountMatch
}

// Has reports whether the field's label+value pattern matched.
func (e ExtractedFields) Has(f Field) bool {
	if f == FieldAmount {
		return e.Amount != nil
	}
	_, ok := e.Values[f]
	return ok
}

// Get returns the trimmed value for a field, or "" when absent.
func (e ExtractedFields) Get(f Field) string {
	return strings.TrimSpace(e.Values[f])
}

// Extractor applies the label table to message text. It is immutable after
// construction and safe for concurrent use.
type Extractor struct {
	patterns map[Field]*regexp.Regexp
	amount   *regexp.Regexp
}

// NewExtractor compiles the default label table.
func NewExtractor() *Extractor {
	ex, err := newExtractor(defaultRules())
	if err != nil {
		// default table is static and known to compile
		panic(err)
	}
	return ex
}

func newExtractor(rules []fieldRule) (*Extractor, error) {
	patterns := make(map[Field]*regexp.Regexp, len(rules))
	for _, rule := range rules {
		colon := `\s*:\s*`
		if rule.ColonOptional {
			colon = `\s*:?\s*`
		}
		expr := fmt.Sprintf(`(?i)(?:%s)%s(.+)`, strings.Join(rule.Labels, "|"), colon)
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile field %s: %w", rule.Field, err)
		}
		patterns[rule.Field] = re
	}
	return &Extractor{
		patterns: patterns,
		amount:   regexp.MustCompile(amountPattern),
	}, nil
}

// Extract pulls every recognized label-value pair out of text. Pure
// function: no side effects, identical input yields identical output.
func (x *Extractor) Extract(text string) ExtractedFields {
	out := ExtractedFields{Values: make(map[Field]string)}
	for field, re := range x.patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			out.Values[field] = m[1]
		}
	}
	if m := x.amount.FindStringSubmatch(text); m != nil {
		out.Amount = &AmountMatch{ParenHint: m[1], Number: m[2], TrailingUnit: m[3]}
	}
	return out
}

// HasAmount reports whether the amount pattern matches text at all.
func (x *Extractor) HasAmount(text string) bool {
	return x.amount.MatchString(text)
}

// HasField reports whether the field's pattern matches text at all.
func (x *Extractor) HasField(f Field, text string) bool {
	re, ok := x.patterns[f]
	return ok && re.MatchString(text)
}
