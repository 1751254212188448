package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// maxNumberLen bounds the raw text of a number flag
const maxNumberLen = 64

// decimalValue is a flag.Value parsing exact decimals, so 0.01 stays 0.01
type decimalValue struct {
	d *decimal.Decimal
}

func newDecimalValue(p *decimal.Decimal) *decimalValue {
	return &decimalValue{d: p}
}

func (v *decimalValue) String() string {
	if v == nil || v.d == nil {
		return ""
	}
	return v.d.String()
}

func (v *decimalValue) Set(s string) error {
	if len(s) > maxNumberLen {
		return fmt.Errorf("invalid number: longer than %d characters", maxNumberLen)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*v.d = d
	return nil
}

// choiceValue restricts a string flag to a fixed set of values
type choiceValue struct {
	value   *string
	choices []string
}

func newChoiceValue(p *string, def string, choices ...string) *choiceValue {
	*p = def
	return &choiceValue{value: p, choices: choices}
}

func (v *choiceValue) String() string {
	if v == nil || v.value == nil {
		return ""
	}
	return *v.value
}

func (v *choiceValue) Set(s string) error {
	for _, c := range v.choices {
		if s == c {
			*v.value = s
			return nil
		}
	}
	return fmt.Errorf("invalid choice %q (choose from %s)", s, strings.Join(v.choices, ", "))
}
