package jobs

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
)

// Listing holds the facts extracted from a job posting.
type Listing struct {
	ID          string  `json:"id,omitempty" mapstructure:"id"`
	Title       string  `json:"title" mapstructure:"title"`
	Company     string  `json:"company" mapstructure:"company"`
	Location    string  `json:"location" mapstructure:"location"`
	Description string  `json:"description" mapstructure:"description"`
	URL         string  `json:"url,omitempty" mapstructure:"url"`
	Salary      *Salary `json:"salary,omitempty" mapstructure:"salary"`
}

// Salary is the advertised compensation. Amounts are normalized when decoded,
// so "$130,000" and 130000 end up as the same value.
type Salary struct {
	Min      Amount `json:"min,omitempty" mapstructure:"min"`
	Max      Amount `json:"max,omitempty" mapstructure:"max"`
	Currency string `json:"currency,omitempty" mapstructure:"currency"`
}

// Amount is a salary figure. Zero means the figure is absent or unparseable.
type Amount float64

// Known reports whether the salary carries at least one usable figure.
func (s *Salary) Known() bool {
	return s != nil && (s.Min > 0 || s.Max > 0)
}

// Range returns the salary interval. A missing bound is replaced by the other one.
func (s *Salary) Range() (float64, float64) {
	lo, hi := float64(s.Min), float64(s.Max)
	if hi <= 0 {
		hi = lo
	}
	if lo <= 0 {
		lo = hi
	}
	return lo, hi
}

// ErrInvalidListing is returned for a listing that lacks the fields scoring needs.
var ErrInvalidListing = errors.New("invalid job listing")

// Validate checks the fields every posting must carry. Location and salary are optional.
func (l *Listing) Validate() error {
	var missing []string
	if strings.TrimSpace(l.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(l.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidListing, strings.Join(missing, ", "))
	}
	return nil
}

// Text returns the job text the scorers match against.
func (l *Listing) Text() string {
	return l.Title + " " + l.Description
}

// Decode converts a loosely typed job document into a Listing.
func Decode(raw map[string]any) (*Listing, error) {
	var listing Listing

	cfg := &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(salaryHook, amountHook),
		Result:     &listing,
		TagName:    "mapstructure",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}

	if listing.Salary != nil && !listing.Salary.Known() {
		listing.Salary = nil
	}

	return &listing, nil
}

var (
	amountType    = reflect.TypeOf(Amount(0))
	salaryType    = reflect.TypeOf(Salary{})
	salaryPtrType = reflect.TypeOf(&Salary{})
)

// salaryHook lets the salary be a free-form string such as "$120k - $150k" or
// a bare number. Anything else that is not an object becomes an unknown salary.
func salaryHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != salaryType && to != salaryPtrType {
		return data, nil
	}

	switch from.Kind() {
	case reflect.Map, reflect.Struct:
		return data, nil
	case reflect.Ptr:
		if from.Elem().Kind() == reflect.Struct {
			return data, nil
		}
		return map[string]any{}, nil
	case reflect.String:
		return parseSalaryText(reflect.ValueOf(data).String()), nil
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int32, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return map[string]any{"min": data}, nil
	default:
		return map[string]any{}, nil
	}
}

var currencySymbols = map[string]string{"$": "USD", "€": "EUR", "£": "GBP"}

// parseSalaryText splits "lo - hi CUR" into the fields of a salary object.
func parseSalaryText(s string) map[string]any {
	out := map[string]any{}

	for symbol, code := range currencySymbols {
		if strings.Contains(s, symbol) {
			out["currency"] = code
		}
	}

	s = strings.NewReplacer("–", "-", "—", "-", " to ", "-", " TO ", "-").Replace(s)

	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '/' })
	var amounts []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		// a trailing currency code such as "150000 USD"
		if i := strings.LastIndexFunc(f, unicode.IsDigit); i >= 0 && i < len(f)-1 {
			code := strings.TrimSpace(f[i+1:])
			if len(code) == 3 && strings.IndexFunc(code, func(r rune) bool { return !unicode.IsLetter(r) }) == -1 {
				out["currency"] = strings.ToUpper(code)
				f = f[:i+1]
			}
		}
		if f != "" {
			amounts = append(amounts, f)
		}
	}

	if len(amounts) > 0 {
		out["min"] = amounts[0]
	}
	if len(amounts) > 1 {
		out["max"] = amounts[1]
	}
	return out
}

// amountHook accepts salary figures as numbers or as strings like "$130,000" or "130k".
func amountHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != amountType {
		return data, nil
	}

	switch from.Kind() {
	case reflect.String:
		return ParseAmount(reflect.ValueOf(data).String()), nil
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int32, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return data, nil
	default:
		return Amount(0), nil
	}
}

// ParseAmount strips currency symbols and separators. Unparseable input yields zero.
func ParseAmount(s string) Amount {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("$", "", ",", "", " ", "", "€", "", "£", "").Replace(s)

	multiplier := 1.0
	if strings.HasSuffix(s, "k") {
		multiplier = 1000
		s = strings.TrimSuffix(s, "k")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}

	return Amount(v * multiplier)
}
