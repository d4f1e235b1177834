package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/charmbracelet/log"
	"github.com/etnz/gfsync"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Custom returns a platform scraping the responses under rules.URLPrefix
// with JSONPath rules.
//
// Records without an ID rule are identified by a name based UUID of their
// content, stable across scrapes.
func Custom(name string, rules gfsync.ScrapeRules) (Platform, error) {
	s, err := compileRules(rules)
	if err != nil {
		return Platform{}, fmt.Errorf("platform %s: %w", name, err)
	}
	s.name = name
	s.namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(rules.URLPrefix))
	return Platform{
		ID:         strings.ToLower(name),
		Name:       name,
		TxnPageURL: rules.TxnPageURL,
		MatchesURL: func(u *url.URL) bool { return strings.HasPrefix(u.String(), rules.URLPrefix) },
		Parse:      s.parse,
	}, nil
}

// selector evaluates a compiled JSONPath.
type selector func(ctx context.Context, v any) (any, error)

// scraper applies compiled rules to response bodies.
type scraper struct {
	name      string
	namespace uuid.UUID
	rules     gfsync.ScrapeRules
	items     selector
	fields    map[string]selector
}

func compileRules(r gfsync.ScrapeRules) (*scraper, error) {
	var errs error
	u, err := url.Parse(r.URLPrefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = errors.Join(errs, fmt.Errorf("invalid url prefix %q", r.URLPrefix))
	}
	s := &scraper{rules: r, fields: make(map[string]selector)}
	all := []struct {
		name, rule string
		required   bool
	}{
		{"items", r.Items, true},
		{"id", r.ID, false},
		{"date", r.Date, true},
		{"type", r.Type, true},
		{"account", r.Account, false},
		{"asset", r.Asset, true},
		{"quantity", r.Quantity, true},
		{"unitPrice", r.UnitPrice, true},
		{"fee", r.Fee, false},
		{"currency", r.Currency, false},
	}
	for _, f := range all {
		if f.rule == "" {
			if f.required {
				errs = errors.Join(errs, fmt.Errorf("rule %q is missing", f.name))
			}
			continue
		}
		eval, err := jsonpath.New(f.rule)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("rule %s %q: %w", f.name, f.rule, err))
			continue
		}
		s.fields[f.name] = selector(eval)
	}
	if errs != nil {
		return nil, errs
	}
	s.items = s.fields["items"]
	return s, nil
}

func (s *scraper) parse(body []byte, cfg gfsync.Configs) ([]gfsync.Transaction, gfsync.MissingReport, error) {
	ctx := context.Background()
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, err
	}
	jitems, err := s.items(ctx, doc)
	if err != nil {
		return nil, nil, fmt.Errorf("items %q: %w", s.rules.Items, err)
	}
	records, ok := jitems.([]any)
	if !ok {
		return nil, nil, fmt.Errorf("items %q: not a list", s.rules.Items)
	}
	if s.rules.NewestFirst {
		records = slices.Clone(records)
		slices.Reverse(records)
	}

	txns := make([]gfsync.Transaction, 0, len(records))
	for i, record := range records {
		tx, err := s.transaction(ctx, record, cfg.Currency(s.name))
		if errors.Is(err, errSkip) {
			log.Warn("skip record", "platform", s.name, "index", i, "err", err)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", i, err)
		}
		txns = append(txns, tx)
	}
	sortByDate(txns)

	var missing gfsync.MissingReport
	for i := range txns {
		cfg.Resolve(s.name, &txns[i], &missing)
	}
	return txns, missing, nil
}

// errSkip marks records that are valid but not transactions.
var errSkip = errors.New("not a transaction")

func (s *scraper) transaction(ctx context.Context, record any, currency string) (gfsync.Transaction, error) {
	f := fields{ctx: ctx, record: record, selectors: s.fields}
	tx := gfsync.Transaction{
		Account:   f.str("account"),
		Asset:     f.str("asset"),
		Quantity:  f.dec("quantity").Abs(),
		UnitPrice: f.dec("unitPrice"),
		Fee:       f.dec("fee").Abs(),
		Currency:  currency,
	}
	if c := f.str("currency"); c != "" {
		tx.Currency = c
	}
	if s.rules.ID != "" {
		tx.ID = f.str("id")
	} else {
		data, err := json.Marshal(record)
		if err != nil {
			return tx, err
		}
		tx.ID = uuid.NewSHA1(s.namespace, data).String()
	}
	if date := f.str("date"); date != "" {
		on, err := parseTime(date, s.rules.DateLayout)
		if err != nil {
			f.errs = errors.Join(f.errs, err)
		}
		tx.Date = on
	}
	if f.errs != nil {
		return tx, f.errs
	}

	raw := f.str("type")
	if typ, ok := s.rules.Types[raw]; ok {
		tx.Type = typ
	} else if typ, err := gfsync.ParseActivityType(raw); err == nil {
		tx.Type = typ
	} else {
		return tx, fmt.Errorf("%w: type %q", errSkip, raw)
	}

	switch {
	case tx.ID == "":
		return tx, errors.New("empty id")
	case tx.Date.IsZero():
		return tx, errors.New("empty date")
	case tx.Asset == "":
		return tx, errors.New("empty asset")
	}
	return tx, gfsync.CheckID(tx.ID)
}

// fields reads values out of a record, accumulating errors.
type fields struct {
	ctx       context.Context
	record    any
	selectors map[string]selector
	errs      error
}

// get returns the value of the field name, nil when the rule is not set or
// the record does not have it.
func (f *fields) get(name string) any {
	sel, ok := f.selectors[name]
	if !ok {
		return nil
	}
	v, err := sel(f.ctx, f.record)
	if err != nil {
		return nil
	}
	// jsonpath returns either a list of answers or a single one, keep the first.
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		v = list[0]
	}
	return v
}

func (f *fields) str(name string) string {
	switch v := f.get(name).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		f.errs = errors.Join(f.errs, fmt.Errorf("%s: not a scalar: %v", name, v))
		return ""
	}
}

func (f *fields) dec(name string) decimal.Decimal {
	s := f.str(name)
	if s == "" {
		return decimal.Zero
	}
	// some platforms use a comma and spaces: "1 234,5"
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		f.errs = errors.Join(f.errs, fmt.Errorf("%s: %w", name, err))
		return decimal.Zero
	}
	return d
}
