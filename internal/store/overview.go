package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/xdrstat/internal/dataset"
	"github.com/lib/pq"
	"github.com/spf13/cast"
)

// Ranked is one row of a ranking query.
type Ranked struct {
	Key   string  `json:"key" yaml:"key"`
	Value float64 `json:"value" yaml:"value"`
}

// Panel is the result of one canned query. Error is set instead of Rows when
// the query failed.
type Panel struct {
	Section string   `json:"section" yaml:"section"`
	Metric  string   `json:"metric" yaml:"metric"`
	Title   string   `json:"title" yaml:"title"`
	Rows    []Ranked `json:"rows" yaml:"rows"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

type canned struct {
	section string
	metric  string
	title   string
	build   func(s *Store) (string, error)
}

var catalog = []canned{
	{"overview", "handsets", "Top handsets", func(s *Store) (string, error) { return s.countBy(s.cols.Handset) }},
	{"overview", "manufacturers", "Top manufacturers", func(s *Store) (string, error) { return s.countBy(s.cols.Manufacturer) }},
	{"overview", "sessions", "Top customers by sessions", (*Store).sessions},
	{"overview", "duration", "Top customers by total duration", (*Store).totalDuration},
	{"overview", "avg-duration", "Top customers by average duration", (*Store).avgDuration},
	{"overview", "data", "Top customers by total data", (*Store).totalData},

	{"engagement", "sessions", "Top customers by sessions", (*Store).sessions},
	{"engagement", "duration", "Top customers by total duration", (*Store).totalDuration},
	{"engagement", "data", "Top customers by total data", (*Store).totalData},

	{"experience", "rtt-dl", "Top sessions by RTT DL", func(s *Store) (string, error) { return s.perRecord(s.cols.RTTDL) }},
	{"experience", "rtt-ul", "Top sessions by RTT UL", func(s *Store) (string, error) { return s.perRecord(s.cols.RTTUL) }},
	{"experience", "tp-dl", "Top sessions by throughput DL", func(s *Store) (string, error) { return s.perRecord(s.cols.TPDL) }},
	{"experience", "tp-ul", "Top sessions by throughput UL", func(s *Store) (string, error) { return s.perRecord(s.cols.TPUL) }},

	{"satisfaction", "engagement", "Top customers by engagement", (*Store).sessions},
	{"satisfaction", "experience", "Top sessions by experience", (*Store).experience},
}

// Sections lists the canned sections in display order.
func Sections() []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range catalog {
		if !seen[c.section] {
			seen[c.section] = true
			out = append(out, c.section)
		}
	}
	return out
}

// Metrics lists the metrics of a section.
func Metrics(section string) []string {
	var out []string
	for _, c := range catalog {
		if c.section == section {
			out = append(out, c.metric)
		}
	}
	return out
}

func lookup(section, metric string) (canned, error) {
	for _, c := range catalog {
		if c.section == section && c.metric == metric {
			return c, nil
		}
	}
	if len(Metrics(section)) == 0 {
		return canned{}, fmt.Errorf("unknown section %q (use %s)", section, strings.Join(Sections(), ", "))
	}
	return canned{}, fmt.Errorf("unknown %s metric %q (use %s)", section, metric, strings.Join(Metrics(section), ", "))
}

// Overview runs one canned query and returns at most Limit rows, highest
// value first. Ties are ordered by key.
func (s *Store) Overview(ctx context.Context, section, metric string) ([]Ranked, error) {
	c, err := lookup(section, metric)
	if err != nil {
		return nil, err
	}
	q, err := c.build(s)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", section, metric, err)
	}
	rows, err := s.query(ctx, q, s.limit)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", section, metric, err)
	}
	defer rows.Close()
	var out []Ranked
	for rows.Next() {
		var key, val any
		if err := rows.Scan(&key, &val); err != nil {
			return nil, fmt.Errorf("%s/%s: scan: %w", section, metric, err)
		}
		if b, ok := val.([]byte); ok {
			val = string(b)
		}
		v, err := cast.ToFloat64E(val)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: value %v: %w", section, metric, val, err)
		}
		out = append(out, Ranked{Key: dataset.CoerceString(key), Value: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s/%s: %w", section, metric, err)
	}
	return out, nil
}

// Section runs every query of a section. A failing query does not stop the
// others; its panel carries the error.
func (s *Store) Section(ctx context.Context, section string) ([]Panel, error) {
	var panels []Panel
	for _, c := range catalog {
		if c.section != section {
			continue
		}
		p := Panel{Section: c.section, Metric: c.metric, Title: c.title}
		rows, err := s.Overview(ctx, c.section, c.metric)
		if err != nil {
			p.Error = err.Error()
		}
		p.Rows = rows
		panels = append(panels, p)
	}
	if panels == nil {
		_, err := lookup(section, "")
		return nil, err
	}
	return panels, nil
}

func (s *Store) col(name, what string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%s column not configured", what)
	}
	return pq.QuoteIdentifier(name), nil
}

const rankOrder = " ORDER BY rank_value DESC, rank_key LIMIT ?"

// countBy counts records per non-null value of column.
func (s *Store) countBy(column string) (string, error) {
	c, err := s.col(column, "category")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT %[1]s AS rank_key, COUNT(*) AS rank_value FROM %[2]s WHERE %[1]s IS NOT NULL GROUP BY %[1]s", c, s.quotedTable()) + rankOrder, nil
}

func (s *Store) perCustomer(agg string, having string) (string, error) {
	id, err := s.col(s.cols.Customer, "customer")
	if err != nil {
		return "", err
	}
	q := fmt.Sprintf("SELECT %[1]s AS rank_key, %[2]s AS rank_value FROM %[3]s WHERE %[1]s IS NOT NULL GROUP BY %[1]s", id, agg, s.quotedTable())
	if having != "" {
		q += " HAVING " + having
	}
	return q + rankOrder, nil
}

func (s *Store) sessions() (string, error) { return s.perCustomer("COUNT(*)", "") }

func (s *Store) totalDuration() (string, error) {
	d, err := s.col(s.cols.Duration, "duration")
	if err != nil {
		return "", err
	}
	return s.perCustomer("SUM("+d+")", "COUNT("+d+") > 0")
}

func (s *Store) avgDuration() (string, error) {
	d, err := s.col(s.cols.Duration, "duration")
	if err != nil {
		return "", err
	}
	return s.perCustomer("AVG("+d+")", "COUNT("+d+") > 0")
}

// totalData sums DL + UL bytes; a record counts when either part is present.
func (s *Store) totalData() (string, error) {
	dl, err := s.col(s.cols.DLBytes, "downlink bytes")
	if err != nil {
		return "", err
	}
	ul, err := s.col(s.cols.ULBytes, "uplink bytes")
	if err != nil {
		return "", err
	}
	agg := fmt.Sprintf("SUM(COALESCE(%s, 0) + COALESCE(%s, 0))", dl, ul)
	return s.perCustomer(agg, fmt.Sprintf("COUNT(%s) + COUNT(%s) > 0", dl, ul))
}

// perRecord ranks individual sessions by expr.
func (s *Store) perRecord(column string) (string, error) {
	v, err := s.col(column, "metric")
	if err != nil {
		return "", err
	}
	return s.recordExpr(v)
}

func (s *Store) recordExpr(expr string) (string, error) {
	id, err := s.col(s.cols.Customer, "customer")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT %[1]s AS rank_key, %[2]s AS rank_value FROM %[3]s WHERE %[1]s IS NOT NULL AND (%[2]s) IS NOT NULL", id, expr, s.quotedTable()) + rankOrder, nil
}

// experience scores a session as RTT DL + RTT UL + TP DL + TP UL.
func (s *Store) experience() (string, error) {
	parts := []struct{ name, what string }{
		{s.cols.RTTDL, "rtt dl"}, {s.cols.RTTUL, "rtt ul"}, {s.cols.TPDL, "throughput dl"}, {s.cols.TPUL, "throughput ul"},
	}
	quoted := make([]string, len(parts))
	for i, p := range parts {
		q, err := s.col(p.name, p.what)
		if err != nil {
			return "", err
		}
		quoted[i] = q
	}
	return s.recordExpr(strings.Join(quoted, " + "))
}
