package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/inpe-cdsr/stac-api/internal/stac"
)

// Validation errors detected while building a filter, before any query runs.
var (
	// ErrInvalidBBox is returned for a bbox with the wrong arity.
	ErrInvalidBBox = errors.New("invalid bounding box")

	// ErrInvalidTime is returned for a time filter that is neither an
	// instant nor a start/end pair.
	ErrInvalidTime = errors.New("invalid time filter")

	// ErrInvalidQuery is returned for an attribute query with an unknown
	// field, an unknown operator, or a value the operator cannot take.
	ErrInvalidQuery = errors.New("invalid attribute query")
)

// DeletedMode selects which scenes are visible to searches.
type DeletedMode int

const (
	// DeletedOnlyActive filters to scenes that are not soft-deleted.
	DeletedOnlyActive DeletedMode = iota
	// DeletedOnlyDeleted filters to soft-deleted scenes only.
	DeletedOnlyDeleted
	// DeletedAll disables deleted filtering. Administrative use only;
	// it is never a default.
	DeletedAll
)

// ParseDeletedMode parses a configuration string into a DeletedMode.
func ParseDeletedMode(s string) (DeletedMode, error) {
	switch s {
	case "only-active":
		return DeletedOnlyActive, nil
	case "only-deleted":
		return DeletedOnlyDeleted, nil
	case "all":
		return DeletedAll, nil
	default:
		return 0, fmt.Errorf("unknown deleted filter mode %q", s)
	}
}

// QueryOp is an attribute query operator.
type QueryOp string

const (
	OpEq         QueryOp = "eq"
	OpNeq        QueryOp = "neq"
	OpLt         QueryOp = "lt"
	OpLte        QueryOp = "lte"
	OpGt         QueryOp = "gt"
	OpGte        QueryOp = "gte"
	OpStartsWith QueryOp = "startsWith"
	OpEndsWith   QueryOp = "endsWith"
	OpContains   QueryOp = "contains"
)

// opOrder fixes the order operator clauses are emitted in for one field.
var opOrder = []QueryOp{OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpStartsWith, OpEndsWith, OpContains}

var comparisonSQL = map[QueryOp]string{
	OpEq:  "=",
	OpNeq: "!=",
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
}

// queryableColumns maps attribute query fields to their catalog columns.
// Queries against any other field are rejected.
var queryableColumns = map[string]string{
	"path":        "`path`",
	"row":         "`row`",
	"satellite":   "`satellite`",
	"sensor":      "`sensor`",
	"cloud_cover": "`cloud_cover`",
	"sync_loss":   "`sync_loss`",
}

// Predicate is one typed attribute comparison. It is compiled to a
// parameterized clause; values are always bound, never interpolated.
type Predicate struct {
	Field string
	Op    QueryOp
	Value any
}

func (p Predicate) compile() (string, any, error) {
	col, ok := queryableColumns[p.Field]
	if !ok {
		return "", nil, fmt.Errorf("%w: unknown field %q", ErrInvalidQuery, p.Field)
	}

	if cmp, ok := comparisonSQL[p.Op]; ok {
		return fmt.Sprintf("%s %s ?", col, cmp), p.Value, nil
	}

	// Pattern operators take string values only.
	s, ok := p.Value.(string)
	if !ok {
		return "", nil, fmt.Errorf("%w: operator %q requires a string value for field %q", ErrInvalidQuery, p.Op, p.Field)
	}
	s = escapeLike(s)

	switch p.Op {
	case OpStartsWith:
		return col + " LIKE ?", s + "%", nil
	case OpEndsWith:
		return col + " LIKE ?", "%" + s, nil
	case OpContains:
		return col + " LIKE ?", "%" + s + "%", nil
	default:
		return "", nil, fmt.Errorf("%w: unknown operator %q for field %q", ErrInvalidQuery, p.Op, p.Field)
	}
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// Filter is the output of BuildFilter: ordered predicate clauses plus bound
// arguments. The count query and the data query are both derived from the
// same Filter so their totals never diverge.
type Filter struct {
	Clauses []string
	Args    []any

	// Collections is the requested collection scope, empty when unscoped.
	// Multi-collection scope selects partitioned pagination and per-
	// collection breakdowns.
	Collections []string

	// Page is the 1-indexed page as requested; Offset is its 0-indexed
	// row offset, floored at 0.
	Page   int
	Limit  int
	Offset int
}

// MultiCollection reports whether the filter spans more than one collection.
func (f *Filter) MultiCollection() bool {
	return len(f.Collections) > 1
}

// Where joins the clauses into a single WHERE body.
func (f *Filter) Where() string {
	if len(f.Clauses) == 0 {
		return "1 = 1"
	}
	return strings.Join(f.Clauses, "\nAND ")
}

// BuildFilter translates a search request into predicate clauses and bound
// parameters. Identifier search takes precedence: when IDs are present every
// other filter is discarded. Otherwise collection scope, bbox, time and
// attribute predicates accumulate in that fixed order. The deleted-mode
// predicate is always prepended unless the mode is DeletedAll.
func BuildFilter(req *stac.SearchRequest, mode DeletedMode) (*Filter, error) {
	f := &Filter{
		Page:  req.Page,
		Limit: req.Limit,
	}

	f.Offset = (req.Page - 1) * req.Limit
	if f.Offset < 0 {
		f.Offset = 0
	}

	switch mode {
	case DeletedOnlyActive:
		f.append("`deleted` = 0")
	case DeletedOnlyDeleted:
		f.append("`deleted` = 1")
	case DeletedAll:
		// no deleted predicate: search all scenes
	}

	// Identifier search wins over everything else.
	if len(req.IDs) > 0 {
		if len(req.IDs) == 1 {
			f.append("`id` = ?", req.IDs[0])
		} else {
			f.append("`id` IN ("+placeholders(len(req.IDs))+")", stringArgs(req.IDs)...)
		}
		return f, nil
	}

	if len(req.Collections) > 0 {
		f.Collections = req.Collections
		if len(req.Collections) == 1 {
			f.append("`collection` = ?", req.Collections[0])
		} else {
			f.append("`collection` IN ("+placeholders(len(req.Collections))+")", stringArgs(req.Collections)...)
		}
	}

	if len(req.BBox) > 0 {
		if err := f.appendBBox(req.BBox); err != nil {
			return nil, err
		}
	}

	if req.Time != "" {
		if err := f.appendTime(req.Time); err != nil {
			return nil, err
		}
	}

	if len(req.Query) > 0 {
		if err := f.appendQuery(req.Query); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func (f *Filter) append(clause string, args ...any) {
	f.Clauses = append(f.Clauses, clause)
	f.Args = append(f.Args, args...)
}

// appendBBox approximates footprint intersection with the query box using
// the diagonal corner comparisons: the scene's upper corners against the
// query's min corner, and its lower corners against the query's max corner.
func (f *Filter) appendBBox(bbox []float64) error {
	if len(bbox) != 4 {
		return fmt.Errorf("%w: expected 4 coordinates, got %d", ErrInvalidBBox, len(bbox))
	}

	minLon, minLat, maxLon, maxLat := bbox[0], bbox[1], bbox[2], bbox[3]

	clause := "(" +
		"((? <= `tr_longitude` AND ? <= `tr_latitude`) OR (? <= `br_longitude` AND ? <= `tl_latitude`))" +
		"\nAND ((? >= `bl_longitude` AND ? >= `bl_latitude`) OR (? >= `tl_longitude` AND ? >= `br_latitude`))" +
		")"

	f.append(clause,
		minLon, minLat, minLon, minLat,
		maxLon, maxLat, maxLon, maxLat,
	)
	return nil
}

// timeFormats accepted for time filter instants.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, format := range timeFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// appendTime translates the time filter: a single instant means "on or
// after"; a slash-delimited pair bounds both ends. Any other shape is a
// validation error.
func (f *Filter) appendTime(value string) error {
	parts := strings.Split(value, "/")

	switch len(parts) {
	case 1:
		start, err := parseInstant(parts[0])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTime, err)
		}
		f.append("`datetime` >= ?", start)
	case 2:
		start, err := parseInstant(parts[0])
		if err != nil {
			return fmt.Errorf("%w: invalid start: %v", ErrInvalidTime, err)
		}
		end, err := parseInstant(parts[1])
		if err != nil {
			return fmt.Errorf("%w: invalid end: %v", ErrInvalidTime, err)
		}
		f.append("`datetime` >= ?", start)
		f.append("`datetime` <= ?", end)
	default:
		return fmt.Errorf("%w: expected an instant or start/end, got %q", ErrInvalidTime, value)
	}

	return nil
}

// appendQuery compiles the attribute query to typed predicates. Fields are
// processed in sorted order and operators in a fixed order so the produced
// clause list is deterministic. Unknown fields and unknown operators are
// rejected rather than silently ignored.
func (f *Filter) appendQuery(query map[string]map[string]any) error {
	fields := make([]string, 0, len(query))
	for field := range query {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		ops := query[field]

		for name := range ops {
			if !knownOp(QueryOp(name)) {
				return fmt.Errorf("%w: unknown operator %q for field %q", ErrInvalidQuery, name, field)
			}
		}

		for _, op := range opOrder {
			value, ok := ops[string(op)]
			if !ok {
				continue
			}

			clause, arg, err := Predicate{Field: field, Op: op, Value: value}.compile()
			if err != nil {
				return err
			}
			f.append(clause, arg)
		}
	}

	return nil
}

func knownOp(op QueryOp) bool {
	for _, known := range opOrder {
		if op == known {
			return true
		}
	}
	return false
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
