package soda

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Query describes a single SoQL query against one dataset. Only Dataset is
// required; every other field is optional and omitted from the request when
// unset. String fields are passed through verbatim in the API's query
// grammar, with no validation of their contents.
type Query struct {
	// Dataset is the Socrata dataset identifier, e.g. "jp9i-3b7y".
	Dataset string

	// Select is the set of columns or expressions to return ($select).
	Select string
	// Where filters the rows to return ($where).
	Where string
	// Group is the grouping clause ($group).
	Group string
	// Order specifies the ordering of results ($order).
	Order string

	// Limit caps the number of rows returned ($limit). Zero means the
	// server default.
	Limit int
	// Offset skips rows for manual paging ($offset).
	Offset int

	// Search performs a full-text search ($q).
	Search string
	// SoQL submits a complete SoQL query string as one parameter ($query).
	SoQL string

	// ExcludeSystemFields controls whether system fields (:id, :created_at,
	// :updated_at) are omitted. nil leaves the server default in place.
	ExcludeSystemFields *bool

	// Timeout bounds the HTTP call for this query, overriding the client
	// default when positive.
	Timeout time.Duration
}

func (q Query) validate() error {
	if strings.TrimSpace(q.Dataset) == "" {
		return ErrMissingDataset
	}
	return nil
}

// params serializes the optional fields, skipping any that are unset.
func (q Query) params() url.Values {
	v := url.Values{}
	setStr := func(key, val string) {
		if strings.TrimSpace(val) != "" {
			v.Set(key, val)
		}
	}
	setStr("$select", q.Select)
	setStr("$where", q.Where)
	setStr("$group", q.Group)
	setStr("$order", q.Order)
	setStr("$q", q.Search)
	setStr("$query", q.SoQL)
	if q.Limit > 0 {
		v.Set("$limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("$offset", strconv.Itoa(q.Offset))
	}
	if q.ExcludeSystemFields != nil {
		v.Set("$$exclude_system_fields", strconv.FormatBool(*q.ExcludeSystemFields))
	}
	return v
}

// requestURL builds the resource URL for the query on the given host.
func (q Query) requestURL(host string) string {
	u := url.URL{
		Scheme: "https",
		Host:   host,
		Path:   "/resource/" + strings.TrimSpace(q.Dataset) + ".json",
	}
	u.RawQuery = q.params().Encode()
	return u.String()
}
