package soda

import (
	"errors"
	"net/url"
	"testing"
)

func TestQueryParamsOmitsUnsetFields(t *testing.T) {
	q := Query{Dataset: "jp9i-3b7y"}
	params := q.params()
	if len(params) != 0 {
		t.Fatalf("expected no params for bare query, got %v", params)
	}
	u := q.requestURL(DefaultHost)
	if u != "https://data.cityofnewyork.us/resource/jp9i-3b7y.json" {
		t.Fatalf("unexpected url %q", u)
	}
}

func TestQueryParamsSerializesSetFields(t *testing.T) {
	exclude := true
	q := Query{
		Dataset:             "erm2-nwe9",
		Select:              "borough, count(*) as sr_count",
		Where:               "(date_trunc_ymd(created_date) = '2024-07-04')",
		Group:               "borough",
		Order:               "borough",
		Limit:               1000,
		Offset:              50,
		Search:              "noise",
		SoQL:                "select *",
		ExcludeSystemFields: &exclude,
	}

	params := q.params()
	want := map[string]string{
		"$select":                 "borough, count(*) as sr_count",
		"$where":                  "(date_trunc_ymd(created_date) = '2024-07-04')",
		"$group":                  "borough",
		"$order":                  "borough",
		"$limit":                  "1000",
		"$offset":                 "50",
		"$q":                      "noise",
		"$query":                  "select *",
		"$$exclude_system_fields": "true",
	}
	if len(params) != len(want) {
		t.Fatalf("expected %d params, got %d: %v", len(want), len(params), params)
	}
	for key, val := range want {
		if got := params.Get(key); got != val {
			t.Errorf("param %s = %q, want %q", key, got, val)
		}
	}
}

func TestQueryRequestURLValuesRoundTrip(t *testing.T) {
	q := Query{
		Dataset: "jp9i-3b7y",
		Where:   "boro_cd = 314",
		Select:  "boro_cd, the_geom",
	}

	u, err := url.Parse(q.requestURL(DefaultHost))
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Path != "/resource/jp9i-3b7y.json" {
		t.Fatalf("unexpected path %q", u.Path)
	}
	values := u.Query()
	if got := values.Get("$select"); got != "boro_cd, the_geom" {
		t.Errorf("$select = %q", got)
	}
	if got := values.Get("$where"); got != "boro_cd = 314" {
		t.Errorf("$where = %q", got)
	}
	if got := values.Get("$group"); got != "" {
		t.Errorf("$group should be absent, got %q", got)
	}
}

func TestQueryValidateRejectsEmptyDataset(t *testing.T) {
	err := Query{Dataset: "   "}.validate()
	if !errors.Is(err, ErrMissingDataset) {
		t.Fatalf("expected ErrMissingDataset, got %v", err)
	}
}
