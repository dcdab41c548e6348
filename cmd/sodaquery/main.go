// Command sodaquery runs a single SoQL query against a Socrata data portal
// and prints the resulting rows as JSON.
//
// Example:
//
//	sodaquery -dataset jp9i-3b7y -timeout 10 \
//	    -where 'boro_cd = 314' -select 'boro_cd, the_geom'
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/tara-sullivan/oda-utils/pkg/soda"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sodaquery: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dataset = flag.String("dataset", "", "dataset identifier (required), e.g. jp9i-3b7y")
		host    = flag.String("host", soda.DefaultHost, "data portal host")
		sel     = flag.String("select", "", "columns or expressions to return ($select)")
		where   = flag.String("where", "", "row filter predicate ($where)")
		group   = flag.String("group", "", "grouping clause ($group)")
		order   = flag.String("order", "", "result ordering ($order)")
		limit   = flag.Int("limit", 0, "max rows to return ($limit, 0 = server default)")
		offset  = flag.Int("offset", 0, "rows to skip ($offset)")
		timeout = flag.Int("timeout", 30, "query timeout in seconds")
	)
	flag.Parse()

	// Token lookup goes through the environment; the .env file is a
	// convenience for local runs.
	_ = godotenv.Load("configs/.env")

	client := soda.NewClient(
		soda.WithHost(*host),
		soda.WithToken(soda.Token()),
	)

	query := soda.Query{
		Dataset: *dataset,
		Select:  *sel,
		Where:   *where,
		Group:   *group,
		Order:   *order,
		Limit:   *limit,
		Offset:  *offset,
		Timeout: time.Duration(*timeout) * time.Second,
	}

	start := time.Now()
	records, err := client.Fetch(context.Background(), query)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	fmt.Println(string(out))
	fmt.Fprintf(os.Stderr, "%d rows in %s\n", len(records), elapsed.Round(time.Millisecond))

	return nil
}
