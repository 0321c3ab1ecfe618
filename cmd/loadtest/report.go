package main

import (
	"fmt"
	"io"
	"time"
)

type totals struct {
	Requests int
	Created  int
	Accepted int
	Rejected int
	Errors   int
}

func sum(results []userResult) totals {
	var t totals
	for _, r := range results {
		t.Created += r.Created
		t.Accepted += r.Accepted
		t.Rejected += r.Rejected
		t.Errors += r.Errors
	}
	t.Requests = t.Created + t.Accepted + t.Rejected + t.Errors
	return t
}

func printReport(w io.Writer, opts options, results []userResult, elapsed time.Duration) {
	t := sum(results)
	rps := 0.0
	if elapsed > 0 {
		rps = float64(t.Requests) / elapsed.Seconds()
	}

	fmt.Fprintf(w, "\nLoad test completed in %.2f seconds\n", elapsed.Seconds())
	fmt.Fprintf(w, "Total requests: %d (planned %d)\n", t.Requests, opts.users*opts.requests)
	fmt.Fprintf(w, "Requests per second: %.2f\n", rps)
	fmt.Fprintf(w, "Products created: %d\n", t.Created)
	fmt.Fprintf(w, "Orders accepted: %d, rejected: %d\n", t.Accepted, t.Rejected)
	fmt.Fprintf(w, "Errors: %d\n", t.Errors)
}
