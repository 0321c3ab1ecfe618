// Command loadtest drives concurrent users against a running API: each user
// mixes product creation and order placement and the run reports throughput.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	var opts options
	pflag.StringVar(&opts.baseURL, "url", "http://localhost:8080", "API base URL")
	pflag.IntVar(&opts.users, "users", 50, "concurrent users")
	pflag.IntVar(&opts.requests, "requests", 20, "requests per user")
	pflag.Float64Var(&opts.createRatio, "create-ratio", 0.3, "share of requests that add a product")
	pflag.StringVar(&opts.token, "token", "", "admin bearer token for /add_product")
	pflag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	pflag.StringVar(&opts.orderDate, "order-date", time.Now().Format("2006-01-02"), "order date sent with each order")
	pflag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if opts.users <= 0 || opts.requests <= 0 {
		logger.Fatal("users and requests must be positive",
			zap.Int("users", opts.users), zap.Int("requests", opts.requests))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting load test with %d users against %s...\n", opts.users, opts.baseURL)

	c := newClient(opts, logger)
	start := time.Now()

	results := make([]userResult, opts.users)
	var wg sync.WaitGroup
	for i := range opts.users {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			results[id] = c.simulateUser(ctx, id+1)
		}(i)
	}
	wg.Wait()

	printReport(os.Stdout, opts, results, time.Since(start))
}
