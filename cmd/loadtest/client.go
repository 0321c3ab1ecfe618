package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type options struct {
	baseURL     string
	users       int
	requests    int
	createRatio float64
	token       string
	timeout     time.Duration
	orderDate   string
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeAccepted
	outcomeRejected
)

type userResult struct {
	UserID    int
	Successes int
	Created   int
	Accepted  int
	Rejected  int
	Errors    int
}

var (
	categories = []string{"Tops", "Bottoms", "Outerwear"}
	sizes      = []string{"S", "M", "L", "XL"}
)

type client struct {
	opts   options
	http   *http.Client
	logger *zap.Logger
}

func newClient(opts options, logger *zap.Logger) *client {
	return &client{
		opts:   opts,
		http:   &http.Client{Timeout: opts.timeout},
		logger: logger,
	}
}

func (c *client) simulateUser(ctx context.Context, id int) userResult {
	res := userResult{UserID: id}
	for range c.opts.requests {
		if ctx.Err() != nil {
			break
		}
		if rand.Float64() < c.opts.createRatio {
			if c.createProduct(ctx) {
				res.Created++
				res.Successes++
			} else {
				res.Errors++
			}
			continue
		}
		switch c.placeOrder(ctx) {
		case outcomeAccepted:
			res.Accepted++
			res.Successes++
		case outcomeRejected:
			res.Rejected++
		default:
			res.Errors++
		}
	}
	fmt.Printf("User %d completed %d/%d successful actions\n", id, res.Successes, c.opts.requests)
	return res
}

func (c *client) createProduct(ctx context.Context) bool {
	form := url.Values{
		"name":     {"Product-" + uuid.NewString()[:8]},
		"category": {categories[rand.IntN(len(categories))]},
		"size":     {sizes[rand.IntN(len(sizes))]},
		"quantity": {strconv.Itoa(10 + rand.IntN(91))},
		"price":    {fmt.Sprintf("%.2f", 10+rand.Float64()*90)},
	}
	status, err := c.postForm(ctx, "/add_product", form)
	if err != nil {
		c.logger.Debug("add product", zap.Error(err))
		return false
	}
	return status == http.StatusCreated
}

type inventoryItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

func (c *client) placeOrder(ctx context.Context) outcome {
	items, err := c.inventory(ctx)
	if err != nil {
		c.logger.Debug("inventory", zap.Error(err))
		return outcomeFailed
	}
	if len(items) == 0 {
		return outcomeRejected
	}

	item := items[rand.IntN(len(items))]
	form := url.Values{
		"product_id":    {item.ID},
		"customer_name": {fmt.Sprintf("Customer-%d", 1000+rand.IntN(9000))},
		"quantity":      {strconv.Itoa(1 + rand.IntN(5))},
		"order_date":    {c.opts.orderDate},
	}
	status, err := c.postForm(ctx, "/place_order", form)
	if err != nil {
		c.logger.Debug("place order", zap.Error(err))
		return outcomeFailed
	}
	return classify(status)
}

// classify maps a /place_order status to an outcome. 4xx answers other than
// malformed input are business rejections, not failures.
func classify(status int) outcome {
	switch status {
	case http.StatusCreated:
		return outcomeAccepted
	case http.StatusConflict, http.StatusNotFound, http.StatusServiceUnavailable:
		return outcomeRejected
	default:
		return outcomeFailed
	}
}

func (c *client) inventory(ctx context.Context) ([]inventoryItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.baseURL+"/api/inventory", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory: status %d", resp.StatusCode)
	}

	var body struct {
		Inventory []inventoryItem `json:"inventory"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	return body.Inventory, nil
}

func (c *client) postForm(ctx context.Context, path string, form url.Values) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
