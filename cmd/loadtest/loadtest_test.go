package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, outcomeAccepted, classify(http.StatusCreated))
	assert.Equal(t, outcomeRejected, classify(http.StatusConflict))
	assert.Equal(t, outcomeRejected, classify(http.StatusNotFound))
	assert.Equal(t, outcomeRejected, classify(http.StatusServiceUnavailable))
	assert.Equal(t, outcomeFailed, classify(http.StatusBadRequest))
	assert.Equal(t, outcomeFailed, classify(http.StatusInternalServerError))
}

func TestSimulateUser_AgainstFakeAPI(t *testing.T) {
	var orders, creates atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/inventory", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"inventory": []map[string]any{{"id": "p-1", "quantity": 3}},
		})
	})
	mux.HandleFunc("/place_order", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "p-1", r.PostFormValue("product_id"))
		if orders.Add(1)%2 == 0 {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/add_product", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		creates.Add(1)
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newClient(options{
		baseURL:     srv.URL,
		requests:    10,
		createRatio: 0.5,
		token:       "tok",
		timeout:     time.Second,
		orderDate:   "2024-01-02",
	}, zap.NewNop())

	res := c.simulateUser(context.Background(), 1)

	assert.Equal(t, 10, res.Created+res.Accepted+res.Rejected+res.Errors)
	assert.Equal(t, int(creates.Load()), res.Created)
	assert.Equal(t, int(orders.Load()), res.Accepted+res.Rejected)
	assert.Zero(t, res.Errors)
	assert.Equal(t, res.Created+res.Accepted, res.Successes)
}

func TestSimulateUser_EmptyInventoryIsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"inventory": []any{}})
	}))
	defer srv.Close()

	c := newClient(options{baseURL: srv.URL, requests: 3, timeout: time.Second}, zap.NewNop())
	res := c.simulateUser(context.Background(), 1)

	assert.Equal(t, 3, res.Rejected)
	assert.Zero(t, res.Successes)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	results := []userResult{
		{UserID: 1, Created: 1, Accepted: 2, Rejected: 1},
		{UserID: 2, Accepted: 3, Errors: 1},
	}

	printReport(&buf, options{users: 2, requests: 4}, results, 2*time.Second)

	out := buf.String()
	assert.Contains(t, out, "Total requests: 8 (planned 8)")
	assert.Contains(t, out, "Requests per second: 4.00")
	assert.Contains(t, out, "Orders accepted: 5, rejected: 1")
	assert.Contains(t, out, "Errors: 1")
}
