package projection

import (
	"slices"
	"strings"
	"sync"

	"github.com/example/wholesale-clothing/internal/readmodel"
)

// Catalog is the in-memory product read model. Quantity is not kept here;
// readers join it from the inventory store.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]readmodel.ProductReadModel
}

func NewCatalog() *Catalog {
	return &Catalog{products: make(map[string]readmodel.ProductReadModel)}
}

func (c *Catalog) Exists(productID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.products[productID]
	return ok
}

func (c *Catalog) NameOf(productID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	return p.Name, ok
}

func (c *Catalog) Get(productID string) (readmodel.ProductReadModel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	return p, ok
}

// List returns all products sorted by name, then id.
func (c *Catalog) List() []readmodel.ProductReadModel {
	c.mu.RLock()
	out := make([]readmodel.ProductReadModel, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b readmodel.ProductReadModel) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

func (c *Catalog) set(p readmodel.ProductReadModel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *Catalog) update(productID string, fn func(*readmodel.ProductReadModel)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return false
	}
	fn(&p)
	c.products[productID] = p
	return true
}

func (c *Catalog) remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, productID)
}
