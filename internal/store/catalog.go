package store

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/xid"
)

const (
	SortByName   = "name"
	SortByPrice  = "price"
	SortByCost   = "cost"
	SortByStock  = "stock"
	SortByMargin = "margin"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Catalog is the product collection of a Store.
type Catalog struct {
	s *Store
}

func (c *Catalog) List() []domain.Product {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return cloneProducts(c.s.products)
}

func (c *Catalog) Len() int {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return len(c.s.products)
}

func (c *Catalog) Get(id string) (domain.Product, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return c.s.products[idx], nil
}

// Create validates and appends a new product. The returned warnings are
// non-blocking, e.g. a selling price at or below cost.
func (c *Catalog) Create(ctx context.Context, in domain.ProductInput) (domain.Product, []string, error) {
	product := domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Cost:        in.Cost,
		Stock:       in.Stock,
		Description: strings.TrimSpace(in.Description),
	}
	if err := validateProduct(product); err != nil {
		return domain.Product{}, nil, err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	product.ID = xid.New("prd")
	product.CreatedAt = c.s.now().UTC()
	c.s.products = append(c.s.products, product)
	c.s.persist(ctx, KeyProducts, c.s.products)

	return product, priceWarnings(product), nil
}

func (c *Catalog) Update(ctx context.Context, id string, upd domain.ProductUpdate) (domain.Product, []string, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Product{}, nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}

	merged := c.s.products[idx]
	if upd.Name != nil {
		merged.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Category != nil {
		merged.Category = strings.TrimSpace(*upd.Category)
	}
	if upd.Price != nil {
		merged.Price = *upd.Price
	}
	if upd.Cost != nil {
		merged.Cost = *upd.Cost
	}
	if upd.Stock != nil {
		merged.Stock = *upd.Stock
	}
	if upd.Description != nil {
		merged.Description = strings.TrimSpace(*upd.Description)
	}
	if err := validateProduct(merged); err != nil {
		return domain.Product{}, nil, err
	}

	c.s.products[idx] = merged
	c.s.persist(ctx, KeyProducts, c.s.products)
	return merged, priceWarnings(merged), nil
}

// Delete is idempotent: deleting an unknown id is not an error.
func (c *Catalog) Delete(ctx context.Context, id string) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	c.s.products = slices.Delete(c.s.products, idx, idx+1)
	c.s.persist(ctx, KeyProducts, c.s.products)
}

func (c *Catalog) Duplicate(ctx context.Context, id string) (domain.Product, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}

	clone := c.s.products[idx]
	clone.ID = xid.New("prd")
	clone.Name = clone.Name + " (Copy)"
	clone.CreatedAt = c.s.now().UTC()
	c.s.products = append(c.s.products, clone)
	c.s.persist(ctx, KeyProducts, c.s.products)
	return clone, nil
}

func (c *Catalog) AdjustStock(ctx context.Context, id string, delta int) (domain.Product, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	product, err := c.adjustLocked(id, delta)
	if err != nil {
		return domain.Product{}, err
	}
	c.s.persist(ctx, KeyProducts, c.s.products)
	return product, nil
}

// Restock adds qty units to a product and appends an entry to the restock log.
func (c *Catalog) Restock(ctx context.Context, id string, qty int, note string) (domain.RestockLog, error) {
	if qty <= 0 {
		return domain.RestockLog{}, fmt.Errorf("%w: restock quantity must be positive", ErrValidation)
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, err := c.adjustLocked(id, qty); err != nil {
		return domain.RestockLog{}, err
	}
	entry := domain.RestockLog{
		ID:        xid.New("rst"),
		ProductID: id,
		Quantity:  qty,
		Note:      strings.TrimSpace(note),
		Timestamp: c.s.now().UTC(),
	}
	c.s.restocks = append(c.s.restocks, entry)
	c.s.persist(ctx, KeyProducts, c.s.products)
	c.s.persist(ctx, KeyRestockLogs, c.s.restocks)
	return entry, nil
}

// Search yields products whose name, category label or description contains
// term, case-insensitively, in catalog order. Each range re-reads the catalog.
func (c *Catalog) Search(term string) iter.Seq[domain.Product] {
	needle := strings.ToLower(strings.TrimSpace(term))
	return func(yield func(domain.Product) bool) {
		for _, p := range c.List() {
			if needle != "" && !matches(p, needle) {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// SortBy returns a stably sorted copy. An empty direction sorts names
// ascending and every numeric field, margin included, descending.
func (c *Catalog) SortBy(field string, direction string) ([]domain.Product, error) {
	var compare func(a, b domain.Product) int
	switch field {
	case SortByName:
		compare = func(a, b domain.Product) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case SortByPrice:
		compare = func(a, b domain.Product) int { return cmp.Compare(a.Price, b.Price) }
	case SortByCost:
		compare = func(a, b domain.Product) int { return cmp.Compare(a.Cost, b.Cost) }
	case SortByStock:
		compare = func(a, b domain.Product) int { return cmp.Compare(a.Stock, b.Stock) }
	case SortByMargin:
		compare = func(a, b domain.Product) int { return cmp.Compare(a.Margin(), b.Margin()) }
	default:
		return nil, fmt.Errorf("%w: unknown sort field %q", ErrValidation, field)
	}

	if direction == "" {
		direction = SortDesc
		if field == SortByName {
			direction = SortAsc
		}
	}
	switch direction {
	case SortAsc:
	case SortDesc:
		asc := compare
		compare = func(a, b domain.Product) int { return asc(b, a) }
	default:
		return nil, fmt.Errorf("%w: unknown sort direction %q", ErrValidation, direction)
	}

	products := c.List()
	slices.SortStableFunc(products, compare)
	return products, nil
}

// LowStock returns products with stock at or below threshold, in catalog order.
func (c *Catalog) LowStock(threshold int) []domain.Product {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	out := make([]domain.Product, 0)
	for _, p := range c.s.products {
		if p.Stock <= threshold {
			out = append(out, p)
		}
	}
	return out
}

// Replace swaps the whole catalog for products. Nothing changes when any
// product fails validateReplacement.
func (c *Catalog) Replace(ctx context.Context, products []domain.Product) error {
	if err := validateReplacement(products); err != nil {
		return err
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.products = cloneProducts(products)
	if c.s.products == nil {
		c.s.products = []domain.Product{}
	}
	c.s.persist(ctx, KeyProducts, c.s.products)
	return nil
}

// validateReplacement checks imported or mirrored products. Ids must be
// present and unique; amounts may be zero but never negative.
func validateReplacement(products []domain.Product) error {
	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		switch {
		case strings.TrimSpace(p.ID) == "":
			return fmt.Errorf("%w: product %d has no id", ErrValidation, i)
		case strings.TrimSpace(p.Name) == "":
			return fmt.Errorf("%w: product %s has no name", ErrValidation, p.ID)
		case !domain.ValidCategory(p.Category):
			return fmt.Errorf("%w: product %s has unknown category %q", ErrValidation, p.ID, p.Category)
		case p.Price < 0 || p.Cost < 0:
			return fmt.Errorf("%w: product %s has a negative price or cost", ErrValidation, p.ID)
		case p.Stock < 0:
			return fmt.Errorf("%w: product %s has negative stock", ErrValidation, p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate product id %s", ErrValidation, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

func (c *Catalog) adjustLocked(id string, delta int) (domain.Product, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return domain.Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	next := c.s.products[idx].Stock + delta
	if next < 0 {
		return domain.Product{}, fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, c.s.products[idx].Name, c.s.products[idx].Stock, -delta)
	}
	c.s.products[idx].Stock = next
	return c.s.products[idx], nil
}

func (c *Catalog) indexOf(id string) int {
	return slices.IndexFunc(c.s.products, func(p domain.Product) bool { return p.ID == id })
}

func matches(p domain.Product, needle string) bool {
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(domain.CategoryLabel(p.Category)), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle)
}

func validateProduct(p domain.Product) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case !domain.ValidCategory(p.Category):
		return fmt.Errorf("%w: unknown category %q", ErrValidation, p.Category)
	case p.Price <= 0:
		return fmt.Errorf("%w: price must be greater than zero", ErrValidation)
	case p.Cost <= 0:
		return fmt.Errorf("%w: cost must be greater than zero", ErrValidation)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}
	return nil
}

func priceWarnings(p domain.Product) []string {
	if p.Price <= p.Cost {
		return []string{fmt.Sprintf("selling price %d is not above cost %d", p.Price, p.Cost)}
	}
	return nil
}
