package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Nixjoyer/Jump-Ship/internal/catalog"
	"github.com/Nixjoyer/Jump-Ship/internal/platform/observability"
	"github.com/Nixjoyer/Jump-Ship/internal/storage"
)

var errSlotRequired = errors.New("cart: storage slot is required")

// ErrInvalidItem indicates the product has no id and cannot become a line item.
var ErrInvalidItem = errors.New("cart: product id is required")

// ErrCartEmpty is returned by Checkout when there is nothing to check out.
var ErrCartEmpty = errors.New("cart: empty")

// EmptyCartMessage is the shopper-facing text for an empty cart.
const EmptyCartMessage = "Your cart is empty"

// CheckoutPendingMessage is shown when checkout is requested for a non-empty cart.
const CheckoutPendingMessage = "Checkout functionality coming soon. Your cart has been saved."

var mutationCounter, mutationCounterErr = observability.Meter("cart").Int64Counter(
	"cart.mutations",
	metric.WithDescription("Count of persisted cart mutations"),
)

// Observer is notified after every persisted mutation with the resulting cart.
type Observer func(ctx context.Context, c Cart)

// Store owns one cart persisted under a single slot key. Every operation reads
// the slot and every mutation writes the whole cart back before returning.
// Operations on one Store are serialised. Separate Stores sharing a key only
// serialise when they share a locker (see WithLocker and Locks); otherwise the
// last writer wins.
type Store struct {
	slot      storage.Slot
	key       string
	logger    *zap.Logger
	observers []Observer

	mu sync.Locker
}

// Option customises Store behaviour.
type Option func(*Store)

// WithKey overrides the slot key (default StorageKeyBase).
func WithKey(key string) Option {
	return func(s *Store) {
		if k := strings.TrimSpace(key); k != "" {
			s.key = k
		}
	}
}

// WithLogger injects the logger used to report absorbed storage faults.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = observability.OrNop(logger)
	}
}

// WithObserver registers a change observer.
func WithObserver(fn Observer) Option {
	return func(s *Store) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// WithLocker replaces the store's private mutex, typically with Locks.Locker(key).
func WithLocker(l sync.Locker) Option {
	return func(s *Store) {
		if l != nil {
			s.mu = l
		}
	}
}

// NewStore constructs a Store over slot.
func NewStore(slot storage.Slot, opts ...Option) (*Store, error) {
	if slot == nil {
		return nil, errSlotRequired
	}
	s := &Store{
		slot:   slot,
		key:    StorageKeyBase,
		logger: zap.NewNop(),
		mu:     &sync.Mutex{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if mutationCounterErr != nil {
		s.logger.Warn("cart: unable to register mutation metric", zap.Error(mutationCounterErr))
	}
	return s, nil
}

// Key returns the slot key this store persists under.
func (s *Store) Key() string { return s.key }

// Cart returns the persisted cart. Missing or unreadable state yields an empty cart.
func (s *Store) Cart(ctx context.Context) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// AddItem adds quantity units of product, merging into an existing line with
// the same id. Quantities below 1 are treated as 1 and line quantities are
// capped at MaxQuantity.
func (s *Store) AddItem(ctx context.Context, product catalog.Product, quantity int) (Cart, error) {
	if product.ID == "" {
		return Cart{}, ErrInvalidItem
	}
	quantity = clampQuantity(max(quantity, 1))
	return s.mutate(ctx, "add", func(c Cart) Cart {
		for i := range c.Items {
			if c.Items[i].ID == product.ID {
				c.Items[i].Quantity = addQuantity(c.Items[i].Quantity, quantity)
				return c
			}
		}
		c.Items = append(c.Items, LineItem{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			Image:    product.Image,
			Quantity: quantity,
		})
		return c
	})
}

// RemoveItem deletes the line with the given id. Unknown ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, id string) (Cart, error) {
	return s.mutate(ctx, "remove", func(c Cart) Cart {
		return removeLine(c, id)
	})
}

// SetQuantity sets the absolute quantity of a line. Zero or less removes it;
// unknown ids are ignored.
func (s *Store) SetQuantity(ctx context.Context, id string, quantity int) (Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, id)
	}
	quantity = clampQuantity(quantity)
	return s.mutate(ctx, "set_quantity", func(c Cart) Cart {
		for i := range c.Items {
			if c.Items[i].ID == id {
				c.Items[i].Quantity = quantity
				break
			}
		}
		return c
	})
}

// AdjustQuantity moves a line's quantity by delta in one read-modify-write.
// A result of zero or less removes the line; unknown ids are ignored.
func (s *Store) AdjustQuantity(ctx context.Context, id string, delta int) (Cart, error) {
	return s.mutate(ctx, "adjust_quantity", func(c Cart) Cart {
		for i := range c.Items {
			if c.Items[i].ID == id {
				c.Items[i].Quantity = addQuantity(c.Items[i].Quantity, delta)
				break
			}
		}
		return c
	})
}

// Save persists c as the whole cart, after normalisation.
func (s *Store) Save(ctx context.Context, c Cart) error {
	replacement := normalize(c.clone())
	_, err := s.mutate(ctx, "save", func(Cart) Cart {
		return replacement
	})
	return err
}

// Total returns the cart's monetary total.
func (s *Store) Total(ctx context.Context) (float64, error) {
	c, err := s.Cart(ctx)
	if err != nil {
		return 0, err
	}
	return c.Total(), nil
}

// Count returns the number of units in the cart.
func (s *Store) Count(ctx context.Context) (int, error) {
	c, err := s.Cart(ctx)
	if err != nil {
		return 0, err
	}
	return c.Count(), nil
}

// CheckoutResult describes the outcome of the checkout placeholder.
type CheckoutResult struct {
	Message string
	Count   int
	Total   float64
}

// Checkout is a placeholder: it validates that the cart has items and leaves
// the cart untouched.
func (s *Store) Checkout(ctx context.Context) (CheckoutResult, error) {
	c, err := s.Cart(ctx)
	if err != nil {
		return CheckoutResult{}, err
	}
	if c.Empty() {
		return CheckoutResult{}, ErrCartEmpty
	}
	return CheckoutResult{
		Message: CheckoutPendingMessage,
		Count:   c.Count(),
		Total:   c.Total(),
	}, nil
}

func (s *Store) mutate(ctx context.Context, op string, fn func(Cart) Cart) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return Cart{}, err
	}
	next := normalize(fn(current))

	data, err := Encode(next)
	if err != nil {
		return Cart{}, fmt.Errorf("cart: encode: %w", err)
	}
	if err := s.slot.Store(ctx, s.key, data); err != nil {
		return Cart{}, fmt.Errorf("cart: store %s: %w", op, err)
	}

	if mutationCounter != nil {
		mutationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	}
	for _, observe := range s.observers {
		observe(ctx, next.clone())
	}
	return next, nil
}

func (s *Store) load(ctx context.Context) (Cart, error) {
	data, err := s.slot.Load(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return Cart{}, nil
	}
	if err != nil {
		return Cart{}, fmt.Errorf("cart: load: %w", err)
	}
	c, err := Decode(data)
	if err != nil {
		s.logger.Warn("cart storage unreadable; starting empty",
			zap.String("key", s.key),
			zap.Error(&DecodeError{Key: s.key, Err: err}),
		)
		return Cart{}, nil
	}
	return c, nil
}

func removeLine(c Cart, id string) Cart {
	out := c.Items[:0]
	for _, item := range c.Items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	c.Items = out
	return c
}
