package cart

import (
	"context"
	"errors"
	"fmt"

	"storefront-service/internal/apperr"
)

const DefaultQuantity = 1

var (
	ErrCartNotFound      = fmt.Errorf("%w: cart not found", apperr.ErrNotFound)
	ErrItemNotFound      = fmt.Errorf("%w: cart item not found", apperr.ErrNotFound)
	ErrProductNotFound   = fmt.Errorf("%w: product not found", apperr.ErrNotFound)
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", apperr.ErrValidation)
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be at least 1", apperr.ErrValidation)
	ErrDuplicateItem     = fmt.Errorf("%w: product is already in the cart", apperr.ErrConflict)
)

// Store is the persistence the cart needs. Implementations return the errors above
// for missing rows and duplicate lines.
type Store interface {
	GetOrCreateCart(ctx context.Context, userID int64) (Cart, error)
	FindCart(ctx context.Context, userID int64) (Cart, error)
	Product(ctx context.Context, productID int64) (Product, error)
	InsertItem(ctx context.Context, cartID, productID int64, quantity int) (int64, error)
	Item(ctx context.Context, cartID, itemID int64) (CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItem(ctx context.Context, userID, itemID int64) error
	DeleteAllItems(ctx context.Context, cartID int64) error
	Items(ctx context.Context, cartID int64) ([]CartItem, error)
}

type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("cart store is nil")
	}
	return &Service{store: store}, nil
}

// GetOrCreate returns the user's cart with its lines, creating an empty cart on first access.
func (s *Service) GetOrCreate(ctx context.Context, userID int64) (CartResponse, error) {
	c, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}
	items, err := s.store.Items(ctx, c.ID)
	if err != nil {
		return CartResponse{}, err
	}
	return newCartResponse(c, items), nil
}

// Find returns the user's existing cart without creating one; ErrCartNotFound otherwise.
func (s *Service) Find(ctx context.Context, userID int64) (CartResponse, error) {
	c, err := s.store.FindCart(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}
	items, err := s.store.Items(ctx, c.ID)
	if err != nil {
		return CartResponse{}, err
	}
	return newCartResponse(c, items), nil
}

func (s *Service) Items(ctx context.Context, userID int64) ([]CartItem, error) {
	resp, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func checkStock(p Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if quantity > p.Stock {
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, quantity, p.Stock)
	}
	return nil
}

// AddItem puts a new line in the cart. A product already in the cart is rejected
// rather than merged; use UpdateItemQuantity to change it.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, quantity int) (CartItem, error) {
	if quantity < 1 {
		return CartItem{}, ErrInvalidQuantity
	}
	p, err := s.store.Product(ctx, productID)
	if err != nil {
		return CartItem{}, err
	}
	if err := checkStock(p, quantity); err != nil {
		return CartItem{}, err
	}
	c, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return CartItem{}, err
	}
	id, err := s.store.InsertItem(ctx, c.ID, productID, quantity)
	if err != nil {
		return CartItem{}, err
	}
	return s.store.Item(ctx, c.ID, id)
}

func (s *Service) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (CartItem, error) {
	if quantity < 1 {
		return CartItem{}, ErrInvalidQuantity
	}
	c, err := s.store.FindCart(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return CartItem{}, ErrItemNotFound
		}
		return CartItem{}, err
	}
	item, err := s.store.Item(ctx, c.ID, itemID)
	if err != nil {
		return CartItem{}, err
	}
	if err := checkStock(item.Product, quantity); err != nil {
		return CartItem{}, err
	}
	if err := s.store.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return CartItem{}, err
	}
	item.Quantity = quantity
	return item, nil
}

// RemoveItem is idempotent: removing a line that is not in the user's cart succeeds.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) error {
	return s.store.DeleteItem(ctx, userID, itemID)
}

// Clear empties the user's cart. It fails with ErrCartNotFound when the cart was never created.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	c, err := s.store.FindCart(ctx, userID)
	if err != nil {
		return err
	}
	return s.store.DeleteAllItems(ctx, c.ID)
}
