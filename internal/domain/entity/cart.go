package entity

import (
	"errors"
	"time"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotInCart   = errors.New("item not found in cart")
)

type CartItem struct {
	ProductID string    `bson:"product_id" json:"product_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	Price     int64     `bson:"price" json:"price"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

type Cart struct {
	ID          string     `bson:"_id,omitempty" json:"id"`
	UserID      string     `bson:"user_id" json:"user_id"`
	IsActive    bool       `bson:"is_active" json:"is_active"`
	Items       []CartItem `bson:"items" json:"items"`
	TotalAmount int64      `bson:"total_amount" json:"total_amount"`
	Version     int        `bson:"version" json:"-"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

func NewCart(userID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		UserID:    userID,
		IsActive:  true,
		Items:     make([]CartItem, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) GetItem(productID string) (*CartItem, int) {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return &c.Items[i], i
		}
	}
	return nil, -1
}

// AddItem increments an existing line or appends one priced at price.
func (c *Cart) AddItem(productID string, price int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	if item, _ := c.GetItem(productID); item != nil {
		item.Quantity += quantity
	} else {
		c.Items = append(c.Items, CartItem{
			ProductID: productID,
			Quantity:  quantity,
			Price:     price,
			AddedAt:   time.Now().UTC(),
		})
	}
	c.touch()
	return nil
}

func (c *Cart) UpdateItemQuantity(productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	item, _ := c.GetItem(productID)
	if item == nil {
		return ErrItemNotInCart
	}
	item.Quantity = quantity
	c.touch()
	return nil
}

// RemoveItem reports whether a line was removed.
func (c *Cart) RemoveItem(productID string) bool {
	_, index := c.GetItem(productID)
	if index == -1 {
		return false
	}
	c.Items = append(c.Items[:index], c.Items[index+1:]...)
	c.touch()
	return true
}

func (c *Cart) Clear() {
	c.Items = make([]CartItem, 0)
	c.touch()
}

// Subtract takes ordered quantities out of the matching lines and drops lines
// that reach zero. Lines not in ordered are left alone.
func (c *Cart) Subtract(ordered []CartItem) bool {
	changed := false
	for _, o := range ordered {
		item, index := c.GetItem(o.ProductID)
		if item == nil {
			continue
		}
		changed = true
		if item.Quantity > o.Quantity {
			item.Quantity -= o.Quantity
			continue
		}
		c.Items = append(c.Items[:index], c.Items[index+1:]...)
	}
	if changed {
		c.touch()
	}
	return changed
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// RecalculateTotal must run before every write of the cart.
func (c *Cart) RecalculateTotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Price * int64(item.Quantity)
	}
	c.TotalAmount = total
	return total
}

func (c *Cart) TotalQuantity() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) touch() {
	c.RecalculateTotal()
	c.UpdatedAt = time.Now().UTC()
}
