package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/utils"
)

var validate = validator.New()

// PriceVariant is an alternative price of a menu item, e.g. a large size.
type PriceVariant struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// MenuItem is the storefront's view of a menu entry at the moment it was put in the cart.
type MenuItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Variants []PriceVariant  `json:"variants,omitempty"`
}

type CartLine struct {
	Item                 MenuItem `json:"item"`
	Quantity             int      `json:"quantity"`
	SelectedPriceVariant *string  `json:"selected_price_variant,omitempty"`
	Modifications        []string `json:"modifications,omitempty"`
}

// Cart is the storefront's basket. Web and kiosk clients that embed this
// package build it, then send the result of BuildOrderInput to POST /orders.
type Cart struct {
	RestaurantID string     `json:"restaurant_id"`
	Lines        []CartLine `json:"lines"`
	Notes        string     `json:"notes"`
}

// GuestForm is the contact form shown to customers who are not signed in.
type GuestForm struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"required,min=6,max=20"`
	Email string `json:"email" validate:"required,email"`
}

func (f GuestForm) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return utils.ValidationError("invalid guest info: %v", err)
	}
	var problems []string
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return utils.ValidationError("incomplete guest info: %s", strings.Join(problems, ", "))
}

func (l CartLine) unitPrice() (decimal.Decimal, string, error) {
	if l.SelectedPriceVariant == nil || *l.SelectedPriceVariant == "" {
		return l.Item.Price, l.Item.Name, nil
	}
	for _, v := range l.Item.Variants {
		if v.Label == *l.SelectedPriceVariant {
			return v.Price, fmt.Sprintf("%s (%s)", l.Item.Name, v.Label), nil
		}
	}
	return decimal.Zero, "", utils.ValidationError("item %q has no price variant %q", l.Item.Name, *l.SelectedPriceVariant)
}

// Total is the advisory cart total shown before checkout.
func (c Cart) Total() (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range c.Lines {
		price, _, err := line.unitPrice()
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total, nil
}

// BuildOrderInput turns a cart into a create-order request on the client side.
// customerID is the signed-in customer, empty for guests, in which case guest
// must be complete.
func BuildOrderInput(cart Cart, customerID string, guest *GuestForm) (CreateOrderInput, error) {
	if len(cart.Lines) == 0 {
		return CreateOrderInput{}, utils.ValidationError("cart is empty")
	}

	in := CreateOrderInput{
		RestaurantID: cart.RestaurantID,
		Notes:        cart.Notes,
	}

	for i, line := range cart.Lines {
		if line.Quantity < 1 || line.Quantity > models.MaxItemQuantity {
			return CreateOrderInput{}, utils.ValidationError("line %d: quantity must be between 1 and %d", i+1, models.MaxItemQuantity)
		}
		price, name, err := line.unitPrice()
		if err != nil {
			return CreateOrderInput{}, err
		}
		in.Items = append(in.Items, ItemInput{
			Name:          name,
			Price:         price,
			Quantity:      line.Quantity,
			Modifications: append([]string(nil), line.Modifications...),
		})
	}

	if customerID == "" {
		if guest == nil {
			return CreateOrderInput{}, utils.ValidationError("guest info is required when not signed in")
		}
		if err := guest.Validate(); err != nil {
			return CreateOrderInput{}, err
		}
		in.GuestInfo = &models.GuestInfo{Name: guest.Name, Phone: guest.Phone, Email: guest.Email}
	}

	total, err := cart.Total()
	if err != nil {
		return CreateOrderInput{}, err
	}
	in.ClientTotal = &total

	return in, nil
}
