// Package callback defines the closed set of inline-keyboard actions and
// their wire encoding. The transport carries a callback as an opaque string
// of the form "tag field,field,..."; everything inside the engine works with
// the typed variants and encoding happens only at this boundary.
package callback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed reports a callback payload that does not decode into any
// known action.
var ErrMalformed = errors.New("callback: malformed payload")

// Callback is one decoded inline-keyboard action. The set of
// implementations is closed.
type Callback interface {
	tag() string
}

// NavShop moves the catalog view to the given 1-based index.
type NavShop struct {
	Index int
}

// NavCart moves the cart view to the given 1-based index.
type NavCart struct {
	Index int
}

// NavDelete moves the admin delete-browsing view to the given 1-based index.
type NavDelete struct {
	Index int
}

// AddToCart puts a product into the acting user's cart.
type AddToCart struct {
	ChatID    int64
	ProductID uint
	Name      string
}

// DelCartItem removes one cart entry. Index and Pages describe the view the
// button was rendered in, so the next render can pick a safe fallback index.
type DelCartItem struct {
	CartItemID uint
	Index      int
	Pages      int
	Name       string
}

// DelProduct removes a product from the catalog, cascading its cart entries.
type DelProduct struct {
	ProductID uint
	Index     int
	Pages     int
	Name      string
}

func (NavShop) tag() string     { return "nav_shop" }
func (NavCart) tag() string     { return "nav_cart" }
func (NavDelete) tag() string   { return "nav_del" }
func (AddToCart) tag() string   { return "add_cart" }
func (DelCartItem) tag() string { return "del_cart" }
func (DelProduct) tag() string  { return "del_product" }

// Encode renders the callback in wire form. The free-text name always comes
// last so that commas inside it cannot shift the numeric fields.
func Encode(cb Callback) string {
	switch v := cb.(type) {
	case NavShop:
		return fmt.Sprintf("%s %d", v.tag(), v.Index)
	case NavCart:
		return fmt.Sprintf("%s %d", v.tag(), v.Index)
	case NavDelete:
		return fmt.Sprintf("%s %d", v.tag(), v.Index)
	case AddToCart:
		return fmt.Sprintf("%s %d,%d,%s", v.tag(), v.ChatID, v.ProductID, v.Name)
	case DelCartItem:
		return fmt.Sprintf("%s %d,%d,%d,%s", v.tag(), v.CartItemID, v.Index, v.Pages, v.Name)
	case DelProduct:
		return fmt.Sprintf("%s %d,%d,%d,%s", v.tag(), v.ProductID, v.Index, v.Pages, v.Name)
	}
	return ""
}

// Decode parses a wire-form payload back into its typed variant.
func Decode(payload string) (Callback, error) {
	tag, rest, _ := strings.Cut(strings.TrimSpace(payload), " ")
	switch tag {
	case "nav_shop":
		i, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, payload)
		}
		return NavShop{Index: i}, nil
	case "nav_cart":
		i, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, payload)
		}
		return NavCart{Index: i}, nil
	case "nav_del":
		i, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, payload)
		}
		return NavDelete{Index: i}, nil
	case "add_cart":
		nums, name, err := splitFields(rest, 2)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, payload)
		}
		return AddToCart{ChatID: nums[0], ProductID: uint(nums[1]), Name: name}, nil
	case "del_cart":
		nums, name, err := splitFields(rest, 3)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, payload)
		}
		return DelCartItem{CartItemID: uint(nums[0]), Index: int(nums[1]), Pages: int(nums[2]), Name: name}, nil
	case "del_product":
		nums, name, err := splitFields(rest, 3)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, payload)
		}
		return DelProduct{ProductID: uint(nums[0]), Index: int(nums[1]), Pages: int(nums[2]), Name: name}, nil
	}
	return nil, fmt.Errorf("%w: unknown tag in %q", ErrMalformed, payload)
}

// splitFields reads n leading numeric fields; whatever remains, commas and
// all, is the trailing name.
func splitFields(rest string, n int) ([]int64, string, error) {
	parts := strings.SplitN(rest, ",", n+1)
	if len(parts) < n+1 {
		return nil, "", ErrMalformed
	}
	nums := make([]int64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil {
			return nil, "", ErrMalformed
		}
		nums[i] = v
	}
	return nums, parts[n], nil
}
