package auth

import "github.com/egannguyen/tica-shop/internal/entity"

// Capability names an action a viewer may be allowed to perform.
type Capability string

const (
	CapListOrders        Capability = "orders:list"
	CapViewOrder         Capability = "orders:view"
	CapUpdateOrderStatus Capability = "orders:update_status"
)

var grants = map[entity.Role][]Capability{
	entity.RoleAdmin: {CapListOrders, CapViewOrder, CapUpdateOrderStatus},
	entity.RoleUser:  nil,
}

// Can reports whether u holds c. A nil user holds nothing.
func Can(u *entity.User, c Capability) bool {
	if u == nil {
		return false
	}
	for _, granted := range grants[u.Role] {
		if granted == c {
			return true
		}
	}
	return false
}
