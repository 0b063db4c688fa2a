package domain

type Customer struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Username        string `json:"username"`
	ShippingAddress string `json:"shipping_address"`
	Email           string `json:"email"`

	ETag string `json:"-"`
}
