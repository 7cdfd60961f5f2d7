package domain

// CartItem is one line in a buyer's cart. Price and seller are captured at
// add time so checkout does not have to refetch every crop.
type CartItem struct {
	CropID       string `json:"crop_id"`
	CropName     string `json:"crop_name"`
	SellerID     string `json:"seller_id"`
	Quantity     int    `json:"quantity"`
	Unit         string `json:"unit"`
	PricePerUnit int64  `json:"price_per_unit"`
}

type Cart struct {
	BuyerID string     `json:"buyer_id"`
	Items   []CartItem `json:"items"`
}

func (c *Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		total += int64(item.Quantity) * item.PricePerUnit
	}
	return total
}

func (c *Cart) Find(cropID string) (int, bool) {
	for i, item := range c.Items {
		if item.CropID == cropID {
			return i, true
		}
	}
	return 0, false
}
