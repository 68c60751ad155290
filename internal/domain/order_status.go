package domain

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusUnknown stands in for any value outside the vocabulary above.
	OrderStatusUnknown OrderStatus = "unknown"
)

// StatusTag is the color class an order status is rendered with.
type StatusTag string

const (
	StatusTagYellow StatusTag = "yellow"
	StatusTagBlue   StatusTag = "blue"
	StatusTagPurple StatusTag = "purple"
	StatusTagGreen  StatusTag = "green"
	StatusTagRed    StatusTag = "red"
	StatusTagGray   StatusTag = "gray"
)

type StatusDisplay struct {
	Label string    `json:"label"`
	Tag   StatusTag `json:"tag"`
}

var statusDisplays = map[OrderStatus]StatusDisplay{
	OrderStatusPending:   {Label: "Processing", Tag: StatusTagYellow},
	OrderStatusPaid:      {Label: "Paid", Tag: StatusTagBlue},
	OrderStatusShipped:   {Label: "Shipped", Tag: StatusTagPurple},
	OrderStatusDelivered: {Label: "Delivered", Tag: StatusTagGreen},
	OrderStatusCancelled: {Label: "Cancelled", Tag: StatusTagRed},
	OrderStatusUnknown:   {Label: "Unknown", Tag: StatusTagGray},
}

// ParseOrderStatus maps a raw status string onto the vocabulary. It never fails:
// anything unrecognized becomes OrderStatusUnknown.
func ParseOrderStatus(raw string) OrderStatus {
	s := OrderStatus(raw)
	if _, ok := statusDisplays[s]; ok {
		return s
	}
	return OrderStatusUnknown
}

// Display returns the label and tag for the status, falling back to the unknown variant.
func (s OrderStatus) Display() StatusDisplay {
	return statusDisplays[ParseOrderStatus(string(s))]
}

func (s *OrderStatus) UnmarshalText(text []byte) error {
	*s = ParseOrderStatus(string(text))
	return nil
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}
