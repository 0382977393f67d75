package cart

// State is the whole session-scoped billing state: the cart plus the
// customer and delivery fields that head the printed bill. Keeping them in
// one struct gives every field the same load/save boundary, so a reload
// never observes a partially written session.
type State struct {
	Cart              Cart   `json:"cart"`
	CustomerName      string `json:"customerName"`
	CustomerNameLocal string `json:"customerNameLocal"`
	Mobile            string `json:"mobile"`
	DeliveryDate      string `json:"deliveryDate"`
	DeliveryTime      string `json:"deliveryTime"`
}

// CustomerInfo is the mutable header portion of the session state.
type CustomerInfo struct {
	CustomerName      string `json:"customerName"`
	CustomerNameLocal string `json:"customerNameLocal"`
	Mobile            string `json:"mobile"`
	DeliveryDate      string `json:"deliveryDate"`
	DeliveryTime      string `json:"deliveryTime"`
}

// SetCustomer replaces the header fields.
func (s *State) SetCustomer(info CustomerInfo) {
	s.CustomerName = info.CustomerName
	s.CustomerNameLocal = info.CustomerNameLocal
	s.Mobile = info.Mobile
	s.DeliveryDate = info.DeliveryDate
	s.DeliveryTime = info.DeliveryTime
}

// Clear empties the cart and resets the customer metadata with it.
func (s *State) Clear() {
	*s = State{}
}
