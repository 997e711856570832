package domain

// OrderReceipt is returned by the order store after a cart has been
// persisted. OrderNumber is the short customer-facing sequence number.
type OrderReceipt struct {
	OrderID     string `json:"orderId"`
	OrderNumber int    `json:"orderNumber"`
	TotalAmount int64  `json:"totalAmount"`
}

// SessionState is the persisted shape of one ordering session: the cart, the
// user-visible chat log and the non-system conversation turns fed back into
// the model. Lambda instances do not share memory, so every completed turn is
// written through to the session store.
type SessionState struct {
	SessionID string        `json:"sessionId"`
	Cart      []CartLine    `json:"cart"`
	ChatLog   []ChatMessage `json:"chatLog"`
	Turns     []ChatMessage `json:"turns"`
}
