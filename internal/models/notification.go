package models

// PaymentNotification сообщение очереди об успешной оплате.
// ProductKind определяет текст письма: merch получает абзац про
// производство и отправку вместо ссылки на контент.
type PaymentNotification struct {
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`
	ProductKind string  `json:"product_kind"`
}

// DeliveryNotification сообщение очереди о доставке заказа.
type DeliveryNotification struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
	Carrier        string `json:"carrier"`
}

// ConsultationNotification сообщение очереди о новой заявке на консультацию.
type ConsultationNotification struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Message     string `json:"message"`
	RequestID   int    `json:"request_id"`
	ScheduledAt string `json:"scheduled_at,omitempty"`
}
