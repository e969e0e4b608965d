package models

// BookingRequest is the payload accepted by the booking endpoint. Start is a
// naive ISO-8601 timestamp interpreted in the event's configured timezone.
type BookingRequest struct {
	Staff string `json:"staff" binding:"required"`
	Start string `json:"start" binding:"required"`
	Menu  string `json:"menu" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
	Note  string `json:"note"`
}

// BookingSummary is the confirmation detail returned after a successful
// booking. The calendar event is the system of record; this is echo only.
type BookingSummary struct {
	Staff           string `json:"staff"`
	Service         string `json:"service"`
	Menu            string `json:"menu"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration"`
	Location        string `json:"location"`
	CustomerName    string `json:"customer_name"`
}
