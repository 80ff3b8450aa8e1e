package model

import "time"

type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"userType"`
	IsActive     bool      `json:"isActive"`
	IsVerified   bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Niche struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

type Category struct {
	ID      string `json:"id"`
	NicheID string `json:"nicheId"`
	Name    string `json:"name"`
	Color   string `json:"color,omitempty"`
}

// ServiceTemplate is a catalog entry providers attach their own price to.
type ServiceTemplate struct {
	ID              string `json:"id"`
	CategoryID      string `json:"categoryId"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"duration"`
	IsActive        bool   `json:"isActive"`
}

type ProviderService struct {
	ID              string    `json:"id"`
	ProviderID      string    `json:"providerId"`
	TemplateID      string    `json:"serviceTemplateId"`
	Name            string    `json:"name"`
	CategoryID      string    `json:"categoryId"`
	PriceCents      int64     `json:"price"`
	DurationMinutes int       `json:"duration"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Availability is one working window of a provider. Weekly rows set DayOfWeek
// (0 = Sunday); date-specific rows set Date and override the weekly rows.
type Availability struct {
	ID              string  `json:"id"`
	ProviderID      string  `json:"providerId"`
	DayOfWeek       int     `json:"dayOfWeek"`
	Date            *string `json:"date,omitempty"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	IntervalMinutes int     `json:"intervalMinutes"`
	IsAvailable     bool    `json:"isAvailable"`
}

type BlockedSlot struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"providerId"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Reason     string    `json:"reason,omitempty"`
}

type Appointment struct {
	ID                string            `json:"id"`
	ClientID          string            `json:"clientId"`
	ProviderID        string            `json:"providerId"`
	ProviderServiceID string            `json:"serviceId"`
	StartTime         time.Time         `json:"startTime"`
	EndTime           time.Time         `json:"endTime"`
	Status            AppointmentStatus `json:"status"`
	PaymentStatus     PaymentStatus     `json:"paymentStatus"`
	PaymentMethod     string            `json:"paymentMethod,omitempty"`
	TotalCents        int64             `json:"totalPrice"`
	Notes             string            `json:"notes,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

type Payment struct {
	ID            string        `json:"id"`
	AppointmentID string        `json:"appointmentId"`
	Gateway       string        `json:"gateway"`
	ExternalID    string        `json:"externalId"`
	AmountCents   int64         `json:"amount"`
	Status        PaymentStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type Withdrawal struct {
	ID          string           `json:"id"`
	ProviderID  string           `json:"providerId"`
	AmountCents int64            `json:"amount"`
	PixKey      string           `json:"pixKey"`
	Status      WithdrawalStatus `json:"status"`
	AdminNotes  string           `json:"adminNotes,omitempty"`
	RequestedAt time.Time        `json:"requestedAt"`
	ProcessedAt *time.Time       `json:"processedAt,omitempty"`
}

type Review struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointmentId"`
	ClientID      string    `json:"clientId"`
	ProviderID    string    `json:"providerId"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Notification struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Type          string    `json:"type"`
	AppointmentID *string   `json:"appointmentId,omitempty"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Balance struct {
	EarnedCents    int64 `json:"earned"`
	WithdrawnCents int64 `json:"withdrawn"`
	AvailableCents int64 `json:"available"`
}
