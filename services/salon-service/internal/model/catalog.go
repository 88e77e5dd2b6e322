package model

import (
	"encoding/json"
	"time"
)

type Service struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	DurationMinutes int    `json:"duration" yaml:"duration"`
	Price           int64  `json:"price" yaml:"price"`
	Category        string `json:"category" yaml:"category"`
	Image           string `json:"image,omitempty" yaml:"image"`
}

type Staff struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Role   string  `json:"role" yaml:"role"`
	Rating float64 `json:"rating" yaml:"rating"`
	Avatar string  `json:"avatar,omitempty" yaml:"avatar"`
}

type SiteSettings struct {
	SiteName          string `json:"siteName" yaml:"site_name"`
	HeroTitle         string `json:"heroTitle" yaml:"hero_title"`
	HeroSubtitle      string `json:"heroSubtitle" yaml:"hero_subtitle"`
	AboutTitle        string `json:"aboutTitle" yaml:"about_title"`
	AboutContent      string `json:"aboutContent" yaml:"about_content"`
	FooterText        string `json:"footerText" yaml:"footer_text"`
	FooterTreatments  string `json:"footerTreatments" yaml:"footer_treatments"`
	FooterBookings    string `json:"footerBookings" yaml:"footer_bookings"`
	ContactEmail      string `json:"contactEmail" yaml:"contact_email"`
	ContactPhone      string `json:"contactPhone" yaml:"contact_phone"`
	WhatsAppNumber    string `json:"whatsappNumber" yaml:"whatsapp_number"`
	BookingButtonText string `json:"bookingButtonText" yaml:"booking_button_text"`
	GCashName         string `json:"gcashName,omitempty" yaml:"gcash_name"`
	GCashQR           string `json:"gcashQr,omitempty" yaml:"gcash_qr"`
	BankName          string `json:"bankName,omitempty" yaml:"bank_name"`
	BankQR            string `json:"bankQr,omitempty" yaml:"bank_qr"`
	BookingOpen       bool   `json:"bookingOpen" yaml:"booking_open"`
	MaintenanceMode   bool   `json:"maintenanceMode" yaml:"maintenance_mode"`
}

// AcceptsBookings is false while the site is in maintenance or booking is closed.
func (s SiteSettings) AcceptsBookings() bool {
	return s.BookingOpen && !s.MaintenanceMode
}

// MergeSettings decodes a stored settings document over base. Keys the
// document lacks keep their base value, so a copy-only document never closes
// booking by omission.
func MergeSettings(base SiteSettings, raw []byte) (SiteSettings, error) {
	merged := base
	if err := json.Unmarshal(raw, &merged); err != nil {
		return base, err
	}
	return merged, nil
}

// Promo is the optional announcement; a nil Message means no promo.
type Promo struct {
	Message *string `json:"message"`
}

type ClientAccount struct {
	Phone     string
	PinHash   []byte
	CreatedAt time.Time
}
