//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const maxCourseTitleLen = 255

// Course is a catalog entry owned by the user who added it.
type Course struct {
	ID         string    `json:"id"          db:"id"`
	Title      string    `json:"title"       db:"title"`
	PriceCents int64     `json:"price_cents" db:"price_cents"`
	ImageURL   string    `json:"image_url"   db:"image_url"`
	OwnerID    string    `json:"owner_id"    db:"owner_id"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}

// CourseInput is the add/edit form shared by create and update.
type CourseInput struct {
	Title    string
	Price    string
	ImageURL string

	priceCents int64
}

// PriceCents returns the price parsed by Validate.
func (in *CourseInput) PriceCents() int64 { return in.priceCents }

// Validate trims fields, parses the price and checks the image URL.
func (in *CourseInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.Title == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(in.Title) > maxCourseTitleLen {
		return errors.New("title cannot exceed 255 characters")
	}
	cents, err := ParsePrice(in.Price)
	if err != nil {
		return err
	}
	in.priceCents = cents
	u, err := url.Parse(in.ImageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("image must be an http(s) URL")
	}
	return nil
}

// ParsePrice converts "19.99" into 1999 cents.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("price is required")
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, errors.New("price must have at most two decimals")
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return 0, errors.New("price must be a positive number")
	}
	var cents int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || cents < 0 {
			return 0, errors.New("price must be a positive number")
		}
	}
	total := units*100 + cents
	if total <= 0 {
		return 0, errors.New("price must be a positive number")
	}
	return total, nil
}

// FormatPrice renders cents as "19.99".
func FormatPrice(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
