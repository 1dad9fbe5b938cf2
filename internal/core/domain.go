package core

import (
	"errors"
	"strings"
	"time"
)

const (
	SectionHero     = "hero"
	SectionCarousel = "carousel"

	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type (
	MediaType string

	// Date is a calendar day without time-of-day. Events compare and persist
	// dates as YYYY-MM-DD strings.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID        string
		Type      string
		Quantity  int64
		UnitPrice Money
		Total     Money // Quantity × UnitPrice, recomputed on edit, authoritative on read-back
	}

	Event struct {
		ID          string
		Date        Date
		Address     string
		EventTime   string
		ManagerName string
		VenueName   string
		Reminder    string
		AgreedPrice Money
		Expenses    []Expense
	}

	SiteAsset struct {
		ID           string
		URL          string
		Section      string
		DisplayOrder int
	}

	SiteContent struct {
		ID      string
		Section string
		Key     string
		Label   string
		Value   string
	}

	GalleryFolder struct {
		ID          string
		Name        string
		Description string
	}

	GalleryItem struct {
		ID           string
		URL          string
		Type         MediaType
		Title        string
		Description  string
		FolderID     string // empty = not assigned to a folder
		DisplayOrder int
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrNegativeQuantity = errors.New("negative quantity")
	ErrNegativePrice    = errors.New("negative price")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyURL         = errors.New("empty url")
	ErrInvalidMediaType = errors.New("invalid media type")
	ErrInvalidSection   = errors.New("invalid section")
)

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Recalculate sets Total to Quantity × UnitPrice. Called whenever either
// factor changes through the form path; stored totals are not recomputed
// on aggregation.
func (e *Expense) Recalculate() {
	e.Total = Money{Cents: e.Quantity * e.UnitPrice.Cents}
}

func (e Expense) Validate() error {
	if e.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if e.UnitPrice.Cents < 0 {
		return ErrNegativePrice
	}
	return nil
}

func (ev Event) Validate() error {
	if err := ev.Date.Validate(); err != nil {
		return err
	}
	if ev.AgreedPrice.Cents < 0 {
		return ErrNegativePrice
	}
	for _, exp := range ev.Expenses {
		if err := exp.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (a SiteAsset) Validate() error {
	if strings.TrimSpace(a.URL) == "" {
		return ErrEmptyURL
	}
	if a.Section != SectionHero && a.Section != SectionCarousel {
		return ErrInvalidSection
	}
	return nil
}

func (f GalleryFolder) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (it GalleryItem) Validate() error {
	if strings.TrimSpace(it.URL) == "" {
		return ErrEmptyURL
	}
	if it.Type != MediaImage && it.Type != MediaVideo {
		return ErrInvalidMediaType
	}
	return nil
}
