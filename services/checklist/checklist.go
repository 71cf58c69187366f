package checklist

import (
	"fmt"
	"time"
)

// Variant selects which checklist layout a submission uses.
type Variant string

const (
	VariantFull    Variant = "full"
	VariantReduced Variant = "reduced"
)

// Valid reports whether the variant is one of the known checklist types.
func (v Variant) Valid() bool {
	return v == VariantFull || v == VariantReduced
}

// MonthYear is an expiry boundary with month precision.
type MonthYear struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// IsZero reports whether no expiry was entered.
func (my MonthYear) IsZero() bool {
	return my.Month == 0 && my.Year == 0
}

// ExpiredAt reports whether the expiry has lapsed relative to the inspection
// date, treating the expiry as "valid until the first day of the given month".
func (my MonthYear) ExpiredAt(inspection time.Time) bool {
	if my.IsZero() {
		return false
	}
	y, m := inspection.Year(), int(inspection.Month())
	return my.Year < y || (my.Year == y && my.Month < m)
}

func (my MonthYear) String() string {
	if my.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d/%04d", my.Month, my.Year)
}

// PhotoRef describes an already-uploaded photo attached to a checklist.
// Only the descriptor participates in identity; the photo bytes do not.
type PhotoRef struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// CheckItem is one equipment entry: a checkbox, an optional expiry and an
// optional icon asset name.
type CheckItem struct {
	Name    string    `json:"name"`
	Checked bool      `json:"checked"`
	Expiry  MonthYear `json:"expiry,omitzero"`
	Icon    string    `json:"icon,omitempty"`
}

// LoadingLine is a single binary row in the before/after loading boxes.
type LoadingLine struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
}

// Checklist is the full in-memory form state of one inspection submission.
// It is ephemeral: rebuilt from the current form on every export action.
type Checklist struct {
	Variant        Variant   `json:"variant"`
	DriverName     string    `json:"driverName"`
	TruckPlate     string    `json:"truckPlate"`
	TrailerPlate   string    `json:"trailerPlate"`
	InspectorName  string    `json:"inspectorName"`
	InspectionDate time.Time `json:"inspectionDate"`

	TachographExpiry MonthYear `json:"tachographExpiry,omitzero"`
	InspectionExpiry MonthYear `json:"inspectionExpiry,omitzero"`
	InsuranceExpiry  MonthYear `json:"insuranceExpiry,omitzero"`
	ADRExpiry        MonthYear `json:"adrExpiry,omitzero"`

	Remarks string `json:"remarks"`

	Equipment     []CheckItem   `json:"equipment"`
	BeforeLoading []LoadingLine `json:"beforeLoading"`
	AfterLoading  []LoadingLine `json:"afterLoading"`

	// Signatures are embedded PNG bytes; empty means "sign on paper".
	DriverSignature    []byte `json:"driverSignature,omitempty"`
	InspectorSignature []byte `json:"inspectorSignature,omitempty"`

	Photos []PhotoRef `json:"photos"`
}
