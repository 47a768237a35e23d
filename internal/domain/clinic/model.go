package clinic

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of visit dates.
const DateLayout = "2006-01-02"

var (
	ErrNameRequired    = errors.New("name is required")
	ErrClientRequired  = errors.New("client is required")
	ErrPatientRequired = errors.New("patient is required")
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
	ErrReasonRequired  = errors.New("reason is required")
)

// Client is a pet owner.
type Client struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IDCard string `json:"id_card"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}

type ClientInput struct {
	Name   string `json:"name"`
	IDCard string `json:"id_card"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}

func (in ClientInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

type Patient struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Species  string `json:"species"`
	Breed    string `json:"breed"`
	PhotoURL string `json:"photo_url"`
	ClientID string `json:"client_id"`
}

type PatientInput struct {
	Name     string `json:"name"`
	Species  string `json:"species"`
	Breed    string `json:"breed"`
	PhotoURL string `json:"photo_url,omitempty"`
	ClientID string `json:"client_id"`
}

func (in PatientInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if in.ClientID == "" {
		return ErrClientRequired
	}
	return nil
}

// Record is one visit. Weight (kg) and temperature (°C) are optional.
type Record struct {
	ID          string              `json:"id"`
	Date        string              `json:"date"`
	Reason      string              `json:"reason"`
	Diagnosis   string              `json:"diagnosis"`
	Treatment   string              `json:"treatment"`
	Weight      decimal.NullDecimal `json:"weight"`
	Temperature decimal.NullDecimal `json:"temperature"`
	Notes       string              `json:"notes"`
	PatientID   string              `json:"patient_id"`
}

type RecordInput struct {
	Date        string              `json:"date"`
	Reason      string              `json:"reason"`
	Diagnosis   string              `json:"diagnosis"`
	Treatment   string              `json:"treatment"`
	Weight      decimal.NullDecimal `json:"weight"`
	Temperature decimal.NullDecimal `json:"temperature"`
	Notes       string              `json:"notes"`
	PatientID   string              `json:"patient_id"`
}

func (in RecordInput) Validate() error {
	if in.PatientID == "" {
		return ErrPatientRequired
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return ErrInvalidDate
	}
	if strings.TrimSpace(in.Reason) == "" {
		return ErrReasonRequired
	}
	return nil
}

// ParseMeasure reads an optional numeric form value; blank means absent.
func ParseMeasure(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// SummaryRow joins a patient with its owner and latest visit.
type SummaryRow struct {
	PatientID  string `json:"patient_id"`
	PetName    string `json:"pet_name"`
	Species    string `json:"species"`
	ClientID   string `json:"client_id"`
	OwnerName  string `json:"owner_name"`
	LastVisit  string `json:"last_visit,omitempty"`
	LastReason string `json:"last_reason,omitempty"`
	Visits     int    `json:"visits"`
}
