// Package model defines the core data types shared across claimassess.
package model

import (
	"fmt"
	"slices"
	"strings"
)

// Severity grades damage, either for a single detail or a whole claim.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityMinor
	SeverityModerate
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityUnknown:
		return "unknown"
	case SeverityMinor:
		return "minor"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	default:
		return "invalid"
	}
}

// ParseSeverity accepts the lower-case names produced by String.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unknown", "":
		return SeverityUnknown, nil
	case "minor":
		return SeverityMinor, nil
	case "moderate":
		return SeverityModerate, nil
	case "severe":
		return SeveritySevere, nil
	}
	return SeverityUnknown, fmt.Errorf("invalid severity %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Photo is an uploaded damage photo. Ref points at the bytes held by the
// image store.
type Photo struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Name        string `json:"name"`
	ShowOverlay bool   `json:"show_overlay"`
}

// DamageDetail is one damaged area reported by the assessor.
type DamageDetail struct {
	Location        string   `json:"location"`
	DamageType      string   `json:"damage_type"`
	Severity        Severity `json:"severity"`
	EstimatedCost   float64  `json:"estimated_cost"`
	Notes           string   `json:"notes"`
	ConfidenceScore float64  `json:"confidence_score"`
	AIReasoning     string   `json:"ai_reasoning"`
}

// AnalysisResult is the assessment of all photos of a claim.
// RepairEstimate always equals the sum of the detail costs.
type AnalysisResult struct {
	DamageDetected      bool           `json:"damage_detected"`
	DamageSeverity      Severity       `json:"damage_severity"`
	RepairEstimate      float64        `json:"repair_estimate"`
	DamageDetails       []DamageDetail `json:"damage_details"`
	EstimatedRepairTime int            `json:"estimated_repair_time"`
	RecommendedAction   string         `json:"recommended_action"`
	OverallConfidence   float64        `json:"overall_confidence"`
}

// Clone returns a copy that shares no slices with r.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	c := *r
	c.DamageDetails = slices.Clone(r.DamageDetails)
	return &c
}

// ClaimRecord is everything collected by the wizard for one claim.
// The zero value is the empty claim a wizard starts with.
type ClaimRecord struct {
	PolicyNumber        string          `json:"policy_number"`
	FullName            string          `json:"full_name"`
	Email               string          `json:"email"`
	Phone               string          `json:"phone"`
	DateOfIncident      string          `json:"date_of_incident"`
	IncidentDescription string          `json:"incident_description"`
	VehicleMake         string          `json:"vehicle_make"`
	VehicleModel        string          `json:"vehicle_model"`
	VehicleYear         string          `json:"vehicle_year"`
	DamageSeverity      Severity        `json:"damage_severity"`
	Photos              []Photo         `json:"photos"`
	AIAnalysis          *AnalysisResult `json:"ai_analysis"`
}

// Clone returns a deep copy of the claim so that readers never share
// mutable state with the owner.
func (c ClaimRecord) Clone() ClaimRecord {
	c.Photos = slices.Clone(c.Photos)
	c.AIAnalysis = c.AIAnalysis.Clone()
	return c
}

// Photo returns the photo with the given ID.
func (c ClaimRecord) Photo(id string) (Photo, bool) {
	for _, p := range c.Photos {
		if p.ID == id {
			return p, true
		}
	}
	return Photo{}, false
}
