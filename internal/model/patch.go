package model

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownField is returned for form field names that do not exist on a
// ClaimRecord.
var ErrUnknownField = errors.New("unknown claim field")

// ClaimPatch is a partial ClaimRecord. Nil fields are left untouched by Apply.
type ClaimPatch struct {
	PolicyNumber        *string         `json:"policy_number,omitempty"`
	FullName            *string         `json:"full_name,omitempty"`
	Email               *string         `json:"email,omitempty"`
	Phone               *string         `json:"phone,omitempty"`
	DateOfIncident      *string         `json:"date_of_incident,omitempty"`
	IncidentDescription *string         `json:"incident_description,omitempty"`
	VehicleMake         *string         `json:"vehicle_make,omitempty"`
	VehicleModel        *string         `json:"vehicle_model,omitempty"`
	VehicleYear         *string         `json:"vehicle_year,omitempty"`
	DamageSeverity      *Severity       `json:"damage_severity,omitempty"`
	Photos              *[]Photo        `json:"photos,omitempty"`
	AIAnalysis          *AnalysisResult `json:"ai_analysis,omitempty"`
}

// Apply shallow-merges the set fields of p into c and returns the result.
// Slices are copied so the caller keeps no handle on the merged record.
func (p ClaimPatch) Apply(c ClaimRecord) ClaimRecord {
	setString(&c.PolicyNumber, p.PolicyNumber)
	setString(&c.FullName, p.FullName)
	setString(&c.Email, p.Email)
	setString(&c.Phone, p.Phone)
	setString(&c.DateOfIncident, p.DateOfIncident)
	setString(&c.IncidentDescription, p.IncidentDescription)
	setString(&c.VehicleMake, p.VehicleMake)
	setString(&c.VehicleModel, p.VehicleModel)
	setString(&c.VehicleYear, p.VehicleYear)
	if p.DamageSeverity != nil {
		c.DamageSeverity = *p.DamageSeverity
	}
	if p.Photos != nil {
		c.Photos = slices.Clone(*p.Photos)
	}
	if p.AIAnalysis != nil {
		c.AIAnalysis = p.AIAnalysis.Clone()
	}
	return c
}

// IsEmpty reports whether the patch sets nothing.
func (p ClaimPatch) IsEmpty() bool {
	return p == ClaimPatch{}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// PatchPhotos is shorthand for a patch replacing the photo list.
func PatchPhotos(photos []Photo) ClaimPatch {
	return ClaimPatch{Photos: &photos}
}

// PatchField builds a single-field patch from a form field name, the way a
// generic change handler binds inputs by name.
func PatchField(name, value string) (ClaimPatch, error) {
	var p ClaimPatch
	v := value
	switch name {
	case "policy_number":
		p.PolicyNumber = &v
	case "full_name":
		p.FullName = &v
	case "email":
		p.Email = &v
	case "phone":
		p.Phone = &v
	case "date_of_incident":
		p.DateOfIncident = &v
	case "incident_description":
		p.IncidentDescription = &v
	case "vehicle_make":
		p.VehicleMake = &v
	case "vehicle_model":
		p.VehicleModel = &v
	case "vehicle_year":
		p.VehicleYear = &v
	case "damage_severity":
		s, err := ParseSeverity(value)
		if err != nil {
			return ClaimPatch{}, err
		}
		p.DamageSeverity = &s
	default:
		return ClaimPatch{}, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return p, nil
}
