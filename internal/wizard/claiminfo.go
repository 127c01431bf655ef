package wizard

import (
	"strings"

	"github.com/sprite-ai/claimassess/internal/model"
)

// FormField describes one labeled input of a form.
type FormField struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Placeholder string `json:"placeholder,omitempty"`
	Help        string `json:"help,omitempty"`
	Required    bool   `json:"required"`
	Value       string `json:"value"`
}

// ClaimInfoStep is the first page: the claim number.
type ClaimInfoStep struct {
	host Host
}

// Fields returns the form's inputs bound to the current claim.
func (c *ClaimInfoStep) Fields() []FormField {
	claim := c.host.Claim()
	return []FormField{
		{
			Name:        "policy_number",
			Label:       "Claim Number",
			Type:        "text",
			Placeholder: "Enter your claim number",
			Help:        "Your claim number can be found in your insurance documents or recent correspondence.",
			Required:    true,
			Value:       claim.PolicyNumber,
		},
	}
}

// Change forwards an input change to the claim by field name.
func (c *ClaimInfoStep) Change(name, value string) error {
	p, err := model.PatchField(name, value)
	if err != nil {
		return err
	}
	c.host.UpdateClaim(p)
	return nil
}

// Missing lists the labels of required fields that are still blank.
// Presence is the only check; it does not block navigation.
func (c *ClaimInfoStep) Missing() []string {
	var missing []string
	for _, f := range c.Fields() {
		if f.Required && strings.TrimSpace(f.Value) == "" {
			missing = append(missing, f.Label)
		}
	}
	return missing
}
