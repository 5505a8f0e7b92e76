package models

// Location is a shared address object referenced by ID from party features.
type Location struct {
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	StateProvince string `json:"state_province,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country,omitempty"`
	Region        string `json:"region,omitempty"`
}

// IsZero reports whether no attribute is set.
func (l Location) IsZero() bool {
	return l == Location{}
}

// IDDocument is a shared identity document referenced by ID.
type IDDocument struct {
	IDType       string `json:"id_type,omitempty"`
	IDNumber     string `json:"id_number,omitempty"`
	Country      string `json:"country,omitempty"`
	IssueDate    string `json:"issue_date,omitempty"`
	ExpiryDate   string `json:"expiry_date,omitempty"`
	IsFraudulent bool   `json:"is_fraudulent"`
}

// SanctionsAssignment is the program and authority data for one profile.
// Programs and LegalAuthorities are ordered sets.
type SanctionsAssignment struct {
	Programs         []string
	LegalAuthorities []string
	Remarks          string
}
