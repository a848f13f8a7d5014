// Package rules provides per-tenant validation rule profiles.
package rules

import (
	"context"

	"github.com/google/uuid"
)

// Identification algorithm tags. Any other tag is always invalid.
const (
	AlgorithmMod01EC = "MOD_01_EC"
	AlgorithmMod02EC = "MOD_02_EC"
	AlgorithmNone    = "NONE"
)

// ValidationRule is a tenant's validation profile. Treated as immutable once
// fetched for a job.
type ValidationRule struct {
	TenantID uuid.UUID
	Profile  Profile
}

// Profile groups the per-field validation settings.
type Profile struct {
	Email          EmailProfile
	Phone          PhoneProfile
	Identification IdentificationProfile
}

// EmailProfile configures email validation.
type EmailProfile struct {
	Regex string
}

// PhoneProfile configures phone validation. A phone is valid if any format
// matches.
type PhoneProfile struct {
	Formats []PhoneFormat
}

// PhoneFormat is one accepted phone pattern.
type PhoneFormat struct {
	Type        string
	Regex       string
	Description string
}

// IdentificationProfile names the checksum algorithm the external key must
// pass.
type IdentificationProfile struct {
	RequiredAlgorithm string
	AllowedTypes      []string
}

// Provider fetches the validation rules for a tenant.
type Provider interface {
	Rules(ctx context.Context, tenantID uuid.UUID) (*ValidationRule, error)
}

// StaticProvider returns the same rule profile for every tenant. It stands in
// for the Enterprise Core rules endpoint in local and test deployments.
type StaticProvider struct {
	Algorithm string
}

// Rules returns the default Ecuadorian profile with the configured algorithm.
func (p *StaticProvider) Rules(ctx context.Context, tenantID uuid.UUID) (*ValidationRule, error) {
	algorithm := p.Algorithm
	if algorithm == "" {
		algorithm = AlgorithmMod01EC
	}

	return &ValidationRule{
		TenantID: tenantID,
		Profile: Profile{
			Email: EmailProfile{Regex: `^[\w\-\.]+@([\w\-]+\.)+[\w\-]{2,}$`},
			Phone: PhoneProfile{
				Formats: []PhoneFormat{
					{Type: "Mobile", Regex: `^09\d{8}$`, Description: "Celular EC"},
					{Type: "Intl", Regex: `^\d{10,15}$`, Description: "Genérico Intl"},
				},
			},
			Identification: IdentificationProfile{
				RequiredAlgorithm: algorithm,
				AllowedTypes:      []string{"CEDULA", "RUC"},
			},
		},
	}, nil
}
