package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/openkeyhub/governance/internal/database/types/enum"
)

// ErrUnknownPayload is returned when a payload envelope names no known variant.
var ErrUnknownPayload = errors.New("unknown proposal payload type")

// CollaboratorPermissions lists the permissions a collaborator can be promoted to.
var CollaboratorPermissions = []string{"Read", "Write", "Admin"} //nolint:gochecknoglobals // -

// ProposalPayload is the type-specific content of a proposal.
// The set of implementations is closed to this package.
type ProposalPayload interface {
	// Kind identifies the variant.
	Kind() enum.ProposalKind
	// Validate checks the variant's required fields.
	Validate() error
	// Repository returns the repository the payload targets, if any.
	Repository() string

	isPayload()
}

// RepositoryUpdate changes the settings of a repository.
type RepositoryUpdate struct {
	RepositoryID string         `json:"repositoryId"`
	NewSettings  map[string]any `json:"newSettings"`
}

// PlatformUpgrade upgrades the platform to a new version.
type PlatformUpgrade struct {
	Version     string `json:"version"`
	Description string `json:"description"`
	CanisterID  string `json:"canisterId,omitempty"`
}

// TreasurySpend transfers funds from the treasury.
type TreasurySpend struct {
	Amount    uint64 `json:"amount"`
	Recipient string `json:"recipient"`
	Purpose   string `json:"purpose"`
}

// GovernanceConfigChange replaces the governance config.
type GovernanceConfigChange struct {
	NewConfig GovernanceConfig `json:"newConfig"`
}

// CollaboratorPromotion changes a collaborator's permission on a repository.
type CollaboratorPromotion struct {
	RepositoryID  string `json:"repositoryId"`
	Collaborator  string `json:"collaborator"`
	NewPermission string `json:"newPermission"`
}

// CustomProposal carries free-form execution data.
type CustomProposal struct {
	Title         string          `json:"title,omitempty"`
	Description   string          `json:"description,omitempty"`
	ExecutionData json.RawMessage `json:"executionData,omitempty"`
}

func (RepositoryUpdate) Kind() enum.ProposalKind       { return enum.ProposalKindRepositoryUpdate }
func (PlatformUpgrade) Kind() enum.ProposalKind        { return enum.ProposalKindPlatformUpgrade }
func (TreasurySpend) Kind() enum.ProposalKind          { return enum.ProposalKindTreasurySpend }
func (GovernanceConfigChange) Kind() enum.ProposalKind { return enum.ProposalKindGovernanceConfig }
func (CollaboratorPromotion) Kind() enum.ProposalKind  { return enum.ProposalKindCollaboratorPromotion }
func (CustomProposal) Kind() enum.ProposalKind         { return enum.ProposalKindCustomProposal }

func (p RepositoryUpdate) Repository() string      { return p.RepositoryID }
func (PlatformUpgrade) Repository() string         { return "" }
func (TreasurySpend) Repository() string           { return "" }
func (GovernanceConfigChange) Repository() string  { return "" }
func (p CollaboratorPromotion) Repository() string { return p.RepositoryID }
func (CustomProposal) Repository() string          { return "" }

func (RepositoryUpdate) isPayload()       {}
func (PlatformUpgrade) isPayload()        {}
func (TreasurySpend) isPayload()          {}
func (GovernanceConfigChange) isPayload() {}
func (CollaboratorPromotion) isPayload()  {}
func (CustomProposal) isPayload()         {}

func (p RepositoryUpdate) Validate() error {
	if strings.TrimSpace(p.RepositoryID) == "" {
		return fmt.Errorf("%w: repository ID is required", ErrInvalidInput)
	}
	return nil
}

func (p PlatformUpgrade) Validate() error {
	if strings.TrimSpace(p.Version) == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("%w: upgrade description is required", ErrInvalidInput)
	}
	return nil
}

func (p TreasurySpend) Validate() error {
	if p.Amount == 0 {
		return fmt.Errorf("%w: amount must be greater than 0", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Purpose) == "" {
		return fmt.Errorf("%w: purpose is required", ErrInvalidInput)
	}
	return nil
}

func (p GovernanceConfigChange) Validate() error {
	if err := p.NewConfig.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

func (p CollaboratorPromotion) Validate() error {
	if strings.TrimSpace(p.RepositoryID) == "" {
		return fmt.Errorf("%w: repository ID is required", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Collaborator) == "" {
		return fmt.Errorf("%w: collaborator is required", ErrInvalidInput)
	}
	if !slices.Contains(CollaboratorPermissions, p.NewPermission) {
		return fmt.Errorf("%w: permission must be one of %s", ErrInvalidInput, strings.Join(CollaboratorPermissions, ", "))
	}
	return nil
}

func (p CustomProposal) Validate() error {
	if len(p.ExecutionData) > 0 && !sonic.Valid(p.ExecutionData) {
		return fmt.Errorf("%w: execution data is not valid JSON", ErrInvalidInput)
	}
	return nil
}

// Payload wraps a ProposalPayload so it can be stored and transported
// as a tagged envelope of the form {"type": "...", "data": {...}}.
type Payload struct {
	ProposalPayload
}

// NewPayload wraps the given variant.
func NewPayload(p ProposalPayload) Payload {
	return Payload{ProposalPayload: p}
}

type payloadEnvelope struct {
	Type enum.ProposalKind `json:"type"`
	Data json.RawMessage   `json:"data"`
}

// MarshalJSON encodes the payload as a tagged envelope.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.ProposalPayload == nil {
		return []byte("null"), nil
	}

	data, err := sonic.Marshal(p.ProposalPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload data: %w", err)
	}

	return sonic.Marshal(payloadEnvelope{Type: p.Kind(), Data: data})
}

// UnmarshalJSON decodes a tagged envelope into the matching variant.
func (p *Payload) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		p.ProposalPayload = nil
		return nil
	}

	var env payloadEnvelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: malformed payload: %w", ErrInvalidInput, err)
	}

	var (
		variant ProposalPayload
		err     error
	)

	switch env.Type {
	case enum.ProposalKindRepositoryUpdate:
		variant, err = decodeVariant[RepositoryUpdate](env.Data)
	case enum.ProposalKindPlatformUpgrade:
		variant, err = decodeVariant[PlatformUpgrade](env.Data)
	case enum.ProposalKindTreasurySpend:
		variant, err = decodeVariant[TreasurySpend](env.Data)
	case enum.ProposalKindGovernanceConfig:
		variant, err = decodeVariant[GovernanceConfigChange](env.Data)
	case enum.ProposalKindCollaboratorPromotion:
		variant, err = decodeVariant[CollaboratorPromotion](env.Data)
	case enum.ProposalKindCustomProposal:
		variant, err = decodeVariant[CustomProposal](env.Data)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownPayload, env.Type)
	}

	if err != nil {
		return err
	}

	p.ProposalPayload = variant
	return nil
}

// Value implements driver.Valuer for jsonb storage.
func (p Payload) Value() (driver.Value, error) {
	if p.ProposalPayload == nil {
		return nil, nil //nolint:nilnil // NULL column
	}

	data, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for jsonb storage.
func (p *Payload) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		p.ProposalPayload = nil
		return nil
	case []byte:
		return p.UnmarshalJSON(v)
	case string:
		return p.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("%w: cannot scan %T into payload", ErrUnknownPayload, src)
	}
}

func decodeVariant[T ProposalPayload](data json.RawMessage) (ProposalPayload, error) {
	var v T
	if len(data) > 0 {
		if err := sonic.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%w: malformed %s payload: %w", ErrInvalidInput, v.Kind(), err)
		}
	}
	return v, nil
}
