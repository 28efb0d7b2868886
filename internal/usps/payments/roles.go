package payments

import (
	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/common/validation"
	"usps-gateway/internal/config"
)

// RoleName is a party's role on a payment authorization
type RoleName string

const (
	RolePayer                 RoleName = "PAYER"
	RoleLabelOwner            RoleName = "LABEL_OWNER"
	RoleRateHolder            RoleName = "RATE_HOLDER"
	RoleShipper               RoleName = "SHIPPER"
	RoleMailOwner             RoleName = "MAIL_OWNER"
	RolePlatform              RoleName = "PLATFORM"
	RoleLabelProvider         RoleName = "LABEL_PROVIDER"
	RoleReturnLabelPayer      RoleName = "RETURN_LABEL_PAYER"
	RoleReturnLabelRateHolder RoleName = "RETURN_LABEL_RATE_HOLDER"
	RoleReturnLabelOwner      RoleName = "RETURN_LABEL_OWNER"
)

func (r RoleName) IsValid() bool {
	switch r {
	case RolePayer, RoleLabelOwner, RoleRateHolder, RoleShipper, RoleMailOwner, RolePlatform,
		RoleLabelProvider, RoleReturnLabelPayer, RoleReturnLabelRateHolder, RoleReturnLabelOwner:
		return true
	}
	return false
}

// AccountType is the kind of USPS payment account
type AccountType string

const (
	AccountEPS    AccountType = "EPS"
	AccountPermit AccountType = "PERMIT"
	AccountMeter  AccountType = "METER"
	AccountOMAS   AccountType = "OMAS"
)

func (a AccountType) IsValid() bool {
	switch a {
	case AccountEPS, AccountPermit, AccountMeter, AccountOMAS:
		return true
	}
	return false
}

// Role is one entry of a payment authorization request
type Role struct {
	RoleName      RoleName    `json:"roleName" validate:"required,enum"`
	CRID          string      `json:"CRID" validate:"required,min=2,max=18"`
	AccountType   AccountType `json:"accountType,omitempty" validate:"omitempty,enum"`
	AccountNumber string      `json:"accountNumber,omitempty" validate:"max=50"`
	MID           string      `json:"MID,omitempty" validate:"omitempty,len=6"`
	ManifestMID   string      `json:"manifestMID,omitempty" validate:"omitempty,len=6"`
}

type rolesRequest struct {
	Roles []Role `json:"roles" validate:"required,min=1,dive"`
}

// DefaultRoles are PAYER and LABEL_OWNER built from the account
func DefaultRoles(account config.Account) []Role {
	return []Role{
		payerRole(RolePayer, account),
		labelOwnerRole(account),
	}
}

// ReturnLabelRoles adds RETURN_LABEL_PAYER to the default roles
func ReturnLabelRoles(account config.Account) []Role {
	return []Role{
		payerRole(RolePayer, account),
		payerRole(RoleReturnLabelPayer, account),
		labelOwnerRole(account),
	}
}

func payerRole(name RoleName, account config.Account) Role {
	accountType := AccountType(account.AccountType)
	if accountType == "" {
		accountType = AccountEPS
	}
	return Role{
		RoleName:      name,
		CRID:          account.CRID,
		AccountType:   accountType,
		AccountNumber: account.AccountNumber,
	}
}

func labelOwnerRole(account config.Account) Role {
	manifest := account.ManifestMID
	if manifest == "" {
		manifest = account.MID
	}
	return Role{
		RoleName:    RoleLabelOwner,
		CRID:        account.CRID,
		MID:         account.MID,
		ManifestMID: manifest,
	}
}

// ValidateRoles checks every role's fields
func ValidateRoles(roles []Role) error {
	return validation.ValidateStruct(rolesRequest{Roles: roles})
}

// ValidateCustomRoles also requires the PAYER and LABEL_OWNER roles
func ValidateCustomRoles(roles []Role) error {
	if err := ValidateRoles(roles); err != nil {
		return err
	}
	var payer, owner bool
	for _, r := range roles {
		switch r.RoleName {
		case RolePayer:
			payer = true
		case RoleLabelOwner:
			owner = true
		}
	}
	if !payer || !owner {
		return errors.ValidationError("custom roles must include both PAYER and LABEL_OWNER roles")
	}
	return nil
}
