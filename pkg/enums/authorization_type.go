package enums

import "fmt"

// AuthorizationType distinguishes instant card/bank authorization from
// voucher-based mobile-money flows that carry an expiry window.
type AuthorizationType string

const (
	AuthorizationTypeStandard AuthorizationType = "standard"
	AuthorizationTypeVoucher  AuthorizationType = "voucher"
)

var validAuthorizationTypes = []AuthorizationType{
	AuthorizationTypeStandard,
	AuthorizationTypeVoucher,
}

// IsValid reports whether the value is a known AuthorizationType.
func (a AuthorizationType) IsValid() bool {
	for _, candidate := range validAuthorizationTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuthorizationType converts raw input into an AuthorizationType.
func ParseAuthorizationType(value string) (AuthorizationType, error) {
	for _, candidate := range validAuthorizationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid authorization type %q", value)
}
