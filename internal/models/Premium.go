package models

import (
	"fmt"

	json "github.com/goccy/go-json"
)

type PremiumKind uint8

const (
	PremiumNone PremiumKind = iota
	PremiumGranted
	PremiumAdminOverride
)

func (k PremiumKind) String() string {
	switch k {
	case PremiumGranted:
		return "granted"
	case PremiumAdminOverride:
		return "admin_override"
	default:
		return "none"
	}
}

// PremiumStatus is either no premium, a paid grant carrying its order id,
// or an administrative override. The override is a separate variant, so no
// order id can ever be mistaken for it.
type PremiumStatus struct {
	kind    PremiumKind
	orderID string
}

func NoPremium() PremiumStatus {
	return PremiumStatus{}
}

func GrantedPremium(orderID string) PremiumStatus {
	if orderID == "" {
		return PremiumStatus{}
	}
	return PremiumStatus{kind: PremiumGranted, orderID: orderID}
}

func AdminOverride() PremiumStatus {
	return PremiumStatus{kind: PremiumAdminOverride}
}

// PremiumFromParts rebuilds a status from its persisted kind and order id.
func PremiumFromParts(kind PremiumKind, orderID string) (PremiumStatus, error) {
	switch kind {
	case PremiumNone:
		return NoPremium(), nil
	case PremiumGranted:
		if orderID == "" {
			return PremiumStatus{}, fmt.Errorf("granted premium without order id")
		}
		return GrantedPremium(orderID), nil
	case PremiumAdminOverride:
		return AdminOverride(), nil
	}
	return PremiumStatus{}, fmt.Errorf("unknown premium kind %d", kind)
}

func (p PremiumStatus) Kind() PremiumKind { return p.kind }
func (p PremiumStatus) OrderID() string   { return p.orderID }
func (p PremiumStatus) Active() bool      { return p.kind != PremiumNone }

type premiumJSON struct {
	Status  string `json:"status"`
	OrderID string `json:"orderId,omitempty"`
}

func (p PremiumStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(premiumJSON{Status: p.kind.String(), OrderID: p.orderID})
}

func (p *PremiumStatus) UnmarshalJSON(b []byte) error {
	var raw premiumJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch raw.Status {
	case "", "none":
		*p = NoPremium()
	case "granted":
		if raw.OrderID == "" {
			return fmt.Errorf("granted premium without order id")
		}
		*p = GrantedPremium(raw.OrderID)
	case "admin_override":
		*p = AdminOverride()
	default:
		return fmt.Errorf("unknown premium status %q", raw.Status)
	}
	return nil
}
