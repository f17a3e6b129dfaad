package model

import (
	"strings"
	"time"
)

// NoCustomerInfo is stored for delivery methods that do not need an address.
const NoCustomerInfo = "-"

// CustomerInfo is parsed positionally from free text:
// line 1 name, line 2 phone, remaining lines address. It is never validated.
type CustomerInfo struct {
	Name    string
	Phone   string
	Address string
	Raw     string
}

// ParseCustomerInfo applies the fixed positional rules: line 1 is the name,
// line 2 the phone and every remaining line the address. Lines keep their
// positions, so a blank line 2 leaves the phone empty.
func ParseCustomerInfo(text string) CustomerInfo {
	info := CustomerInfo{Raw: text}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	info.Name = lines[0]
	if len(lines) > 1 {
		info.Phone = lines[1]
	}
	if len(lines) > 2 {
		info.Address = strings.TrimSpace(strings.Join(lines[2:], "\n"))
	}
	return info
}

// PlaceholderCustomerInfo is the synthetic record used by pickup-style methods.
func PlaceholderCustomerInfo() CustomerInfo {
	return CustomerInfo{Name: NoCustomerInfo, Phone: NoCustomerInfo, Address: NoCustomerInfo, Raw: NoCustomerInfo}
}

func (c CustomerInfo) IsPlaceholder() bool { return c.Raw == NoCustomerInfo }

// CheckoutDraft carries what the callback token cannot: the selected delivery
// method and customer info for one (chat, order number) pair.
type CheckoutDraft struct {
	ChatID           int64
	OrderNumber      string
	DeliveryMethodID string
	PaymentMethodID  string
	Customer         CustomerInfo
	CreatedAt        time.Time
}
