package session

import (
	"sync"
	"time"
)

type CaptureKind int

const (
	CaptureNone CaptureKind = iota
	// CaptureCustomerInfo waits for name/phone/address lines during checkout.
	CaptureCustomerInfo
	// CaptureSupportIssue waits for a free-text support question.
	CaptureSupportIssue
)

func (k CaptureKind) String() string {
	switch k {
	case CaptureCustomerInfo:
		return "customer_info"
	case CaptureSupportIssue:
		return "support_issue"
	default:
		return "none"
	}
}

// Capture is a pending continuation for the next free-text message of a chat.
// It is plain data so the text router can switch on Kind.
type Capture struct {
	Kind         CaptureKind
	MethodID     string
	OrderNumber  string
	RegisteredAt time.Time
}

// Captures holds at most one pending capture per chat.
type Captures struct {
	clock Clock
	m     sync.Map // int64 -> Capture
}

func NewCaptures(clock Clock) *Captures {
	if clock == nil {
		clock = RealClock()
	}
	return &Captures{clock: clock}
}

// Register installs c for chatID, silently replacing any earlier capture.
func (s *Captures) Register(chatID int64, c Capture) {
	c.RegisteredAt = s.clock.Now()
	s.m.Store(chatID, c)
}

// Take removes and returns the pending capture. The second call for the same
// registration reports false.
func (s *Captures) Take(chatID int64) (Capture, bool) {
	v, ok := s.m.LoadAndDelete(chatID)
	if !ok {
		return Capture{}, false
	}
	return v.(Capture), true
}

func (s *Captures) Peek(chatID int64) (Capture, bool) {
	v, ok := s.m.Load(chatID)
	if !ok {
		return Capture{}, false
	}
	return v.(Capture), true
}

func (s *Captures) Cancel(chatID int64) {
	s.m.Delete(chatID)
}
