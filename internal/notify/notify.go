// Package notify tells the sales team about new leads.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Lead is a new lead-gen submission.
type Lead struct {
	Kind     string
	Email    string
	Topic    string
	Model    string
	Previous int // earlier submissions from the same email
}

// Text renders the lead as a short plain-text message.
func (l Lead) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "New %s lead\n", l.Kind)
	fmt.Fprintf(&b, "Email: %s\n", l.Email)
	fmt.Fprintf(&b, "Topic: %s\n", l.Topic)
	if l.Model != "" {
		fmt.Fprintf(&b, "Model: %s\n", l.Model)
	}
	if l.Previous > 0 {
		fmt.Fprintf(&b, "Returning lead (%d earlier)\n", l.Previous)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Notifier delivers lead notifications.
type Notifier interface {
	NotifyLead(ctx context.Context, lead Lead) error
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyLead(context.Context, Lead) error { return nil }

// MockNotifier is a test double for Notifier.
type MockNotifier struct {
	Err error

	mu    sync.Mutex
	leads []Lead
}

func (m *MockNotifier) NotifyLead(_ context.Context, lead Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads = append(m.leads, lead)
	return m.Err
}

// Leads returns every lead received so far.
func (m *MockNotifier) Leads() []Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Lead(nil), m.leads...)
}
