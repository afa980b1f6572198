// Package identity maps external email addresses onto known customers.
package identity

import (
	"strings"

	customerrepo "github.com/cs-flytbase/support-sync/internal/customer/repository"
)

// Resolver resolves an email address to a customer ID. Exact contact
// email match takes precedence over company domain match; the first
// match wins and a miss is not an error.
type Resolver struct {
	customers customerrepo.CustomerRepository
}

func NewResolver(customers customerrepo.CustomerRepository) *Resolver {
	return &Resolver{customers: customers}
}

// Resolve returns the matching customer ID or nil when the address
// cannot be attributed. Addresses without '@' are skipped outright.
func (r *Resolver) Resolve(userID, email string) (*string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return nil, nil
	}

	customer, err := r.customers.FindByContactEmail(userID, email)
	if err != nil {
		return nil, err
	}
	if customer != nil {
		return &customer.ID, nil
	}

	domain := email[strings.LastIndex(email, "@")+1:]
	if domain == "" {
		return nil, nil
	}
	customer, err = r.customers.FindByWebsiteDomain(userID, domain)
	if err != nil {
		return nil, err
	}
	if customer != nil {
		return &customer.ID, nil
	}
	return nil, nil
}

// ResolveFirst tries a list of addresses in order and returns the
// first attribution. Used for events, where any attendee can anchor
// the event to a customer.
func (r *Resolver) ResolveFirst(userID string, emails []string) (*string, error) {
	seen := make(map[string]bool, len(emails))
	for _, email := range emails {
		key := strings.ToLower(strings.TrimSpace(email))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		customerID, err := r.Resolve(userID, key)
		if err != nil {
			return nil, err
		}
		if customerID != nil {
			return customerID, nil
		}
	}
	return nil, nil
}
