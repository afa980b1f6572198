package repository

import (
	customerdomain "github.com/cs-flytbase/support-sync/internal/customer/domain"
)

// CustomerRepository defines lookups used by identity resolution
type CustomerRepository interface {
	// FindByContactEmail returns the customer owning a contact with this
	// exact email, or (nil, nil)
	FindByContactEmail(userID, email string) (*customerdomain.Customer, error)
	// FindByWebsiteDomain returns the first customer whose website
	// contains the domain, or (nil, nil)
	FindByWebsiteDomain(userID, domain string) (*customerdomain.Customer, error)
	Create(customer *customerdomain.Customer) error
	CreateContact(contact *customerdomain.CustomerContact) error
}
