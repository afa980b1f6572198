package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	customerdomain "github.com/cs-flytbase/support-sync/internal/customer/domain"
)

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) FindByContactEmail(userID, email string) (*customerdomain.Customer, error) {
	var customer customerdomain.Customer
	err := r.db.
		Joins("JOIN customer_contacts ON customer_contacts.customer_id = customers.id").
		Where("customers.user_id = ? AND LOWER(customer_contacts.email) = ?", userID, strings.ToLower(email)).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByWebsiteDomain(userID, domain string) (*customerdomain.Customer, error) {
	var customer customerdomain.Customer
	err := r.db.
		Where("user_id = ? AND website ILIKE ?", userID, "%"+domain+"%").
		Order("created_at").
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Create(customer *customerdomain.Customer) error {
	customer.ID = uuid.New().String()
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = time.Now()
	return r.db.Create(customer).Error
}

func (r *customerRepository) CreateContact(contact *customerdomain.CustomerContact) error {
	contact.ID = uuid.New().String()
	contact.CreatedAt = time.Now()
	contact.UpdatedAt = time.Now()
	return r.db.Create(contact).Error
}
