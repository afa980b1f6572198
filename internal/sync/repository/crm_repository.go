package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
)

type crmRepository struct {
	db *gorm.DB
}

func NewCRMRepository(db *gorm.DB) CRMRepository {
	return &crmRepository{db: db}
}

func (r *crmRepository) UpsertCompanies(companies []*syncdomain.Company) (int, []string) {
	now := time.Now()
	for _, company := range companies {
		if company.ID == "" {
			company.ID = uuid.New().String()
			company.CreatedAt = now
		}
		company.UpdatedAt = now
	}
	deduped := dedupeByKey(companies, func(c *syncdomain.Company) string { return c.HubSpotID })
	return upsertRows(r.db, "hub_spot_id", deduped, func(c *syncdomain.Company) string { return c.HubSpotID })
}

func (r *crmRepository) UpsertContacts(contacts []*syncdomain.Contact) (int, []string) {
	now := time.Now()
	for _, contact := range contacts {
		if contact.ID == "" {
			contact.ID = uuid.New().String()
			contact.CreatedAt = now
		}
		contact.UpdatedAt = now
	}
	deduped := dedupeByKey(contacts, func(c *syncdomain.Contact) string { return c.HubSpotID })
	return upsertRows(r.db, "hub_spot_id", deduped, func(c *syncdomain.Contact) string { return c.HubSpotID })
}

func (r *crmRepository) UpsertDeals(deals []*syncdomain.Deal) (int, []string) {
	now := time.Now()
	for _, deal := range deals {
		if deal.ID == "" {
			deal.ID = uuid.New().String()
			deal.CreatedAt = now
		}
		deal.UpdatedAt = now
	}
	deduped := dedupeByKey(deals, func(d *syncdomain.Deal) string { return d.HubSpotID })
	return upsertRows(r.db, "hub_spot_id", deduped, func(d *syncdomain.Deal) string { return d.HubSpotID })
}

func (r *crmRepository) UpsertAssociations(associations []*syncdomain.Association) (int, []string) {
	now := time.Now()
	for _, assoc := range associations {
		if assoc.ID == "" {
			assoc.ID = uuid.New().String()
			assoc.CreatedAt = now
		}
	}
	assocKey := func(a *syncdomain.Association) string {
		return a.FromType + ":" + a.FromID + ">" + a.ToType + ":" + a.ToID + "@" + a.AssociationType
	}
	deduped := dedupeByKey(associations, assocKey)

	// Composite conflict target, so the shared helper does not apply.
	written := 0
	var errs []string
	for _, assoc := range deduped {
		err := r.db.Where(
			"from_type = ? AND from_id = ? AND to_type = ? AND to_id = ? AND association_type = ?",
			assoc.FromType, assoc.FromID, assoc.ToType, assoc.ToID, assoc.AssociationType,
		).FirstOrCreate(assoc).Error
		if err != nil {
			errs = append(errs, assocKey(assoc)+": "+err.Error())
			continue
		}
		written++
	}
	return written, errs
}

func (r *crmRepository) ListHubSpotIDs(userID, objectType string) ([]string, error) {
	var model interface{}
	switch objectType {
	case "companies":
		model = &syncdomain.Company{}
	case "contacts":
		model = &syncdomain.Contact{}
	case "deals":
		model = &syncdomain.Deal{}
	default:
		return nil, fmt.Errorf("unknown object type %q", objectType)
	}
	var ids []string
	err := r.db.Model(model).Where("user_id = ?", userID).Pluck("hub_spot_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *crmRepository) Counts(userID string) (int64, int64, int64, error) {
	var companies, contacts, deals int64
	if err := r.db.Model(&syncdomain.Company{}).Where("user_id = ?", userID).Count(&companies).Error; err != nil {
		return 0, 0, 0, err
	}
	if err := r.db.Model(&syncdomain.Contact{}).Where("user_id = ?", userID).Count(&contacts).Error; err != nil {
		return 0, 0, 0, err
	}
	if err := r.db.Model(&syncdomain.Deal{}).Where("user_id = ?", userID).Count(&deals).Error; err != nil {
		return 0, 0, 0, err
	}
	return companies, contacts, deals, nil
}
