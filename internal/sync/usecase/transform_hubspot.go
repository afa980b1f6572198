package usecase

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
	"github.com/cs-flytbase/support-sync/pkg/hubspot"
)

// normalizeStage flattens a pipeline stage for comparison: custom
// pipelines spell the same stage "Closed Won", "closed-won" or
// "closedwon" interchangeably.
func normalizeStage(stage string) string {
	stage = strings.ToLower(stage)
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(stage)
}

func isClosedStage(stage string) bool {
	return strings.Contains(normalizeStage(stage), "closed")
}

func isClosedWonStage(stage string) bool {
	return normalizeStage(stage) == "closedwon"
}

func transformCompany(userID string, obj hubspot.Object) (*syncdomain.Company, error) {
	if obj.ID == "" {
		return nil, fmt.Errorf("company has no id")
	}
	return &syncdomain.Company{
		UserID:    userID,
		HubSpotID: obj.ID,
		Name:      obj.Properties["name"],
		Domain:    obj.Properties["domain"],
		Website:   obj.Properties["website"],
		Phone:     obj.Properties["phone"],
		Industry:  obj.Properties["industry"],
		RawData:   mustJSON(obj),
	}, nil
}

func transformContact(userID string, obj hubspot.Object) (*syncdomain.Contact, error) {
	if obj.ID == "" {
		return nil, fmt.Errorf("contact has no id")
	}
	return &syncdomain.Contact{
		UserID:    userID,
		HubSpotID: obj.ID,
		Email:     obj.Properties["email"],
		FirstName: obj.Properties["firstname"],
		LastName:  obj.Properties["lastname"],
		Phone:     obj.Properties["phone"],
		Company:   obj.Properties["company"],
		RawData:   mustJSON(obj),
	}, nil
}

// transformDeal normalizes a deal. A malformed amount or close date is
// dropped, not an error; the rest of the record is still worth keeping.
func transformDeal(userID string, obj hubspot.Object) (*syncdomain.Deal, error) {
	if obj.ID == "" {
		return nil, fmt.Errorf("deal has no id")
	}
	stage := obj.Properties["dealstage"]
	deal := &syncdomain.Deal{
		UserID:      userID,
		HubSpotID:   obj.ID,
		Name:        obj.Properties["dealname"],
		Stage:       stage,
		Pipeline:    obj.Properties["pipeline"],
		IsClosed:    isClosedStage(stage),
		IsClosedWon: isClosedWonStage(stage),
		RawData:     mustJSON(obj),
	}
	if raw := obj.Properties["amount"]; raw != "" {
		if amount, err := strconv.ParseFloat(raw, 64); err == nil {
			deal.Amount = &amount
		}
	}
	if raw := obj.Properties["closedate"]; raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			deal.CloseDate = &t
		} else if t, err := time.Parse("2006-01-02", raw); err == nil {
			deal.CloseDate = &t
		}
	}
	return deal, nil
}
