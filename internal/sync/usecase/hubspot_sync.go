package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	integrationdomain "github.com/cs-flytbase/support-sync/internal/integration/domain"
	integrationrepo "github.com/cs-flytbase/support-sync/internal/integration/repository"
	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
	"github.com/cs-flytbase/support-sync/internal/sync/dto"
	syncrepo "github.com/cs-flytbase/support-sync/internal/sync/repository"
	"github.com/cs-flytbase/support-sync/pkg/hubspot"
)

const (
	hubspotPageSize       = 100
	hubspotAssocChunkSize = 100
)

// HubSpotSyncService walks the CRM in four phases: companies,
// contacts, deals, then associations. The association phase only runs
// once all three object tables have rows, because association rows
// reference records by HubSpot ID.
type HubSpotSyncService struct {
	integrations integrationrepo.IntegrationRepository
	cursors      syncrepo.CursorStore
	crm          syncrepo.CRMRepository
	provider     syncdomain.HubSpotProvider
}

func NewHubSpotSyncService(
	integrations integrationrepo.IntegrationRepository,
	cursors syncrepo.CursorStore,
	crm syncrepo.CRMRepository,
	provider syncdomain.HubSpotProvider,
) *HubSpotSyncService {
	return &HubSpotSyncService{
		integrations: integrations,
		cursors:      cursors,
		crm:          crm,
		provider:     provider,
	}
}

func (s *HubSpotSyncService) Source() string { return integrationdomain.PlatformHubSpot }

// Sync implements SourceSyncer. HubSpot's list APIs have no delta
// variant, so incremental mode still walks every object; the paging
// cursor is persisted per page, which lets an interrupted walk resume
// where it stopped instead of starting over.
func (s *HubSpotSyncService) Sync(ctx context.Context, userID string, opts SyncOptions) (*dto.SyncResult, error) {
	detail, err := s.SyncAll(ctx, userID)
	result := &dto.SyncResult{Source: integrationdomain.PlatformHubSpot, Mode: string(opts.Mode)}
	if detail != nil {
		result.Synced = detail.Companies + detail.Contacts + detail.Deals + detail.Associations
		result.Errors = detail.Errors
	}
	return result, err
}

// SyncAll runs the four phases and reports per-phase counts.
func (s *HubSpotSyncService) SyncAll(ctx context.Context, userID string) (*dto.HubSpotSyncResult, error) {
	if _, err := loadIntegration(s.integrations, userID, integrationdomain.PlatformHubSpot); err != nil {
		return nil, err
	}
	result := &dto.HubSpotSyncResult{}

	resumePhase, resumeAfter := s.resumePoint(userID)

	phases := []struct {
		object string
		write  func([]hubspot.Object) (int, []string)
	}{
		{hubspot.ObjectCompanies, func(objs []hubspot.Object) (int, []string) {
			return s.writeCompanies(userID, objs)
		}},
		{hubspot.ObjectContacts, func(objs []hubspot.Object) (int, []string) {
			return s.writeContacts(userID, objs)
		}},
		{hubspot.ObjectDeals, func(objs []hubspot.Object) (int, []string) {
			return s.writeDeals(userID, objs)
		}},
	}

	counts := map[string]*int{
		hubspot.ObjectCompanies: &result.Companies,
		hubspot.ObjectContacts:  &result.Contacts,
		hubspot.ObjectDeals:     &result.Deals,
	}
	resumed := resumePhase == ""
	for _, phase := range phases {
		after := ""
		if !resumed {
			if phase.object != resumePhase {
				continue
			}
			after = resumeAfter
			resumed = true
		}
		written, err := s.walkObjects(ctx, userID, phase.object, after, phase.write, result)
		*counts[phase.object] += written
		if err != nil {
			deactivateOnAuthError(s.integrations, userID, integrationdomain.PlatformHubSpot, err)
			return result, err
		}
	}

	// A resumed walk skipped earlier phases; their counts stay zero
	// but the rows are already in place from the interrupted run.
	associations, err := s.linkAssociations(ctx, userID, result)
	result.Associations = associations
	if err != nil {
		return result, err
	}

	now := time.Now()
	if err := s.cursors.Clear(userID, integrationdomain.PlatformHubSpot); err != nil {
		return result, err
	}
	if err := s.cursors.Save(userID, integrationdomain.PlatformHubSpot, syncdomain.CursorState{
		LastFullSyncAt: &now,
	}); err != nil {
		return result, fmt.Errorf("failed to save hubspot cursor: %w", err)
	}
	if touchErr := s.integrations.TouchLastSync(userID, integrationdomain.PlatformHubSpot, now); touchErr != nil {
		log.Printf("[HubSpotSync] failed to update last_sync_at for user %s: %v", userID, touchErr)
	}
	return result, nil
}

// resumePoint decodes the stored "phase:after" progress marker.
func (s *HubSpotSyncService) resumePoint(userID string) (phase, after string) {
	state, err := s.cursors.Get(userID, integrationdomain.PlatformHubSpot)
	if err != nil || state == nil || state.After == "" {
		return "", ""
	}
	phase, after, found := strings.Cut(state.After, ":")
	if !found {
		return "", ""
	}
	return phase, after
}

func (s *HubSpotSyncService) walkObjects(ctx context.Context, userID, objectType, after string, write func([]hubspot.Object) (int, []string), result *dto.HubSpotSyncResult) (int, error) {
	total := 0
	for {
		page, err := s.provider.ListObjects(ctx, userID, objectType, after, hubspotPageSize)
		if err != nil {
			return total, err
		}
		written, errs := write(page.Results)
		total += written
		result.Errors = append(result.Errors, errs...)

		if page.After == "" {
			return total, nil
		}
		after = page.After
		// Persist progress so a crashed walk resumes at this page.
		if err := s.cursors.Save(userID, integrationdomain.PlatformHubSpot, syncdomain.CursorState{
			After: objectType + ":" + after,
		}); err != nil {
			log.Printf("[HubSpotSync] failed to save paging cursor: %v", err)
		}
	}
}

func (s *HubSpotSyncService) writeCompanies(userID string, objs []hubspot.Object) (int, []string) {
	var rows []*syncdomain.Company
	var errs []string
	for _, obj := range objs {
		row, err := transformCompany(userID, obj)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", obj.ID, err))
			continue
		}
		rows = append(rows, row)
	}
	written, upsertErrs := s.crm.UpsertCompanies(rows)
	return written, append(errs, upsertErrs...)
}

func (s *HubSpotSyncService) writeContacts(userID string, objs []hubspot.Object) (int, []string) {
	var rows []*syncdomain.Contact
	var errs []string
	for _, obj := range objs {
		row, err := transformContact(userID, obj)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", obj.ID, err))
			continue
		}
		rows = append(rows, row)
	}
	written, upsertErrs := s.crm.UpsertContacts(rows)
	return written, append(errs, upsertErrs...)
}

func (s *HubSpotSyncService) writeDeals(userID string, objs []hubspot.Object) (int, []string) {
	var rows []*syncdomain.Deal
	var errs []string
	for _, obj := range objs {
		row, err := transformDeal(userID, obj)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", obj.ID, err))
			continue
		}
		rows = append(rows, row)
	}
	written, upsertErrs := s.crm.UpsertDeals(rows)
	return written, append(errs, upsertErrs...)
}

// linkAssociations runs phase four. Skipped with a note when any
// object table is still empty, since half-linked data is worse than
// unlinked data.
func (s *HubSpotSyncService) linkAssociations(ctx context.Context, userID string, result *dto.HubSpotSyncResult) (int, error) {
	companies, contacts, deals, err := s.crm.Counts(userID)
	if err != nil {
		return 0, err
	}
	if companies == 0 || contacts == 0 || deals == 0 {
		log.Printf("[HubSpotSync] skipping associations for user %s: companies=%d contacts=%d deals=%d", userID, companies, contacts, deals)
		return 0, nil
	}

	total := 0
	pairs := []struct{ fromObject, toObject string }{
		{hubspot.ObjectDeals, hubspot.ObjectCompanies},
		{hubspot.ObjectDeals, hubspot.ObjectContacts},
		{hubspot.ObjectContacts, hubspot.ObjectCompanies},
	}
	for _, pair := range pairs {
		fromIDs, err := s.crm.ListHubSpotIDs(userID, pair.fromObject)
		if err != nil {
			return total, err
		}
		toIDs, err := s.crm.ListHubSpotIDs(userID, pair.toObject)
		if err != nil {
			return total, err
		}
		known := make(map[string]bool, len(toIDs))
		for _, id := range toIDs {
			known[id] = true
		}
		for start := 0; start < len(fromIDs); start += hubspotAssocChunkSize {
			end := start + hubspotAssocChunkSize
			if end > len(fromIDs) {
				end = len(fromIDs)
			}
			assocs, err := s.provider.ListAssociations(ctx, userID, pair.fromObject, pair.toObject, fromIDs[start:end])
			if err != nil {
				return total, err
			}
			rows := make([]*syncdomain.Association, 0, len(assocs))
			for _, assoc := range assocs {
				// The provider can reference a record we never synced;
				// a dangling edge is worse than a missing one.
				if !known[assoc.ToID] {
					continue
				}
				rows = append(rows, &syncdomain.Association{
					UserID:          userID,
					FromType:        pair.fromObject,
					FromID:          assoc.FromID,
					ToType:          pair.toObject,
					ToID:            assoc.ToID,
					AssociationType: assoc.Type,
				})
			}
			written, errs := s.crm.UpsertAssociations(rows)
			total += written
			result.Errors = append(result.Errors, errs...)
		}
	}
	return total, nil
}
