// Package hubspot is a minimal HubSpot CRM v3 client covering the
// object listing and association reads the sync engine needs.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cs-flytbase/support-sync/pkg/apiclient"
)

const (
	ObjectCompanies = "companies"
	ObjectContacts  = "contacts"
	ObjectDeals     = "deals"
)

// propertiesByObject lists the CRM properties each object sync reads.
var propertiesByObject = map[string][]string{
	ObjectCompanies: {"name", "domain", "website", "phone", "industry"},
	ObjectContacts:  {"email", "firstname", "lastname", "phone", "company"},
	ObjectDeals:     {"dealname", "amount", "dealstage", "pipeline", "closedate"},
}

// Object is one CRM record as returned by the v3 objects API
type Object struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Archived   bool              `json:"archived"`
}

// Page is one page of objects plus the cursor for the next page.
// After is empty on the final page.
type Page struct {
	Results []Object
	After   string
}

// Association links two CRM objects by their HubSpot IDs
type Association struct {
	FromID string
	ToID   string
	Type   string
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	api        *apiclient.Client
}

func NewClient(baseURL, apiKey string, api *apiclient.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		api:        api,
	}
}

func (c *Client) doJSON(ctx context.Context, userID, method, path string, query url.Values, payload, out interface{}) error {
	return c.api.Do(ctx, userID, "hubspot", func() error {
		var body io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("failed to marshal request: %w", err)
			}
			body = bytes.NewBuffer(data)
		}
		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, method, u, body)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &apiclient.TransientError{Source: "hubspot", Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(resp.Body)
			return apiclient.ClassifyStatus("hubspot", resp.StatusCode, string(data))
		}
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	})
}

// ListObjects fetches one page of a CRM object type using the `after`
// paging cursor.
func (c *Client) ListObjects(ctx context.Context, userID, objectType, after string, limit int) (*Page, error) {
	if limit <= 0 {
		limit = 100
	}
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", limit))
	for _, p := range propertiesByObject[objectType] {
		query.Add("properties", p)
	}
	if after != "" {
		query.Set("after", after)
	}

	var result struct {
		Results []Object `json:"results"`
		Paging  *struct {
			Next *struct {
				After string `json:"after"`
			} `json:"next"`
		} `json:"paging"`
	}
	err := c.doJSON(ctx, userID, http.MethodGet, "/crm/v3/objects/"+objectType, query, nil, &result)
	if err != nil {
		return nil, err
	}

	page := &Page{Results: result.Results}
	if result.Paging != nil && result.Paging.Next != nil {
		page.After = result.Paging.Next.After
	}
	return page, nil
}

// ListAssociations reads associations from a set of objects to a
// target type via the v4 batch endpoint.
func (c *Client) ListAssociations(ctx context.Context, userID, fromType, toType string, fromIDs []string) ([]Association, error) {
	if len(fromIDs) == 0 {
		return nil, nil
	}

	type inputID struct {
		ID string `json:"id"`
	}
	payload := struct {
		Inputs []inputID `json:"inputs"`
	}{}
	for _, id := range fromIDs {
		payload.Inputs = append(payload.Inputs, inputID{ID: id})
	}

	var result struct {
		Results []struct {
			From struct {
				ID string `json:"id"`
			} `json:"from"`
			To []struct {
				ToObjectID       json.Number `json:"toObjectId"`
				AssociationTypes []struct {
					Label string `json:"label"`
				} `json:"associationTypes"`
			} `json:"to"`
		} `json:"results"`
	}
	path := fmt.Sprintf("/crm/v4/associations/%s/%s/batch/read", fromType, toType)
	if err := c.doJSON(ctx, userID, http.MethodPost, path, nil, payload, &result); err != nil {
		return nil, err
	}

	var associations []Association
	for _, r := range result.Results {
		for _, to := range r.To {
			assocType := ""
			if len(to.AssociationTypes) > 0 {
				assocType = to.AssociationTypes[0].Label
			}
			associations = append(associations, Association{
				FromID: r.From.ID,
				ToID:   to.ToObjectID.String(),
				Type:   assocType,
			})
		}
	}
	return associations, nil
}
