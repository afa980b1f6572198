package dto

// SyncRequest is the body of the sync trigger endpoints
type SyncRequest struct {
	SyncType string `json:"syncType"`
	DaysBack int    `json:"daysBack"`
}

// SyncResult is the outcome of one source sync. Errors holds
// per-record failures; the sync itself still succeeded.
type SyncResult struct {
	Source  string   `json:"source"`
	Mode    string   `json:"mode"`
	Synced  int      `json:"synced"`
	Deleted int      `json:"deleted"`
	Errors  []string `json:"errors,omitempty"`
}

// HubSpotSyncResult breaks the four-phase CRM sync down per phase
type HubSpotSyncResult struct {
	Companies    int      `json:"companies"`
	Contacts     int      `json:"contacts"`
	Deals        int      `json:"deals"`
	Associations int      `json:"associations"`
	Errors       []string `json:"errors,omitempty"`
}

// OrchestratedResult aggregates one full run across sources
type OrchestratedResult struct {
	RunID   string        `json:"run_id"`
	Status  string        `json:"status"`
	Results []*SyncResult `json:"results"`
	Errors  []string      `json:"errors,omitempty"`
}

// EmbeddingsRequest triggers a manual queue drain
type EmbeddingsRequest struct {
	BatchSize int `json:"batchSize"`
}

// CleanupRequest controls queue retention
type CleanupRequest struct {
	DaysOld int `json:"daysOld"`
}
