package domain

import "time"

// CursorState is the per-(user, source) incremental watermark. Each
// provider uses the fields relevant to it; saving merges onto whatever
// is already stored so one source never clobbers another's progress.
type CursorState struct {
	HistoryID          string            `json:"history_id,omitempty"`
	CalendarSyncTokens map[string]string `json:"calendar_sync_tokens,omitempty"`
	After              string            `json:"after,omitempty"`
	ChannelCursors     map[string]string `json:"channel_cursors,omitempty"`
	LastFullSyncAt     *time.Time        `json:"last_full_sync_at,omitempty"`
	LastIncrementalAt  *time.Time        `json:"last_incremental_at,omitempty"`
}

// Merge overlays other onto c, field by field. Zero values in other
// leave the existing value untouched; map entries merge per key.
func (c *CursorState) Merge(other CursorState) {
	if other.HistoryID != "" {
		c.HistoryID = other.HistoryID
	}
	if other.After != "" {
		c.After = other.After
	}
	if len(other.CalendarSyncTokens) > 0 {
		if c.CalendarSyncTokens == nil {
			c.CalendarSyncTokens = make(map[string]string)
		}
		for k, v := range other.CalendarSyncTokens {
			c.CalendarSyncTokens[k] = v
		}
	}
	if len(other.ChannelCursors) > 0 {
		if c.ChannelCursors == nil {
			c.ChannelCursors = make(map[string]string)
		}
		for k, v := range other.ChannelCursors {
			c.ChannelCursors[k] = v
		}
	}
	if other.LastFullSyncAt != nil {
		c.LastFullSyncAt = other.LastFullSyncAt
	}
	if other.LastIncrementalAt != nil {
		c.LastIncrementalAt = other.LastIncrementalAt
	}
}
