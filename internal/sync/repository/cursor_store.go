package repository

import (
	"encoding/json"
	"fmt"

	integrationrepo "github.com/cs-flytbase/support-sync/internal/integration/repository"
	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
)

// metadataKey is where the cursor lives inside the integration
// metadata blob, alongside other provider settings.
const metadataKey = "sync_cursor"

// cursorStore keeps cursors in user_integrations.metadata so a user's
// provider connection and its sync progress travel together.
type cursorStore struct {
	integrations integrationrepo.IntegrationRepository
}

func NewCursorStore(integrations integrationrepo.IntegrationRepository) CursorStore {
	return &cursorStore{integrations: integrations}
}

func (s *cursorStore) load(userID, source string) (map[string]json.RawMessage, error) {
	raw, err := s.integrations.GetMetadata(userID, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load integration metadata: %w", err)
	}
	metadata := make(map[string]json.RawMessage)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &metadata); err != nil {
			return nil, fmt.Errorf("corrupt integration metadata: %w", err)
		}
	}
	return metadata, nil
}

func (s *cursorStore) store(userID, source string, metadata map[string]json.RawMessage) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal integration metadata: %w", err)
	}
	return s.integrations.SaveMetadata(userID, source, raw)
}

func (s *cursorStore) Get(userID, source string) (*syncdomain.CursorState, error) {
	metadata, err := s.load(userID, source)
	if err != nil {
		return nil, err
	}
	raw, ok := metadata[metadataKey]
	if !ok {
		return nil, nil
	}
	var state syncdomain.CursorState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("corrupt sync cursor: %w", err)
	}
	return &state, nil
}

// Save merges the given state onto the stored cursor. Concurrent
// writers for different sources touch different integration rows, so
// the read-merge-write here races only with itself per (user, source),
// which the orchestrator's single-flight guard already prevents.
func (s *cursorStore) Save(userID, source string, state syncdomain.CursorState) error {
	metadata, err := s.load(userID, source)
	if err != nil {
		return err
	}
	current := syncdomain.CursorState{}
	if raw, ok := metadata[metadataKey]; ok {
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("corrupt sync cursor: %w", err)
		}
	}
	current.Merge(state)
	raw, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to marshal sync cursor: %w", err)
	}
	metadata[metadataKey] = raw
	return s.store(userID, source, metadata)
}

func (s *cursorStore) Clear(userID, source string) error {
	metadata, err := s.load(userID, source)
	if err != nil {
		return err
	}
	if _, ok := metadata[metadataKey]; !ok {
		return nil
	}
	delete(metadata, metadataKey)
	return s.store(userID, source, metadata)
}
