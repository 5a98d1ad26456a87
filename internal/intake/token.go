package intake

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/nightdesk/backend/internal/models"
)

// EncodeToken packs a call state into a URL-safe string so it can travel in
// a provider callback URL when no server-side store is available.
func EncodeToken(state models.CallConversationState) (string, error) {
	b, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeToken(token string) (models.CallConversationState, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return models.CallConversationState{}, fmt.Errorf("decode state token: %w", err)
	}
	var state models.CallConversationState
	if err := json.Unmarshal(b, &state); err != nil {
		return models.CallConversationState{}, fmt.Errorf("decode state token: %w", err)
	}
	return state, nil
}
