package reconciliation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/iho/reconledger/internal/domain"
)

// Fingerprint identifies statement content. Raw bytes are hashed when present,
// otherwise the canonical JSON encoding of rows and metadata.
func Fingerprint(in domain.StatementInput) (string, error) {
	payload := in.Raw
	if len(payload) == 0 {
		b, err := json.Marshal(struct {
			Rows     []domain.RawRow          `json:"rows"`
			Metadata domain.StatementMetadata `json:"metadata"`
		}{in.Rows, in.Metadata})
		if err != nil {
			return "", err
		}
		payload = b
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
