package idhash

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"

	"bikeshare-report/internal/domain"
)

// DatasetVersion fingerprints a trip table: SHA256 over the ordered trip ids,
// base58-encoded. Two runs over the same rows in the same order share a version.
func DatasetVersion(trips []*domain.TripRecord) string {
	h := sha256.New()
	for _, t := range trips {
		h.Write([]byte(t.TripID))
		h.Write([]byte{'\n'})
	}
	return base58.Encode(h.Sum(nil))
}
