package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yourusername/sip2-acs-server/internal/sip2"
)

// accountFileEntry is the on-disk shape of one login account: a
// bcrypt hash, never a plaintext password.
type accountFileEntry struct {
	UID          string `json:"uid"`
	PasswordHash string `json:"password_hash"`
	ID           string `json:"id"`
	Institution  string `json:"institution"`
	PrintWidth   int    `json:"print_width"`
}

// loadAccounts reads the JSON account file at path into a lookup
// table keyed by login uid. An empty path seeds a single "term1"/
// "term1" development account whose bcrypt hash is generated at
// startup, so login still checks the password against that hash.
func loadAccounts(path string) (map[string]*sip2.Account, error) {
	if path == "" {
		hash, err := sip2.HashPassword("term1")
		if err != nil {
			return nil, err
		}
		return map[string]*sip2.Account{
			"term1": {UID: "term1", PasswordHash: hash, ID: "term1", Institution: "MAIN", PrintWidth: 40},
		}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var entries []accountFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	accounts := make(map[string]*sip2.Account, len(entries))
	for _, e := range entries {
		accounts[e.UID] = &sip2.Account{
			UID:          e.UID,
			PasswordHash: e.PasswordHash,
			ID:           e.ID,
			Institution:  e.Institution,
			PrintWidth:   e.PrintWidth,
		}
	}
	return accounts, nil
}
