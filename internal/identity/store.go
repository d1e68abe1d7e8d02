package identity

import "fmt"

// Store is the persisted key/value collaborator holding the installation
// identity. The underlying store restricts key names to short identifiers
// (observed limit 15 characters), so the keys below are short and stable.
type Store interface {
	// Get returns the value for key, whether the key exists, and any
	// storage-level error.
	Get(key string) ([]byte, bool, error)

	// Put stores value under key, replacing any existing value.
	Put(key string, value []byte) error
}

// Storage keys for the four identity fields. Never rename: existing
// installations would lose their registration.
const (
	keyInstallationID = "INST_ID"
	keySecret         = "INST_SECRET"
	keyPrivateKey     = "INST_PRIVKEY"
	keyPublicKey      = "INST_PUBKEY"
)

// Save persists all four identity fields to the store.
func Save(store Store, id *Identity) error {
	if err := store.Put(keyInstallationID, []byte(id.ID)); err != nil {
		return fmt.Errorf("saving installation id: %w", err)
	}
	if err := store.Put(keySecret, id.Secret); err != nil {
		return fmt.Errorf("saving secret: %w", err)
	}
	if err := store.Put(keyPrivateKey, id.PrivateKeyDER); err != nil {
		return fmt.Errorf("saving private key: %w", err)
	}
	if err := store.Put(keyPublicKey, id.PublicKeyDER); err != nil {
		return fmt.Errorf("saving public key: %w", err)
	}
	return nil
}

// Load reads the installation identity from the store.
//
// All four fields must be present and well-formed (secret exactly 32 bytes,
// key material non-empty). Anything less is reported as ErrIdentityMissing
// so the caller generates and registers a fresh identity; a partially
// persisted identity is never returned.
//
// Returns:
//   - *Identity: Complete loaded identity
//   - error: ErrIdentityMissing if absent or partial, or a storage error
func Load(store Store) (*Identity, error) {
	id, ok, err := store.Get(keyInstallationID)
	if err != nil {
		return nil, fmt.Errorf("loading installation id: %w", err)
	}
	if !ok || len(id) == 0 {
		return nil, ErrIdentityMissing
	}

	secret, ok, err := store.Get(keySecret)
	if err != nil {
		return nil, fmt.Errorf("loading secret: %w", err)
	}
	if !ok || len(secret) != SecretLength {
		return nil, ErrIdentityMissing
	}

	privDER, ok, err := store.Get(keyPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("loading private key: %w", err)
	}
	if !ok || len(privDER) == 0 {
		return nil, ErrIdentityMissing
	}

	pubDER, ok, err := store.Get(keyPublicKey)
	if err != nil {
		return nil, fmt.Errorf("loading public key: %w", err)
	}
	if !ok || len(pubDER) == 0 {
		return nil, ErrIdentityMissing
	}

	return &Identity{
		ID:            string(id),
		Secret:        secret,
		PrivateKeyDER: privDER,
		PublicKeyDER:  pubDER,
	}, nil
}
