// Package repository composes the blob store, cryptography, pack/index
// layers into the engine's external surface: Init/Open, the keyring, and
// the save/load operations named in §6. Grounded on the shape of
// internal/repository/repository_test.go (Init/Open/Key round-trips) and
// internal/repository/packer_manager_test.go (pack manager wiring), with
// fresh bodies for the spec's own commit/restore protocol.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/backend"
	"github.com/duskvault/duskvault/internal/crypto"
	"github.com/duskvault/duskvault/internal/data"
	"github.com/duskvault/duskvault/internal/debug"
	"github.com/duskvault/duskvault/internal/index"
	"github.com/duskvault/duskvault/internal/pack"
	"github.com/duskvault/duskvault/internal/reposerr"
)

const configPath = "config"

// Repository is a session-lived handle onto an initialized or opened
// backup repository. It exclusively owns the data key for its lifetime
// (§3 Ownership).
type Repository struct {
	store  backend.Store
	config data.RepoConfig
	key    crypto.Key
	index  *index.Manager
	packs  *pack.Manager
}

// Store returns the underlying blob store, for callers that need direct
// access to data/<hex> tree objects.
func (r *Repository) Store() backend.Store { return r.store }

// Key returns the session data key used to seal and unseal objects.
func (r *Repository) Key() crypto.Key { return r.key }

// Index returns the repository's index manager.
func (r *Repository) Index() *index.Manager { return r.index }

// Config returns the repository's configuration.
func (r *Repository) Config() data.RepoConfig { return r.config }

// Init creates a new repository at store: the directory layout, a fresh
// random salt and data key, and the first keyfile sealed under password
// (§4.8). It fails with ErrRepositoryExists if config already exists.
func Init(ctx context.Context, store backend.Store, password string) (*Repository, error) {
	if err := store.Init(ctx); err != nil {
		return nil, errors.Wrap(err, "Init: backend init")
	}

	exists, err := store.Exists(ctx, configPath)
	if err != nil {
		return nil, errors.Wrap(err, "Init: check config")
	}
	if exists {
		return nil, reposerr.ErrRepositoryExists
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, err
	}
	kdfParams := crypto.DefaultParams
	kdfParams.Salt = salt

	dataKey, err := crypto.NewRandomKey()
	if err != nil {
		return nil, errors.Wrap(err, "Init: new data key")
	}

	kek, err := crypto.DeriveKEK(password, kdfParams)
	if err != nil {
		return nil, errors.Wrap(err, "Init: derive KEK")
	}

	sealedDK, err := kek.Encrypt(dataKey[:])
	if err != nil {
		return nil, errors.Wrap(err, "Init: seal data key")
	}

	keyFile := data.KeyFile{EncryptedDataKey: sealedDK, KDFParams: kdfParams}
	keyFileBuf, err := keyFile.Marshal()
	if err != nil {
		return nil, err
	}

	keyID, err := newKeyID()
	if err != nil {
		return nil, err
	}
	if err := store.Put(ctx, "keys/"+keyID, keyFileBuf); err != nil {
		return nil, errors.Wrap(err, "Init: write keyfile")
	}

	cfg := data.RepoConfig{
		Version:   data.RepoVersion,
		RepoID:    keyID,
		ChunkAvg:  0, // 0 means "use the implementation default"
		KDFParams: kdfParams,
	}
	cfgBuf, err := cfg.Marshal()
	if err != nil {
		return nil, err
	}
	if err := store.Put(ctx, configPath, cfgBuf); err != nil {
		return nil, errors.Wrap(err, "Init: write config")
	}

	debug.Log("initialized repository, repo_id=%s", cfg.RepoID)

	return &Repository{
		store:  store,
		config: cfg,
		key:    dataKey,
		index:  index.NewManager(store),
		packs:  pack.NewManager(pack.DefaultCap),
	}, nil
}

// Open loads an existing repository's config, enumerates keys/ and tries
// each keyfile against password until one unseals (§4.8). It fails with
// ErrRepositoryNotFound if no config exists, ErrInvalidFormatVersion if the
// config's version is unsupported, and ErrInvalidPassword if no keyfile
// unseals.
func Open(ctx context.Context, store backend.Store, password string) (*Repository, error) {
	cfgBuf, err := store.Get(ctx, configPath)
	if err != nil {
		if store.IsNotExist(err) {
			return nil, reposerr.ErrRepositoryNotFound
		}
		return nil, errors.Wrap(err, "Open: read config")
	}

	cfg, err := data.ParseRepoConfig(cfgBuf)
	if err != nil {
		return nil, err
	}
	if cfg.Version != data.RepoVersion {
		return nil, reposerr.ErrInvalidFormatVersion
	}

	var dataKey crypto.Key
	var unsealed bool

	err = store.List(ctx, "keys/", func(path string, _ backend.Info) error {
		if unsealed {
			return nil
		}

		buf, err := store.Get(ctx, path)
		if err != nil {
			debug.Log("Open: reading keyfile %s failed: %v", path, err)
			return nil
		}

		keyFile, err := data.ParseKeyFile(buf)
		if err != nil {
			debug.Log("Open: parsing keyfile %s failed: %v", path, err)
			return nil
		}

		kek, err := crypto.DeriveKEK(password, keyFile.KDFParams)
		if err != nil {
			return nil
		}

		plain, err := kek.Decrypt(keyFile.EncryptedDataKey)
		if err != nil {
			return nil
		}
		if len(plain) != crypto.KeySize {
			return nil
		}

		copy(dataKey[:], plain)
		unsealed = true
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "Open: list keys")
	}

	if !unsealed {
		return nil, reposerr.ErrInvalidPassword
	}

	debug.Log("opened repository, repo_id=%s", cfg.RepoID)

	return &Repository{
		store:  store,
		config: *cfg,
		key:    dataKey,
		index:  index.NewManager(store),
		packs:  pack.NewManager(pack.DefaultCap),
	}, nil
}

func newKeyID() (string, error) {
	return uuid.NewString(), nil
}
