// Package securefile reads and writes password-encrypted JSON documents.
// Keys are derived with Argon2id and payloads sealed with XChaCha20-Poly1305.
// Writes go through a temp file and a rename so a crash never leaves a torn file.
package securefile

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/xsphere-io/cardlegends-client/internal/constants"
)

// ErrInvalidPasswordOrCorrupt is returned when the envelope cannot be opened.
var ErrInvalidPasswordOrCorrupt = errors.New("invalid password or corrupted file")

const envelopeVersion = 1

// KDFParams is the on-disk envelope: KDF settings plus the sealed payload.
type KDFParams struct {
	Version int `json:"version"`

	ArgonTime    uint32 `json:"argon_time"`
	ArgonMemory  uint32 `json:"argon_memory_kib"`
	ArgonThreads uint8  `json:"argon_threads"`
	ArgonKeyLen  uint32 `json:"argon_key_len"`

	SaltB64  string `json:"salt_b64"`
	NonceB64 string `json:"nonce_b64"`
	CTB64    string `json:"ct_b64"`
}

var DefaultKDF = KDFParams{
	Version:      envelopeVersion,
	ArgonTime:    2,
	ArgonMemory:  64 * 1024,
	ArgonThreads: 1,
	ArgonKeyLen:  32,
}

// Options tunes encryption. Zero fields fall back to defaults.
type Options struct {
	KDF KDFParams

	FilePerm      os.FileMode
	DirectoryPerm os.FileMode

	// AAD is bound to the ciphertext and must be identical on read and write.
	AAD []byte
}

func (o Options) withDefaults() Options {
	if o.KDF.Version == 0 {
		o.KDF = DefaultKDF
	}
	if o.FilePerm == 0 {
		o.FilePerm = constants.FilePerm
	}
	if o.DirectoryPerm == 0 {
		o.DirectoryPerm = constants.DirectoryPerm
	}
	return o
}

// WriteEncryptedJSON marshals v, seals it under password and writes it atomically to path.
func WriteEncryptedJSON[T any](path string, v T, password []byte, opt Options) error {
	o := opt.withDefaults()
	if o.KDF.Version != envelopeVersion {
		return fmt.Errorf("unsupported kdf version: %d", o.KDF.Version)
	}
	if len(password) == 0 {
		return errors.New("empty password")
	}

	plain, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	env, err := seal(plain, password, o)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), o.DirectoryPerm); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	return atomicWriteFile(path, b, o.FilePerm)
}

// ReadEncryptedJSON opens the envelope at path and unmarshals the payload into T.
// A missing file surfaces as an error matching os.ErrNotExist.
func ReadEncryptedJSON[T any](path string, password []byte, opt Options) (T, error) {
	var zero T
	o := opt.withDefaults()

	b, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("read file: %w", err)
	}

	var env KDFParams
	if err := json.Unmarshal(b, &env); err != nil {
		return zero, fmt.Errorf("unmarshal envelope: %w", err)
	}

	plain, err := open(env, password, o)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(plain, &out); err != nil {
		return zero, fmt.Errorf("unmarshal json: %w", err)
	}
	return out, nil
}

func seal(plain, password []byte, o Options) (KDFParams, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return KDFParams{}, fmt.Errorf("rand salt: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return KDFParams{}, fmt.Errorf("rand nonce: %w", err)
	}

	key := argon2.IDKey(password, salt, o.KDF.ArgonTime, o.KDF.ArgonMemory, o.KDF.ArgonThreads, o.KDF.ArgonKeyLen)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return KDFParams{}, fmt.Errorf("aead: %w", err)
	}

	env := o.KDF
	env.SaltB64 = base64.StdEncoding.EncodeToString(salt)
	env.NonceB64 = base64.StdEncoding.EncodeToString(nonce)
	env.CTB64 = base64.StdEncoding.EncodeToString(aead.Seal(nil, nonce, plain, o.AAD))
	return env, nil
}

func open(env KDFParams, password []byte, o Options) ([]byte, error) {
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported file version: %d", env.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(env.SaltB64)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.NonceB64)
	if err != nil {
		return nil, fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(env.CTB64)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(nonce) != chacha20poly1305.NonceSizeX {
		return nil, ErrInvalidPasswordOrCorrupt
	}

	key := argon2.IDKey(password, salt, env.ArgonTime, env.ArgonMemory, env.ArgonThreads, env.ArgonKeyLen)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrInvalidPasswordOrCorrupt
	}

	plain, err := aead.Open(nil, nonce, ct, o.AAD)
	if err != nil {
		return nil, ErrInvalidPasswordOrCorrupt
	}
	return plain, nil
}

// ConfigPathCandidates returns where app keeps filename, most preferred first:
// $SNAP_REAL_HOME/.config/<app>, $HOME/.config/<app>, then os.UserConfigDir()/<app>.
func ConfigPathCandidates(app, filename string) ([]string, error) {
	if app == "" {
		return nil, errors.New("app must not be empty")
	}
	if filename == "" {
		return nil, errors.New("filename must not be empty")
	}

	var paths []string
	seen := map[string]bool{}
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	if realHome := os.Getenv("SNAP_REAL_HOME"); realHome != "" {
		add(filepath.Join(realHome, ".config", app, filename))
	}
	if home := os.Getenv("HOME"); home != "" {
		add(filepath.Join(home, ".config", app, filename))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		add(filepath.Join(dir, app, filename))
	} else if len(paths) == 0 {
		return nil, fmt.Errorf("UserConfigDir: %w", err)
	}

	return paths, nil
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
