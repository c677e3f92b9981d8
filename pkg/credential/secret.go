// Package credential models API secrets that are resolved to plain text
// only at the moment they are needed, never stored resolved.
package credential

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// Sentinel errors for secret construction and resolution.
var (
	// ErrNoSecret is returned when a Secret has no source configured.
	ErrNoSecret = errors.New("no secret source configured")

	// ErrAmbiguousSecret is returned when a Secret has more than one source
	// configured. Exactly one of plain text, file, or keyring is allowed.
	ErrAmbiguousSecret = errors.New("multiple secret sources configured")

	// ErrSecretNotFound is returned when the configured source exists but
	// holds no value (missing file, empty keyring entry).
	ErrSecretNotFound = errors.New("secret not found")
)

// Secret is a write-only reference to an API secret. It records where the
// secret lives (plain text, a file, or the OS keyring) and resolves it on
// demand via Reveal. The resolved value is intentionally not retained.
type Secret struct {
	plain string
	file  string

	keyringService string
	keyringUser    string
}

// Plain returns a Secret backed by an in-memory plain text value.
// This mode exists for environment-variable configuration and is the least
// protected of the three sources.
func Plain(value string) Secret {
	return Secret{plain: value}
}

// FromFile returns a Secret backed by a file on disk (Docker secrets
// pattern). The file is read on every Reveal and its contents are trimmed
// of surrounding whitespace.
func FromFile(path string) Secret {
	return Secret{file: path}
}

// FromKeyring returns a Secret backed by the OS keyring entry for the given
// service and user.
func FromKeyring(service, user string) Secret {
	return Secret{keyringService: service, keyringUser: user}
}

// IsZero reports whether no source is configured.
func (s Secret) IsZero() bool {
	return s.plain == "" && s.file == "" && s.keyringService == ""
}

// Validate checks that exactly one source is configured.
// Zero or multiple sources is a misuse of the API by the caller.
func (s Secret) Validate() error {
	sources := 0
	if s.plain != "" {
		sources++
	}
	if s.file != "" {
		sources++
	}
	if s.keyringService != "" {
		sources++
	}

	switch {
	case sources == 0:
		return ErrNoSecret
	case sources > 1:
		return ErrAmbiguousSecret
	default:
		return nil
	}
}

// Reveal resolves the secret to its plain text value. Callers must not
// retain the returned string beyond immediate use.
func (s Secret) Reveal() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	switch {
	case s.plain != "":
		return s.plain, nil

	case s.file != "":
		content, err := os.ReadFile(s.file)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: file %s", ErrSecretNotFound, s.file)
			}
			return "", fmt.Errorf("reading secret file %s: %w", s.file, err)
		}
		value := strings.TrimSpace(string(content))
		if value == "" {
			return "", fmt.Errorf("%w: file %s is empty", ErrSecretNotFound, s.file)
		}
		return value, nil

	default:
		value, err := keyring.Get(s.keyringService, s.keyringUser)
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return "", fmt.Errorf("%w: keyring entry %s/%s", ErrSecretNotFound, s.keyringService, s.keyringUser)
			}
			return "", fmt.Errorf("reading keyring entry %s/%s: %w", s.keyringService, s.keyringUser, err)
		}
		return value, nil
	}
}

// String implements fmt.Stringer without leaking the secret value.
func (s Secret) String() string {
	switch {
	case s.plain != "":
		return "secret(plain)"
	case s.file != "":
		return "secret(file:" + s.file + ")"
	case s.keyringService != "":
		return "secret(keyring:" + s.keyringService + "/" + s.keyringUser + ")"
	default:
		return "secret(unset)"
	}
}

// BasicAuth builds an HTTP Basic authorization token for the given username
// and secret: base64("username:secret"). The token is derived fresh on every
// call; nothing is cached.
func BasicAuth(username string, secret Secret) (string, error) {
	value, err := secret.Reveal()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + value)), nil
}

// StoreInKeyring writes a secret value into the OS keyring entry the given
// service/user pair refers to. Used by interactive login flows.
func StoreInKeyring(service, user, value string) error {
	if value == "" {
		return errors.New("secret value cannot be empty")
	}
	return keyring.Set(service, user, value)
}

// DeleteFromKeyring removes the keyring entry for the given service/user.
// Removing an entry that does not exist is not an error.
func DeleteFromKeyring(service, user string) error {
	err := keyring.Delete(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
