package channel

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"caldera-hq/basalt/pkg/config"
)

// AuthProvider yields transport credentials for channel operations.
type AuthProvider interface {
	// Method returns the git transport authentication method. A nil
	// method means anonymous access.
	Method() (transport.AuthMethod, error)

	// Name identifies the provider for logging.
	Name() string
}

// TokenAuth authenticates HTTPS remotes with a personal access token.
type TokenAuth struct {
	Token string
}

// Method returns HTTP basic auth carrying the token as password. Git
// hosts ignore the username for token authentication.
func (a *TokenAuth) Method() (transport.AuthMethod, error) {
	if a.Token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	return &githttp.BasicAuth{
		Username: "git",
		Password: a.Token,
	}, nil
}

// Name returns "token".
func (a *TokenAuth) Name() string {
	return "token"
}

// SSHAuth authenticates SSH remotes with a private key file.
type SSHAuth struct {
	KeyPath    string
	Passphrase string
}

// Method loads the private key and returns public key authentication.
// The key file must not be group or world readable.
func (a *SSHAuth) Method() (transport.AuthMethod, error) {
	if a.KeyPath == "" {
		return nil, fmt.Errorf("ssh key path cannot be empty")
	}

	info, err := os.Stat(a.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access ssh key: %w", err)
	}

	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		return nil, fmt.Errorf("ssh key %s has mode %04o, must not be group or world readable", a.KeyPath, mode)
	}

	keys, err := gitssh.NewPublicKeysFromFile("git", a.KeyPath, a.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load ssh key: %w", err)
	}

	return keys, nil
}

// Name returns "ssh".
func (a *SSHAuth) Name() string {
	return "ssh"
}

// NoAuth accesses public repositories anonymously.
type NoAuth struct{}

// Method returns no authentication.
func (a *NoAuth) Method() (transport.AuthMethod, error) {
	return nil, nil
}

// Name returns "none".
func (a *NoAuth) Name() string {
	return "none"
}

// NewAuthProvider selects a provider from channel auth configuration.
// Supported types are "token", "ssh" and "none"; an empty type means
// "none".
func NewAuthProvider(cfg *config.ChannelAuthConfig) (AuthProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("auth config cannot be nil")
	}

	switch cfg.Type {
	case "token":
		if cfg.Token == "" {
			return nil, fmt.Errorf("token auth requires a token")
		}
		return &TokenAuth{Token: cfg.Token}, nil

	case "ssh":
		if cfg.SSHKeyPath == "" {
			return nil, fmt.Errorf("ssh auth requires ssh_key_path")
		}
		return &SSHAuth{KeyPath: cfg.SSHKeyPath, Passphrase: cfg.SSHKeyPassphrase}, nil

	case "none", "":
		return &NoAuth{}, nil

	default:
		return nil, fmt.Errorf("unknown auth type: %s", cfg.Type)
	}
}
