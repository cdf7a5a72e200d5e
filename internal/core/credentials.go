package core

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

// ConnectionType is the protocol used to reach the site's filesystem.
type ConnectionType string

const (
	ConnectionFTP  ConnectionType = "ftp"
	ConnectionFTPS ConnectionType = "ftps"
	ConnectionSSH  ConnectionType = "ssh"
)

// Credentials hold the filesystem access parameters collected from the user.
// Once available they are attached to every request for the rest of the session.
type Credentials struct {
	Hostname       string         `json:"hostname"`
	Username       string         `json:"username"`
	Password       string         `json:"password"`
	ConnectionType ConnectionType `json:"connection_type"`
	PublicKey      string         `json:"public_key"`
	PrivateKey     string         `json:"private_key"`
	FSNonce        string         `json:"-"`
	Available      bool           `json:"-"`
}

// Validate checks the fields the backend needs to open a connection.
func (c Credentials) Validate() error {
	if c.Hostname == "" {
		return errors.New("hostname is required")
	}
	if c.Username == "" {
		return errors.New("username is required")
	}
	switch c.ConnectionType {
	case "", ConnectionFTP, ConnectionFTPS:
	case ConnectionSSH:
		if (c.PublicKey == "") != (c.PrivateKey == "") {
			return errors.New("ssh keys must be supplied as a pair")
		}
	default:
		return fmt.Errorf("unsupported connection type %q", c.ConnectionType)
	}
	return nil
}

// Values returns the credential fields as sent with each request.
func (c Credentials) Values() url.Values {
	v := url.Values{}
	v.Set("_fs_nonce", c.FSNonce)
	v.Set("username", c.Username)
	v.Set("password", c.Password)
	v.Set("hostname", c.Hostname)
	v.Set("connection_type", string(c.ConnectionType))
	v.Set("public_key", c.PublicKey)
	v.Set("private_key", c.PrivateKey)
	return v
}

// LogValue keeps secrets out of the logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("hostname", c.Hostname),
		slog.String("username", c.Username),
		slog.String("connection_type", string(c.ConnectionType)),
		slog.Bool("password_set", c.Password != ""),
		slog.Bool("keys_set", c.PrivateKey != ""),
		slog.Bool("available", c.Available),
	)
}
