//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
	"strings"
)

// Actor identifies the machine and account a command runs under.
type Actor struct {
	// Hostname is the machine name.
	Hostname string
	// Username is the account name.
	Username string
}

// DisplayName returns the label used as reporter name for records written by the actor.
func (a *Actor) DisplayName() string {
	if a == nil {
		return ""
	}

	return a.Username
}

// DetectActor gathers host and user information for audit trail.
// The full user name is preferred over the login when the account has one.
func DetectActor() (*Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	username := currentUser.Username
	if name := strings.TrimSpace(strings.Split(currentUser.Name, ",")[0]); name != "" {
		username = name
	}

	return &Actor{
		Hostname: hostname,
		Username: username,
	}, nil
}

// ReporterName returns the configured reporter name, falling back to the detected user.
func ReporterName(configured string) string {
	if name := strings.TrimSpace(configured); name != "" {
		return name
	}

	actor, err := DetectActor()
	if err != nil {
		return ""
	}

	return actor.DisplayName()
}
