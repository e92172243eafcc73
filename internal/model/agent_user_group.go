package model

import "github.com/pkg/errors"

// AgentUserGroup is the username and primary group a framework's executor
// and tasks run as on this host. WorkspaceManager chowns the framework's
// workspace to this user before the executor starts.
type AgentUserGroup struct {
	User  string `json:"user"`
	UID   int    `json:"uid"`
	Group string `json:"group"`
	GID   int    `json:"gid"`
}

// Validate validates the fields of the AgentUserGroup.
func (g AgentUserGroup) Validate() []error {
	var errs []error

	if g.UID < 0 {
		errs = append(errs, errors.New("uid less than zero"))
	}
	if g.GID < 0 {
		errs = append(errs, errors.New("gid less than zero"))
	}
	if len(g.User) == 0 {
		errs = append(errs, errors.New("user not set"))
	}
	if len(g.Group) == 0 {
		errs = append(errs, errors.New("group not set"))
	}

	return errs
}
