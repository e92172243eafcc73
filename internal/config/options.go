// Package config holds the agent process's configurable options: the CLI/env/file
// surface bound by cmd/agentd, validated with the check.Validatable idiom.
package config

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/gridnode/agentd/internal/check"
)

// Options stores all configurable options for the agentd process.
type Options struct {
	ConfigFile string `json:"config_file"`

	// AgentID identifies this agent's workspace and log lines before the master has
	// assigned one on registration. Defaults to the host's hostname.
	AgentID string `json:"agent_id"`

	// Master is either a direct master address ("host:port") or, in fault-tolerant
	// mode, the address of the coordination service agentd should watch for the
	// current leader.
	Master       string `json:"master"`
	FaultTolerant bool  `json:"fault_tolerant"`

	Resources string `json:"resources"` // "cpu:<n>;mem:<bytes>"
	Isolation string `json:"isolation"` // "process" | "container" | "stub"
	WorkDir   string `json:"work_dir"`
	Quiet     bool   `json:"quiet"`

	APIEnabled bool   `json:"api_enabled"`
	BindIP     string `json:"bind_ip"`
	BindPort   int    `json:"bind_port"`

	Security SecurityOptions `json:"security"`
	Etcd     EtcdOptions     `json:"etcd"`
}

// EtcdOptions configures the leader watch used in fault-tolerant mode (spec.md §4.3).
// It is ignored unless FaultTolerant is set.
type EtcdOptions struct {
	Endpoints   []string `json:"endpoints"`
	ElectionKey string   `json:"election_key"`
}

// validate reports missing etcd settings. It is deliberately not check.Validatable, so
// check.Validate's recursive walk skips it; Options.Validate calls it only when
// FaultTolerant is set.
func (e EtcdOptions) validate() []error {
	var errs []error
	if len(e.Endpoints) == 0 {
		errs = append(errs, errors.New("etcd endpoints not specified"))
	}
	if e.ElectionKey == "" {
		errs = append(errs, errors.New("etcd election key not specified"))
	}
	return errs
}

// Validate implements check.Validatable.
func (o Options) Validate() []error {
	var errs []error
	if err := check.In(o.Isolation, []string{"process", "container", "stub"}); err != nil {
		errs = append(errs, err)
	}
	if o.Master == "" {
		errs = append(errs, errors.New("master address not specified"))
	}
	if o.WorkDir == "" {
		errs = append(errs, errors.New("work directory not specified"))
	}
	if err := o.validateTLS(); err != nil {
		errs = append(errs, err)
	}
	if o.FaultTolerant {
		errs = append(errs, o.Etcd.validate()...)
	}
	return errs
}

func (o Options) validateTLS() error {
	if !o.Security.TLS.Enabled || !o.APIEnabled {
		return nil
	}
	if o.Security.TLS.MasterCert == "" && !o.Security.TLS.SkipVerify {
		return nil
	}
	return nil
}

// Printable renders Options as JSON for startup logging.
func (o Options) Printable() ([]byte, error) {
	optJSON, err := json.Marshal(o)
	if err != nil {
		return nil, errors.Wrap(err, "unable to convert config to JSON")
	}
	return optJSON, nil
}

// SecurityOptions stores configurable security-related options.
type SecurityOptions struct {
	TLS TLSOptions `json:"tls"`
}

// TLSOptions is the TLS connection configuration for the agent's master connection.
type TLSOptions struct {
	Enabled        bool   `json:"enabled"`
	SkipVerify     bool   `json:"skip_verify"`
	MasterCert     string `json:"master_cert"`
	MasterCertName string `json:"master_cert_name"`
}

// Validate implements check.Validatable.
func (t TLSOptions) Validate() []error {
	var errs []error
	if t.MasterCert != "" && t.SkipVerify {
		errs = append(errs, errors.New("cannot specify a master cert file with verification off"))
	}
	return errs
}
