package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridnode/agentd/internal/check"
)

func validOptions() Options {
	return Options{
		Master:    "master.internal:8080",
		Isolation: "process",
		WorkDir:   "/var/lib/agentd",
	}
}

func TestOptionsValidateAcceptsMinimalValidConfig(t *testing.T) {
	assert.NoError(t, check.Validate(validOptions()))
}

func TestOptionsValidateRejectsUnknownIsolationBackend(t *testing.T) {
	opts := validOptions()
	opts.Isolation = "qemu"
	assert.Error(t, check.Validate(opts))
}

func TestOptionsValidateRequiresMasterAddress(t *testing.T) {
	opts := validOptions()
	opts.Master = ""
	assert.Error(t, check.Validate(opts))
}

func TestOptionsValidateRequiresWorkDir(t *testing.T) {
	opts := validOptions()
	opts.WorkDir = ""
	assert.Error(t, check.Validate(opts))
}

func TestOptionsValidateRequiresEtcdConfigWhenFaultTolerant(t *testing.T) {
	opts := validOptions()
	opts.FaultTolerant = true
	assert.Error(t, check.Validate(opts))

	opts.Etcd = EtcdOptions{Endpoints: []string{"http://etcd:2379"}, ElectionKey: "/agentd/leader"}
	assert.NoError(t, check.Validate(opts))
}

func TestOptionsValidateIgnoresEtcdConfigWhenNotFaultTolerant(t *testing.T) {
	opts := validOptions()
	opts.FaultTolerant = false
	opts.Etcd = EtcdOptions{}
	assert.NoError(t, check.Validate(opts))
}

func TestTLSOptionsValidateRejectsCertWithVerificationOff(t *testing.T) {
	opts := validOptions()
	opts.Security.TLS = TLSOptions{MasterCert: "/etc/agentd/master.pem", SkipVerify: true}
	assert.Error(t, check.Validate(opts))
}

func TestPrintableRendersJSON(t *testing.T) {
	bs, err := validOptions().Printable()
	assert.NoError(t, err)
	assert.Contains(t, string(bs), `"master":"master.internal:8080"`)
}
