package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridnode/agentd/internal/actor"
	"github.com/gridnode/agentd/internal/agent"
	"github.com/gridnode/agentd/internal/apiserver"
	"github.com/gridnode/agentd/internal/check"
	"github.com/gridnode/agentd/internal/config"
	"github.com/gridnode/agentd/internal/isolation"
	"github.com/gridnode/agentd/internal/isolation/dockerexec"
	"github.com/gridnode/agentd/internal/isolation/processgroup"
	"github.com/gridnode/agentd/internal/isolation/stub"
	"github.com/gridnode/agentd/internal/leaderwatch"
	"github.com/gridnode/agentd/internal/model"
	"github.com/gridnode/agentd/internal/resource"
	"github.com/gridnode/agentd/internal/transport"
	"github.com/gridnode/agentd/internal/workspace"
)

const (
	defaultRegistrationTimeout = 30 * time.Second
	defaultKillGracePeriod     = 10 * time.Second
	defaultMasterLossGrace     = time.Minute
)

const defaultBindPort = 9600

func defaultOptions() config.Options {
	return config.Options{
		Resources: "",
		Isolation: "process",
		WorkDir:   "/var/lib/agentd",
		BindIP:    "0.0.0.0",
		BindPort:  bindPortFromEnv(),
	}
}

// bindPortFromEnv honors LIBPROCESS_PORT, the Mesos-derived convention for the
// transport's listening port (spec.md §6), as the default --bind-port/AGENTD_BIND_PORT
// falls back to when neither flag nor config file set one explicitly.
func bindPortFromEnv() int {
	raw, ok := os.LookupEnv("LIBPROCESS_PORT")
	if !ok {
		return defaultBindPort
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return defaultBindPort
	}
	return port
}

func newRunCmd() *cobra.Command {
	v := viper.New()
	opts := defaultOptions()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the agent",
		Args:  cobra.NoArgs,
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.ConfigFile, "config-file", "", "path to a config file")
	flags.StringVar(&opts.AgentID, "agent-id", "", "this agent's id (defaults to the hostname)")
	flags.StringVar(&opts.Master, "master", "", "master address (host:port), or the coordination service address in --fault-tolerant mode")
	flags.BoolVar(&opts.FaultTolerant, "fault-tolerant", false, "watch an etcd election instead of dialing --master directly")
	flags.StringVar(&opts.Resources, "resources", opts.Resources, `advertised capacity, e.g. "cpu:4;mem:17179869184"`)
	flags.StringVar(&opts.Isolation, "isolation", opts.Isolation, "executor isolation backend: process, container, or stub")
	flags.StringVar(&opts.WorkDir, "work-dir", opts.WorkDir, "root directory for per-framework workspaces")
	flags.BoolVar(&opts.Quiet, "quiet", false, "suppress informational output")
	flags.BoolVar(&opts.APIEnabled, "api-enabled", false, "expose /debug/pprof endpoints alongside the executor listener")
	flags.StringVar(&opts.BindIP, "bind-ip", opts.BindIP, "address to bind the executor listener on")
	flags.IntVar(&opts.BindPort, "bind-port", opts.BindPort, "port to bind the executor listener on")
	flags.BoolVar(&opts.Security.TLS.Enabled, "tls", false, "use TLS when dialing the master")
	flags.BoolVar(&opts.Security.TLS.SkipVerify, "tls-skip-verify", false, "skip master certificate verification")
	flags.StringVar(&opts.Security.TLS.MasterCert, "master-cert", "", "path to the master's TLS certificate")
	flags.StringVar(&opts.Security.TLS.MasterCertName, "master-cert-name", "", "expected CN/SAN on the master's TLS certificate")
	flags.StringSliceVar(&opts.Etcd.Endpoints, "etcd-endpoints", nil, "etcd endpoints to watch in --fault-tolerant mode")
	flags.StringVar(&opts.Etcd.ElectionKey, "etcd-election-key", "", "etcd key the master campaigns on in --fault-tolerant mode")

	// Bind each flag to its Options json tag (not its dashed flag name) so the
	// AllSettings -> JSON -> yaml.Unmarshal round trip below lands on the right field.
	flagToJSONKey := map[string]string{
		"config-file":       "config_file",
		"agent-id":          "agent_id",
		"master":            "master",
		"fault-tolerant":    "fault_tolerant",
		"resources":         "resources",
		"isolation":         "isolation",
		"work-dir":          "work_dir",
		"quiet":             "quiet",
		"api-enabled":       "api_enabled",
		"bind-ip":           "bind_ip",
		"bind-port":         "bind_port",
		"tls":               "security.tls.enabled",
		"tls-skip-verify":   "security.tls.skip_verify",
		"master-cert":       "security.tls.master_cert",
		"master-cert-name":  "security.tls.master_cert_name",
		"etcd-endpoints":    "etcd.endpoints",
		"etcd-election-key": "etcd.election_key",
	}
	for flagName, jsonKey := range flagToJSONKey {
		if err := v.BindPFlag(jsonKey, flags.Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	cmd.RunE = func(*cobra.Command, []string) error {
		// AGENTD_* vars were already read into these flags, and cleared from the
		// process environment, by the root command's PersistentPreRunE.
		bs, err := json.Marshal(v.AllSettings())
		if err != nil {
			return errors.Wrap(err, "cannot marshal configuration map into json bytes")
		}
		if err := yaml.Unmarshal(bs, &opts); err != nil {
			return errors.Wrap(err, "cannot unmarshal configuration")
		}

		fileBytes, err := readConfigFile(opts.ConfigFile)
		if err != nil {
			return err
		}
		if len(fileBytes) > 0 {
			var configMap map[string]interface{}
			if err := yaml.Unmarshal(fileBytes, &configMap); err != nil {
				return errors.Wrap(err, "cannot unmarshal yaml configuration file")
			}
			if err := v.MergeConfigMap(configMap); err != nil {
				return errors.Wrap(err, "cannot merge configuration file into viper")
			}
			bs, err := json.Marshal(v.AllSettings())
			if err != nil {
				return errors.Wrap(err, "cannot marshal merged configuration map into json bytes")
			}
			if err := yaml.Unmarshal(bs, &opts); err != nil {
				return errors.Wrap(err, "cannot unmarshal merged configuration")
			}
		}

		if opts.AgentID == "" {
			hostname, err := os.Hostname()
			if err != nil {
				return errors.Wrap(err, "failed to determine hostname for default agent id")
			}
			opts.AgentID = hostname
		}

		if err := check.Validate(opts); err != nil {
			return errors.Wrap(err, "command-line arguments specify illegal configuration")
		}

		if opts.Quiet {
			log.SetLevel(log.WarnLevel)
		}

		return run(context.Background(), opts)
	}

	return cmd
}

func readConfigFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			log.Warnf("no configuration file at %s, skipping", path)
			return nil, nil
		}
		return nil, errors.Wrap(err, "error finding configuration file")
	}
	bs, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "error reading configuration file")
	}
	return bs, nil
}

func parseMasterAddr(raw string) (transport.PID, error) {
	host, portStr, err := net.SplitHostPort(raw)
	if err != nil {
		return transport.PID{}, errors.Wrapf(err, "invalid master address %q", raw)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return transport.PID{}, errors.Wrapf(err, "invalid master port in %q", raw)
	}
	return transport.PID{Name: "master", Host: host, Port: port}, nil
}

func buildIsolation(name string) (isolation.Backend, error) {
	switch name {
	case "process":
		return processgroup.New(), nil
	case "container":
		return dockerexec.New()
	case "stub":
		return stub.New(), nil
	default:
		return nil, errors.Errorf("unknown isolation backend %q", name)
	}
}

// run wires config.Options into a running Agent actor and blocks until it terminates,
// per spec.md §6: exit 0 on graceful shutdown, a non-nil error on fatal
// initialization failure.
func run(ctx context.Context, opts config.Options) error {
	capacity, err := resource.Parse(opts.Resources)
	if err != nil {
		return errors.Wrap(err, "invalid --resources")
	}

	backend, err := buildIsolation(opts.Isolation)
	if err != nil {
		return err
	}

	masterAddr, err := parseMasterAddr(opts.Master)
	if err != nil {
		if !opts.FaultTolerant {
			return err
		}
		// In fault-tolerant mode the configured --master is the coordination service,
		// not a directly dialable PID; the real master address arrives via NewLeader.
		masterAddr = transport.PID{}
	}

	cfg := agent.Config{
		Capacity:            capacity,
		Isolation:           backend,
		Workspace:           workspace.New(opts.WorkDir, model.AgentId(opts.AgentID)),
		FaultTolerant:       opts.FaultTolerant,
		MasterAddr:          masterAddr,
		TLS: transport.TLSConfig{
			Enabled:        opts.Security.TLS.Enabled,
			MasterCert:     opts.Security.TLS.MasterCert,
			MasterCertName: opts.Security.TLS.MasterCertName,
			SkipVerify:     opts.Security.TLS.SkipVerify,
		},
		RegistrationTimeout: defaultRegistrationTimeout,
		KillGracePeriod:     defaultKillGracePeriod,
		MasterLossGrace:     defaultMasterLossGrace,
	}

	system := actor.NewSystem("agentd")
	ref, created := system.ActorOf(actor.Addr("agent"), agent.New(cfg))
	if !created {
		return errors.New("failed to start agent actor")
	}

	var watcher *leaderwatch.Watcher
	if opts.FaultTolerant {
		watcher, err = leaderwatch.Start(ref, opts.Etcd.Endpoints, opts.Etcd.ElectionKey)
		if err != nil {
			return errors.Wrap(err, "failed to start leader watch")
		}
		defer watcher.Stop()
	}

	server := apiserver.New(system, ref.Address(), opts.BindIP, opts.BindPort, opts.APIEnabled)
	go func() {
		if err := server.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("executor listener stopped unexpectedly")
		}
	}()
	defer server.Close()

	log.Infof("agent %s starting, capacity %s, isolation %s", opts.AgentID, capacity, opts.Isolation)
	return ref.AwaitTermination()
}
