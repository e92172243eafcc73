package main

import (
	"os"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bindEnv overrides any flag on cmd whose name, uppercased with dashes turned to
// underscores and prefixed, has a matching environment variable set.
func bindEnv(prefix string, cmd *cobra.Command) error {
	var errMsgs []string
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		envName := prefix + strings.ReplaceAll(strings.ToUpper(flag.Name), "-", "_")
		if value, ok := syscall.Getenv(envName); ok {
			if err := flag.Value.Set(value); err != nil {
				err = errors.Wrapf(err, "failed to parse %s (%s)", envName, flag.Value.Type())
				errMsgs = append(errMsgs, err.Error())
			}
		}
	})
	if len(errMsgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errMsgs, ";"))
}

// clearEnv unsets every environment variable whose name begins with prefix, once its
// value has already been consumed by bindEnv. This keeps the vars from leaking into
// any process agentd itself launches (e.g. a process-isolation executor), and keeps
// repeated runs in the same shell or test harness deterministic (spec.md §6).
func clearEnv(prefix string) error {
	var errMsgs []string
	for _, kv := range os.Environ() {
		name := kv[:strings.IndexByte(kv, '=')]
		if strings.HasPrefix(name, prefix) {
			if err := syscall.Unsetenv(name); err != nil {
				errMsgs = append(errMsgs, errors.Wrapf(err, "failed to unset %s", name).Error())
			}
		}
	}
	if len(errMsgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errMsgs, ";"))
}
