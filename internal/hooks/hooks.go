package hooks

import (
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/msalah0e/clustermap/internal/config"
)

// Events a hook can be bound to.
const (
	OpenDetails = "open_details"
	Snapshot    = "snapshot"
)

// Run executes the hook command for the given event, if configured. vars are
// exported as CLUSTERMAP_<KEY> next to CLUSTERMAP_EVENT.
func Run(h config.HooksConfig, event string, vars map[string]string) error {
	script := getHook(h, event)
	if script == "" {
		return nil
	}

	cmd := exec.Command("sh", "-c", script)
	cmd.Env = append(os.Environ(), "CLUSTERMAP_EVENT="+event)
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Env = append(cmd.Env, "CLUSTERMAP_"+strings.ToUpper(k)+"="+vars[k])
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func getHook(h config.HooksConfig, event string) string {
	switch event {
	case OpenDetails:
		return h.OpenDetails
	case Snapshot:
		return h.Snapshot
	default:
		return ""
	}
}
