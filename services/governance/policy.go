package governance

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/aegisops/aegisd/pkg/logging"
	"github.com/aegisops/aegisd/services/governance/enforcement"
)

type policyFile struct {
	Rules []Policy `yaml:"rules"`
}

// loadDefaultTable parses the binary's embedded policy table.
func loadDefaultTable() (map[RiskLevel]Policy, error) {
	var pf policyFile
	if err := yaml.Unmarshal(enforcement.PolicyTable, &pf); err != nil {
		return nil, fmt.Errorf("governance: unmarshal embedded policy table: %w", err)
	}
	return indexByRisk(pf.Rules), nil
}

// loadOverrideTable parses an on-disk override file in the same shape.
func loadOverrideTable(path string) (map[RiskLevel]Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("governance: read override file: %w", err)
	}
	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("governance: unmarshal override file: %w", err)
	}
	return indexByRisk(pf.Rules), nil
}

func indexByRisk(rules []Policy) map[RiskLevel]Policy {
	table := make(map[RiskLevel]Policy, len(rules))
	for _, p := range rules {
		table[p.RiskLevel] = p
	}
	return table
}

// watchOverride watches path for changes and calls onChange with the
// reloaded table whenever the file is written. A changed file always
// triggers a full table reload, never a partial patch. Runs until stop is
// closed; logs and continues past any single reload failure.
func watchOverride(path string, logger *logging.Logger, onChange func(map[RiskLevel]Policy), stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("governance: create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return fmt.Errorf("governance: watch override file: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-stop:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				table, err := loadOverrideTable(path)
				if err != nil {
					logger.Warn("governance.override.reload_failed", "path", path, "error", err)
					continue
				}
				logger.Info("governance.override.reloaded", "path", path)
				onChange(table)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("governance.override.watch_error", "error", err)
			}
		}
	}()

	return nil
}
