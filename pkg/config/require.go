package config

import (
	"fmt"
	"slices"
)

// Required maps env names to their loaded values; Check reports the empty ones.
type Required map[string]string

func (r Required) Check() error {
	var missing []string
	for env, value := range r {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("missing required env %v", missing)
}
