// Package registry loads and validates named seller profiles. A profile is
// the read-only configuration for one sales motion; runs reference profiles
// by name.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/buyergroup-cli/internal/model"
)

// DealSizeClasses are the recognized deal-size classes, smallest first.
var DealSizeClasses = []string{"smb", "mid_market", "enterprise", "strategic"}

// InvalidProfileError reports a malformed seller profile. It is fatal: the
// pipeline refuses to start on it, before any network call.
type InvalidProfileError struct {
	Name     string
	Problems []string
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("registry: invalid seller profile %q: %s", e.Name, strings.Join(e.Problems, "; "))
}

// Registry resolves seller profiles by name: built-in profiles first, then
// YAML files in the configured directory.
type Registry struct {
	dir string
}

// New creates a registry reading user profiles from dir. An empty dir means
// built-ins only.
func New(dir string) *Registry {
	return &Registry{dir: dir}
}

// Load returns the named profile, validated. File profiles shadow built-ins
// of the same name.
func (r *Registry) Load(name string) (*model.SellerProfile, error) {
	if r.dir != "" {
		path := filepath.Join(r.dir, name+".yaml")
		if data, err := os.ReadFile(path); err == nil {
			var p model.SellerProfile
			if err := yaml.Unmarshal(data, &p); err != nil {
				return nil, eris.Wrapf(err, "registry: parse profile %s", path)
			}
			if p.Name == "" {
				p.Name = name
			}
			applyDefaults(&p)
			if err := Validate(&p); err != nil {
				return nil, err
			}
			return &p, nil
		}
	}

	if p, ok := builtins[name]; ok {
		cp := p
		applyDefaults(&cp)
		if err := Validate(&cp); err != nil {
			return nil, err
		}
		return &cp, nil
	}

	return nil, eris.Errorf("registry: unknown seller profile %q", name)
}

// List returns the names of all available profiles, sorted.
func (r *Registry) List() ([]string, error) {
	seen := make(map[string]bool)
	for name := range builtins {
		seen[name] = true
	}

	if r.dir != "" {
		entries, err := os.ReadDir(r.dir)
		if err != nil && !os.IsNotExist(err) {
			return nil, eris.Wrap(err, "registry: read profiles dir")
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
				continue
			}
			seen[strings.TrimSuffix(e.Name(), ".yaml")] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// applyDefaults fills role caps and minimums left unset by the profile.
// Caps are configuration, not constants: a profile may override any of them.
func applyDefaults(p *model.SellerProfile) {
	if p.MaxBuyerGroupSize == 0 {
		p.MaxBuyerGroupSize = 8
	}
	if p.RoleCaps == nil {
		p.RoleCaps = map[model.Role]int{}
	}
	defaultCaps := map[model.Role]int{
		model.RoleDecision:    2,
		model.RoleChampion:    3,
		model.RoleStakeholder: 3,
		model.RoleBlocker:     2,
		model.RoleIntroducer:  1,
	}
	for role, n := range defaultCaps {
		if _, ok := p.RoleCaps[role]; !ok {
			p.RoleCaps[role] = n
		}
	}
	if p.MinRoleTargets == nil {
		p.MinRoleTargets = map[model.Role]int{
			model.RoleDecision: 1,
			model.RoleChampion: 1,
			model.RoleBlocker:  1,
		}
	}
}

// Validate checks the profile for structural problems. All problems are
// collected into one InvalidProfileError.
func Validate(p *model.SellerProfile) error {
	var problems []string

	if p.Name == "" {
		problems = append(problems, "name is required")
	}
	if len(p.RolePatterns) == 0 {
		problems = append(problems, "at least one role pattern list is required")
	}
	for role, patterns := range p.RolePatterns {
		if !role.Valid() {
			problems = append(problems, fmt.Sprintf("unknown role %q in role_patterns", role))
		}
		if len(patterns) == 0 {
			problems = append(problems, fmt.Sprintf("role %q has an empty pattern list", role))
		}
		for _, pat := range patterns {
			if strings.TrimSpace(pat) == "" {
				problems = append(problems, fmt.Sprintf("role %q has a blank pattern", role))
				break
			}
		}
	}
	for role := range p.MinRoleTargets {
		if !role.Valid() {
			problems = append(problems, fmt.Sprintf("unknown role %q in min_role_targets", role))
		}
	}
	for role := range p.RoleCaps {
		if !role.Valid() {
			problems = append(problems, fmt.Sprintf("unknown role %q in role_caps", role))
		}
	}
	if p.MaxBuyerGroupSize < 1 {
		problems = append(problems, "max_buyer_group_size must be >= 1")
	}

	minSum := 0
	for role, n := range p.MinRoleTargets {
		if n < 0 {
			problems = append(problems, fmt.Sprintf("min_role_targets[%s] must be >= 0", role))
		}
		minSum += n
		if limit, ok := p.RoleCaps[role]; ok && n > limit {
			problems = append(problems, fmt.Sprintf("min_role_targets[%s] (%d) exceeds role cap (%d)", role, n, limit))
		}
	}
	if minSum > p.MaxBuyerGroupSize {
		problems = append(problems, fmt.Sprintf("sum of min_role_targets (%d) exceeds max_buyer_group_size (%d)", minSum, p.MaxBuyerGroupSize))
	}

	if p.DealSizeClass != "" {
		known := false
		for _, c := range DealSizeClasses {
			if p.DealSizeClass == c {
				known = true
				break
			}
		}
		if !known {
			problems = append(problems, fmt.Sprintf("unknown deal_size_class %q", p.DealSizeClass))
		}
	}

	if len(problems) > 0 {
		return &InvalidProfileError{Name: p.Name, Problems: problems}
	}
	return nil
}
