package instance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"dategen/internal/candidate"
)

var ErrUnknownInstance = errors.New("unknown instance")

// Params are an instance's default run and harvest settings.
type Params struct {
	PopulationSize       int  `json:"population_size" yaml:"population_size"`
	Generations          int  `json:"generations" yaml:"generations"`
	ValidMin             int  `json:"valid_min" yaml:"valid_min"`
	InvalidMin           int  `json:"invalid_min" yaml:"invalid_min"`
	BoundaryMin          int  `json:"boundary_min" yaml:"boundary_min"`
	ForceFullGenerations bool `json:"force_full_generations" yaml:"force_full_generations"`
}

// Instance is one problem: a rule-set, the routine under test and the seed
// subset the initializer starts from.
type Instance struct {
	Name        string
	Label       string
	Description string
	Rules       *candidate.RuleSet
	Validate    candidate.Validator
	Formatted   bool
	Seeds       []candidate.Genes
	Defaults    Params
}

func (i Instance) Space() *candidate.Space {
	return &candidate.Space{Rules: i.Rules, Validate: i.Validate}
}

var (
	mu       sync.RWMutex
	registry = map[string]Instance{}
)

func init() {
	for _, inst := range []Instance{Original, Basic, LeapYears, MonthDay, Formats} {
		if err := Register(inst); err != nil {
			panic(err)
		}
	}
}

// Register adds an instance. Names are case-insensitive.
func Register(inst Instance) error {
	key := normalize(inst.Name)
	if key == "" {
		return fmt.Errorf("instance name is required")
	}
	if inst.Rules == nil || inst.Rules.Len() == 0 {
		return fmt.Errorf("instance %s: rule set is required", inst.Name)
	}
	if inst.Validate == nil {
		return fmt.Errorf("instance %s: validator is required", inst.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[key]; exists {
		return fmt.Errorf("instance already registered: %s", inst.Name)
	}
	registry[key] = inst
	return nil
}

func Resolve(name string) (Instance, error) {
	mu.RLock()
	defer mu.RUnlock()
	inst, ok := registry[normalize(name)]
	if !ok {
		return Instance{}, fmt.Errorf("%w: %s", ErrUnknownInstance, name)
	}
	return inst, nil
}

func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for key := range registry {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
