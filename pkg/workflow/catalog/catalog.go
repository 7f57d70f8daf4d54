// Package catalog registers every workflow the engine hosts.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/pkg/dialogue"
	"screening-onboarding-be/pkg/workflow"
	"screening-onboarding-be/pkg/workflow/docsqa"
	"screening-onboarding-be/pkg/workflow/errorhelp"
	"screening-onboarding-be/pkg/workflow/onboarding"
	"screening-onboarding-be/pkg/workflow/validation"
)

var ErrUnknownWorkflow = errors.New("unknown workflow")

// Default is the workflow used when a thread is started without one.
const Default = onboarding.Name

type Catalog struct {
	engines map[string]*dialogue.Engine
}

func Definitions(deps workflow.Deps) []dialogue.Definition {
	return []dialogue.Definition{
		onboarding.Definition(deps),
		docsqa.Definition(deps),
		errorhelp.Definition(deps),
		validation.Definition(deps),
	}
}

func New(deps workflow.Deps, log logger.ILogger, opts ...dialogue.EngineOption) (*Catalog, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	c := &Catalog{engines: make(map[string]*dialogue.Engine)}
	for _, def := range Definitions(deps) {
		engine, err := dialogue.NewEngine(def, log, opts...)
		if err != nil {
			return nil, fmt.Errorf("workflow %s: %w", def.Name, err)
		}
		c.engines[def.Name] = engine
	}
	return c, nil
}

// Engine returns the engine for name; an empty name selects Default.
func (c *Catalog) Engine(name string) (*dialogue.Engine, error) {
	if name == "" {
		name = Default
	}
	engine, ok := c.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorkflow, name)
	}
	return engine, nil
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.engines))
	for name := range c.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
