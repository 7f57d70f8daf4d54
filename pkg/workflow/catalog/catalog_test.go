package catalog

import (
	"testing"

	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/pkg/filestore"
	"screening-onboarding-be/pkg/workflow"
	"screening-onboarding-be/pkg/workflow/workflowtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeps(t *testing.T) workflow.Deps {
	return workflow.Deps{
		LLM:    &workflowtest.LLM{Reply: "ok"},
		Search: &workflowtest.Search{},
		Index:  &workflowtest.Index{},
		Files:  filestore.NewLocalStore(t.TempDir()),
		Logger: logger.NewNop(),
	}
}

func TestCatalog(t *testing.T) {
	c, err := New(testDeps(t), logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"docs_qa", "error_help", "onboarding", "request_validation"}, c.Names())

	engine, err := c.Engine("")
	require.NoError(t, err)
	assert.Equal(t, Default, engine.Name())

	for _, name := range c.Names() {
		t.Run(name, func(t *testing.T) {
			engine, err := c.Engine(name)
			require.NoError(t, err)
			s := engine.Start("t-1", "en")
			assert.Equal(t, name, s.Workflow)
		})
	}

	_, err = c.Engine("payroll")
	assert.ErrorIs(t, err, ErrUnknownWorkflow)
}

func TestCatalogRequiresDeps(t *testing.T) {
	deps := testDeps(t)
	deps.LLM = nil
	_, err := New(deps, logger.NewNop())
	assert.Error(t, err)
}
