package form_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/form"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/schema"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/testhelpers"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

// fixture bundles a parsed schema with a navigator and labeler over it.
type fixture struct {
	schema    *types.RecordSchema
	reader    *schema.Reader
	navigator *form.Navigator
	labeler   *form.Labeler
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s, err := schema.Parse(testhelpers.SchemaVersion, []byte(testhelpers.SchemaJSON))
	require.NoError(t, err)
	logger := testhelpers.NewLogger(io.Discard)
	reader := schema.NewReader(logger)
	return fixture{
		schema:    s,
		reader:    reader,
		navigator: form.NewNavigator(s, reader, logger),
		labeler:   form.NewLabeler(reader, logger),
	}
}
