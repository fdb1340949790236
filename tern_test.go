package tern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontoforge/tern/internal/query"
	"github.com/ontoforge/tern/internal/turtle"
	"github.com/ontoforge/tern/pkg/rdf"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	engine, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

const widgetOntology = `@prefix ex: <http://example.org/> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .

ex:Widget a owl:Class ;
    rdfs:label "Widget" ;
    rdfs:comment "A widget." .
`

func TestUpdateRoundTrip(t *testing.T) {
	engine := newTestEngine(t)

	ok, err := engine.Update(widgetOntology)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := engine.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// Identical input a second time changes nothing.
	ok, err = engine.Update(widgetOntology)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err = engine.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestUpdateFatalLeavesStoreUntouched(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Update(widgetOntology)
	require.NoError(t, err)

	_, err = engine.Update("@prefix broken: <http://example.org/unterminated")
	require.Error(t, err)

	var fatal *turtle.FatalError
	assert.ErrorAs(t, err, &fatal)

	count, err := engine.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestUpdateWarningsDoNotFail(t *testing.T) {
	engine := newTestEngine(t)

	ok, err := engine.Update(`<http://example.org/a> <http://example.org/p> "good" .
"literal" <http://example.org/p> "bad subject" .
<http://example.org/b> <http://example.org/p> "also good" .`)
	require.NoError(t, err)
	assert.True(t, ok)

	count, err := engine.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestQuerySelect(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.Update(widgetOntology)
	require.NoError(t, err)

	result, err := engine.Query(`SELECT * WHERE { ?s <http://www.w3.org/2000/01/rdf-schema#label> ?o }`)
	require.NoError(t, err)

	require.NotNil(t, result.Results)
	assert.Nil(t, result.Boolean)
	assert.Equal(t, []string{"s", "o"}, result.Head.Vars)
	require.Len(t, result.Results.Bindings, 1)

	row := result.Results.Bindings[0]
	assert.Equal(t, BindingValue{Type: "uri", Value: "http://example.org/Widget"}, row["s"])
	assert.Equal(t, BindingValue{Type: "literal", Value: "Widget"}, row["o"])
}

func TestQueryAsk(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.Update(widgetOntology)
	require.NoError(t, err)

	result, err := engine.Query(`PREFIX ex: <http://example.org/>
PREFIX owl: <http://www.w3.org/2002/07/owl#>
ASK { ex:Widget a owl:Class }`)
	require.NoError(t, err)

	require.NotNil(t, result.Boolean)
	assert.True(t, *result.Boolean)
	assert.Nil(t, result.Results)
}

func TestQueryGroundPatternIsBoolean(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.Update(widgetOntology)
	require.NoError(t, err)

	result, err := engine.Query(`<http://example.org/Widget> <http://www.w3.org/2000/01/rdf-schema#label> "Widget"`)
	require.NoError(t, err)

	require.NotNil(t, result.Boolean)
	assert.True(t, *result.Boolean)
}

func TestQueryEmptyStore(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Query(`?s ?p ?o`)
	require.NoError(t, err)

	require.NotNil(t, result.Results)
	assert.Empty(t, result.Results.Bindings)
}

func TestQuerySyntaxError(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Query(`SELECT WHERE`)
	require.Error(t, err)

	var syntaxErr *query.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestValidateDoesNotMutateStore(t *testing.T) {
	engine := newTestEngine(t)

	diagnostics, err := engine.Validate(widgetOntology)
	require.NoError(t, err)
	assert.Empty(t, diagnostics)

	count, err := engine.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestValidateReportsDiagnostics(t *testing.T) {
	engine := newTestEngine(t)

	diagnostics, err := engine.Validate(`<http://example.org/a> <http://example.org/p> "x" .`)
	require.NoError(t, err)

	require.Len(t, diagnostics, 2)
	assert.Contains(t, diagnostics[0], "Warning: ")
	assert.Contains(t, diagnostics[0], "uses non-standard predicate")
	assert.Equal(t, "Error: No class definitions found.", diagnostics[1])
}

func TestValidateWithConfiguredProperties(t *testing.T) {
	engine := newTestEngine(t, WithRequiredProperties(
		rdf.RDFType,
		rdf.NewNamedNode("http://example.org/p"),
	))

	diagnostics, err := engine.Validate(`@prefix ex: <http://example.org/> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
ex:A a owl:Class ;
    ex:p "value" .
`)
	require.NoError(t, err)
	assert.Empty(t, diagnostics)
}
