package server

import (
	"encoding/csv"
	"encoding/json"
	"sort"
	"strings"

	"github.com/aleksaelezovic/qlgo/internal/sparql/executor"
	"github.com/aleksaelezovic/qlgo/pkg/rdf"
)

// SPARQL JSON Results Format
// https://www.w3.org/TR/sparql11-results-json/

// SPARQLResultsJSON represents the JSON format for SPARQL query results
type SPARQLResultsJSON struct {
	Head    ResultHead      `json:"head"`
	Results *ResultBindings `json:"results,omitempty"`
	Boolean *bool           `json:"boolean,omitempty"`
}

// ResultHead contains the variable names
type ResultHead struct {
	Vars []string `json:"vars"`
}

// ResultBindings contains the result bindings
type ResultBindings struct {
	Bindings []map[string]BindingValue `json:"bindings"`
}

// BindingValue represents a single bound value
type BindingValue struct {
	Type     string  `json:"type"`
	Value    string  `json:"value"`
	Datatype *string `json:"datatype,omitempty"`
	XMLLang  *string `json:"xml:lang,omitempty"`
}

// selectVarNames extracts the projected variable names of a SELECT result,
// falling back to the union of bound variable names (SELECT *).
func selectVarNames(result *executor.SelectResult) []string {
	if result.Variables != nil {
		varNames := make([]string, 0, len(result.Variables))
		for _, v := range result.Variables {
			varNames = append(varNames, v.Name)
		}
		return varNames
	}

	varSet := make(map[string]bool)
	var varNames []string
	for _, binding := range result.Bindings {
		for varName := range binding.Vars {
			if !varSet[varName] {
				varSet[varName] = true
				varNames = append(varNames, varName)
			}
		}
	}
	sort.Strings(varNames)
	return varNames
}

// FormatSelectResultsJSON converts a SELECT result to SPARQL JSON format
func FormatSelectResultsJSON(result *executor.SelectResult) ([]byte, error) {
	varNames := selectVarNames(result)

	jsonBindings := make([]map[string]BindingValue, 0, len(result.Bindings))
	for _, binding := range result.Bindings {
		jsonBinding := make(map[string]BindingValue)
		for varName, term := range binding.Vars {
			jsonBinding[varName] = termToBindingValue(term)
		}
		jsonBindings = append(jsonBindings, jsonBinding)
	}

	sparqlResult := SPARQLResultsJSON{
		Head: ResultHead{
			Vars: varNames,
		},
		Results: &ResultBindings{
			Bindings: jsonBindings,
		},
	}

	return json.MarshalIndent(sparqlResult, "", "  ")
}

// FormatAskResultJSON converts an ASK result to SPARQL JSON format
func FormatAskResultJSON(result *executor.AskResult) ([]byte, error) {
	sparqlResult := SPARQLResultsJSON{
		Head:    ResultHead{Vars: []string{}},
		Boolean: &result.Result,
	}

	return json.MarshalIndent(sparqlResult, "", "  ")
}

// termToBindingValue converts an RDF term to a SPARQL JSON binding value
func termToBindingValue(term rdf.Term) BindingValue {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return BindingValue{Type: "uri", Value: t.IRI}

	case *rdf.BlankNode:
		return BindingValue{Type: "bnode", Value: t.ID}

	case *rdf.Literal:
		bv := BindingValue{Type: "literal", Value: t.Value}
		if t.Language != "" {
			bv.XMLLang = &t.Language
		} else if t.Datatype != nil {
			datatypeIRI := t.Datatype.IRI
			bv.Datatype = &datatypeIRI
		}
		return bv

	default:
		return BindingValue{Type: "literal", Value: term.String()}
	}
}

// SPARQL XML Results Format
// https://www.w3.org/TR/rdf-sparql-XMLres/

// FormatSelectResultsXML converts a SELECT result to SPARQL XML format
func FormatSelectResultsXML(result *executor.SelectResult) ([]byte, error) {
	varNames := selectVarNames(result)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>
<sparql xmlns="http://www.w3.org/2005/sparql-results#">
  <head>
`)
	for _, varName := range varNames {
		b.WriteString("    <variable name=\"" + varName + "\"/>\n")
	}
	b.WriteString("  </head>\n  <results>\n")

	for _, binding := range result.Bindings {
		b.WriteString("    <result>\n")
		for varName, term := range binding.Vars {
			b.WriteString("      <binding name=\"" + varName + "\">\n")
			b.WriteString(termToXML(term, "        "))
			b.WriteString("      </binding>\n")
		}
		b.WriteString("    </result>\n")
	}

	b.WriteString("  </results>\n</sparql>\n")
	return []byte(b.String()), nil
}

// FormatAskResultXML converts an ASK result to SPARQL XML format
func FormatAskResultXML(result *executor.AskResult) ([]byte, error) {
	boolStr := "false"
	if result.Result {
		boolStr = "true"
	}
	xml := `<?xml version="1.0"?>
<sparql xmlns="http://www.w3.org/2005/sparql-results#">
  <head/>
  <boolean>` + boolStr + `</boolean>
</sparql>
`
	return []byte(xml), nil
}

func termToXML(term rdf.Term, indent string) string {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return indent + "<uri>" + xmlEscape(t.IRI) + "</uri>\n"

	case *rdf.BlankNode:
		return indent + "<bnode>" + xmlEscape(t.ID) + "</bnode>\n"

	case *rdf.Literal:
		if t.Language != "" {
			return indent + "<literal xml:lang=\"" + t.Language + "\">" + xmlEscape(t.Value) + "</literal>\n"
		} else if t.Datatype != nil {
			return indent + "<literal datatype=\"" + xmlEscape(t.Datatype.IRI) + "\">" + xmlEscape(t.Value) + "</literal>\n"
		}
		return indent + "<literal>" + xmlEscape(t.Value) + "</literal>\n"

	default:
		return indent + "<literal>" + xmlEscape(term.String()) + "</literal>\n"
	}
}

func xmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

// SPARQL CSV/TSV Results Format
// https://www.w3.org/TR/sparql11-results-csv-tsv/

// FormatSelectResultsCSV converts a SELECT result to SPARQL CSV format
func FormatSelectResultsCSV(result *executor.SelectResult) ([]byte, error) {
	varNames := selectVarNames(result)

	var builder strings.Builder
	w := csv.NewWriter(&builder)

	if err := w.Write(varNames); err != nil {
		return nil, err
	}
	for _, binding := range result.Bindings {
		row := make([]string, len(varNames))
		for i, varName := range varNames {
			if term, ok := binding.Vars[varName]; ok {
				row[i] = termToCSVValue(term)
			}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(builder.String()), nil
}

// FormatAskResultCSV converts an ASK result to SPARQL CSV format
func FormatAskResultCSV(result *executor.AskResult) ([]byte, error) {
	var builder strings.Builder
	w := csv.NewWriter(&builder)

	if err := w.Write([]string{"result"}); err != nil {
		return nil, err
	}
	value := "false"
	if result.Result {
		value = "true"
	}
	if err := w.Write([]string{value}); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(builder.String()), nil
}

func termToCSVValue(term rdf.Term) string {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return t.IRI
	case *rdf.BlankNode:
		return "_:" + t.ID
	case *rdf.Literal:
		if t.Language != "" {
			return t.Value + "@" + t.Language
		}
		return t.Value
	default:
		return term.String()
	}
}

// FormatSelectResultsTSV converts a SELECT result to SPARQL TSV format
func FormatSelectResultsTSV(result *executor.SelectResult) ([]byte, error) {
	varNames := selectVarNames(result)

	var b strings.Builder
	for i, varName := range varNames {
		if i > 0 {
			b.WriteString("\t")
		}
		b.WriteString("?" + varName)
	}
	b.WriteString("\n")

	for _, binding := range result.Bindings {
		for i, varName := range varNames {
			if i > 0 {
				b.WriteString("\t")
			}
			if term, ok := binding.Vars[varName]; ok {
				b.WriteString(termToTSVValue(term))
			}
		}
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

// FormatAskResultTSV converts an ASK result to SPARQL TSV format
func FormatAskResultTSV(result *executor.AskResult) ([]byte, error) {
	var b strings.Builder
	b.WriteString("?result\n")
	if result.Result {
		b.WriteString("true")
	} else {
		b.WriteString("false")
	}
	b.WriteString("\n")
	return []byte(b.String()), nil
}

func termToTSVValue(term rdf.Term) string {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return "<" + t.IRI + ">"
	case *rdf.BlankNode:
		return "_:" + t.ID
	case *rdf.Literal:
		if t.Language != "" {
			return "\"" + escapeTSVString(t.Value) + "\"@" + t.Language
		} else if t.Datatype != nil {
			datatypeIRI := t.Datatype.IRI
			if datatypeIRI == "http://www.w3.org/2001/XMLSchema#integer" ||
				datatypeIRI == "http://www.w3.org/2001/XMLSchema#decimal" ||
				datatypeIRI == "http://www.w3.org/2001/XMLSchema#double" {
				return t.Value
			}
			return "\"" + escapeTSVString(t.Value) + "\"^^<" + datatypeIRI + ">"
		}
		return "\"" + escapeTSVString(t.Value) + "\""
	default:
		return term.String()
	}
}

func escapeTSVString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}
