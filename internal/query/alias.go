package query

import (
	"strings"

	"github.com/aleksaelezovic/qlgo/pkg/errs"
)

// aggregateHeads are the function names recognized as aggregates, per §3
// "Alias". Order doesn't matter; matching is by longest-keyword-prefix on
// the lower-cased function text.
var aggregateHeads = []string{
	"count", "group_concat", "first", "last", "sample", "min", "max", "sum", "avg",
}

// ParseAliases scans q.SelectItems. Any item whose first character is '(' is
// an alias; everything else is taken verbatim as a plain projected variable.
// Order-by keys whose text starts with '(' are rewritten to the matching
// alias's output variable (preserving Desc).
func (q *ParsedQuery) ParseAliases() error {
	q.Projection = q.Projection[:0]
	q.Aliases = q.Aliases[:0]

	aliasByOutVar := make(map[string]Alias)

	for _, item := range q.SelectItems {
		trimmed := strings.TrimSpace(item)
		if !strings.HasPrefix(trimmed, "(") {
			q.Projection = append(q.Projection, trimmed)
			continue
		}

		alias, err := parseAlias(trimmed)
		if err != nil {
			return err
		}

		if existing, seen := aliasByOutVar[alias.OutVar]; seen {
			if existing.IsAggregate != alias.IsAggregate || existing.Function != alias.Function {
				return errs.New(errs.CodeQueryAliasInvalid,
					"duplicate alias output variable with conflicting source function",
					errs.Field("out_var", alias.OutVar),
					errs.Field("existing_function", existing.Function),
					errs.Field("new_function", alias.Function))
			}
			// Tolerated duplicate: identical aggregate flag and function text.
			continue
		}
		aliasByOutVar[alias.OutVar] = alias

		q.Aliases = append(q.Aliases, alias)
		q.Projection = append(q.Projection, alias.OutVar)
	}

	for i := range q.OrderKeys {
		k := &q.OrderKeys[i]
		if !strings.HasPrefix(strings.TrimSpace(k.Key), "(") {
			continue
		}
		alias, err := parseAlias(strings.TrimSpace(k.Key))
		if err != nil {
			return err
		}
		k.Key = alias.OutVar
	}

	return nil
}

// parseAlias parses a single "(EXPR AS ?out)" projection item.
func parseAlias(item string) (Alias, error) {
	if !strings.HasPrefix(item, "(") || !strings.HasSuffix(item, ")") {
		return Alias{}, errs.New(errs.CodeQueryAliasInvalid,
			"alias must be wrapped in parentheses", errs.Field("fragment", item))
	}
	body := item[1 : len(item)-1]
	lowerBody := strings.ToLower(body)

	asIdx := strings.Index(lowerBody, " as ")
	if asIdx == -1 {
		return Alias{}, errs.New(errs.CodeQueryAliasInvalid,
			"alias is missing ' as ' separator", errs.Field("fragment", item))
	}

	funcText := strings.TrimSpace(body[:asIdx])
	outVar := strings.TrimSpace(body[asIdx+len(" as "):])
	lowerFunc := strings.ToLower(funcText)

	head := ""
	for _, kw := range aggregateHeads {
		if strings.HasPrefix(lowerFunc, kw+"(") {
			head = kw
			break
		}
	}
	if head == "" {
		return Alias{}, errs.New(errs.CodeQueryAliasInvalid,
			"alias function is not a recognized aggregate", errs.Field("fragment", item))
	}

	open := strings.Index(funcText, "(")
	close := strings.LastIndex(funcText, ")")
	if open == -1 || close == -1 || close < open {
		return Alias{}, errs.New(errs.CodeQueryAliasInvalid,
			"malformed aggregate call in alias", errs.Field("fragment", item))
	}
	argsText := strings.TrimSpace(funcText[open+1 : close])

	inVar := argsText
	lowerArgs := strings.ToLower(argsText)
	if strings.HasPrefix(lowerArgs, "distinct ") {
		inVar = strings.TrimSpace(argsText[len("distinct "):])
	}

	return Alias{
		InVar:       inVar,
		OutVar:      outVar,
		Function:    strings.TrimSpace(body),
		IsAggregate: true,
	}, nil
}
