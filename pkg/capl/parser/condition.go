package parser

import (
	"fmt"

	"capl-hq/capl/pkg/capl/ast"
	caplErrors "capl-hq/capl/pkg/capl/errors"
	"capl-hq/capl/pkg/capl/lexer"
)

var categoryNames = func() []string {
	names := make([]string, 0, len(ast.Categories))
	for _, c := range ast.Categories {
		names = append(names, string(c))
	}
	return names
}()

// parseConditionLine parses one logical condition line:
//
//	Condition = Category Polarity Operator Value ("OR" Category Operator Value)*
//
// OR-joined terms must share category, operator, and polarity; they collapse
// into a single condition node with several values. Mixing categories across
// OR is illegal.
func (p *Parser) parseConditionLine() (*ast.Condition, error) {
	first, err := p.parseConditionTerm()
	if err != nil {
		return nil, err
	}

	for p.atKeyword("OR") {
		orTok := p.advance()
		next, err := p.parseConditionTerm()
		if err != nil {
			return nil, err
		}

		if next.Category != first.Category {
			p.errs.Add(&caplErrors.Error{
				Type: caplErrors.ErrorTypeSemantic,
				Rule: caplErrors.RuleCrossCategoryOR,
				Message: fmt.Sprintf("cannot join %s and %s conditions with OR",
					first.Category, next.Category),
				Location:   p.loc(orTok),
				Suggestion: "Put each category on its own condition line; condition lines are AND-joined",
			})
			return nil, errBadStatement
		}
		if next.Operator != first.Operator || next.Negated != first.Negated || next.Scope != first.Scope {
			p.errs.AddSyntaxError(caplErrors.RuleOROperator,
				"conditions joined by OR must share operator and polarity", p.loc(orTok))
			return nil, errBadStatement
		}

		first.Values = append(first.Values, next.Values...)
	}

	if err := p.expectNewline(caplErrors.RuleCondition); err != nil {
		return nil, err
	}
	return first, nil
}

// parseConditionTerm parses a single category/operator/value term.
//
// Forms by category:
//
//	user is All|Guest
//	user [NOT] in group|role "Name" [id]   (or a declared variable name)
//	app is All|Office365 ; app in "Name" [id]
//	platform is <name> ; device is <state> ; client is <type>
//	location is Trusted|All ; location in "Name" [id]
//	signin-risk is High|Medium|Low ; user-risk is High|Medium|Low
func (p *Parser) parseConditionTerm() (*ast.Condition, error) {
	if !p.at(lexer.TokenIdent) {
		p.errs.AddSyntaxError(caplErrors.RuleCondition,
			fmt.Sprintf("expected condition category, found %s", p.cur()), p.loc(p.cur()))
		return nil, errBadStatement
	}
	catTok := p.cur()
	if !ast.IsCategory(catTok.Value) {
		p.errs.Add(&caplErrors.Error{
			Type:       caplErrors.ErrorTypeSyntax,
			Rule:       caplErrors.RuleCondition,
			Message:    fmt.Sprintf("unknown condition category %q", catTok.Value),
			Location:   p.loc(catTok),
			Suggestion: caplErrors.SuggestKeyword(catTok.Value, categoryNames),
		})
		return nil, errBadStatement
	}
	p.advance()

	cond := &ast.Condition{
		Category: ast.Category(catTok.Value),
		Location: p.loc(catTok),
	}

	if p.atKeyword("NOT") {
		cond.Negated = true
		p.advance()
	}

	if !p.at(lexer.TokenIdent) || (p.cur().Value != "is" && p.cur().Value != "in") {
		p.errs.Add(&caplErrors.Error{
			Type:       caplErrors.ErrorTypeSyntax,
			Rule:       caplErrors.RuleCondition,
			Message:    fmt.Sprintf("expected 'is' or 'in' after %s, found %s", cond.Category, p.cur()),
			Location:   p.loc(p.cur()),
			Suggestion: "Conditions use 'is' for built-in values and 'in' for named entities",
		})
		return nil, errBadStatement
	}
	cond.Operator = ast.MatchOp(p.advance().Value)

	switch cond.Operator {
	case ast.OpIs:
		if !p.at(lexer.TokenIdent) {
			p.errs.AddSyntaxError(caplErrors.RuleCondition,
				fmt.Sprintf("expected value after 'is', found %s", p.cur()), p.loc(p.cur()))
			return nil, errBadStatement
		}
		cond.Values = []ast.Value{{Name: p.advance().Value}}

	case ast.OpIn:
		// Optional group/role narrowing for user membership.
		if cond.Category == ast.CategoryUser && p.at(lexer.TokenIdent) {
			switch p.cur().Value {
			case "group":
				cond.Scope = ast.ScopeGroup
				p.advance()
			case "role":
				cond.Scope = ast.ScopeRole
				p.advance()
			}
		}

		value, err := p.parseEntityValue(cond.Category)
		if err != nil {
			return nil, err
		}
		cond.Values = []ast.Value{value}
	}

	return cond, nil
}

// parseEntityValue parses the value of an 'in' condition: either an inline
// display-name/identifier pair ("Name" [id]) or a bare identifier referencing
// a declared variable. Variable references are resolved after parsing.
func (p *Parser) parseEntityValue(cat ast.Category) (ast.Value, error) {
	switch {
	case p.at(lexer.TokenString):
		name := p.advance()
		if !p.at(lexer.TokenBracketIdent) {
			p.errs.AddSyntaxError(caplErrors.RuleCondition,
				fmt.Sprintf("expected [identifier] after %q, found %s", name.Value, p.cur()), p.loc(p.cur()))
			return ast.Value{}, errBadStatement
		}
		id := p.advance()
		if id.Value == "" {
			p.errs.AddSyntaxError(caplErrors.RuleCondition,
				fmt.Sprintf("identifier for %q must not be empty", name.Value), p.loc(id))
			return ast.Value{}, errBadStatement
		}
		return ast.Value{Name: name.Value, ID: id.Value}, nil

	case p.at(lexer.TokenIdent):
		ref := p.advance()
		return ast.Value{VarRef: ref.Value}, nil

	default:
		p.errs.AddSyntaxError(caplErrors.RuleCondition,
			fmt.Sprintf("expected entity name or variable after '%s in', found %s", cat, p.cur()), p.loc(p.cur()))
		return ast.Value{}, errBadStatement
	}
}
