package parser

import (
	stderrors "errors"
	"fmt"
	"os"
	"strconv"

	"capl-hq/capl/pkg/capl/ast"
	caplErrors "capl-hq/capl/pkg/capl/errors"
	"capl-hq/capl/pkg/capl/lexer"
)

// errBadStatement aborts the current top-level statement. The diagnostic has
// already been recorded; the program loop resynchronizes and continues.
var errBadStatement = stderrors.New("statement aborted")

// Parser parses CAPL source into an abstract syntax tree.
type Parser struct {
	maxFileSize int64 // Maximum source size in bytes (default: 1MB)
	maxDepth    int   // Maximum IF nesting depth (default: 32)

	// Per-run state
	file    string
	toks    []lexer.Token
	pos     int
	errs    *caplErrors.ErrorList
	program *ast.Program
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 1 * 1024 * 1024,
		maxDepth:    32,
	}
}

// WithMaxFileSize sets the maximum source size limit.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// WithMaxDepth sets the maximum IF nesting depth.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	p.maxDepth = depth
	return p
}

// Parse parses the CAPL file at the given path.
//
// The returned program contains every cleanly parsed top-level statement;
// statements that produced diagnostics are dropped. The returned error is a
// *errors.ErrorList holding all diagnostics, or nil when the file parsed
// cleanly. A non-nil error does not imply a nil program: partial success is
// allowed per top-level statement.
func (p *Parser) Parse(path string) (*ast.Program, error) {
	info, err := os.Stat(path)
	if err != nil {
		errs := caplErrors.NewErrorList()
		errs.AddError(caplErrors.ErrorTypeIO,
			fmt.Sprintf("failed to access file: %v", err),
			ast.Location{File: path})
		return nil, errs
	}
	if info.Size() > p.maxFileSize {
		errs := caplErrors.NewErrorList()
		errs.AddError(caplErrors.ErrorTypeIO,
			fmt.Sprintf("file size %d exceeds maximum %d bytes", info.Size(), p.maxFileSize),
			ast.Location{File: path})
		return nil, errs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		errs := caplErrors.NewErrorList()
		errs.AddError(caplErrors.ErrorTypeIO,
			fmt.Sprintf("failed to read file: %v", err),
			ast.Location{File: path})
		return nil, errs
	}

	program, parseErr := p.ParseBytes(data, path)
	if parseErr != nil {
		if errList, ok := parseErr.(*caplErrors.ErrorList); ok {
			caplErrors.AddContextToList(errList)
		}
	}
	return program, parseErr
}

// ParseBytes parses CAPL source from a byte slice. sourcePath is used for
// locations only.
func (p *Parser) ParseBytes(data []byte, sourcePath string) (*ast.Program, error) {
	if int64(len(data)) > p.maxFileSize {
		errs := caplErrors.NewErrorList()
		errs.AddError(caplErrors.ErrorTypeIO,
			fmt.Sprintf("source size %d exceeds maximum %d bytes", len(data), p.maxFileSize),
			ast.Location{File: sourcePath})
		return nil, errs
	}

	p.file = sourcePath
	p.errs = caplErrors.NewErrorList()
	p.program = &ast.Program{SourceFile: sourcePath}
	p.toks = p.scan(string(data))
	p.pos = 0

	p.parseProgram()

	return p.program, p.errs.ToError()
}

// scan tokenizes the source, dropping comments and converting lexer error
// tokens into lex diagnostics. Lexical errors are recoverable: the offending
// character is skipped and scanning continues.
func (p *Parser) scan(src string) []lexer.Token {
	lex := lexer.New(src)
	var toks []lexer.Token
	for {
		tok := lex.Next()
		switch tok.Type {
		case lexer.TokenComment:
			continue
		case lexer.TokenError:
			p.errs.Add(&caplErrors.Error{
				Type:     caplErrors.ErrorTypeLex,
				Message:  tok.Value,
				Location: p.loc(tok),
			})
			continue
		}
		toks = append(toks, tok)
		if tok.Type == lexer.TokenEOF {
			return toks
		}
	}
}

func (p *Parser) loc(tok lexer.Token) ast.Location {
	return ast.Location{File: p.file, Line: tok.Line, Column: tok.Column}
}

func (p *Parser) cur() lexer.Token {
	return p.toks[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.toks[p.pos]
	if tok.Type != lexer.TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) at(t lexer.TokenType) bool {
	return p.cur().Type == t
}

func (p *Parser) atKeyword(kw string) bool {
	return p.cur().Is(kw)
}

func (p *Parser) skipNewlines() {
	for p.at(lexer.TokenNewline) {
		p.advance()
	}
}

// expectNewline consumes the end of a logical line.
func (p *Parser) expectNewline(rule string) error {
	if p.at(lexer.TokenEOF) {
		return nil
	}
	if !p.at(lexer.TokenNewline) {
		tok := p.cur()
		p.errs.AddSyntaxError(rule,
			fmt.Sprintf("unexpected %s at end of line", tok), p.loc(tok))
		return errBadStatement
	}
	p.advance()
	return nil
}

// parseProgram is the top-level production:
//
//	Program = (VarDecl | IfStmt | Comment)*
func (p *Parser) parseProgram() {
	for {
		p.skipNewlines()
		if p.at(lexer.TokenEOF) {
			return
		}

		switch {
		case p.atKeyword("VAR"):
			if err := p.parseVarDecl(); err != nil {
				p.syncLine()
			}
		case p.atKeyword("IF"):
			before := p.errs.Count()
			stmt, err := p.parseIfStmt(1)
			if err != nil {
				p.syncStatement()
				continue
			}
			// A statement that produced diagnostics is withheld from the
			// program; its errors stay in the list.
			if p.errs.Count() == before {
				p.program.Statements = append(p.program.Statements, stmt)
			}
		default:
			tok := p.cur()
			p.errs.Add(&caplErrors.Error{
				Type:       caplErrors.ErrorTypeSyntax,
				Rule:       caplErrors.RuleTopLevel,
				Message:    fmt.Sprintf("expected VAR or IF at top level, found %s", tok),
				Location:   p.loc(tok),
				Suggestion: caplErrors.SuggestKeyword(tok.Value, lexer.KeywordList()),
			})
			p.syncLine()
		}
	}
}

// syncLine skips to the start of the next line.
func (p *Parser) syncLine() {
	for !p.at(lexer.TokenEOF) && !p.at(lexer.TokenNewline) {
		p.advance()
	}
	p.skipNewlines()
}

// syncStatement recovers from a failed IF statement by skipping tokens until
// the tree's nesting is balanced, so parsing resumes at the next top-level
// statement boundary.
func (p *Parser) syncStatement() {
	depth := 1
	prevWasElse := false
	for depth > 0 && !p.at(lexer.TokenEOF) {
		tok := p.advance()
		switch {
		case tok.Is("IF"):
			// ELSE IF continues the current block rather than opening one.
			if !prevWasElse {
				depth++
			}
		case tok.Is("END"):
			depth--
		}
		prevWasElse = tok.Is("ELSE")
	}
	p.skipNewlines()
}

// parseVarDecl parses:
//
//	VarDecl = "VAR" Ident "=" String "[" Token "]"
func (p *Parser) parseVarDecl() error {
	start := p.advance() // VAR

	if !p.at(lexer.TokenIdent) {
		p.errs.AddSyntaxError(caplErrors.RuleVarDecl,
			fmt.Sprintf("expected variable name after VAR, found %s", p.cur()), p.loc(p.cur()))
		return errBadStatement
	}
	name := p.advance()

	if !p.at(lexer.TokenEquals) {
		p.errs.AddSyntaxError(caplErrors.RuleVarDecl,
			fmt.Sprintf("expected '=' after variable name %q, found %s", name.Value, p.cur()), p.loc(p.cur()))
		return errBadStatement
	}
	p.advance()

	if !p.at(lexer.TokenString) {
		p.errs.AddSyntaxError(caplErrors.RuleVarDecl,
			fmt.Sprintf("expected quoted display name in declaration of %q, found %s", name.Value, p.cur()), p.loc(p.cur()))
		return errBadStatement
	}
	display := p.advance()

	if !p.at(lexer.TokenBracketIdent) {
		p.errs.AddSyntaxError(caplErrors.RuleVarDecl,
			fmt.Sprintf("expected [identifier] in declaration of %q, found %s", name.Value, p.cur()), p.loc(p.cur()))
		return errBadStatement
	}
	id := p.advance()

	if id.Value == "" {
		p.errs.AddSyntaxError(caplErrors.RuleVarDecl,
			fmt.Sprintf("identifier value of %q must not be empty", name.Value), p.loc(id))
		return errBadStatement
	}

	if err := p.expectNewline(caplErrors.RuleVarDecl); err != nil {
		return err
	}

	p.program.AddVariable(&ast.Variable{
		Name:     name.Value,
		Display:  display.Value,
		ID:       id.Value,
		Location: p.loc(start),
	})
	return nil
}

// parseIfStmt parses:
//
//	IfStmt = "IF" Condition+ "STATE" State (ActionList|IfStmt)
//	         ("ELSE" "IF" Condition+ "STATE" State (ActionList|IfStmt))*
//	         ("ELSE" "STATE" State (ActionList|IfStmt))?
//	         "END"
func (p *Parser) parseIfStmt(depth int) (*ast.IfStmt, error) {
	start := p.cur()
	if depth > p.maxDepth {
		p.errs.AddSyntaxError(caplErrors.RuleTopLevel,
			fmt.Sprintf("IF nesting exceeds maximum depth %d", p.maxDepth), p.loc(start))
		return nil, errBadStatement
	}

	stmt := &ast.IfStmt{Location: p.loc(start)}
	p.advance() // IF

	branch, err := p.parseBranch(depth)
	if err != nil {
		return nil, err
	}
	stmt.If = branch

	for {
		p.skipNewlines()
		switch {
		case p.atKeyword("ELSE"):
			elseTok := p.advance()
			if p.atKeyword("IF") {
				if stmt.Else != nil {
					p.errs.AddSyntaxError(caplErrors.RuleExpectedEnd,
						"ELSE IF after terminal ELSE", p.loc(elseTok))
					return nil, errBadStatement
				}
				p.advance() // IF
				b, err := p.parseBranch(depth)
				if err != nil {
					return nil, err
				}
				stmt.ElseIfs = append(stmt.ElseIfs, b)
				continue
			}
			if stmt.Else != nil {
				p.errs.AddSyntaxError(caplErrors.RuleExpectedEnd,
					"duplicate ELSE branch", p.loc(elseTok))
				return nil, errBadStatement
			}
			b := &ast.Branch{Location: p.loc(elseTok)}
			if err := p.parseStateBlock(b, depth); err != nil {
				return nil, err
			}
			stmt.Else = b
		case p.atKeyword("END"):
			p.advance()
			// END closes the line
			if !p.at(lexer.TokenEOF) && !p.at(lexer.TokenNewline) && !p.atKeyword("ELSE") && !p.atKeyword("END") {
				p.errs.AddSyntaxError(caplErrors.RuleExpectedEnd,
					fmt.Sprintf("unexpected %s after END", p.cur()), p.loc(p.cur()))
				return nil, errBadStatement
			}
			return stmt, nil
		case p.at(lexer.TokenEOF):
			p.errs.AddSyntaxError(caplErrors.RuleExpectedEnd,
				"expected END to close IF statement", p.loc(start))
			return nil, errBadStatement
		default:
			p.errs.AddSyntaxError(caplErrors.RuleExpectedEnd,
				fmt.Sprintf("expected ELSE or END, found %s", p.cur()), p.loc(p.cur()))
			return nil, errBadStatement
		}
	}
}

// parseBranch parses the conditions and body of an IF or ELSE IF arm. The
// first condition sits on the same line as the IF keyword; further condition
// lines follow until the STATE line.
func (p *Parser) parseBranch(depth int) (*ast.Branch, error) {
	branch := &ast.Branch{Location: p.loc(p.cur())}

	// First condition is on the IF line itself.
	if p.at(lexer.TokenNewline) || p.atKeyword("STATE") {
		p.errs.Add(&caplErrors.Error{
			Type:     caplErrors.ErrorTypeSemantic,
			Rule:     caplErrors.RuleExpectedCondition,
			Message:  "IF requires at least one condition",
			Location: p.loc(p.cur()),
		})
		return nil, errBadStatement
	}

	cond, err := p.parseConditionLine()
	if err != nil {
		return nil, err
	}
	branch.Conditions = append(branch.Conditions, cond)

	// Additional condition lines until STATE.
	for {
		p.skipNewlines()
		if p.atKeyword("STATE") {
			break
		}
		if p.atKeyword("REQUIRE") || p.atKeyword("BLOCK") || p.atKeyword("ALLOW") || p.atKeyword("SESSION") {
			p.errs.AddSyntaxError(caplErrors.RuleActionBeforeState,
				fmt.Sprintf("expected STATE before action %s", p.cur()), p.loc(p.cur()))
			return nil, errBadStatement
		}
		if p.at(lexer.TokenEOF) || p.atKeyword("ELSE") || p.atKeyword("END") || p.atKeyword("IF") {
			p.errs.AddSyntaxError(caplErrors.RuleExpectedState,
				fmt.Sprintf("expected STATE, found %s", p.cur()), p.loc(p.cur()))
			return nil, errBadStatement
		}
		cond, err := p.parseConditionLine()
		if err != nil {
			return nil, err
		}
		branch.Conditions = append(branch.Conditions, cond)
	}

	if err := p.parseStateBlock(branch, depth); err != nil {
		return nil, err
	}
	return branch, nil
}

// parseStateBlock parses the STATE line and the branch payload: either a
// flat action list or a nested IF statement, never both.
func (p *Parser) parseStateBlock(branch *ast.Branch, depth int) error {
	p.skipNewlines()

	if p.atKeyword("REQUIRE") || p.atKeyword("BLOCK") || p.atKeyword("ALLOW") || p.atKeyword("SESSION") {
		p.errs.AddSyntaxError(caplErrors.RuleActionBeforeState,
			fmt.Sprintf("expected STATE before action %s", p.cur()), p.loc(p.cur()))
		return errBadStatement
	}
	if !p.atKeyword("STATE") {
		p.errs.AddSyntaxError(caplErrors.RuleExpectedState,
			fmt.Sprintf("expected STATE, found %s", p.cur()), p.loc(p.cur()))
		return errBadStatement
	}
	p.advance() // STATE

	if !p.at(lexer.TokenIdent) {
		p.errs.AddSyntaxError(caplErrors.RuleInvalidState,
			fmt.Sprintf("expected state value after STATE, found %s", p.cur()), p.loc(p.cur()))
		return errBadStatement
	}
	stateTok := p.advance()
	if !ast.IsValidState(stateTok.Value) {
		p.errs.Add(&caplErrors.Error{
			Type:       caplErrors.ErrorTypeSyntax,
			Rule:       caplErrors.RuleInvalidState,
			Message:    fmt.Sprintf("invalid state %q", stateTok.Value),
			Location:   p.loc(stateTok),
			Suggestion: caplErrors.SuggestState(stateTok.Value),
		})
		return errBadStatement
	}
	branch.State = ast.State(stateTok.Value)

	if err := p.expectNewline(caplErrors.RuleInvalidState); err != nil {
		return err
	}

	p.skipNewlines()

	// Nested IF instead of a flat action list deepens the tree.
	if p.atKeyword("IF") {
		nested, err := p.parseIfStmt(depth + 1)
		if err != nil {
			return err
		}
		branch.Nested = nested
		return nil
	}

	for p.atKeyword("REQUIRE") || p.atKeyword("BLOCK") || p.atKeyword("ALLOW") || p.atKeyword("SESSION") {
		action, err := p.parseAction()
		if err != nil {
			return err
		}
		branch.Actions = append(branch.Actions, action)
		p.skipNewlines()
	}

	if len(branch.Actions) == 0 {
		p.errs.AddSyntaxError(caplErrors.RuleExpectedAction,
			fmt.Sprintf("expected at least one action after STATE %s", branch.State), p.loc(p.cur()))
		return errBadStatement
	}
	return nil
}

// parseAction parses a single action line:
//
//	Grant   = "REQUIRE" Control ("OR" Control)?
//	Session = "SESSION" SessionKind Params
//	          | "BLOCK" | "ALLOW"
func (p *Parser) parseAction() (*ast.Action, error) {
	tok := p.advance()
	action := &ast.Action{Location: p.loc(tok)}

	switch tok.Value {
	case "BLOCK":
		action.Kind = ast.ActionBlock
	case "ALLOW":
		action.Kind = ast.ActionAllow
	case "REQUIRE":
		action.Kind = ast.ActionGrant
		if !p.at(lexer.TokenIdent) {
			p.errs.AddSyntaxError(caplErrors.RuleExpectedAction,
				fmt.Sprintf("expected control name after REQUIRE, found %s", p.cur()), p.loc(p.cur()))
			return nil, errBadStatement
		}
		action.Controls = append(action.Controls, p.advance().Value)
		if p.atKeyword("OR") {
			p.advance()
			if !p.at(lexer.TokenIdent) {
				p.errs.AddSyntaxError(caplErrors.RuleExpectedAction,
					fmt.Sprintf("expected control name after OR, found %s", p.cur()), p.loc(p.cur()))
				return nil, errBadStatement
			}
			action.Controls = append(action.Controls, p.advance().Value)
		}
		if p.atKeyword("OR") {
			// REQUIRE A OR B OR C: alternates are a pair, never a chain.
			p.errs.Add(&caplErrors.Error{
				Type:       caplErrors.ErrorTypeSyntax,
				Rule:       caplErrors.RuleGrantORChain,
				Message:    "REQUIRE accepts at most two alternative controls",
				Location:   p.loc(p.cur()),
				Suggestion: "Split the requirement into separate policies or REQUIRE lines",
			})
			return nil, errBadStatement
		}
	case "SESSION":
		action.Kind = ast.ActionSession
		session, err := p.parseSessionControl()
		if err != nil {
			return nil, err
		}
		action.Session = session
	}

	if err := p.expectNewline(caplErrors.RuleExpectedAction); err != nil {
		return nil, err
	}
	return action, nil
}

// parseSessionControl parses the parameters of a SESSION action:
//
//	SESSION signin-frequency <number> hours|days
//	SESSION persistent-browser always|never
//	SESSION monitor with CloudAppSecurity
//	SESSION block-downloads
func (p *Parser) parseSessionControl() (*ast.SessionControl, error) {
	if !p.at(lexer.TokenIdent) {
		p.errs.AddSyntaxError(caplErrors.RuleSessionKind,
			fmt.Sprintf("expected session control kind after SESSION, found %s", p.cur()), p.loc(p.cur()))
		return nil, errBadStatement
	}
	kindTok := p.advance()

	switch ast.SessionKind(kindTok.Value) {
	case ast.SessionSignInFrequency:
		if !p.at(lexer.TokenNumber) {
			p.errs.AddSyntaxError(caplErrors.RuleSessionKind,
				fmt.Sprintf("expected interval count after signin-frequency, found %s", p.cur()), p.loc(p.cur()))
			return nil, errBadStatement
		}
		numTok := p.advance()
		value, err := strconv.Atoi(numTok.Value)
		if err != nil || value <= 0 {
			p.errs.AddSyntaxError(caplErrors.RuleSessionKind,
				fmt.Sprintf("invalid signin-frequency interval %q", numTok.Value), p.loc(numTok))
			return nil, errBadStatement
		}
		if !p.at(lexer.TokenIdent) {
			p.errs.AddSyntaxError(caplErrors.RuleSessionKind,
				fmt.Sprintf("expected hours or days after interval, found %s", p.cur()), p.loc(p.cur()))
			return nil, errBadStatement
		}
		unitTok := p.advance()
		unit := normalizeUnit(unitTok.Value)
		if unit == "" {
			p.errs.Add(&caplErrors.Error{
				Type:       caplErrors.ErrorTypeSyntax,
				Rule:       caplErrors.RuleSessionKind,
				Message:    fmt.Sprintf("invalid signin-frequency unit %q", unitTok.Value),
				Location:   p.loc(unitTok),
				Suggestion: "Valid units: hours, days",
			})
			return nil, errBadStatement
		}
		return &ast.SessionControl{Kind: ast.SessionSignInFrequency, Value: value, Unit: unit}, nil

	case ast.SessionPersistentBrowser:
		if !p.at(lexer.TokenIdent) || (p.cur().Value != "always" && p.cur().Value != "never") {
			p.errs.Add(&caplErrors.Error{
				Type:       caplErrors.ErrorTypeSyntax,
				Rule:       caplErrors.RuleSessionKind,
				Message:    fmt.Sprintf("expected always or never after persistent-browser, found %s", p.cur()),
				Location:   p.loc(p.cur()),
				Suggestion: "Valid modes: always, never",
			})
			return nil, errBadStatement
		}
		mode := p.advance().Value
		return &ast.SessionControl{Kind: ast.SessionPersistentBrowser, Mode: mode}, nil

	case ast.SessionCloudAppMonitor:
		// monitor with CloudAppSecurity
		if p.at(lexer.TokenIdent) && p.cur().Value == "with" {
			p.advance()
		}
		if !p.at(lexer.TokenIdent) || p.cur().Value != "CloudAppSecurity" {
			p.errs.AddSyntaxError(caplErrors.RuleSessionKind,
				fmt.Sprintf("expected CloudAppSecurity after monitor, found %s", p.cur()), p.loc(p.cur()))
			return nil, errBadStatement
		}
		p.advance()
		return &ast.SessionControl{Kind: ast.SessionCloudAppMonitor}, nil

	case ast.SessionBlockDownloads:
		return &ast.SessionControl{Kind: ast.SessionBlockDownloads}, nil

	default:
		p.errs.Add(&caplErrors.Error{
			Type:     caplErrors.ErrorTypeSyntax,
			Rule:     caplErrors.RuleSessionKind,
			Message:  fmt.Sprintf("unknown session control %q", kindTok.Value),
			Location: p.loc(kindTok),
			Suggestion: caplErrors.SuggestKeyword(kindTok.Value, []string{
				string(ast.SessionSignInFrequency),
				string(ast.SessionPersistentBrowser),
				string(ast.SessionCloudAppMonitor),
				string(ast.SessionBlockDownloads),
			}),
		})
		return nil, errBadStatement
	}
}

func normalizeUnit(s string) string {
	switch s {
	case "hour", "hours":
		return "hours"
	case "day", "days":
		return "days"
	}
	return ""
}
