package capl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	caplerrors "capl-hq/capl/pkg/capl/errors"
)

const baselineSource = `
VAR Finance = "Finance Team" [11111111-1111-1111-1111-111111111111]

IF user in group Finance
STATE enabled
IF platform is iOS OR platform is android
STATE enabled
REQUIRE MFA
ELSE
STATE enabled
REQUIRE CompliantDevice
END
ELSE
STATE report-only
BLOCK
END
`

func TestCompileBaseline(t *testing.T) {
	result := Compile([]byte(baselineSource), "baseline.capl")

	if !result.OK() {
		t.Fatalf("unexpected diagnostics:\n%s", result.Diagnostics.Error())
	}
	if len(result.Policies) != 3 {
		t.Fatalf("policies = %d, want one per leaf", len(result.Policies))
	}
	if result.Statements != 1 || result.Compiled != 1 {
		t.Errorf("Statements = %d, Compiled = %d, want 1 and 1", result.Statements, result.Compiled)
	}

	// Display names derive from the source file stem and are unique.
	seen := make(map[string]bool)
	for _, p := range result.Policies {
		if !strings.HasPrefix(p.DisplayName, "Baseline-") {
			t.Errorf("DisplayName = %q, want Baseline- prefix", p.DisplayName)
		}
		if seen[p.DisplayName] {
			t.Errorf("duplicate DisplayName %q", p.DisplayName)
		}
		seen[p.DisplayName] = true
	}

	// Every policy is self-contained: the group condition from the outer
	// branch appears on each inner policy.
	for i, p := range result.Policies[:2] {
		if p.Conditions.Users == nil || len(p.Conditions.Users.IncludeGroups) != 1 {
			t.Errorf("policy %d lost the outer group condition: %+v", i, p.Conditions)
		}
	}
}

func TestCompilePartialSuccess(t *testing.T) {
	result := Compile([]byte(`
IF user in group Undeclared
STATE enabled
REQUIRE MFA
END

IF user is All
STATE enabled
BLOCK
END
`), "partial.capl")

	if result.OK() {
		t.Fatal("expected diagnostics from the first statement")
	}
	if len(result.Policies) != 1 {
		t.Fatalf("policies = %d, want 1 from the surviving statement", len(result.Policies))
	}
	if result.Compiled != 1 {
		t.Errorf("Compiled = %d, want 1", result.Compiled)
	}
	if !result.Diagnostics.HasErrorType(caplerrors.ErrorTypeSemantic) {
		t.Errorf("expected a semantic diagnostic, got:\n%s", result.Diagnostics.Error())
	}
}

func TestCompileContradictionDropsStatement(t *testing.T) {
	result := Compile([]byte(`
IF location is Trusted
STATE enabled
IF location NOT is Trusted
STATE enabled
REQUIRE MFA
END
END
`), "contradiction.capl")

	if result.OK() {
		t.Fatal("expected a contradiction diagnostic")
	}
	if !result.Diagnostics.HasErrorType(caplerrors.ErrorTypeContradiction) {
		t.Errorf("diagnostics:\n%s", result.Diagnostics.Error())
	}
	if len(result.Policies) != 0 {
		t.Errorf("policies = %d, want 0", len(result.Policies))
	}
}

func TestCompileUnsupportedNegation(t *testing.T) {
	result := Compile([]byte(`
IF client NOT is Browser
STATE enabled
BLOCK
END
`), "negation.capl")

	if !result.Diagnostics.HasErrorType(caplerrors.ErrorTypeUnsupportedNegation) {
		t.Fatalf("diagnostics:\n%s", result.Diagnostics.Error())
	}
	if len(result.Policies) != 0 {
		t.Errorf("policies = %d, want 0", len(result.Policies))
	}
}

func TestCompileWithNamePrefix(t *testing.T) {
	c := New(WithNamePrefix("Corp"))
	result := c.Compile([]byte(`
IF user is All
STATE enabled
BLOCK
END
`), "whatever.capl")

	if !result.OK() {
		t.Fatalf("diagnostics:\n%s", result.Diagnostics.Error())
	}
	if !strings.HasPrefix(result.Policies[0].DisplayName, "Corp-1") {
		t.Errorf("DisplayName = %q", result.Policies[0].DisplayName)
	}
}

func TestCompileWithOptimizeMergesIdenticalOutcomes(t *testing.T) {
	src := `
IF platform is iOS
STATE enabled
REQUIRE MFA
ELSE IF platform is android
STATE enabled
REQUIRE MFA
END
`
	plain := Compile([]byte(src), "opt.capl")
	if len(plain.Policies) != 2 {
		t.Fatalf("unoptimized policies = %d, want 2", len(plain.Policies))
	}

	optimized := New(WithOptimize()).Compile([]byte(src), "opt.capl")
	if len(optimized.Policies) != 1 {
		t.Fatalf("optimized policies = %d, want 1", len(optimized.Policies))
	}
	merged := optimized.Policies[0]
	got := merged.Conditions.Platforms.IncludePlatforms
	if len(got) != 2 {
		t.Errorf("merged IncludePlatforms = %v, want both platforms", got)
	}
}

func TestCompileFileMissing(t *testing.T) {
	result := CompileFile(filepath.Join(t.TempDir(), "absent.capl"))

	if result.OK() {
		t.Fatal("expected an I/O diagnostic")
	}
	if !result.Diagnostics.HasErrorType(caplerrors.ErrorTypeIO) {
		t.Errorf("diagnostics:\n%s", result.Diagnostics.Error())
	}
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corp.capl")
	if err := os.WriteFile(path, []byte(baselineSource), 0o644); err != nil {
		t.Fatal(err)
	}

	result := CompileFile(path)
	if !result.OK() {
		t.Fatalf("diagnostics:\n%s", result.Diagnostics.Error())
	}
	if len(result.Policies) != 3 {
		t.Errorf("policies = %d, want 3", len(result.Policies))
	}
	if !strings.HasPrefix(result.Policies[0].DisplayName, "Corp-") {
		t.Errorf("DisplayName = %q, want Corp- prefix", result.Policies[0].DisplayName)
	}
}

func TestCompileMaxDepthOption(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 4; i++ {
		b.WriteString("IF user is All\nSTATE enabled\n")
	}
	b.WriteString("BLOCK\n")
	for i := 0; i < 4; i++ {
		b.WriteString("END\n")
	}

	result := New(WithMaxDepth(2)).Compile([]byte(b.String()), "deep.capl")
	if result.OK() {
		t.Fatal("expected a depth diagnostic")
	}
}
