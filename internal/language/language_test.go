package language

import (
	"strings"
	"testing"
)

// feedLines runs every line of content through a fresh processor for the
// given file and returns the SLOC total.
func feedLines(t *testing.T, name string, content string) int {
	t.Helper()

	ext := ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = strings.ToLower(name[i+1:])
	}
	proc := NewRegistry(nil).ProcessorFor(name, ext)

	sloc := 0
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for _, line := range lines {
		n := proc.Feed(line)
		if n != 0 && n != 1 {
			t.Fatalf("Feed returned %d, want 0 or 1", n)
		}
		sloc += n
	}
	return sloc
}

func TestRustNestedBlockWithStringMarker(t *testing.T) {
	content := "/* outer /* inner */ still outer */\n" +
		"let s = \"/* not a comment */\";\n" +
		"fn main() {}\n"
	if got := feedLines(t, "a.rs", content); got != 2 {
		t.Fatalf("sloc = %d, want 2", got)
	}
}

func TestPythonDocstringAndHashInFString(t *testing.T) {
	content := "#!/usr/bin/env python\n" +
		"\"\"\"doc\"\"\"\n" +
		"x = f\"Hash: #{1+1}\"  # trailing\n"
	if got := feedLines(t, "m.py", content); got != 1 {
		t.Fatalf("sloc = %d, want 1", got)
	}
}

func TestShellHeredocBodyCounts(t *testing.T) {
	content := "cat <<-EOF\n" +
		"    body\n" +
		"    EOF\n" +
		"echo done\n"
	if got := feedLines(t, "s.sh", content); got != 3 {
		t.Fatalf("sloc = %d, want 3", got)
	}
}

func TestShellQuotedHashIsNotComment(t *testing.T) {
	content := "echo \"# not a comment\"\n" +
		"# a comment\n"
	if got := feedLines(t, "x.sh", content); got != 1 {
		t.Fatalf("sloc = %d, want 1", got)
	}
}

func TestGoRawStringSpansLines(t *testing.T) {
	content := "package main\n" +
		"var s = `start\n" +
		"// not a comment\n" +
		"end`\n" +
		"// a comment\n"
	if got := feedLines(t, "m.go", content); got != 4 {
		t.Fatalf("sloc = %d, want 4", got)
	}
}

func TestCBlockCommentAcrossLines(t *testing.T) {
	content := "int x;\n" +
		"/* open\n" +
		"   still comment\n" +
		"   close */ int y;\n" +
		"\n" +
		"int z;\n"
	if got := feedLines(t, "f.c", content); got != 3 {
		t.Fatalf("sloc = %d, want 3", got)
	}
}

func TestCppRawStringDelimiterMatch(t *testing.T) {
	content := "auto s = R\"xy(contains )x\" and */ still\n" +
		"more text )xy\";\n" +
		"int tail;\n"
	if got := feedLines(t, "f.cpp", content); got != 3 {
		t.Fatalf("sloc = %d, want 3", got)
	}
}

func TestJavaScriptTemplateSpansLines(t *testing.T) {
	content := "const s = `hello\n" +
		"// inside template\n" +
		"${1 + 1}`;\n" +
		"// real comment\n"
	if got := feedLines(t, "a.js", content); got != 3 {
		t.Fatalf("sloc = %d, want 3", got)
	}
}

func TestRustRawStringHashCount(t *testing.T) {
	content := "let s = r#\"quote \" inside\"#;\n" +
		"let t = r##\"one \"# not closed\"##;\n" +
		"// done\n"
	if got := feedLines(t, "r.rs", content); got != 2 {
		t.Fatalf("sloc = %d, want 2", got)
	}
}

func TestSwiftExtendedDelimiters(t *testing.T) {
	content := "let a = #\"raw \" quote\"#\n" +
		"let b = \"\"\"\n" +
		"multi // line\n" +
		"\"\"\"\n" +
		"// comment\n" +
		"/* nested /* block */ still */\n"
	if got := feedLines(t, "s.swift", content); got != 4 {
		t.Fatalf("sloc = %d, want 4", got)
	}
}

func TestDNestedPlusComment(t *testing.T) {
	content := "/+ outer /+ inner +/ still +/\n" +
		"int x;\n"
	if got := feedLines(t, "d.d", content); got != 1 {
		t.Fatalf("sloc = %d, want 1", got)
	}
}

func TestPerlPODAndHeredoc(t *testing.T) {
	content := "my $x = 1;\n" +
		"=pod\n" +
		"documentation\n" +
		"=cut\n" +
		"print <<'EOT';\n" +
		"body line\n" +
		"EOT\n" +
		"print \"done\";\n"
	if got := feedLines(t, "p.pl", content); got != 4 {
		t.Fatalf("sloc = %d, want 4", got)
	}
}

func TestRubyBeginEndBlock(t *testing.T) {
	content := "x = 1\n" +
		"=begin\n" +
		"comment body\n" +
		"=end\n" +
		"y = 2 # trailing\n"
	if got := feedLines(t, "r.rb", content); got != 2 {
		t.Fatalf("sloc = %d, want 2", got)
	}
}

func TestPHPHashAndSlashComments(t *testing.T) {
	content := "<?php\n" +
		"# hash comment\n" +
		"// slash comment\n" +
		"$x = \"# in string\";\n"
	if got := feedLines(t, "i.php", content); got != 2 {
		t.Fatalf("sloc = %d, want 2", got)
	}
}

func TestLuaLongBracketComment(t *testing.T) {
	content := "--[==[ long\n" +
		"still comment ]=] not closed\n" +
		"]==] x = 1\n" +
		"-- plain comment\n" +
		"print('hi')\n"
	if got := feedLines(t, "l.lua", content); got != 2 {
		t.Fatalf("sloc = %d, want 2", got)
	}
}

func TestSQLCommentsAndStrings(t *testing.T) {
	content := "SELECT '--not comment' FROM t;\n" +
		"-- a comment\n" +
		"/* block\n" +
		"comment */\n" +
		"SELECT 1;\n"
	if got := feedLines(t, "q.sql", content); got != 2 {
		t.Fatalf("sloc = %d, want 2", got)
	}
}

func TestHaskellNestedBlock(t *testing.T) {
	content := "{- outer {- inner -} still -}\n" +
		"main = putStrLn \"{- not open -}\"\n" +
		"-- line comment\n"
	if got := feedLines(t, "h.hs", content); got != 1 {
		t.Fatalf("sloc = %d, want 1", got)
	}
}

func TestJuliaNestedPound(t *testing.T) {
	content := "#= outer #= inner =# still =#\n" +
		"x = 1 # trailing\n"
	if got := feedLines(t, "j.jl", content); got != 1 {
		t.Fatalf("sloc = %d, want 1", got)
	}
}

func TestOCamlNestedParens(t *testing.T) {
	content := "(* comment (* nested *) more *)\n" +
		"let x = 1\n"
	if got := feedLines(t, "o.ml", content); got != 1 {
		t.Fatalf("sloc = %d, want 1", got)
	}
}

func TestMatlabBlockAtColumnZero(t *testing.T) {
	content := "%{\n" +
		"block comment\n" +
		"%}\n" +
		"x = 1; % trailing\n" +
		"% line comment\n"
	if got := feedLines(t, "m.m", content); got != 1 {
		t.Fatalf("sloc = %d, want 1", got)
	}
}

func TestFortranFixedFormColumnOne(t *testing.T) {
	content := "C fixed comment\n" +
		"c also comment\n" +
		"* star comment\n" +
		"      X = 1\n" +
		"! free comment\n"
	if got := feedLines(t, "f.for", content); got != 1 {
		t.Fatalf("sloc = %d, want 1", got)
	}
}

func TestBatchCommentForms(t *testing.T) {
	content := "REM comment\n" +
		"rem lower comment\n" +
		":: double colon\n" +
		"@REM at form\n" +
		"REMEMBER=1\n" +
		"echo hi\n"
	if got := feedLines(t, "b.bat", content); got != 2 {
		t.Fatalf("sloc = %d, want 2", got)
	}
}

func TestVisualBasicComments(t *testing.T) {
	content := "' comment\n" +
		"REM comment\n" +
		"Rem\n" +
		"Dim x As Integer\n"
	if got := feedLines(t, "v.vb", content); got != 1 {
		t.Fatalf("sloc = %d, want 1", got)
	}
}

func TestPowerShellBlockComment(t *testing.T) {
	content := "<# block\n" +
		"comment #> $x = 1\n" +
		"$y = \"<# not a comment #>\"\n" +
		"# line comment\n"
	if got := feedLines(t, "p.ps1", content); got != 2 {
		t.Fatalf("sloc = %d, want 2", got)
	}
}

func TestMarkupComment(t *testing.T) {
	content := "<!-- comment\n" +
		"still comment -->\n" +
		"<p>hello</p>\n"
	if got := feedLines(t, "x.html", content); got != 1 {
		t.Fatalf("sloc = %d, want 1", got)
	}
}

func TestShebangOnlyFileHasZeroSLOC(t *testing.T) {
	for _, name := range []string{"a.py", "a.sh", "a.pl"} {
		if got := feedLines(t, name, "#!/usr/bin/env thing\n"); got != 0 {
			t.Errorf("%s: sloc = %d, want 0", name, got)
		}
	}
}

func TestShebangOnLineTwoIsNotSpecial(t *testing.T) {
	content := "x = 1\n" +
		"#!/not/a/shebang\n"
	// Line 2 is an ordinary hash comment for Python.
	if got := feedLines(t, "a.py", content); got != 1 {
		t.Fatalf("sloc = %d, want 1", got)
	}
}

func TestFallbackCountsNonBlankLines(t *testing.T) {
	content := "alpha\n" +
		"\n" +
		"   \t\n" +
		"bravo\n"
	if got := feedLines(t, "notes.txt", content); got != 2 {
		t.Fatalf("sloc = %d, want 2", got)
	}
}

func TestRegistryFilenameMatches(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Dockerfile", StyleHash},
		{"Makefile", StyleHash},
		{"CMakeLists.txt", StyleHash},
		{"Rakefile", StyleRuby},
		{"README", StyleNone},
	}
	r := NewRegistry(nil)
	for _, tt := range tests {
		ext := ""
		if i := strings.LastIndex(tt.name, "."); i >= 0 {
			ext = strings.ToLower(tt.name[i+1:])
		}
		if got := r.StyleFor(tt.name, ext); got != tt.want {
			t.Errorf("StyleFor(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRegistryExtensionRemap(t *testing.T) {
	r := NewRegistry(map[string]string{".inc": "php", "txt": "py"})
	if got := r.StyleFor("a.inc", "inc"); got != StylePHP {
		t.Fatalf("remapped inc = %q, want %q", got, StylePHP)
	}
	if got := r.StyleFor("a.txt", "txt"); got != StylePython {
		t.Fatalf("remapped txt = %q, want %q", got, StylePython)
	}
}

func TestProcessorResetRestoresInitialState(t *testing.T) {
	proc := NewRegistry(nil).ProcessorFor("a.c", "c")
	proc.Feed("/* open block")
	if !proc.InBlock() {
		t.Fatal("expected processor inside block")
	}
	proc.Reset()
	if proc.InBlock() {
		t.Fatal("expected Reset to leave block state")
	}
	if got := proc.Feed("int x;"); got != 1 {
		t.Fatalf("post-reset Feed = %d, want 1", got)
	}
}
