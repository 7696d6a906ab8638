package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/nova/lang"
)

const fmtSource = "fn add(a, b) { a + b }\nlet x = add(1, 2);\nx"

func parseMap(t *testing.T, src string) map[string]any {
	t.Helper()

	prog, err := lang.Parse(t.Context(), src)
	if err != nil {
		t.Fatal(err)
	}

	return lang.ToMap(prog)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer

	if err := writeJSON(&buf, parseMap(t, fmtSource), 4); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "\n    \"node\": \"Program\"") {
		t.Errorf("unexpected indentation:\n%s", buf.String())
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}

	stmts := got["stmts"].([]any)
	if len(stmts) != 2 || stmts[0].(map[string]any)["node"] != "FnDecl" {
		t.Errorf("stmts = %v", stmts)
	}

	if tail := got["tail"].(map[string]any); tail["name"] != "x" {
		t.Errorf("tail = %v", tail)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer

	if err := writeYAML(&buf, parseMap(t, fmtSource), 2); err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("%v\n%s", err, buf.String())
	}

	if got["node"] != "Program" {
		t.Errorf("node = %v", got["node"])
	}

	if stmts := got["stmts"].([]any); len(stmts) != 2 {
		t.Errorf("stmts = %v", stmts)
	}
}

func TestWriteCBOR(t *testing.T) {
	m := parseMap(t, fmtSource)

	var raw, again bytes.Buffer

	if err := writeCBOR(&raw, m, false); err != nil {
		t.Fatal(err)
	}

	if err := writeCBOR(&again, m, false); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(raw.Bytes(), again.Bytes()) {
		t.Error("CBOR encoding is not deterministic")
	}

	var got map[string]any
	if err := cbor.Unmarshal(raw.Bytes(), &got); err != nil {
		t.Fatal(err)
	}

	if got["node"] != "Program" {
		t.Errorf("node = %v", got["node"])
	}

	var dump bytes.Buffer
	if err := writeCBOR(&dump, m, true); err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(dump.String(), "00000000  ") {
		t.Errorf("hex dump = %q", dump.String())
	}
}

func TestWriteTokens(t *testing.T) {
	var out, stderr bytes.Buffer

	if err := writeTokens(&out, &stderr, "t", `let s = "a\n";`); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"1:1\t\"let\"",
		"1:5\tidentifier s",
		"1:7\t\"=\"",
		"1:9\tstring \"a\\n\"",
		"1:14\t\";\"",
		"1:15\tend of input",
		"",
	}, "\n")

	if out.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", out.String(), want)
	}

	out.Reset()

	err := writeTokens(&out, &stderr, "t", `let s = "abc`)
	if !errors.Is(err, ErrProgram) {
		t.Fatalf("error = %v, want ErrProgram", err)
	}

	if !strings.Contains(stderr.String(), "LexError(UnterminatedString) at 1:9") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
