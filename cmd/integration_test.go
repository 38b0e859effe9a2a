package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/metaclean/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags clears values and Changed state that persist across invocations.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

const (
	testFeatures = "row ID,row m/z,b1.mzML Peak area,s1.mzML Peak area,s2.mzML Peak area,s3.mzML Peak area\n" +
		"1,100.1,0,50,60,70\n" +
		"2,200.2,100,10,0,20\n" +
		"3,300.3,2,0,40,30\n"
	testMetadata = "filename,ATTRIBUTE_Sample_Type\n" +
		"b1.mzML,Blank\n" +
		"s1.mzML,Sample\n" +
		"s2.mzML,Sample\n" +
		"s3.mzML,Sample\n"
)

func TestCLI_CleanWritesRun(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	ft := writeFixture(t, home, "features.csv", testFeatures)
	md := writeFixture(t, home, "metadata.csv", testMetadata)
	outDir := filepath.Join(home, "out")

	out := mustRun(t, "clean", ft, md, "--blank-column", "ATTRIBUTE_Sample_Type", "--seed", "3", "-o", outDir)
	for _, want := range []string{"blank-filter", "Detection limit: 30 (seed 3)", "✓ Run"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	runs, err := os.ReadDir(outDir)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one run dir, got %v (%v)", runs, err)
	}
	m, err := pipeline.LoadManifest(filepath.Join(outDir, runs[0].Name()))
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if m.Parameters.BlankColumn != "ATTRIBUTE_Sample_Type" || m.Parameters.Seed != 3 {
		t.Fatalf("parameters = %+v", m.Parameters)
	}
}

func TestCLI_CleanNoExportUsesConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	ft := writeFixture(t, home, "features.csv", testFeatures)
	md := writeFixture(t, home, "metadata.csv", testMetadata)

	mustRun(t, "config", "set", "blank_column", "ATTRIBUTE_Sample_Type")
	mustRun(t, "config", "set", "output_dir", filepath.Join(home, "never"))
	out := mustRun(t, "clean", ft, md, "--no-export")
	if !strings.Contains(out, "blank-filter") || !strings.Contains(out, "export disabled") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(home, "never")); !os.IsNotExist(err) {
		t.Fatalf("--no-export wrote files: %v", err)
	}
}

func TestCLI_InspectAndLOD(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	ft := writeFixture(t, home, "features.csv", testFeatures)

	out := mustRun(t, "inspect", ft, "--index", "row ID", "-n", "2")
	if !strings.Contains(out, "features.csv: 3 rows, 5 columns") || !strings.Contains(out, "s1.mzML Peak area") {
		t.Fatalf("inspect output:\n%s", out)
	}
	if strings.Contains(out, "300.3") {
		t.Fatalf("inspect should show only 2 rows:\n%s", out)
	}
	out = mustRun(t, "inspect", ft, "--index", "row ID", "--stats")
	if !strings.Contains(out, "Zeros") || !strings.Contains(out, "numeric") {
		t.Fatalf("inspect --stats output:\n%s", out)
	}

	if out := mustRun(t, "lod", ft); strings.TrimSpace(out) != "2" {
		t.Fatalf("lod = %q", out)
	}
	// without an index column the numeric row IDs count too
	if out := mustRun(t, "lod", ft, "--raw", "--index", ""); strings.TrimSpace(out) != "1" {
		t.Fatalf("lod --raw = %q", out)
	}
}

func TestCLI_ConfigInitShowSet(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	mustRun(t, "config", "init")
	if _, err := os.Stat(filepath.Join(home, ".metaclean", "config.yaml")); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := runCmd(t, "config", "init"); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	mustRun(t, "config", "init", "--force")

	mustRun(t, "config", "set", "max_missing", "0.25")
	out := mustRun(t, "config", "show")
	if !strings.Contains(out, "max_missing: 0.250") || !strings.Contains(out, `peak_suffix: " Peak area"`) {
		t.Fatalf("show output:\n%s", out)
	}
	if _, err := runCmd(t, "config", "set", "max_missing", "3"); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := runCmd(t, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestCLI_InspectLenient(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	bad := writeFixture(t, home, "notes.parquet", "PAR1")

	if _, err := runCmd(t, "inspect", bad); err == nil {
		t.Fatalf("expected strict inspect to fail on unsupported format")
	}
	out := mustRun(t, "inspect", bad, "--lenient")
	if !strings.Contains(out, "notes.parquet: 0 rows, 0 columns") || !strings.Contains(out, "could not load table") {
		t.Fatalf("lenient output:\n%s", out)
	}
}

func TestCLI_ConfigSetRepairsInvalidFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, ".metaclean"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFixture(t, filepath.Join(home, ".metaclean"), "config.yaml", "max_missing: 2\n")

	if _, err := runCmd(t, "clean", "a.csv", "b.csv"); err == nil {
		t.Fatalf("expected clean to refuse an invalid config")
	}
	mustRun(t, "config", "set", "max_missing", "0.5")
	if out := mustRun(t, "config", "show"); !strings.Contains(out, "max_missing: 0.500") {
		t.Fatalf("config not repaired:\n%s", out)
	}
}
