package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// 包级 flag 变量在多次执行之间保留，逐次复位
	namesFile, templatePath, templateOut, templateFile = "", "", "", ""
	templateForce = false
	debugOutput = "json"

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())

	return buf.String(), err
}

func TestGenerateEndToEnd(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "certificates")
	tpl := filepath.Join(dir, "template.pdf")

	config := "db:\n  type: sqlite\n  uri: file:" + filepath.Join(dir, "certvault.db") + "\n" +
		"files:\n  type: local\n  local:\n    dir: " + out + "\n" +
		"generator:\n  template_path: " + tpl + "\n  names:\n    - Ayu Latifah\n    - Rahmawati\n"

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	if s, err := execute(t, "template", "init", "--config", dir); err != nil {
		t.Fatalf("template init: %v (%s)", err, s)
	}

	if _, err := os.Stat(tpl); err != nil {
		t.Fatalf("template not written: %v", err)
	}

	if _, err := execute(t, "template", "init", "--config", dir); err == nil {
		t.Fatal("expected template init to refuse overwriting")
	}

	if s, err := execute(t, "generate", "--config", dir); err != nil {
		t.Fatalf("generate: %v (%s)", err, s)
	}

	for _, f := range []string{"sertifikat-ayu-latifah.pdf", "sertifikat-rahmawati.pdf"} {
		data, err := os.ReadFile(filepath.Join(out, f))
		if err != nil {
			t.Fatalf("missing %s: %v", f, err)
		}

		if !bytes.HasPrefix(data, []byte("%PDF")) {
			t.Fatalf("%s is not a PDF", f)
		}
	}

	// 重复生成同一个名字只更新记录
	if s, err := execute(t, "generate", "--config", dir, "Rahmawati"); err != nil {
		t.Fatalf("generate again: %v (%s)", err, s)
	}

	s, err := execute(t, "db", "ping", "--config", dir)
	if err != nil {
		t.Fatalf("db ping: %v", err)
	}

	if !strings.Contains(s, "2 certificates") {
		t.Fatalf("unexpected ping output %q", s)
	}
}

func TestGenerateMissingTemplate(t *testing.T) {
	dir := t.TempDir()

	config := "db:\n  type: sqlite\n  uri: file:" + filepath.Join(dir, "certvault.db") + "\n" +
		"files:\n  local:\n    dir: " + filepath.Join(dir, "out") + "\n"

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "generate", "--config", dir, "--template", filepath.Join(dir, "nope.pdf"), "Ayu Latifah")
	if err == nil || !strings.Contains(err.Error(), "read template") {
		t.Fatalf("expected read template error, got %v", err)
	}
}

func TestDBList(t *testing.T) {
	s, err := execute(t, "db", "ls", "--config", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"mongo", "sqlite", "postgresql"} {
		if !strings.Contains(s, want) {
			t.Errorf("db ls output missing %s: %q", want, s)
		}
	}
}

func TestConfigDebugRedacts(t *testing.T) {
	dir := t.TempDir()
	config := "db:\n  type: mongo\n  uri: mongodb://admin:hunter2@db:27017\n" +
		"files:\n  s3:\n    secret_access_key: s3cr3t\n"

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := execute(t, "config", "debug", "--config", dir)
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(s, "hunter2") || strings.Contains(s, "s3cr3t") {
		t.Fatalf("credentials leaked: %s", s)
	}

	if !strings.Contains(s, "mongodb://admin:***@db:27017") {
		t.Fatalf("expected redacted uri in %s", s)
	}

	s, err = execute(t, "config", "debug", "--config", dir, "-o", "yaml")
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(s, "hunter2") || strings.Contains(s, "s3cr3t") {
		t.Fatalf("credentials leaked: %s", s)
	}

	if !strings.Contains(s, "secret_access_key: '******'") && !strings.Contains(s, `secret_access_key: "******"`) {
		t.Fatalf("expected redacted secret in %s", s)
	}
}
