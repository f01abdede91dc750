package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestOutputName(t *testing.T) {
	tests := map[string]string{
		"Jenkinsfile":            "jenkinsfile-github-actions.yml",
		"service.groovy":         "service-github-actions.yml",
		"../../etc/passwd":       "passwd-github-actions.yml",
		`C:\jobs\Deploy Prod.jf`: "deploy-prod-github-actions.yml",
		"":                       "github-actions.yml",
		"!!!":                    "github-actions.yml",
	}
	for in, want := range tests {
		if got := OutputName(in); got != want {
			t.Errorf("OutputName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"ci.yml":          "ci.yml",
		"Release.YAML":    "release.yaml",
		"workflow":        "workflow.yml",
		"../../x/evil.sh": "evil.yml",
		"  ":              "github-actions.yml",
	}
	for in, want := range tests {
		if got := SafeName(in); got != want {
			t.Errorf("SafeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestZip(t *testing.T) {
	data, err := Zip([]File{
		{Name: "a-github-actions.yml", Data: []byte("name: A\n")},
		{Name: "a-github-actions.yml", Data: []byte("name: A2\n")},
		{Name: "b-github-actions.yml", Data: []byte("name: B\n")},
	}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Zip: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	want := map[string]string{
		"a-github-actions.yml":   "name: A\n",
		"a-github-actions-2.yml": "name: A2\n",
		"b-github-actions.yml":   "name: B\n",
	}
	if len(zr.File) != len(want) {
		t.Fatalf("entries = %d, want %d", len(zr.File), len(want))
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, _ := io.ReadAll(rc)
		_ = rc.Close()
		if want[f.Name] != string(b) {
			t.Errorf("%s = %q, want %q", f.Name, b, want[f.Name])
		}
	}
}

func TestZip_Empty(t *testing.T) {
	data, err := Zip(nil, time.Now())
	if err != nil {
		t.Fatalf("Zip: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil || len(zr.File) != 0 {
		t.Fatalf("entries = %v, err = %v", zr, err)
	}
}
