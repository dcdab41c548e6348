package datasets

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeRegistry(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeRegistry(t, "datasets.yaml", `
datasets:
  - id: jp9i-3b7y
    name: Community Districts
    query:
      select: boro_cd, the_geom
      where: boro_cd = 314
      timeout_seconds: 10
  - id: erm2-nwe9
    name: 311 Service Requests
    host: data.cityofnewyork.us
    query:
      select: borough, count(*) as sr_count
      group: borough
      limit: 100
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(all))
	}

	d, ok := reg.ByID("jp9i-3b7y")
	if !ok {
		t.Fatal("dataset jp9i-3b7y not found")
	}
	q := d.ToQuery()
	if q.Dataset != "jp9i-3b7y" || q.Select != "boro_cd, the_geom" || q.Where != "boro_cd = 314" {
		t.Fatalf("unexpected query %#v", q)
	}
	if q.Timeout != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %v", q.Timeout)
	}

	d2, _ := reg.ByID("erm2-nwe9")
	if d2.ToQuery().Limit != 100 || d2.ToQuery().Group != "borough" {
		t.Fatalf("unexpected query %#v", d2.ToQuery())
	}
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	path := writeRegistry(t, "datasets.yaml", `
datasets:
  - id: a1b2-c3d4
    name: One
  - id: a1b2-c3d4
    name: Two
`)
	if _, err := LoadRegistry(path); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLoadRegistryRejectsMissingID(t *testing.T) {
	path := writeRegistry(t, "datasets.json", `{"datasets":[{"name":"No ID"}]}`)
	if _, err := LoadRegistry(path); err == nil {
		t.Fatal("expected missing id error")
	}
}

func TestLoadRegistryRejectsEmptyFile(t *testing.T) {
	path := writeRegistry(t, "datasets.yaml", "datasets: []\n")
	if _, err := LoadRegistry(path); err == nil {
		t.Fatal("expected error for empty registry")
	}
}
