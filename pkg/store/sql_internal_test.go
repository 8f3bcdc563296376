package store

import "testing"

func TestNumberPlaceholders(t *testing.T) {
	got := numberPlaceholders("SELECT a FROM t WHERE id = ? AND b = ?")
	if got != "SELECT a FROM t WHERE id = $1 AND b = $2" {
		t.Fatalf("got %q", got)
	}
}

func TestParseDSN(t *testing.T) {
	cases := map[string]struct {
		driver string
		source string
	}{
		"postgres://user@localhost/db":   {driver: "pgx", source: "postgres://user@localhost/db"},
		"postgresql://user@localhost/db": {driver: "pgx", source: "postgresql://user@localhost/db"},
		"sqlite:///tmp/app.db":           {driver: "sqlite3", source: "/tmp/app.db"},
		"data/app.db":                    {driver: "sqlite3", source: "data/app.db"},
	}
	for dsn, want := range cases {
		d, source, err := parseDSN(dsn)
		if err != nil {
			t.Fatalf("parseDSN(%q): %v", dsn, err)
		}
		if d.driver != want.driver || source != want.source {
			t.Fatalf("parseDSN(%q) = %s %s", dsn, d.driver, source)
		}
	}
	if _, _, err := parseDSN("sqlite://"); err == nil {
		t.Fatalf("expected error for sqlite dsn without path")
	}
}
