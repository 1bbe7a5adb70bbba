package store

import (
	"strings"
	"testing"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		opts SQLOptions
		want string
	}{
		{
			name: "postgres full",
			opts: SQLOptions{Driver: "postgres", Host: "db.internal", Port: 5433, User: "monitor", Password: "pw", DBName: "shapeflow", SSLMode: "require"},
			want: "postgres://monitor:pw@db.internal:5433/shapeflow?sslmode=require",
		},
		{
			name: "postgres defaults",
			opts: SQLOptions{Driver: "postgres", User: "monitor", Password: "pw", DBName: "shapeflow"},
			want: "postgres://monitor:pw@127.0.0.1:5432/shapeflow?sslmode=disable",
		},
		{
			name: "mysql defaults port",
			opts: SQLOptions{Driver: "mysql", Host: "db.internal", User: "monitor", Password: "pw", DBName: "shapeflow"},
			want: "monitor:pw@tcp(db.internal:3306)/shapeflow?parseTime=true",
		},
		{
			name: "sqlite uses path",
			opts: SQLOptions{Driver: "sqlite", Path: "/var/lib/shapeflow/monitor.db"},
			want: "/var/lib/shapeflow/monitor.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildDSN(tt.opts); got != tt.want {
				t.Errorf("buildDSN() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpsertQuery(t *testing.T) {
	tests := []struct {
		name     string
		driver   string
		contains string
	}{
		{"postgres", "postgres", "ON CONFLICT (collection, entry_key) DO UPDATE"},
		{"mysql", "mysql", "ON DUPLICATE KEY UPDATE"},
		{"sqlite", "sqlite", "ON CONFLICT (collection, entry_key) DO UPDATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := upsertQuery(tt.driver)
			if !strings.Contains(q, tt.contains) {
				t.Errorf("upsertQuery(%s) = %v, want substring %v", tt.driver, q, tt.contains)
			}
		})
	}
}

func TestUpsertQuery_Placeholders(t *testing.T) {
	if q := upsertQuery("postgres"); !strings.Contains(q, "$4") {
		t.Errorf("postgres upsert missing numbered placeholders: %v", q)
	}
	if q := upsertQuery("mysql"); strings.Contains(q, "$1") {
		t.Errorf("mysql upsert should use ? placeholders: %v", q)
	}
}

func TestSchemaFor(t *testing.T) {
	tests := []struct {
		name     string
		driver   string
		contains string
	}{
		{"mysql bounded keys", "mysql", "VARCHAR(255)"},
		{"mysql payload size", "mysql", "MEDIUMTEXT"},
		{"postgres timestamptz", "postgres", "TIMESTAMPTZ"},
		{"sqlite plain text", "sqlite", "payload    TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ddl := schemaFor(tt.driver)
			if !strings.Contains(ddl, tt.contains) {
				t.Errorf("schemaFor(%s) missing %q", tt.driver, tt.contains)
			}
			if !strings.Contains(ddl, "PRIMARY KEY (collection, entry_key)") {
				t.Errorf("schemaFor(%s) missing composite primary key", tt.driver)
			}
		})
	}
}
