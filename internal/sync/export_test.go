package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/skyrecords/internal/model"
	"github.com/alfredjeanlab/skyrecords/internal/networkalias"
	"github.com/alfredjeanlab/skyrecords/internal/store/sqlite"
	"github.com/alfredjeanlab/skyrecords/internal/uitemplate"
)

// newTestSource returns a Source over fresh in-memory DAOs.
func newTestSource(t *testing.T) (Source, *uitemplate.DAO, *networkalias.DAO) {
	t.Helper()
	b, err := sqlite.New(":memory:", "root.skywalking")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { b.Close() })
	templates := uitemplate.NewDAO(b, nil)
	aliases := networkalias.NewDAO(b, nil)
	return Source{Templates: templates, Aliases: aliases}, templates, aliases
}

func addTemplate(t *testing.T, d *uitemplate.DAO, name string) {
	t.Helper()
	if _, err := d.AddTemplate(context.Background(), &model.DashboardSetting{ID: name, Configuration: "{}"}); err != nil {
		t.Fatal(err)
	}
}

func saveAlias(t *testing.T, d *networkalias.DAO, address string, bucket int64) {
	t.Helper()
	err := d.Save(context.Background(), &model.NetworkAddressAlias{Address: address, RepresentServiceID: "svc", LastUpdateTimeBucket: bucket})
	if err != nil {
		t.Fatal(err)
	}
}

func parseExport(t *testing.T, data string) (header, []record) {
	t.Helper()
	lines := nonEmptyLines(data)
	if len(lines) == 0 {
		t.Fatal("empty export")
	}
	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	recs := make([]record, 0, len(lines)-1)
	for i, line := range lines[1:] {
		var r record
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("unmarshal line %d: %v", i+1, err)
		}
		recs = append(recs, r)
	}
	return h, recs
}

func TestExportJSONL_Empty(t *testing.T) {
	src, _, _ := newTestSource(t)
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), src, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h, recs := parseExport(t, buf.String())
	if len(recs) != 0 {
		t.Fatalf("expected header only, got %d records", len(recs))
	}
	if h.Version != "1" || h.Type != "header" || h.TemplateCount != 0 || h.AliasCount != 0 || h.AliasSince != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_TemplatesAndAliases(t *testing.T) {
	src, templates, aliases := newTestSource(t)
	ctx := context.Background()

	// Added out of name order to verify sorting.
	addTemplate(t, templates, "zeta")
	addTemplate(t, templates, "alpha")
	if _, err := templates.DisableTemplate(ctx, "zeta"); err != nil {
		t.Fatal(err)
	}
	saveAlias(t, aliases, "10.0.0.2:80", 202405010000)
	saveAlias(t, aliases, "10.0.0.1:80", 202405010100)
	saveAlias(t, aliases, "10.0.0.1:80", 202405010000)

	var buf bytes.Buffer
	if err := ExportJSONL(ctx, src, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h, recs := parseExport(t, buf.String())
	if h.TemplateCount != 2 || h.AliasCount != 3 {
		t.Fatalf("header counts: template=%d alias=%d", h.TemplateCount, h.AliasCount)
	}
	if len(recs) != 5 {
		t.Fatalf("expected 5 records, got %d:\n%s", len(recs), buf.String())
	}

	var gotTemplates []model.DashboardConfiguration
	var gotAliases []model.NetworkAddressAlias
	for _, r := range recs {
		data, _ := json.Marshal(r.Data)
		switch r.Type {
		case "template":
			var c model.DashboardConfiguration
			if err := json.Unmarshal(data, &c); err != nil {
				t.Fatal(err)
			}
			gotTemplates = append(gotTemplates, c)
		case "alias":
			var a model.NetworkAddressAlias
			if err := json.Unmarshal(data, &a); err != nil {
				t.Fatal(err)
			}
			gotAliases = append(gotAliases, a)
		default:
			t.Fatalf("unexpected record type %q", r.Type)
		}
	}

	// Disabled templates are exported too.
	if gotTemplates[0].ID != "alpha" || gotTemplates[1].ID != "zeta" || !gotTemplates[1].Disabled {
		t.Errorf("templates = %+v", gotTemplates)
	}
	wantOrder := []struct {
		address string
		bucket  int64
	}{
		{"10.0.0.1:80", 202405010000},
		{"10.0.0.1:80", 202405010100},
		{"10.0.0.2:80", 202405010000},
	}
	for i, w := range wantOrder {
		if gotAliases[i].Address != w.address || gotAliases[i].LastUpdateTimeBucket != w.bucket {
			t.Errorf("alias %d = %+v, want %s@%d", i, gotAliases[i], w.address, w.bucket)
		}
	}
}

func TestExportJSONL_AliasWindow(t *testing.T) {
	src, _, aliases := newTestSource(t)
	src.AliasWindow = time.Hour

	saveAlias(t, aliases, "old:80", 202001010000)
	saveAlias(t, aliases, "recent:80", model.TimeBucket(time.Now()))

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), src, &buf); err != nil {
		t.Fatal(err)
	}
	h, recs := parseExport(t, buf.String())
	if h.AliasCount != 1 || len(recs) != 1 {
		t.Fatalf("expected only the recent alias, got header %+v and %d records", h, len(recs))
	}
	if h.AliasSince <= 202001010000 {
		t.Errorf("AliasSince = %d, want a bound within the last hour", h.AliasSince)
	}
}

type failingTemplates struct{}

func (failingTemplates) GetAllTemplates(context.Context, bool) ([]*model.DashboardConfiguration, error) {
	return nil, errors.New("backend down")
}

func TestExportJSONL_SourceError(t *testing.T) {
	src, _, _ := newTestSource(t)
	src.Templates = failingTemplates{}

	var buf bytes.Buffer
	err := ExportJSONL(context.Background(), src, &buf)
	if err == nil || !strings.Contains(err.Error(), "list templates") {
		t.Fatalf("expected list templates error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written on failure, got %q", buf.String())
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
