package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/skyrecords/internal/model"
)

// TemplateLister lists dashboard templates.
type TemplateLister interface {
	GetAllTemplates(ctx context.Context, includingDisabled bool) ([]*model.DashboardConfiguration, error)
}

// AliasLoader loads network address aliases updated at or after a bucket.
type AliasLoader interface {
	LoadLastUpdate(ctx context.Context, timeBucket int64) ([]*model.NetworkAddressAlias, error)
}

// Source supplies the records an export contains.
type Source struct {
	Templates TemplateLister
	Aliases   AliasLoader
	// AliasWindow limits exported aliases to those updated within it.
	// Zero exports every alias.
	AliasWindow time.Duration
}

// aliasSince returns the lowest alias bucket to export at now.
func (s Source) aliasSince(now time.Time) int64 {
	if s.AliasWindow <= 0 {
		return 0
	}
	return model.TimeBucket(now.Add(-s.AliasWindow))
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	TemplateCount int       `json:"template_count"`
	AliasCount    int       `json:"alias_count"`
	AliasSince    int64     `json:"alias_since"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every template, disabled ones included, and the aliases
// within src.AliasWindow as JSONL to w. Templates are sorted by name and
// aliases by address then bucket.
func ExportJSONL(ctx context.Context, src Source, w io.Writer) error {
	now := time.Now().UTC()

	templates, err := src.Templates.GetAllTemplates(ctx, true)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].ID < templates[j].ID
	})

	since := src.aliasSince(now)
	aliases, err := src.Aliases.LoadLastUpdate(ctx, since)
	if err != nil {
		return fmt.Errorf("load aliases: %w", err)
	}
	sort.Slice(aliases, func(i, j int) bool {
		if aliases[i].Address != aliases[j].Address {
			return aliases[i].Address < aliases[j].Address
		}
		return aliases[i].LastUpdateTimeBucket < aliases[j].LastUpdateTimeBucket
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	// Write header.
	if err := enc.Encode(header{
		Version:       "1",
		Type:          "header",
		Timestamp:     now,
		TemplateCount: len(templates),
		AliasCount:    len(aliases),
		AliasSince:    since,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, t := range templates {
		if err := enc.Encode(record{Type: "template", Data: t}); err != nil {
			return fmt.Errorf("encode template %s: %w", t.ID, err)
		}
	}

	for _, a := range aliases {
		if err := enc.Encode(record{Type: "alias", Data: a}); err != nil {
			return fmt.Errorf("encode alias %s: %w", a.Address, err)
		}
	}

	return nil
}
