// Package uitemplate manages dashboard templates: identity-keyed records
// that are created, replaced and soft-disabled, never deleted.
package uitemplate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/skyrecords/internal/model"
	"github.com/alfredjeanlab/skyrecords/internal/store"
)

// ErrNotFound is returned by GetTemplate for a name that was never created.
var ErrNotFound = errors.New("template not found")

// DAO is the template management component. It holds no state of its own;
// the backend is shared with other components and owned by the caller.
type DAO struct {
	backend store.Backend
	codec   store.Codec[*model.UITemplate]
	logger  *slog.Logger
	now     func() time.Time
}

// NewDAO returns a template DAO over b. A nil logger uses slog.Default().
func NewDAO(b store.Backend, logger *slog.Logger) *DAO {
	if logger == nil {
		logger = slog.Default()
	}
	return &DAO{
		backend: b,
		codec:   Codec{},
		logger:  logger,
		now:     time.Now,
	}
}

func (d *DAO) collection(b store.Backend) string {
	return store.Path(b, model.UITemplateCollection)
}

// GetAllTemplates lists templates, leaving out disabled ones unless
// includingDisabled is set.
func (d *DAO) GetAllTemplates(ctx context.Context, includingDisabled bool) ([]*model.DashboardConfiguration, error) {
	q := store.Query{Collection: d.collection(d.backend)}
	if !includingDisabled {
		q = q.Where(store.Eq(model.TemplateDisabled, model.BoolFalse))
	}

	templates, err := store.QueryList(ctx, d.backend, q, d.codec)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	configs := make([]*model.DashboardConfiguration, 0, len(templates))
	for _, t := range templates {
		configs = append(configs, t.ToConfiguration())
	}
	return configs, nil
}

// GetTemplate returns the named template, disabled or not.
func (d *DAO) GetTemplate(ctx context.Context, name string) (*model.DashboardConfiguration, error) {
	t, err := d.find(ctx, d.backend, name, false)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t.ToConfiguration(), nil
}

// AddTemplate writes setting unconditionally. An existing template with the
// same name is replaced.
func (d *DAO) AddTemplate(ctx context.Context, setting *model.DashboardSetting) (*model.TemplateChangeStatus, error) {
	if err := model.ValidateSetting(setting); err != nil {
		return nil, err
	}
	if err := d.write(ctx, d.backend, setting.ToEntity(d.now())); err != nil {
		return nil, err
	}
	return model.ChangeSucceeded(), nil
}

// ChangeTemplate replaces an existing template with setting. Fields are not
// merged from the stored record, and the result is enabled. A name that was
// never created yields a failed status and nothing is written.
func (d *DAO) ChangeTemplate(ctx context.Context, setting *model.DashboardSetting) (*model.TemplateChangeStatus, error) {
	if err := model.ValidateSetting(setting); err != nil {
		return nil, err
	}

	var status *model.TemplateChangeStatus
	err := d.backend.RunInTransaction(ctx, func(tx store.Backend) error {
		existing, err := d.find(ctx, tx, setting.ID, true)
		if err != nil {
			return err
		}
		if existing == nil {
			status = model.ChangeFailed(model.MessageTemplateNotFound)
			return nil
		}
		if err := d.write(ctx, tx, setting.ToEntity(d.now())); err != nil {
			return err
		}
		status = model.ChangeSucceeded()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// DisableTemplate soft-disables the named template, leaving its payload
// untouched. Disabling an already disabled template succeeds.
func (d *DAO) DisableTemplate(ctx context.Context, name string) (*model.TemplateChangeStatus, error) {
	var status *model.TemplateChangeStatus
	err := d.backend.RunInTransaction(ctx, func(tx store.Backend) error {
		existing, err := d.find(ctx, tx, name, true)
		if err != nil {
			return err
		}
		if existing == nil {
			status = model.ChangeFailed(model.MessageTemplateNotFound)
			return nil
		}
		existing.Disabled = model.BoolTrue
		if err := d.write(ctx, tx, existing); err != nil {
			return err
		}
		status = model.ChangeSucceeded()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// find looks a template up by name on b. It returns nil, nil when absent.
// Names are unique, so more than one match is unexpected; the first wins.
func (d *DAO) find(ctx context.Context, b store.Backend, name string, lock bool) (*model.UITemplate, error) {
	q := store.Query{Collection: d.collection(b), ForUpdate: lock}.
		Where(store.Eq(store.IDField, name))

	found, err := store.QueryList(ctx, b, q, d.codec)
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", name, err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	if len(found) > 1 {
		d.logger.Warn("template name matched more than one record", "name", name, "count", len(found))
	}
	return found[0], nil
}

func (d *DAO) write(ctx context.Context, b store.Backend, t *model.UITemplate) error {
	req, err := store.NewWriteRequest(d.collection(b), model.UITemplateVersion, t, d.codec)
	if err != nil {
		return err
	}
	if err := b.Write(ctx, req); err != nil {
		return fmt.Errorf("write template %s: %w", t.ID, err)
	}
	return nil
}
