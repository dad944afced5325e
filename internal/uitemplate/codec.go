package uitemplate

import (
	"github.com/alfredjeanlab/skyrecords/internal/model"
	"github.com/alfredjeanlab/skyrecords/internal/store"
)

// Codec converts UI templates to and from stored rows.
type Codec struct{}

var _ store.Codec[*model.UITemplate] = Codec{}

func (Codec) Encode(t *model.UITemplate) (store.Row, error) {
	return store.Row{
		ID: t.ID,
		Fields: map[string]any{
			model.TemplateConfiguration: t.Configuration,
			model.TemplateUpdateTime:    t.UpdateTime,
			model.TemplateDisabled:      t.Disabled,
		},
	}, nil
}

func (Codec) Decode(r store.Row) (*model.UITemplate, error) {
	t := &model.UITemplate{ID: r.ID}
	var err error
	if t.Configuration, err = r.String(model.TemplateConfiguration); err != nil {
		return nil, err
	}
	if t.UpdateTime, err = r.Int64(model.TemplateUpdateTime); err != nil {
		return nil, err
	}
	if t.Disabled, err = r.Int(model.TemplateDisabled); err != nil {
		return nil, err
	}
	return t, nil
}
