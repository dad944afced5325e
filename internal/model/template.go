package model

import "time"

// UITemplateCollection is the collection UI templates are stored in.
const UITemplateCollection = "ui_template"

// UITemplateVersion is the fixed write version for templates. Templates are
// identity-keyed, so every write for a name lands on the same version and
// replaces the previous one.
const UITemplateVersion int64 = 1

// Field names used in the stored representation of a UITemplate.
const (
	TemplateConfiguration = "configuration"
	TemplateUpdateTime    = "update_time"
	TemplateDisabled      = "disabled"
)

// Backend-native boolean markers.
const (
	BoolFalse = 0
	BoolTrue  = 1
)

// BoolToMarker converts b to its stored marker.
func BoolToMarker(b bool) int {
	if b {
		return BoolTrue
	}
	return BoolFalse
}

// MarkerToBool converts a stored marker back to a bool. Anything other than
// BoolTrue reads as false.
func MarkerToBool(v int) bool {
	return v == BoolTrue
}

// UITemplate is the stored form of a dashboard template.
type UITemplate struct {
	ID            string `json:"id"`
	Configuration string `json:"configuration"`
	UpdateTime    int64  `json:"update_time"` // unix millis
	Disabled      int    `json:"disabled"`
}

// IsDisabled reports whether the template has been soft-disabled.
func (t *UITemplate) IsDisabled() bool {
	return MarkerToBool(t.Disabled)
}

// ToConfiguration converts the stored template into its caller-facing form.
func (t *UITemplate) ToConfiguration() *DashboardConfiguration {
	return &DashboardConfiguration{
		ID:            t.ID,
		Configuration: t.Configuration,
		Disabled:      t.IsDisabled(),
		UpdateTime:    t.UpdateTime,
	}
}

// DashboardSetting is the caller input for creating or replacing a template.
type DashboardSetting struct {
	ID            string `json:"id"`
	Configuration string `json:"configuration"`
}

// ToEntity builds the template to store for this setting. The result is a
// full replacement: it is always enabled and stamped with now.
func (s *DashboardSetting) ToEntity(now time.Time) *UITemplate {
	return &UITemplate{
		ID:            s.ID,
		Configuration: s.Configuration,
		UpdateTime:    now.UnixMilli(),
		Disabled:      BoolFalse,
	}
}

// DashboardConfiguration is a template as returned to callers.
type DashboardConfiguration struct {
	ID            string `json:"id"`
	Configuration string `json:"configuration"`
	Disabled      bool   `json:"disabled"`
	UpdateTime    int64  `json:"update_time"`
}
