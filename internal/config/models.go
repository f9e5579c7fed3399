package config

import "time"

type Status string

const (
	StatusPlanned  Status = "planned"
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusWinner   Status = "winner"
	StatusArchived Status = "archived"
)

// Variant is one arm of an experiment. Allocation is an integer percentage;
// all variants of an experiment sum to exactly 100. Version selects which
// content revision the variant renders.
type Variant struct {
	Slug       string `yaml:"slug" json:"slug" validate:"required"`
	Allocation int    `yaml:"allocation" json:"allocation" validate:"min=0,max=100"`
	Version    int    `yaml:"version" json:"version" validate:"min=1"`
}

// Targeting restricts which visitors are eligible for an experiment. Every
// field is an inclusion list; a nil field means no restriction on that
// dimension. A visitor must satisfy all present dimensions.
type Targeting struct {
	Regions      []string `yaml:"regions,omitempty" json:"regions,omitempty"`
	Countries    []string `yaml:"countries,omitempty" json:"countries,omitempty"`
	Languages    []string `yaml:"languages,omitempty" json:"languages,omitempty"`
	UTMSources   []string `yaml:"utm_sources,omitempty" json:"utm_sources,omitempty"`
	UTMCampaigns []string `yaml:"utm_campaigns,omitempty" json:"utm_campaigns,omitempty"`
	UTMMediums   []string `yaml:"utm_mediums,omitempty" json:"utm_mediums,omitempty"`
	Devices      []string `yaml:"devices,omitempty" json:"devices,omitempty" validate:"dive,oneof=mobile tablet desktop"`
	Hours        []int    `yaml:"hours,omitempty" json:"hours,omitempty" validate:"dive,min=0,max=23"`
	DaysOfWeek   []int    `yaml:"days_of_week,omitempty" json:"days_of_week,omitempty" validate:"dive,min=0,max=6"`
}

// Experiment is one A/B test scoped to a content entity. Slug is its
// immutable identity within the entity.
type Experiment struct {
	Slug        string     `yaml:"slug" json:"slug" validate:"required"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Status      Status     `yaml:"status" json:"status" validate:"required,oneof=planned active paused winner archived"`
	Variants    []Variant  `yaml:"variants" json:"variants" validate:"required,min=1,dive"`
	Targeting   *Targeting `yaml:"targeting,omitempty" json:"targeting,omitempty"`
	MaxVisitors int        `yaml:"max_visitors,omitempty" json:"max_visitors,omitempty" validate:"min=0"`
	AutoStopped bool       `yaml:"auto_stopped,omitempty" json:"auto_stopped,omitempty"`
}

// ExperimentsFile is the ordered experiment list for one content entity,
// identified by (contentType, contentSlug). Field names and nesting are the
// on-disk contract with editor tooling.
type ExperimentsFile struct {
	ContentType string       `yaml:"-" json:"content_type"`
	ContentSlug string       `yaml:"-" json:"content_slug"`
	Experiments []Experiment `yaml:"experiments" json:"experiments"`
}

// Patch describes a partial update to one experiment. Nil fields are left
// untouched. Slug changes are ignored: the slug is the experiment's identity.
type Patch struct {
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Variants    []Variant  `json:"variants,omitempty"`
	Targeting   *Targeting `json:"targeting,omitempty"`
	MaxVisitors *int       `json:"max_visitors,omitempty"`
	AutoStopped *bool      `json:"auto_stopped,omitempty"`
}

// VariantFile describes one content file inside an entity folder, parsed
// from the naming convention: "{locale}.yml" is the promoted baseline,
// "{variant-slug}.v{version}.{locale}.yml" is a named variant revision.
type VariantFile struct {
	Name        string    `json:"name"`
	Locale      string    `json:"locale"`
	VariantSlug string    `json:"variant_slug,omitempty"`
	Version     int       `json:"version,omitempty"`
	Baseline    bool      `json:"baseline"`
	ModifiedAt  time.Time `json:"modified_at"`
}

func allocationSum(variants []Variant) int {
	sum := 0
	for _, v := range variants {
		sum += v.Allocation
	}
	return sum
}
