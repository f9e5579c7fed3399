package engine

import (
	"testing"

	"github.com/pagecraft/pagecraft/internal/config"
)

func TestMatches_NilTargetingAcceptsEveryone(t *testing.T) {
	if !matches(nil, VisitorContext{SessionID: "s"}) {
		t.Error("nil targeting must accept every visitor")
	}
}

func TestMatches_AndAcrossDimensions(t *testing.T) {
	targeting := &config.Targeting{
		Regions: []string{"latam"},
		Devices: []string{"mobile"},
	}

	// Matching one dimension but not the other excludes.
	ctx := VisitorContext{Region: "latam", Device: "desktop"}
	if matches(targeting, ctx) {
		t.Error("visitor failing the devices dimension must be excluded")
	}

	// Matching all configured dimensions includes.
	ctx.Device = "mobile"
	if !matches(targeting, ctx) {
		t.Error("visitor matching every dimension must be included")
	}
}

func TestMatches_OrWithinDimension(t *testing.T) {
	targeting := &config.Targeting{Countries: []string{"br", "mx", "ar"}}

	if !matches(targeting, VisitorContext{Country: "mx"}) {
		t.Error("membership in the inclusion list must match")
	}
	if matches(targeting, VisitorContext{Country: "us"}) {
		t.Error("non-member must be excluded")
	}
}

func TestMatches_MissingContextValueFailsRestrictedDimension(t *testing.T) {
	targeting := &config.Targeting{UTMSources: []string{"newsletter"}}

	if matches(targeting, VisitorContext{}) {
		t.Error("visitor without a utm_source cannot satisfy a utm_sources restriction")
	}
}

func TestMatches_CaseInsensitiveStrings(t *testing.T) {
	targeting := &config.Targeting{Regions: []string{"LATAM"}}

	if !matches(targeting, VisitorContext{Region: "latam"}) {
		t.Error("string dimensions match case-insensitively")
	}
}

func TestMatches_TimeDimensions(t *testing.T) {
	targeting := &config.Targeting{
		Hours:      []int{9, 10, 11},
		DaysOfWeek: []int{1, 2, 3, 4, 5},
	}

	if !matches(targeting, VisitorContext{Hour: 10, DayOfWeek: 2}) {
		t.Error("weekday business-hours visitor must match")
	}
	if matches(targeting, VisitorContext{Hour: 22, DayOfWeek: 2}) {
		t.Error("late-night visitor must be excluded")
	}
	if matches(targeting, VisitorContext{Hour: 10, DayOfWeek: 0}) {
		t.Error("sunday visitor must be excluded")
	}
}
