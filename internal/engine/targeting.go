package engine

import (
	"strings"

	"github.com/pagecraft/pagecraft/internal/config"
)

// matches reports whether a visitor satisfies an experiment's targeting.
// Dimensions combine with AND; membership within a dimension is OR. A nil
// targeting accepts every visitor.
func matches(t *config.Targeting, ctx VisitorContext) bool {
	if t == nil {
		return true
	}
	if !inList(t.Regions, ctx.Region) {
		return false
	}
	if !inList(t.Countries, ctx.Country) {
		return false
	}
	if !inList(t.Languages, ctx.Language) {
		return false
	}
	if !inList(t.UTMSources, ctx.UTMSource) {
		return false
	}
	if !inList(t.UTMCampaigns, ctx.UTMCampaign) {
		return false
	}
	if !inList(t.UTMMediums, ctx.UTMMedium) {
		return false
	}
	if !inList(t.Devices, ctx.Device) {
		return false
	}
	if !inIntList(t.Hours, ctx.Hour) {
		return false
	}
	if !inIntList(t.DaysOfWeek, ctx.DayOfWeek) {
		return false
	}
	return true
}

// inList is case-insensitive: context values arrive from headers and geo
// lookups with inconsistent casing.
func inList(list []string, value string) bool {
	if len(list) == 0 {
		return true
	}
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func inIntList(list []int, value int) bool {
	if len(list) == 0 {
		return true
	}
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
