// Package facets classifies transcode profile identifiers into filterable
// facets. Classification is driven entirely by the ordered rules table below;
// extraction is pure and deterministic.
package facets

// Axis is one classification axis inferred from a profile identifier.
type Axis string

const (
	AxisDevice  Axis = "device"
	AxisContent Axis = "content"
	AxisMedia   Axis = "media"
	AxisSize    Axis = "size"
)

// Axes lists every axis in stable presentation order.
var Axes = []Axis{AxisDevice, AxisContent, AxisMedia, AxisSize}

type matchKind int

const (
	matchSubstring matchKind = iota
	matchSuffix
)

// Rule maps one identifier pattern to a facet value.
type Rule struct {
	Pattern string
	Value   string
	Match   matchKind
}

// axisRules is the literal, ordered classification table. Within an axis the
// first matching rule wins and later rules are not consulted, so ordering is
// load-bearing:
//   - content checks "video_thumbs_" before the more general "thumbs_" so
//     video-thumbnail profiles are not swallowed by the thumbnail rule;
//   - media checks video before image before gif, so an identifier carrying
//     more than one media token resolves to the most specific artifact kind.
var axisRules = map[Axis][]Rule{
	AxisDevice: {
		{Pattern: "high_", Value: "high", Match: matchSubstring},
		{Pattern: "medium_", Value: "medium", Match: matchSubstring},
		{Pattern: "low_", Value: "low", Match: matchSubstring},
	},
	AxisContent: {
		{Pattern: "main_", Value: "main", Match: matchSubstring},
		{Pattern: "video_thumbs_", Value: "video_thumbs", Match: matchSubstring},
		{Pattern: "thumbs_", Value: "thumbs", Match: matchSubstring},
	},
	AxisMedia: {
		{Pattern: "video", Value: "video", Match: matchSubstring},
		{Pattern: "image", Value: "image", Match: matchSubstring},
		{Pattern: "gif", Value: "gif", Match: matchSubstring},
	},
	AxisSize: {
		{Pattern: "_s", Value: "s", Match: matchSuffix},
		{Pattern: "_m", Value: "m", Match: matchSuffix},
		{Pattern: "_l", Value: "l", Match: matchSuffix},
	},
}

// Values returns the closed value set of an axis in rule order.
func Values(axis Axis) []string {
	rules := axisRules[axis]
	values := make([]string, 0, len(rules))
	for _, rule := range rules {
		values = append(values, rule.Value)
	}
	return values
}
