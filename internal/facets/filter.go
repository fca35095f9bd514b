package facets

import (
	"github.com/QuangLe1997/media-transcode-sub001/pkg/models"
)

// Selection is the operator's active filter: per-axis lists of selected
// values. An axis with no selected values does not constrain.
type Selection map[Axis][]string

// Empty reports whether no axis carries a selection.
func (s Selection) Empty() bool {
	for _, values := range s {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Filter keeps the profiles whose facet assignment satisfies the selection:
// AND across axes, OR within an axis's selected values. An empty selection
// returns the input untouched. Filter never mutates its input; callers may
// hold the result alongside the original snapshot.
func Filter(outputs map[string][]models.OutputRef, sel Selection) map[string][]models.OutputRef {
	if sel.Empty() {
		return outputs
	}

	filtered := make(map[string][]models.OutputRef)
	for profileID, refs := range outputs {
		if passes(Extract(profileID), sel) {
			filtered[profileID] = refs
		}
	}
	return filtered
}

func passes(assignment Assignment, sel Selection) bool {
	for axis, selected := range sel {
		if len(selected) == 0 {
			continue
		}
		value := assignment.Get(axis)
		found := false
		for _, want := range selected {
			if value == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Presets are named shorthands that set a full selection in one step.
var Presets = map[string]Selection{
	"main-videos": {
		AxisContent: {"main"},
		AxisMedia:   {"video"},
	},
	"main-images": {
		AxisContent: {"main"},
		AxisMedia:   {"image"},
	},
	"thumbnails": {
		AxisContent: {"thumbs"},
	},
	"video-thumbnails": {
		AxisContent: {"video_thumbs"},
	},
	"gifs": {
		AxisMedia: {"gif"},
	},
}
