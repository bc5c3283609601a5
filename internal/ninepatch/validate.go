package ninepatch

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Issue describes one band that a renderer would not interpret as intended.
type Issue struct {
	Axis    Axis
	Band    int // index of the (start, end) pair, -1 for axis-wide issues
	Message string
}

func (i Issue) String() string {
	if i.Band < 0 {
		return fmt.Sprintf("%s axis: %s", i.Axis, i.Message)
	}
	return fmt.Sprintf("%s band %d: %s", i.Axis, i.Band, i.Message)
}

// Issues lists every problem in the bands that would be encoded. Bands must
// lie within the image, have start <= end, and be sorted without overlap.
// An empty result means the chunk is geometrically sound.
func (b *Builder) Issues() []Issue {
	var issues []Issue
	issues = append(issues, checkAxis(AxisX, b.XRegions(), b.extent.Width)...)
	issues = append(issues, checkAxis(AxisY, b.YRegions(), b.extent.Height)...)
	return issues
}

// Validate returns an error wrapping ErrInvalidRegion if Issues is not
// empty. Builds only call it in strict mode.
func (b *Builder) Validate() error {
	issues := b.Issues()
	if len(issues) == 0 {
		return nil
	}
	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.String()
	}
	return errors.Wrap(ErrInvalidRegion, strings.Join(msgs, "; "))
}

func checkAxis(ax Axis, bounds []int, extent int) []Issue {
	var issues []Issue
	if len(bounds) > MaxDivisions {
		issues = append(issues, Issue{
			Axis:    ax,
			Band:    -1,
			Message: fmt.Sprintf("%d boundaries exceed the chunk limit of %d", len(bounds), MaxDivisions),
		})
	}
	prevEnd := 0
	for i := 0; i+1 < len(bounds); i += 2 {
		start, end := bounds[i], bounds[i+1]
		band := i / 2
		if start > end {
			issues = append(issues, Issue{Axis: ax, Band: band, Message: fmt.Sprintf("start %d is after end %d", start, end)})
		}
		if start < 0 || end > extent {
			issues = append(issues, Issue{Axis: ax, Band: band, Message: fmt.Sprintf("[%d, %d) leaves the image [0, %d)", start, end, extent)})
		}
		if band > 0 && start < prevEnd {
			issues = append(issues, Issue{Axis: ax, Band: band, Message: fmt.Sprintf("start %d overlaps or precedes previous end %d", start, prevEnd)})
		}
		prevEnd = end
	}
	return issues
}
