package guide

import "github.com/verte-zerg/sketchcoach/internal/model"

// FilterFunc returns true when a guide should be kept.
type FilterFunc func(Definition) bool

// FilterForCategory keeps guides of one category. An empty category keeps everything.
func FilterForCategory(category model.LessonCategory) FilterFunc {
	if category == "" {
		return func(Definition) bool { return true }
	}
	return func(def Definition) bool { return def.Category == category }
}

// FilterForShapes keeps the listed shapes. An empty list keeps everything.
func FilterForShapes(shapes []model.ShapeID) FilterFunc {
	if len(shapes) == 0 {
		return func(Definition) bool { return true }
	}
	set := make(map[model.ShapeID]struct{}, len(shapes))
	for _, shape := range shapes {
		set[shape] = struct{}{}
	}
	return func(def Definition) bool {
		_, ok := set[def.Shape]
		return ok
	}
}

// All keeps guides accepted by every filter.
func All(filters ...FilterFunc) FilterFunc {
	return func(def Definition) bool {
		for _, keep := range filters {
			if !keep(def) {
				return false
			}
		}
		return true
	}
}
