package merge

import (
	"github.com/voyagen/sectionvault/internal/models"
)

// TrackRename renames g and maintains its _originalName marker. The first
// rename of a built-in group (one that resolves against defaults) records the
// name it shipped with; renaming it back to that name clears the marker.
// Custom (authored) groups never carry a marker.
func TrackRename(g models.Group, newName string, defaults []models.Group) models.Group {
	out := clone(g)
	if newName == "" || newName == out.Name {
		return out
	}
	if out.OriginalName == "" && !out.IsCustom() {
		if i, _ := ResolveGroup(out, defaults); i >= 0 {
			out.OriginalName = defaults[i].Name
		}
	}
	out.Name = newName
	normalizeOrigin(&out)
	return out
}

// trackOrigin backfills the marker on a load-merged group whose saved name no
// longer matches the default it was resolved against.
func trackOrigin(def models.Group, merged *models.Group) {
	if merged.IsCustom() || merged.OriginalName != "" {
		return
	}
	if def.Name != "" && merged.Name != def.Name {
		merged.OriginalName = def.Name
	}
}

func normalizeOrigin(g *models.Group) {
	if g.OriginalName == g.Name {
		g.OriginalName = ""
	}
}
