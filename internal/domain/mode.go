package domain

// EditMode is the application-wide editing mode owned by the host.
type EditMode string

const (
	ModeView          EditMode = "VIEW"
	ModeAddMarker     EditMode = "ADD_MARKER"
	ModeAddPolyline   EditMode = "ADD_POLYLINE"
	ModeEditMap       EditMode = "EDIT_MAP"
	ModeCreateCircuit EditMode = "CREATE_CIRCUIT"
	ModeEditCircuit   EditMode = "EDIT_CIRCUIT"
	ModeOpenProject   EditMode = "OPEN_PROJECT"
	ModeCreateProject EditMode = "CREATE_PROJECT"
	ModeEditProject   EditMode = "EDIT_PROJECT"
)

func (m EditMode) String() string { return string(m) }

// IsMapSubMode reports whether m is one of the modes the map engine owns.
func (m EditMode) IsMapSubMode() bool {
	switch m {
	case ModeView, ModeAddMarker, ModeAddPolyline:
		return true
	default:
		return false
	}
}

// ParseEditMode maps a wire value onto a known mode.
func ParseEditMode(s string) (EditMode, bool) {
	switch m := EditMode(s); m {
	case ModeView, ModeAddMarker, ModeAddPolyline, ModeEditMap,
		ModeCreateCircuit, ModeEditCircuit, ModeOpenProject,
		ModeCreateProject, ModeEditProject:
		return m, true
	default:
		return "", false
	}
}
