package region

import (
	"fmt"

	"NoticeBoard/internal/domain"
)

// Mode selects the card layout of a region.
type Mode int

const (
	// ModeFull renders title, posted date, body and attachment.
	ModeFull Mode = iota
	// ModeSide renders a compact clickable summary.
	ModeSide
)

func (m Mode) String() string {
	if m == ModeSide {
		return "side"
	}
	return "full"
}

// Region names.
const (
	Guidelines   = "guidelines"
	Common       = "common"
	Departmental = "departmental"
	Archive      = "archive"
)

// Region binds a container element to its display policy.
type Region struct {
	Name      string
	Container string
	// Label is the singular noun used by the empty-state message.
	Label                string
	Mode                 Mode
	ShowEmptyPlaceholder bool
}

// Pick returns the slice of the payload this region displays.
func (r Region) Pick(p domain.Payload) []domain.Notification {
	switch r.Name {
	case Guidelines:
		return p.Guidelines
	case Common:
		return p.Common
	case Departmental:
		return p.Departmental
	case Archive:
		return p.Archive
	default:
		return nil
	}
}

// Registry keeps regions by name in registration order.
type Registry struct {
	regions map[string]Region
	order   []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{regions: map[string]Region{}}
}

// Default returns the four regions of the notice board page.
func Default() *Registry {
	reg := NewRegistry()
	reg.Register(Region{Name: Guidelines, Container: "#common-guidelines-container", Label: "guideline", Mode: ModeFull, ShowEmptyPlaceholder: true})
	reg.Register(Region{Name: Common, Container: "#common-notifications-container", Label: "common", Mode: ModeFull, ShowEmptyPlaceholder: true})
	reg.Register(Region{Name: Departmental, Container: "#department-notifications-container", Label: "departmental", Mode: ModeSide, ShowEmptyPlaceholder: true})
	reg.Register(Region{Name: Archive, Container: "#archive-notifications-container", Label: "archive", Mode: ModeFull, ShowEmptyPlaceholder: false})
	return reg
}

// Register adds or replaces a region.
func (r *Registry) Register(region Region) {
	if r.regions == nil {
		r.regions = map[string]Region{}
	}
	if _, ok := r.regions[region.Name]; !ok {
		r.order = append(r.order, region.Name)
	}
	r.regions[region.Name] = region
}

// Resolve returns a region by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Region, error) {
	if region, ok := r.regions[name]; ok {
		return region, nil
	}
	return Region{}, fmt.Errorf("region %s is not registered", name)
}

// All returns the regions in registration order.
func (r *Registry) All() []Region {
	out := make([]Region, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.regions[name])
	}
	return out
}
