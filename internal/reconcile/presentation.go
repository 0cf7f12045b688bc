package reconcile

type FitMode string

const (
	FitNormal  FitMode = "normal"
	FitContain FitMode = "contain"
	FitStretch FitMode = "stretch"
)

const (
	MinZoom     = 0.5
	MaxZoom     = 3.0
	ZoomStep    = 0.25
	DefaultZoom = 1.0
)

// Presentation is the local view state of a display. It is never sent to
// the server.
type Presentation struct {
	Zoom float64 `json:"zoom"`
	Fit  FitMode `json:"fit"`
}

func DefaultPresentation() Presentation {
	return Presentation{Zoom: DefaultZoom, Fit: FitNormal}
}

func (p *Presentation) ZoomIn() {
	p.Fit = FitNormal
	p.Zoom = min(p.Zoom+ZoomStep, MaxZoom)
}

func (p *Presentation) ZoomOut() {
	p.Fit = FitNormal
	p.Zoom = max(p.Zoom-ZoomStep, MinZoom)
}

func (p *Presentation) Reset() {
	*p = DefaultPresentation()
}

func (p *Presentation) FitToScreen() {
	p.Zoom = DefaultZoom
	p.Fit = FitContain
}

func (p *Presentation) StretchToScreen() {
	p.Zoom = DefaultZoom
	p.Fit = FitStretch
}
