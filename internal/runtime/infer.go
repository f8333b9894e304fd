package runtime

import (
	"fmt"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// kindModes maps request kinds to the mode they always use.
var kindModes = map[domain.RequestKind]string{
	domain.KindAngularSpectrum: domain.ModeAngularSpectrum,
	domain.KindAngleResolved:   domain.ModeAngleResolved,
	domain.KindOverlay:         domain.ModeFineAlign,
}

// GuessMode infers the mode to use for an acquisition request.
func (e *Engine) GuessMode(req domain.Request) (string, error) {
	name, _, err := e.guess(req)
	return name, err
}

// guess returns the mode of a request and the detector it targets.
// Composite requests use the first sub-request for which a mode is found.
func (e *Engine) guess(req domain.Request) (string, domain.Component, error) {
	if subs := req.SubRequests(); len(subs) > 0 {
		for _, sub := range subs {
			if name, det, err := e.guess(sub); err == nil {
				return name, det, nil
			}
		}
		return "", nil, fmt.Errorf("%w: no sub-request matches a mode", domain.ErrNoModeInferred)
	}

	det := req.Detector()
	if name, ok := kindModes[req.Kind()]; ok {
		if _, exists := e.table.Lookup(name); exists {
			return name, det, nil
		}
	}

	if det == nil {
		return "", nil, fmt.Errorf("%w: request without detector", domain.ErrNoModeInferred)
	}
	for _, m := range e.table.Modes {
		if m.Align {
			continue
		}
		if domain.MatchRole(m.DetectorPattern, det.Role()) {
			return m.Name, det, nil
		}
	}
	return "", nil, fmt.Errorf("%w: detector %q (role %q)", domain.ErrNoModeInferred, det.Name(), det.Role())
}
