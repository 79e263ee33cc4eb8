package placement

import (
	"appctl/internal/api"
)

// Candidates is the placement analysis of one application.
type Candidates struct {
	App      api.ResolvedApp
	Eligible []api.Host
	Excluded []api.HostExclusion
}

// Allows reports whether host is eligible.
func (c Candidates) Allows(host api.Host) bool {
	for _, h := range c.Eligible {
		if h == host {
			return true
		}
	}
	return false
}

// exclusion returns why host was excluded, if it was.
func (c Candidates) exclusion(host api.Host) (api.HostExclusion, bool) {
	for _, ex := range c.Excluded {
		if ex.Host == host {
			return ex, true
		}
	}
	return api.HostExclusion{}, false
}

// Eligibility computes the eligible and excluded hosts of app for action.
//
// Upgrade and remove target the hosts where the application is installed.
// Install targets hosts whose role the application accepts and that do not
// already run it.
func Eligibility(action api.Action, app api.ResolvedApp, domain api.Domain) Candidates {
	c := Candidates{App: app}
	for _, h := range domain.Hosts {
		installed := h.Has(app.ID)
		switch {
		case action != api.ActionInstall && !installed:
			c.Excluded = append(c.Excluded, api.HostExclusion{Host: h.Name, Reason: api.ExclusionNotInstalled})
		case action == api.ActionInstall && installed:
			c.Excluded = append(c.Excluded, api.HostExclusion{Host: h.Name, Reason: api.ExclusionAlreadyInstalled})
		case action == api.ActionInstall && !app.AllowsRole(h.Role):
			c.Excluded = append(c.Excluded, api.HostExclusion{Host: h.Name, Reason: api.ExclusionRoleMismatch})
		default:
			c.Eligible = append(c.Eligible, h.Name)
		}
	}
	return c
}
