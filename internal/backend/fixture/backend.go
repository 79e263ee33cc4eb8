package fixture

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"appctl/internal/api"
	"appctl/internal/dependency"
	"appctl/internal/risk"
	"appctl/pkg/logging"
)

// maxParallelHosts bounds the per-host fan-out of dry runs and executions.
const maxParallelHosts = 4

// Backend serves a fixture domain. It is safe for concurrent use.
type Backend struct {
	mu      sync.RWMutex
	hosts   []Host
	catalog map[string]CatalogEntry
	graph   *dependency.Graph

	findings []ScriptedFinding
	outcomes map[api.PairKey]ScriptedOutcome
}

var (
	_ api.Resolver  = (*Backend)(nil)
	_ api.Inventory = (*Backend)(nil)
	_ api.Backend   = (*Backend)(nil)
)

// New creates a backend over f. The file is copied; later changes to it
// are not observed.
func New(f *File) *Backend {
	b := &Backend{
		catalog:  make(map[string]CatalogEntry, len(f.Catalog)),
		graph:    dependency.New(),
		findings: append([]ScriptedFinding(nil), f.Findings...),
		outcomes: make(map[api.PairKey]ScriptedOutcome, len(f.Outcomes)),
	}
	for _, h := range f.Hosts {
		h.Installed = append([]api.AppRef(nil), h.Installed...)
		b.hosts = append(b.hosts, h)
	}
	for _, e := range f.Catalog {
		b.catalog[e.ID] = e

		kind := dependency.KindApplication
		if e.Container {
			kind = dependency.KindContainer
		}
		deps := make([]dependency.NodeID, 0, len(e.DependsOn))
		for _, d := range e.DependsOn {
			deps = append(deps, dependency.NodeID(d))
		}
		b.graph.AddNode(dependency.Node{
			ID:           dependency.NodeID(e.ID),
			FriendlyName: e.DisplayName(),
			Kind:         kind,
			DependsOn:    deps,
		})
	}
	for _, o := range f.Outcomes {
		b.outcomes[api.PairKey{App: o.App, Host: o.Host}] = o
	}
	return b
}

// Open loads a fixture file and creates a backend over it.
func Open(path string) (*Backend, error) {
	f, err := Load(path)
	if err != nil {
		return nil, err
	}
	logging.Info("Fixture", "Loaded fixture domain %s: %d hosts, %d applications", path, len(f.Hosts), len(f.Catalog))
	return New(f), nil
}

// Resolve expands the requested applications. Installs pull in every
// transitive dependency that is not installed anywhere in the domain.
func (b *Backend) Resolve(ctx context.Context, req api.ResolveRequest) (api.ResolveResponse, error) {
	if err := ctx.Err(); err != nil {
		return api.ResolveResponse{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, id := range req.Apps {
		if _, ok := b.catalog[id]; !ok {
			return api.ResolveResponse{}, api.NewUnknownApplicationError(id)
		}
	}

	ids := req.Apps
	if req.Action == api.ActionInstall {
		roots := make([]dependency.NodeID, 0, len(req.Apps))
		for _, id := range req.Apps {
			roots = append(roots, dependency.NodeID(id))
		}
		closure, err := b.graph.Closure(roots)
		if err != nil {
			return api.ResolveResponse{}, resolutionError(err)
		}
		ids = make([]string, 0, len(closure))
		for _, n := range closure {
			ids = append(ids, string(n))
		}
	}

	requested := make(map[string]bool, len(req.Apps))
	for _, id := range req.Apps {
		requested[id] = true
	}

	var resp api.ResolveResponse
	for _, id := range ids {
		if !requested[id] && b.installedAnywhere(id) {
			logging.Debug("Fixture", "Dependency %s is already installed", id)
			continue
		}
		entry := b.catalog[id]
		resp.Apps = append(resp.Apps, entry.ResolvedApp)
		if !requested[id] {
			resp.AutoInstalled = append(resp.AutoInstalled, id)
		}
		if !entry.Settings.Empty() {
			if resp.Settings == nil {
				resp.Settings = map[string]api.SettingsSchema{}
			}
			resp.Settings[id] = entry.Settings
		}
	}
	return resp, nil
}

func resolutionError(err error) error {
	var missing *dependency.MissingError
	if errors.As(err, &missing) {
		if missing.Node == "" {
			return api.NewUnknownApplicationError(string(missing.Missing))
		}
		return api.NewUnresolvableDependencyError(string(missing.Node),
			fmt.Sprintf("requires %s, which is not in the catalog", missing.Missing))
	}
	var cycle *dependency.CycleError
	if errors.As(err, &cycle) && len(cycle.Path) > 0 {
		return api.NewUnresolvableDependencyError(string(cycle.Path[0]), cycle.Error())
	}
	return err
}

// Domain returns the hosts of the fixture domain.
func (b *Backend) Domain(ctx context.Context) (api.Domain, error) {
	if err := ctx.Err(); err != nil {
		return api.Domain{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	d := api.Domain{Hosts: make([]api.HostInfo, 0, len(b.hosts))}
	for _, h := range b.hosts {
		info := h.HostInfo
		info.Installed = append([]api.AppRef(nil), h.Installed...)
		d.Hosts = append(d.Hosts, info)
	}
	return d, nil
}

// DryRun evaluates every host of the request in parallel. Hosts that are
// unreachable or unknown to the domain are absent from the response.
func (b *Backend) DryRun(ctx context.Context, req api.BackendRequest) (api.DryRunResponse, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	requested := make(map[string]bool, len(req.Apps))
	for _, id := range req.Apps {
		requested[id] = true
	}

	var mu sync.Mutex
	resp := make(api.DryRunResponse, len(req.Hosts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelHosts)
	for _, name := range sortedHosts(req.Hosts) {
		apps := req.Hosts[name]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			host, ok := b.host(name)
			if !ok {
				logging.Warn("Fixture", "Host %s is not part of the domain", name)
				return nil
			}
			if host.Unreachable {
				logging.Debug("Fixture", "Host %s is unreachable", name)
				return nil
			}
			report := b.evaluate(req.Action, host, apps, requested)
			mu.Lock()
			resp[name] = report
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (b *Backend) evaluate(action api.Action, host Host, apps []string, requested map[string]bool) api.HostDryRun {
	if host.Failure != "" {
		return api.HostDryRun{Failure: host.Failure}
	}

	report := api.HostDryRun{
		Packages: map[string]api.PackageChanges{},
		Errors:   map[api.FindingKind]map[string]any{},
		Warnings: map[api.FindingKind]map[string]any{},
	}
	add := func(blocking bool, kind api.FindingKind, app string, detail any) {
		target := report.Warnings
		if blocking {
			target = report.Errors
		}
		if target[kind] == nil {
			target[kind] = map[string]any{}
		}
		target[kind][app] = detail
	}

	for _, id := range apps {
		entry, ok := b.catalog[id]
		if !ok {
			add(true, risk.KindDependencies, id, map[string]any{"value": id, "reason": "not in the catalog"})
			continue
		}
		installed := host.Has(id)

		switch action {
		case api.ActionInstall:
			if installed {
				add(true, risk.KindNotInstalled, id, map[string]any{"value": string(host.Name), "reason": "already installed"})
			}
			if !entry.AllowsRole(host.Role) {
				add(true, risk.KindServerRole, id, map[string]any{
					"value":  host.Role,
					"reason": "requires role " + strings.Join(entry.Roles, " or "),
				})
			}
			if entry.EndOfLife {
				add(true, risk.KindNotEndOfLife, id, map[string]any{"value": entry.Version, "reason": "release is end of life"})
			}
			if entry.Container && host.Container {
				add(true, risk.KindNoDockerInDocker, id, map[string]any{"value": string(host.Name), "reason": "host is a container"})
			}
			var missing []string
			for _, dep := range entry.DependsOn {
				if !requested[dep] && !b.installedAnywhere(dep) {
					missing = append(missing, dep)
				}
			}
			if len(missing) > 0 {
				add(true, risk.KindDependencies, id, map[string]any{"value": strings.Join(missing, ", "), "reason": "missing dependencies"})
			}
			report.Packages[id] = api.PackageChanges{Install: entry.packages()}
		case api.ActionUpgrade:
			if !installed {
				add(true, risk.KindInstalled, id, map[string]any{"value": string(host.Name), "reason": "not installed"})
			}
			report.Packages[id] = api.PackageChanges{Install: entry.packages()}
		case api.ActionRemove:
			if !installed {
				add(true, risk.KindInstalled, id, map[string]any{"value": string(host.Name), "reason": "not installed"})
			}
			report.Packages[id] = api.PackageChanges{Remove: entry.packages()}
		}
	}

	placed := make(map[string]bool, len(apps))
	for _, id := range apps {
		placed[id] = true
	}
	for _, s := range b.findings {
		if s.Host != host.Name || (s.App != api.AllApps && !placed[s.App]) {
			continue
		}
		add(s.Blocking, s.Kind, s.App, s.Detail)
	}
	return report
}

// Execute performs the request on every host in parallel. Progress is
// reported host by host in name order once all hosts have finished. A host
// that cannot be reached fails each of its applications without affecting
// the others.
func (b *Backend) Execute(ctx context.Context, req api.BackendRequest, progress api.ProgressFunc) (api.ExecutionResponse, error) {
	hosts := sortedHosts(req.Hosts)
	type hostRun struct {
		outcomes map[string]api.AppOutcome
		progress []api.ProgressEvent
	}
	runs := make([]hostRun, len(hosts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelHosts)
	for i, name := range hosts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes, events, err := b.executeHost(req.Action, name, req.Hosts[name])
			if err != nil {
				logging.Warn("Fixture", "Execution on %s failed: %v", name, err)
				outcomes, events = hostFailed(req.Hosts[name], err)
			}
			runs[i] = hostRun{outcomes: outcomes, progress: events}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := make(api.ExecutionResponse, len(hosts))
	for i, name := range hosts {
		for _, ev := range runs[i].progress {
			if progress != nil {
				progress(ev)
			}
		}
		resp[name] = runs[i].outcomes
	}
	return resp, nil
}

func hostFailed(apps []string, err error) (map[string]api.AppOutcome, []api.ProgressEvent) {
	msgs := []string{err.Error()}
	outcomes := make(map[string]api.AppOutcome, len(apps))
	for _, id := range apps {
		outcomes[id] = api.AppOutcome{Success: false, Messages: msgs}
	}
	return outcomes, []api.ProgressEvent{{Level: api.LevelError, Message: err.Error()}}
}

func (b *Backend) executeHost(action api.Action, name api.Host, apps []string) (map[string]api.AppOutcome, []api.ProgressEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	for i := range b.hosts {
		if b.hosts[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 || b.hosts[idx].Unreachable {
		return nil, nil, &api.TransportError{Host: name, Op: "execute", Err: errors.New("host is unreachable")}
	}
	host := &b.hosts[idx]

	outcomes := make(map[string]api.AppOutcome, len(apps))
	var events []api.ProgressEvent
	for _, id := range apps {
		events = append(events, api.ProgressEvent{
			Level:   api.LevelInfo,
			Message: fmt.Sprintf("%s %s on %s", progressVerb(action), id, name),
		})

		scripted, ok := b.outcomes[api.PairKey{App: id, Host: name}]
		if ok {
			events = append(events, scripted.Progress...)
		}
		if ok && scripted.Fail {
			msgs := scripted.Messages
			if len(msgs) == 0 {
				msgs = []string{fmt.Sprintf("%s of %s failed", action, id)}
			}
			for _, m := range msgs {
				events = append(events, api.ProgressEvent{Level: api.LevelError, Message: m})
			}
			outcomes[id] = api.AppOutcome{Success: false, Messages: msgs}
			continue
		}

		entry := b.catalog[id]
		switch action {
		case api.ActionInstall, api.ActionUpgrade:
			installed := false
			for i, ref := range host.Installed {
				if ref.ID == id {
					host.Installed[i] = entry.AppRef
					installed = true
				}
			}
			if !installed {
				host.Installed = append(host.Installed, entry.AppRef)
			}
		case api.ActionRemove:
			kept := host.Installed[:0]
			for _, ref := range host.Installed {
				if ref.ID != id {
					kept = append(kept, ref)
				}
			}
			host.Installed = kept
		}
		outcomes[id] = api.AppOutcome{Success: true, Messages: scripted.Messages}
	}
	logging.Info("Fixture", "Executed %s of %s on %s", action, strings.Join(apps, ", "), name)
	return outcomes, events, nil
}

func progressVerb(action api.Action) string {
	switch action {
	case api.ActionUpgrade:
		return "Upgrading"
	case api.ActionRemove:
		return "Removing"
	}
	return "Installing"
}

func (b *Backend) host(name api.Host) (Host, bool) {
	for _, h := range b.hosts {
		if h.Name == name {
			return h, true
		}
	}
	return Host{}, false
}

func (b *Backend) installedAnywhere(id string) bool {
	for _, h := range b.hosts {
		if h.Has(id) {
			return true
		}
	}
	return false
}

func sortedHosts(m map[api.Host][]string) []api.Host {
	hosts := make([]api.Host, 0, len(m))
	for h := range m {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i] < hosts[j] })
	return hosts
}
