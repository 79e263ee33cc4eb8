package formatting

import (
	"appctl/internal/api"
	"appctl/internal/history"
)

// Structured documents shared by the JSON and YAML formatters.

type pairDocument struct {
	App           string              `json:"app" yaml:"app"`
	Host          api.Host            `json:"host" yaml:"host"`
	Version       string              `json:"version,omitempty" yaml:"version,omitempty"`
	AutoInstalled bool                `json:"auto_installed,omitempty" yaml:"autoInstalled,omitempty"`
	Packages      *api.PackageChanges `json:"packages,omitempty" yaml:"packages,omitempty"`
	Blocking      []api.Explanation   `json:"blocking,omitempty" yaml:"blocking,omitempty"`
	Advisory      []api.Explanation   `json:"advisory,omitempty" yaml:"advisory,omitempty"`
}

type choiceDocument struct {
	App           string              `json:"app" yaml:"app"`
	AutoInstalled bool                `json:"auto_installed,omitempty" yaml:"autoInstalled,omitempty"`
	Eligible      []api.Host          `json:"eligible" yaml:"eligible"`
	Excluded      []api.HostExclusion `json:"excluded,omitempty" yaml:"excluded,omitempty"`
	Current       api.Host            `json:"current,omitempty" yaml:"current,omitempty"`
}

type hostChoicesDocument struct {
	Action   api.Action       `json:"action" yaml:"action"`
	Choices  []choiceDocument `json:"choices" yaml:"choices"`
	Problems []string         `json:"problems,omitempty" yaml:"problems,omitempty"`
}

type settingsDocument struct {
	App    string             `json:"app" yaml:"app"`
	Fields []api.SettingField `json:"fields" yaml:"fields"`
	Values map[string]string  `json:"values,omitempty" yaml:"values,omitempty"`
}

type confirmationDocument struct {
	Action      api.Action         `json:"action" yaml:"action"`
	StartLabel  string             `json:"start_label" yaml:"startLabel"`
	HasAdvisory bool               `json:"has_advisory" yaml:"hasAdvisory"`
	Pairs       []pairDocument     `json:"pairs" yaml:"pairs"`
	Settings    []settingsDocument `json:"settings,omitempty" yaml:"settings,omitempty"`
	Problems    []string           `json:"problems,omitempty" yaml:"problems,omitempty"`
}

type blockingDocument struct {
	Action api.Action     `json:"action" yaml:"action"`
	Pairs  []pairDocument `json:"pairs" yaml:"pairs"`
}

type outcomeDocument struct {
	App       string   `json:"app" yaml:"app"`
	Host      api.Host `json:"host" yaml:"host"`
	Succeeded bool     `json:"succeeded" yaml:"succeeded"`
	Messages  []string `json:"messages,omitempty" yaml:"messages,omitempty"`
}

type aftermathDocument struct {
	Action    api.Action        `json:"action" yaml:"action"`
	CanFinish bool              `json:"can_finish" yaml:"canFinish"`
	Failures  []outcomeDocument `json:"failures,omitempty" yaml:"failures,omitempty"`
	Messages  []outcomeDocument `json:"messages,omitempty" yaml:"messages,omitempty"`
	Errors    []string          `json:"errors,omitempty" yaml:"errors,omitempty"`
}

type historyDocument struct {
	Runs  []*history.Record `json:"runs" yaml:"runs"`
	Count int               `json:"count" yaml:"count"`
}

func pairDocuments(reports []api.PairReport) []pairDocument {
	docs := make([]pairDocument, 0, len(reports))
	for _, r := range reports {
		doc := pairDocument{
			App:           r.Key.App,
			Host:          r.Key.Host,
			Version:       r.App.Version,
			AutoInstalled: r.AutoInstalled,
			Blocking:      r.Blocking,
			Advisory:      r.Advisory,
		}
		if !r.Packages.Empty() {
			packages := r.Packages
			doc.Packages = &packages
		}
		docs = append(docs, doc)
	}
	return docs
}

func outcomeDocuments(outcomes []api.PairOutcome) []outcomeDocument {
	if len(outcomes) == 0 {
		return nil
	}
	docs := make([]outcomeDocument, 0, len(outcomes))
	for _, o := range outcomes {
		docs = append(docs, outcomeDocument{
			App:       o.Key.App,
			Host:      o.Key.Host,
			Succeeded: o.Result.Succeeded,
			Messages:  o.Result.Messages,
		})
	}
	return docs
}

func hostChoicesDoc(view api.HostChoiceView) hostChoicesDocument {
	doc := hostChoicesDocument{Action: view.Action, Problems: view.Problems}
	for _, c := range view.Choices {
		doc.Choices = append(doc.Choices, choiceDocument{
			App:           c.App.ID,
			AutoInstalled: c.AutoInstalled,
			Eligible:      c.Eligible,
			Excluded:      c.Excluded,
			Current:       c.Current,
		})
	}
	return doc
}

func confirmationDoc(view api.ConfirmationView) confirmationDocument {
	doc := confirmationDocument{
		Action:      view.Action,
		StartLabel:  view.StartLabel,
		HasAdvisory: view.HasAdvisory,
		Pairs:       pairDocuments(view.Pairs),
		Problems:    view.Problems,
	}
	for _, p := range view.Settings {
		doc.Settings = append(doc.Settings, settingsDocument{
			App:    p.App.ID,
			Fields: p.Schema.Fields,
			Values: p.Values,
		})
	}
	return doc
}

func blockingDoc(view api.BlockingView) blockingDocument {
	return blockingDocument{Action: view.Action, Pairs: pairDocuments(view.Pairs)}
}

func aftermathDoc(view api.AftermathView) aftermathDocument {
	return aftermathDocument{
		Action:    view.Action,
		CanFinish: view.CanFinish,
		Failures:  outcomeDocuments(view.Failures),
		Messages:  outcomeDocuments(view.Messages),
		Errors:    view.Errors,
	}
}

func historyDoc(records []*history.Record) historyDocument {
	if records == nil {
		records = []*history.Record{}
	}
	return historyDocument{Runs: records, Count: len(records)}
}
