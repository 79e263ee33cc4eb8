// Package settings validates the per-application settings collected before
// execution.
//
// Values arrive as raw strings, from --set flags or from the confirmation
// prompt, and leave as typed values (string, bool, int) ready for the
// backend request. Validation happens locally; the dry run is never re-run
// because of a settings answer.
package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"appctl/internal/api"
	"appctl/internal/config"
)

// Applicable reports whether settings are collected for action.
func Applicable(action api.Action) bool {
	return action == api.ActionInstall || action == api.ActionUpgrade
}

// Values returns the raw values for app with defaults applied underneath
// the caller's input.
func Values(app api.ResolvedApp, input map[string]string) map[string]string {
	out := make(map[string]string, len(app.Settings.Fields))
	for _, f := range app.Settings.Fields {
		if f.Default != "" {
			out[f.Name] = f.Default
		}
	}
	for k, v := range input {
		out[k] = v
	}
	return out
}

// NeedsInput reports whether some application declares a required field
// that has neither a default nor a caller supplied value.
func NeedsInput(action api.Action, apps api.ApplicationSet, input map[string]map[string]string) bool {
	if !Applicable(action) {
		return false
	}
	for _, app := range apps.All() {
		values := Values(app, input[app.ID])
		for _, f := range app.Settings.Fields {
			if f.Required && strings.TrimSpace(values[f.Name]) == "" {
				return true
			}
		}
	}
	return false
}

// Prompts builds the settings questions of the confirmation stage, one per
// application that declares settings.
func Prompts(action api.Action, apps api.ApplicationSet, input map[string]map[string]string) []api.SettingsPrompt {
	if !Applicable(action) {
		return nil
	}
	var prompts []api.SettingsPrompt
	for _, app := range apps.All() {
		if app.Settings.Empty() {
			continue
		}
		prompts = append(prompts, api.SettingsPrompt{
			App:    app.AppRef,
			Schema: app.Settings,
			Values: Values(app, input[app.ID]),
		})
	}
	return prompts
}

// CheckRequest reports input that no answer to the settings prompt can
// correct: applications outside the run, settings for an action that takes
// none, and keys the schema does not declare.
func CheckRequest(action api.Action, apps api.ApplicationSet, input map[string]map[string]string) config.ValidationErrors {
	var errs config.ValidationErrors
	ids := make([]string, 0, len(input))
	for id := range input {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		values := input[id]
		app, ok := apps.Get(id)
		switch {
		case !ok:
			errs.Add(id, "is not part of this run")
		case !Applicable(action):
			if len(values) > 0 {
				errs.Add(id, fmt.Sprintf("settings are not accepted for %s", action))
			}
		default:
			keys := make([]string, 0, len(values))
			for key := range values {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				if !declares(app.Settings, key) {
					errs.Add(id+"."+key, "is not a declared setting", values[key])
				}
			}
		}
	}
	return errs
}

// Validate checks the input of every application against its schema and
// converts it to typed values. Everything CheckRequest rejects is reported
// as well.
func Validate(action api.Action, apps api.ApplicationSet, input map[string]map[string]string) (api.AppSettings, config.ValidationErrors) {
	errs := CheckRequest(action, apps, input)
	out := api.AppSettings{}
	if !Applicable(action) {
		return out, errs
	}

	for _, app := range apps.All() {
		if app.Settings.Empty() {
			continue
		}

		values := Values(app, input[app.ID])
		typed := make(map[string]any, len(values))
		for _, f := range app.Settings.Fields {
			field := app.ID + "." + f.Name
			v, ok := values[f.Name]
			v = strings.TrimSpace(v)
			if !ok || v == "" {
				if f.Required {
					errs.Add(field, "is required")
				}
				continue
			}
			parsed, err := parse(f, v)
			if err != nil {
				errs.Add(field, err.Error(), v)
				continue
			}
			typed[f.Name] = parsed
		}
		if len(typed) > 0 {
			out[app.ID] = typed
		}
	}
	return out, errs
}

// Merge returns input with answer applied on top. Only keys declared by an
// application of the run are taken from answer.
func Merge(apps api.ApplicationSet, input, answer map[string]map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(input))
	for id, values := range input {
		out[id] = make(map[string]string, len(values))
		for k, v := range values {
			out[id][k] = v
		}
	}
	for id, values := range answer {
		app, ok := apps.Get(id)
		if !ok {
			continue
		}
		for k, v := range values {
			if !declares(app.Settings, k) {
				continue
			}
			if out[id] == nil {
				out[id] = map[string]string{}
			}
			out[id][k] = v
		}
	}
	return out
}

func declares(schema api.SettingsSchema, key string) bool {
	for _, f := range schema.Fields {
		if f.Name == key {
			return true
		}
	}
	return false
}

func parse(f api.SettingField, v string) (any, error) {
	if len(f.Choices) > 0 {
		if err := config.ValidateOneOf(f.Name, v, f.Choices); err != nil {
			return nil, fmt.Errorf("must be one of: %s", strings.Join(f.Choices, ", "))
		}
	}
	switch f.Type {
	case api.SettingBool:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("must be true or false")
		}
		return b, nil
	case api.SettingInt:
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("must be an integer")
		}
		return n, nil
	default:
		return v, nil
	}
}

// ParseAssignments parses "app.key=value" pairs as given to --set.
func ParseAssignments(pairs []string) (map[string]map[string]string, error) {
	out := map[string]map[string]string{}
	for _, p := range pairs {
		lhs, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid setting %q (expected app.key=value)", p)
		}
		app, key, ok := strings.Cut(strings.TrimSpace(lhs), ".")
		if !ok || app == "" || key == "" {
			return nil, fmt.Errorf("invalid setting %q (expected app.key=value)", p)
		}
		if out[app] == nil {
			out[app] = map[string]string{}
		}
		out[app][key] = value
	}
	return out, nil
}

// Problems flattens validation errors into display lines.
func Problems(errs config.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
