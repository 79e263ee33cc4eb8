// Package app provides the application bootstrap of appctl.
//
// The Application loads config.yaml, sets up logging and builds the
// collaborators of each command from the configuration:
//
//   - Backend: the remote lifecycle service (backend.type: remote) or a
//     YAML described fixture domain (backend.type: fixture)
//   - Prompter: huh forms, readline prompts or none, chosen by prompt.mode
//     and the --prompt and --no-input flags
//   - History: the run history store, when history.enabled is set
//   - Progress: a spinner on stderr following the pipeline events
//
// # Streams
//
// Run summaries are printed to stdout in the format selected with --output.
// Logs, progress, pipeline views and prompts go to stderr, so the summary
// can be piped even during an interactive run.
//
// # Usage
//
//	application, err := app.NewApplication(app.NewConfig(configPath, logLevel))
//	if err != nil {
//	    return err
//	}
//	outcome, err := application.Run(ctx, api.ActionInstall, apps, flags)
package app
