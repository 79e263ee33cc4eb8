// Package remote is the client of a remote lifecycle service.
//
// The service exposes four endpoints, all JSON:
//
//	POST /resolve   {apps, action}                  → {apps, auto_installed, settings}
//	GET  /hosts                                     → {hosts: [{name, role, local, installed}]}
//	POST /dry-run   {apps, action, hosts, settings} → {host: {unreachable, failure, packages, errors, warnings}}
//	WS   /execute   {apps, action, hosts, settings} → stream of frames
//
// The execution stream carries {"type":"progress","level","message"}
// frames followed by exactly one {"type":"result","result":{host:{app:
// {success, messages}}}} or {"type":"error","error"} frame.
//
// Errors are *api.TransportError except for resolution failures, which the
// service reports as 404 or 422 with {"error","reason","app"} and which
// are returned as *api.ResolutionError.
package remote
