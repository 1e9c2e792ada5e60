// Package config implements the layered, sectioned configuration of a
// scanbinder run.
//
// A configuration document is YAML: a mapping of section name to a mapping of
// option name to scalar. Three kinds of sections exist:
//
//	global:            run-wide options (targets, jobs, path, env-file, watch)
//	__<plugin>__:      plugin defaults; declaring one loads the plugin
//	<target>:          per-target overrides, optionally naming __plugin__
//
// The program-level config.yaml is read first and the project-level
// project.yaml is overlaid option by option. Options resolve target first,
// then plugin defaults, then the injected values _OUTPUT, _PROJECT and _SEP.
// Values may reference other options of their section with ${name}.
package config
