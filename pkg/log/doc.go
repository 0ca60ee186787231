/*
Package log provides structured logging for podsim using zerolog.

The package wraps zerolog with a global logger, a small configuration struct,
and helpers that attach the identifiers podsim logs by: component, node id and
pod id.

# Architecture

	┌──────────────────── LOGGING ─────────────────────────────┐
	│                                                           │
	│  Global Logger ── zerolog.Nop() until log.Init() runs     │
	│       │                                                   │
	│       ▼                                                   │
	│  Config: Level (debug/info/warn/error)                    │
	│          JSONOutput (JSON or console)                     │
	│          Output (defaults to stderr)                      │
	│       │                                                   │
	│       ▼                                                   │
	│  Context loggers:                                         │
	│    WithComponent("orchestrator")                          │
	│    WithNodeID("node-2")                                   │
	│    WithPodID("3f2a...")                                   │
	└───────────────────────────────────────────────────────────┘

Library code never needs to call Init: the default logger discards output, so
embedding podsim in tests or other programs stays quiet. The CLI initializes
the logger from its --log-level and --log-json flags. Output goes to stderr so
command output on stdout stays clean.

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

	logger := log.WithComponent("orchestrator")
	logger.Info().
		Str("pod", "web-1").
		Str("node", "Worker-2").
		Msg("pod scheduled")

Console format:

	2024-10-13T10:30:00Z INF pod scheduled component=orchestrator node=Worker-2 pod=web-1

# Levels

  - debug: per-attempt scheduling detail
  - info: pod created, scheduled or moved, node added, policy changed
  - warn: no suitable node, queue full, rejected moves, cluster reset
  - error: failed journal writes
*/
package log
