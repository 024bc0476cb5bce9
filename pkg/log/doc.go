/*
Package log provides structured logging for the control plane using zerolog.

A single global Logger is configured once via Init and read by every
other package at construction time. Component-scoped child loggers
(WithComponent, WithElevatorID, WithRequestID) attach the field that
makes a given log stream easy to filter without repeating it at every
call site.

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	schedulerLog := log.WithComponent("scheduler")
	schedulerLog.Info().Msg("dispatch loop started")

	elevatorLog := log.WithElevatorID("3")
	elevatorLog.Debug().Int("current_floor", 5).Msg("destination reached")

JSON output (production):

	{"level":"info","component":"scheduler","time":"2026-01-01T10:30:00Z","message":"dispatch loop started"}

Console output (development):

	2026-01-01T10:30:00Z INF dispatch loop started component=scheduler
*/
package log
