package liveness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divinity10/GLADyS-sub004/lifecycle"
	"github.com/Divinity10/GLADyS-sub004/testutil"
	"github.com/Divinity10/GLADyS-sub004/transport"
)

func noPreference(lifecycle.Args) (lifecycle.State, error) {
	return lifecycle.StateUnchanged, nil
}

func TestTickReportsStateAndLastError(t *testing.T) {
	fake := testutil.NewFakeTransport()
	machine := lifecycle.NewMachine("game-sensor")
	machine.RegisterHandler(lifecycle.CommandStart, noPreference)
	machine.Dispatch(lifecycle.CommandStart, nil)

	r := NewReporter("game-sensor", machine, fake)
	r.Tick(context.Background())

	reports := fake.LivenessReports()
	require.Len(t, reports, 1)
	assert.Equal(t, "game-sensor", reports[0].ComponentID)
	assert.Equal(t, "active", reports[0].State)
	assert.Empty(t, reports[0].ErrorMessage)
}

func TestTickDispatchesQueuedCommandsInOrder(t *testing.T) {
	fake := testutil.NewFakeTransport()
	machine := lifecycle.NewMachine("game-sensor")

	var order []string
	machine.RegisterHandler(lifecycle.CommandPause, func(lifecycle.Args) (lifecycle.State, error) {
		order = append(order, "pause")
		return lifecycle.StateUnchanged, nil
	})
	machine.RegisterHandler(lifecycle.CommandResume, func(lifecycle.Args) (lifecycle.State, error) {
		order = append(order, "resume")
		return lifecycle.StateUnchanged, nil
	})

	fake.QueueCommands(
		transport.PendingCommand{Command: "pause"},
		transport.PendingCommand{Command: "resume"},
	)

	r := NewReporter("game-sensor", machine, fake)
	r.Tick(context.Background())

	assert.Equal(t, []string{"pause", "resume"}, order)
	assert.Equal(t, lifecycle.StateActive, machine.State())
}

func TestTickOneBadCommandDoesNotBlockTheRest(t *testing.T) {
	fake := testutil.NewFakeTransport()
	machine := lifecycle.NewMachine("game-sensor")

	resumed := false
	machine.RegisterHandler(lifecycle.CommandPause, func(lifecycle.Args) (lifecycle.State, error) {
		return lifecycle.StateUnchanged, errors.New("pause handler broken")
	})
	machine.RegisterHandler(lifecycle.CommandResume, func(lifecycle.Args) (lifecycle.State, error) {
		resumed = true
		return lifecycle.StateUnchanged, nil
	})

	fake.QueueCommands(
		transport.PendingCommand{Command: "pause"},
		transport.PendingCommand{Command: "resume"},
	)

	r := NewReporter("game-sensor", machine, fake)
	require.NotPanics(t, func() { r.Tick(context.Background()) })

	assert.True(t, resumed, "failure of one command must not block the rest")
}

func TestTickTransportFailureIsSwallowed(t *testing.T) {
	fake := testutil.NewFakeTransport()
	fake.SetLivenessError(errors.New("gateway unreachable"))

	machine := lifecycle.NewMachine("game-sensor")
	r := NewReporter("game-sensor", machine, fake)

	require.NotPanics(t, func() { r.Tick(context.Background()) })

	ticks, failures, _ := r.Stats()
	assert.Equal(t, int64(1), ticks)
	assert.Equal(t, int64(1), failures)
	assert.Equal(t, lifecycle.StateUnknown, machine.State(), "a failed tick changes nothing")
}

func TestTickPassesCommandArgs(t *testing.T) {
	fake := testutil.NewFakeTransport()
	machine := lifecycle.NewMachine("game-sensor")

	var gotCapacity int
	machine.RegisterHandler(lifecycle.CommandRecover, func(args lifecycle.Args) (lifecycle.State, error) {
		gotCapacity = args.Int("capacity", -1)
		return lifecycle.StateUnchanged, nil
	})

	fake.QueueCommands(transport.PendingCommand{
		Command: "recover",
		Args:    map[string]any{"capacity": float64(5)},
	})

	r := NewReporter("game-sensor", machine, fake)
	r.Tick(context.Background())

	assert.Equal(t, 5, gotCapacity)
}

func TestTickSanitizesLastError(t *testing.T) {
	fake := testutil.NewFakeTransport()
	machine := lifecycle.NewMachine("game-sensor")
	machine.RegisterHandler(lifecycle.CommandStart, func(lifecycle.Args) (lifecycle.State, error) {
		return lifecycle.StateUnchanged, errors.New("lost nats://gateway:4222")
	})
	machine.Dispatch(lifecycle.CommandStart, nil)

	r := NewReporter("game-sensor", machine, fake)
	r.Tick(context.Background())

	reports := fake.LivenessReports()
	require.Len(t, reports, 1)
	assert.NotContains(t, reports[0].ErrorMessage, "nats://")
}

func TestScheduledReportingAndStop(t *testing.T) {
	fake := testutil.NewFakeTransport()
	machine := lifecycle.NewMachine("game-sensor")
	r := NewReporter("game-sensor", machine, fake, WithInterval(10*time.Millisecond))

	ctx := context.Background()
	r.Start(ctx)
	r.Start(ctx) // idempotent

	require.Eventually(t, func() bool {
		return len(fake.LivenessReports()) >= 3
	}, time.Second, 5*time.Millisecond)

	r.Stop(time.Second)
	r.Stop(time.Second) // idempotent

	count := len(fake.LivenessReports())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count, len(fake.LivenessReports()), "no reports after stop")
}

func TestUnknownCommandIsReportedNotFatal(t *testing.T) {
	fake := testutil.NewFakeTransport()
	machine := lifecycle.NewMachine("game-sensor")

	fake.QueueCommands(transport.PendingCommand{Command: "self_destruct"})

	r := NewReporter("game-sensor", machine, fake)
	require.NotPanics(t, func() { r.Tick(context.Background()) })

	assert.Equal(t, lifecycle.StateUnknown, machine.State())
	assert.Contains(t, machine.LastError(), "no handler registered")
}
