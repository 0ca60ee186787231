package orchestrator

import (
	"bytes"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/podsim/pkg/cluster"
	"github.com/cuemby/podsim/pkg/events"
	"github.com/cuemby/podsim/pkg/log"
	"github.com/cuemby/podsim/pkg/metrics"
	"github.com/cuemby/podsim/pkg/storage"
	"github.com/cuemby/podsim/pkg/types"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 10, 13, 10, 30, 0, 0, time.UTC)

func newTestOrchestrator(t *testing.T, cfg Config) *Orchestrator {
	t.Helper()
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(1, 2))
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return testTime }
	}
	o, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return o
}

func eventTypes(list []events.Event) []events.EventType {
	out := make([]events.EventType, len(list))
	for i, e := range list {
		out[i] = e.Type
	}
	return out
}

func TestNewRejectsUnknownPolicy(t *testing.T) {
	_, err := New(Config{Policy: "round-robin"})
	assert.Error(t, err)
}

func TestBootstrap(t *testing.T) {
	o := newTestOrchestrator(t, Config{})
	require.NoError(t, o.Bootstrap())

	nodes := o.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, "Worker-1", nodes[0].Name)
	assert.Equal(t, "Worker-2", nodes[1].Name)
	assert.Equal(t, "GPU-Node", nodes[2].Name)
	assert.Equal(t, 8.0, nodes[2].TotalCPU)
	assert.Equal(t, int64(16384), nodes[2].TotalMemory)

	activity := o.Activity()
	require.Len(t, activity, 3)
	assert.Equal(t, "New node added: GPU-Node (CPU: 8, Memory: 16.0 GB)", activity[0].Message)
	assert.Equal(t, testTime, activity[0].Timestamp)
}

func TestSubmitPodScheduled(t *testing.T) {
	o := newTestOrchestrator(t, Config{})
	require.NoError(t, o.Bootstrap())

	placement, err := o.SubmitPod("web", 1, 1024)
	require.NoError(t, err)
	require.True(t, placement.Scheduled())
	assert.Equal(t, "Worker-1", placement.Node.Name)

	activity := o.Activity()
	assert.Equal(t, events.EventPodScheduled, activity[0].Type)
	assert.Equal(t, `Pod "web" scheduled to Worker-1 using Spread (Balanced)`, activity[0].Message)
	assert.Equal(t, events.EventPodCreated, activity[1].Type)
	assert.Equal(t, `Pod "web" created (CPU: 1, Memory: 1024MB)`, activity[1].Message)

	stats := o.Stats()
	assert.Equal(t, 1, stats.RunningPods)
	assert.Equal(t, 0, stats.QueuedPods)
}

func TestSubmitPodPendingThenDrain(t *testing.T) {
	o := newTestOrchestrator(t, Config{})

	placement, err := o.SubmitPod("db", 2, 2048)
	require.NoError(t, err)
	assert.False(t, placement.Scheduled())
	assert.ErrorIs(t, placement.Err(), cluster.ErrNoEligibleNode)
	assert.Equal(t, events.EventPodPending, o.Activity()[0].Type)
	require.Len(t, o.QueuedPods(), 1)

	_, err = o.AddNode("Worker-1", 4, 8192)
	require.NoError(t, err)

	placements := o.DrainQueue()
	require.Len(t, placements, 1)
	assert.True(t, placements[0].Scheduled())
	assert.Empty(t, o.QueuedPods())
	require.Len(t, o.RunningPods(), 1)
	assert.Equal(t, "node-1", o.RunningPods()[0].NodeID)
}

func TestCreatePodQueueFull(t *testing.T) {
	o := newTestOrchestrator(t, Config{QueueCapacity: 2})

	_, err := o.CreatePod("a", 1, 128)
	require.NoError(t, err)
	_, err = o.CreatePod("b", 1, 128)
	require.NoError(t, err)
	_, err = o.CreatePod("c", 1, 128)
	assert.ErrorIs(t, err, cluster.ErrQueueFull)

	activity := o.Activity()
	assert.Equal(t, events.EventQueueFull, activity[0].Type)
	assert.Len(t, o.QueuedPods(), 2)

	stats := o.Stats()
	assert.Equal(t, 2, stats.QueuedPods)
	assert.Equal(t, 2, stats.QueueCapacity)
	assert.Equal(t, cluster.DefaultMaxNodes, stats.MaxNodes)
}

func TestDrainQueueRecordsEachAttempt(t *testing.T) {
	o := newTestOrchestrator(t, Config{})

	_, err := o.CreatePod("first", 2, 2048)
	require.NoError(t, err)
	_, err = o.CreatePod("second", 2, 2048)
	require.NoError(t, err)
	_, err = o.AddNode("Worker-1", 2, 8192)
	require.NoError(t, err)

	placements := o.DrainQueue()
	require.Len(t, placements, 2)
	assert.True(t, placements[0].Scheduled())
	assert.False(t, placements[1].Scheduled())

	activity := o.Activity()
	assert.Equal(t, events.EventPodPending, activity[0].Type)
	assert.Equal(t, `No suitable node found for pod "second". Added to waiting queue.`, activity[0].Message)
	assert.Equal(t, events.EventPodScheduled, activity[1].Type)
	assert.Equal(t, `Pod "first" scheduled to Worker-1 using Spread (Balanced)`, activity[1].Message)
	assert.Equal(t, "node-1", activity[1].Metadata["node_id"])

	require.Len(t, o.QueuedPods(), 1)
	assert.Equal(t, "second", o.QueuedPods()[0].Name)
}

func TestIgnoredOperationsLogPodAndNode(t *testing.T) {
	defer func() {
		log.Logger = zerolog.Nop()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}()

	var buf bytes.Buffer
	log.Init(log.Config{Level: log.WarnLevel, JSONOutput: true, Output: &buf})

	o := newTestOrchestrator(t, Config{})
	_, err := o.AddNode("Worker-1", 4, 8192)
	require.NoError(t, err)

	_, err = o.MovePod("ghost", "node-1")
	assert.ErrorIs(t, err, cluster.ErrPodNotFound)
	_, err = o.SchedulePod("missing")
	assert.ErrorIs(t, err, cluster.ErrPodNotFound)

	out := buf.String()
	assert.Contains(t, out, `"component":"orchestrator"`)
	assert.Contains(t, out, `"pod_id":"ghost"`)
	assert.Contains(t, out, `"node_id":"node-1"`)
	assert.Contains(t, out, `"pod_id":"missing"`)
	assert.Contains(t, out, `"message":"move ignored"`)
	assert.Contains(t, out, `"message":"schedule ignored"`)
}

func TestCreatePodInvalid(t *testing.T) {
	o := newTestOrchestrator(t, Config{})

	_, err := o.CreatePod("bad", 0, 128)
	assert.ErrorIs(t, err, cluster.ErrInvalidRequest)
	assert.Empty(t, o.QueuedPods())
	assert.Empty(t, o.Activity())
}

func TestSchedulePodUnknown(t *testing.T) {
	o := newTestOrchestrator(t, Config{})

	_, err := o.SchedulePod("missing")
	assert.ErrorIs(t, err, cluster.ErrPodNotFound)
}

func TestMovePod(t *testing.T) {
	o := newTestOrchestrator(t, Config{})
	_, err := o.AddNode("A", 4, 8192)
	require.NoError(t, err)
	_, err = o.AddNode("B", 2, 2048)
	require.NoError(t, err)

	big, err := o.SubmitPod("big", 3, 1024)
	require.NoError(t, err)
	require.Equal(t, "node-1", big.Node.ID)

	t.Run("rejected", func(t *testing.T) {
		_, err := o.MovePod(big.Pod.ID, "node-2")
		assert.ErrorIs(t, err, cluster.ErrInsufficientResources)
		assert.Equal(t, events.EventPodMoveRejected, o.Activity()[0].Type)
		assert.Equal(t, "Cannot move pod to B: Insufficient resources", o.Activity()[0].Message)

		pod, err := o.Pod(big.Pod.ID)
		require.NoError(t, err)
		assert.Equal(t, "node-1", pod.NodeID)
	})

	t.Run("noop", func(t *testing.T) {
		before := len(o.Activity())
		move, err := o.MovePod(big.Pod.ID, "node-1")
		require.NoError(t, err)
		assert.Equal(t, move.From.ID, move.To.ID)
		assert.Len(t, o.Activity(), before)
	})

	t.Run("moved", func(t *testing.T) {
		small, err := o.SubmitPod("small", 1, 512)
		require.NoError(t, err)
		require.Equal(t, "node-2", small.Node.ID)

		move, err := o.MovePod(small.Pod.ID, "node-1")
		require.NoError(t, err)
		assert.Equal(t, "node-2", move.From.ID)
		assert.Equal(t, "node-1", move.To.ID)
		assert.Equal(t, "node-1", move.Pod.NodeID)
		assert.Equal(t, events.EventPodMoved, o.Activity()[0].Type)
		assert.Equal(t, `Pod "small" manually moved from B to A`, o.Activity()[0].Message)

		node, err := o.Node("node-1")
		require.NoError(t, err)
		assert.Equal(t, 4.0, node.UsedCPU)
		assert.Equal(t, []string{big.Pod.ID, small.Pod.ID}, node.PodIDs)

		node, err = o.Node("node-2")
		require.NoError(t, err)
		assert.Zero(t, node.UsedCPU)
		assert.Empty(t, node.PodIDs)
	})
}

func TestAddNodeLimit(t *testing.T) {
	o := newTestOrchestrator(t, Config{MaxNodes: 1})

	_, err := o.AddNode("only", 2, 2048)
	require.NoError(t, err)
	_, err = o.AddNode("extra", 2, 2048)
	assert.ErrorIs(t, err, cluster.ErrNodeLimitReached)

	assert.Equal(t, events.EventNodeLimitReached, o.Activity()[0].Type)
	assert.Equal(t, "Maximum 1 nodes allowed", o.Activity()[0].Message)
	assert.Len(t, o.Nodes(), 1)
}

func TestAddRandomNode(t *testing.T) {
	o := newTestOrchestrator(t, Config{})

	for i := 1; i <= cluster.DefaultMaxNodes; i++ {
		node, err := o.AddRandomNode()
		require.NoError(t, err)

		prefix, suffix, ok := strings.Cut(node.Name, "-")
		require.True(t, ok, node.Name)
		assert.Contains(t, randomNodeNames, prefix)
		assert.Equal(t, strings.TrimPrefix(node.ID, "node-"), suffix)
		assert.Contains(t, randomNodeCPU, node.TotalCPU)
		assert.Contains(t, randomNodeMem, node.TotalMemory)
	}

	_, err := o.AddRandomNode()
	assert.ErrorIs(t, err, cluster.ErrNodeLimitReached)
}

func TestQuickCreatePod(t *testing.T) {
	o := newTestOrchestrator(t, Config{})
	require.NoError(t, o.Bootstrap())

	for i := 0; i < 5; i++ {
		placement, err := o.QuickCreatePod()
		require.NoError(t, err)

		pod := placement.Pod
		prefix := pod.Name[:strings.LastIndex(pod.Name, "-")]
		assert.Contains(t, randomPodNames, prefix)
		assert.GreaterOrEqual(t, pod.CPURequest, 0.5)
		assert.LessOrEqual(t, pod.CPURequest, 3.5)
		assert.GreaterOrEqual(t, pod.MemoryRequest, int64(128))
		assert.Less(t, pod.MemoryRequest, int64(4224))
	}
}

func TestLoadExamples(t *testing.T) {
	o := newTestOrchestrator(t, Config{})
	require.NoError(t, o.Bootstrap())

	placements, err := o.LoadExamples()
	require.NoError(t, err)
	require.Len(t, placements, len(ExamplePods))

	hosts := make([]string, len(placements))
	for i, p := range placements {
		require.True(t, p.Scheduled(), p.Pod.Name)
		hosts[i] = p.Node.Name
	}
	assert.Equal(t, []string{"Worker-1", "Worker-2", "GPU-Node", "GPU-Node"}, hosts)
	assert.Equal(t, "Created example pods for web application stack", o.Activity()[0].Message)
}

func TestLoadExamplesQueueFull(t *testing.T) {
	o := newTestOrchestrator(t, Config{QueueCapacity: 2})

	placements, err := o.LoadExamples()
	assert.ErrorIs(t, err, cluster.ErrQueueFull)
	assert.Len(t, placements, 2)
}

func TestSetPolicy(t *testing.T) {
	o := newTestOrchestrator(t, Config{})
	require.NoError(t, o.Bootstrap())

	require.NoError(t, o.SetPolicy(types.PolicyBinPack))
	assert.Equal(t, types.PolicyBinPack, o.Policy())
	assert.Equal(t, "Scheduler algorithm changed to: Bin Packing (Efficient)", o.Activity()[0].Message)

	_, err := o.SubmitPod("a", 1, 1024)
	require.NoError(t, err)
	placement, err := o.SubmitPod("b", 1, 1024)
	require.NoError(t, err)
	assert.Equal(t, "Worker-1", placement.Node.Name)
	assert.Equal(t, types.PolicyBinPack, placement.Policy)

	assert.Error(t, o.SetPolicy("round-robin"))
	assert.Equal(t, types.PolicyBinPack, o.Policy())
}

func TestReset(t *testing.T) {
	o := newTestOrchestrator(t, Config{})
	require.NoError(t, o.Bootstrap())
	_, err := o.LoadExamples()
	require.NoError(t, err)
	_, err = o.CreatePod("queued", 1, 128)
	require.NoError(t, err)

	o.Reset()

	stats := o.Stats()
	assert.Equal(t, 3, stats.Nodes)
	assert.Equal(t, 0, stats.RunningPods)
	assert.Equal(t, 0, stats.QueuedPods)
	assert.Zero(t, stats.UsedCPU)
	assert.Zero(t, stats.UsedMemory)
	assert.Equal(t, events.EventClusterReset, o.Activity()[0].Type)

	nodes := o.Nodes()
	o.Reset()
	if diff := cmp.Diff(stats, o.Stats()); diff != "" {
		t.Errorf("second reset changed stats (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(nodes, o.Nodes()); diff != "" {
		t.Errorf("second reset changed nodes (-want +got):\n%s", diff)
	}
}

func TestActivityIsBounded(t *testing.T) {
	o := newTestOrchestrator(t, Config{})
	require.NoError(t, o.Bootstrap())

	for i := 0; i < 10; i++ {
		_, err := o.SubmitPod("", 0.1, 64)
		require.NoError(t, err)
	}

	activity := o.Activity()
	require.Len(t, activity, events.DefaultHistorySize)
	assert.Equal(t, events.EventPodScheduled, activity[0].Type)
	assert.Contains(t, eventTypes(activity), events.EventPodCreated)
	assert.NotContains(t, eventTypes(activity), events.EventNodeAdded)
}

func TestJournal(t *testing.T) {
	store, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer store.Close()

	o := newTestOrchestrator(t, Config{Journal: store, HistorySize: 100})
	require.NoError(t, o.Bootstrap())
	_, err = o.SubmitPod("web", 1, 1024)
	require.NoError(t, err)
	o.Reset()

	list, err := store.ListEvents()
	require.NoError(t, err)
	activity := o.Activity()
	require.Len(t, list, len(activity))
	for i, event := range list {
		assert.Equal(t, activity[len(activity)-1-i].ID, event.ID)
	}
	assert.Equal(t, events.EventClusterReset, list[len(list)-1].Type)
}

func TestSubscribe(t *testing.T) {
	o := newTestOrchestrator(t, Config{})
	sub := o.Subscribe()
	defer o.Unsubscribe(sub)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventSubscribers))

	_, err := o.AddNode("Worker-1", 4, 8192)
	require.NoError(t, err)

	select {
	case event := <-sub:
		assert.Equal(t, events.EventNodeAdded, event.Type)
		assert.Equal(t, "node-1", event.Metadata["node_id"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestConcurrentOperations(t *testing.T) {
	o := newTestOrchestrator(t, Config{QueueCapacity: 50})
	require.NoError(t, o.Bootstrap())

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				switch i % 5 {
				case 0, 1:
					_, _ = o.QuickCreatePod()
				case 2:
					_ = o.DrainQueue()
				case 3:
					if running := o.RunningPods(); len(running) > 0 {
						_, _ = o.MovePod(running[0].ID, "node-3")
					}
				case 4:
					if g == 0 {
						o.Reset()
					}
					_ = o.Stats()
				}
			}
		}(g)
	}
	wg.Wait()

	stats := o.Stats()
	assert.Equal(t, len(o.RunningPods()), stats.RunningPods)
	assert.Equal(t, len(o.QueuedPods()), stats.QueuedPods)

	var used float64
	for _, node := range o.Nodes() {
		used += node.UsedCPU
		assert.LessOrEqual(t, node.UsedCPU, node.TotalCPU+1e-9)
		assert.LessOrEqual(t, node.UsedMemory, node.TotalMemory)
	}
	assert.InDelta(t, stats.UsedCPU, used, 1e-9)
}
