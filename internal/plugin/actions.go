package plugin

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/skeleton"
	"github.com/ayusman/abhinaya/internal/store"
)

// Bindings looks up the action bound to a gesture kind.
// store.ActionRepository implements it.
type Bindings interface {
	GetByGesture(kind gesture.Kind) (*store.Action, error)
}

// Result describes one finished plugin run.
type Result struct {
	Action   store.Action
	Response *Response
	Err      error
}

type job struct {
	action store.Action
	plugin *Plugin
	req    Request
}

const actionQueueSize = 16

// ActionListener runs the plugin action bound to a gesture when the
// gesture completes. Runs happen on a worker goroutine so the tick is
// never blocked by a plugin; when the queue is full the run is dropped.
type ActionListener struct {
	bindings Bindings
	plugins  *Manager
	executor *Executor

	jobs   chan job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	onResult func(Result)
}

// NewActionListener starts the worker. Call Close to stop it.
func NewActionListener(bindings Bindings, plugins *Manager, executor *Executor) *ActionListener {
	ctx, cancel := context.WithCancel(context.Background())
	a := &ActionListener{
		bindings: bindings,
		plugins:  plugins,
		executor: executor,
		jobs:     make(chan job, actionQueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// OnResult registers a callback invoked on the worker after every run.
func (a *ActionListener) OnResult(fn func(Result)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onResult = fn
}

func (a *ActionListener) run() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			return
		case j := <-a.jobs:
			resp, err := a.executor.ExecuteContext(a.ctx, j.plugin, &j.req)
			switch {
			case err != nil:
				log.Printf("Plugin %s failed for %s: %v", j.plugin.Manifest.Name, j.req.Gesture, err)
			case !resp.Success:
				log.Printf("Plugin %s reported error for %s: %s", j.plugin.Manifest.Name, j.req.Gesture, resp.Error)
			}

			a.mu.Lock()
			fn := a.onResult
			a.mu.Unlock()
			if fn != nil {
				fn(Result{Action: j.action, Response: resp, Err: err})
			}
		}
	}
}

// Close stops the worker, cancelling a running plugin. Queued runs are dropped.
func (a *ActionListener) Close() error {
	a.cancel()
	a.wg.Wait()
	return nil
}

func (a *ActionListener) OnUserDetected(userID uint32) {}

func (a *ActionListener) OnUserLost(userID uint32) {}

func (a *ActionListener) OnGestureInProgress(userID uint32, kind gesture.Kind, progress float64, joint skeleton.Joint, output r3.Vec) {
}

// OnGestureCompleted queues the bound action. It returns true when an
// enabled action was found, restarting the user's gestures.
func (a *ActionListener) OnGestureCompleted(userID uint32, kind gesture.Kind, joint skeleton.Joint, output r3.Vec) bool {
	action, err := a.bindings.GetByGesture(kind)
	if err != nil {
		log.Printf("Failed to look up action for %v: %v", kind, err)
		return false
	}
	if action == nil || !action.Enabled {
		return false
	}

	plug, err := a.plugins.Get(action.PluginName)
	if err != nil {
		log.Printf("Action %s: %s: %v", action.ID, action.PluginName, err)
		return false
	}
	if !plug.Manifest.HasAction(action.ActionName) {
		log.Printf("Action %s: plugin %s has no action %q", action.ID, action.PluginName, action.ActionName)
		return false
	}

	params, _ := json.Marshal(map[string]any{"action_name": action.ActionName})
	j := job{
		action: *action,
		plugin: plug,
		req: Request{
			Action:  action.ActionName,
			Gesture: kind.String(),
			UserID:  userID,
			Joint:   joint.String(),
			Output:  [3]float64{output.X, output.Y, output.Z},
			Config:  action.Config,
			Params:  params,
		},
	}

	select {
	case a.jobs <- j:
	default:
		log.Printf("Action queue full, dropping %s for %v", action.ActionName, kind)
	}
	return true
}

func (a *ActionListener) OnGestureCancelled(userID uint32, kind gesture.Kind, joint skeleton.Joint) bool {
	return false
}
