package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowgrid/flowgrid/pkg/credentials"
	"github.com/flowgrid/flowgrid/pkg/eventbus"
	"github.com/flowgrid/flowgrid/pkg/events"
	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/otelhelper"
	"github.com/flowgrid/flowgrid/pkg/registry"
)

// Walker executes one workflow graph to completion. Traversal is an explicit
// worklist: depth-first by branch-group order, each branch group walked fully
// to its leaves before the next group of the same node starts. The walker is
// the sole mutator of the RunContext and never shares it across goroutines.
type Walker struct {
	logger      *slog.Logger
	registry    *registry.Registry
	credentials *credentials.Resolver
	tracer      trace.Tracer
	publisher   eventbus.EventPublisher
}

func NewWalker(logger *slog.Logger, reg *registry.Registry, creds *credentials.Resolver) *Walker {
	return &Walker{
		logger:      logger.With("module", "graph_walker"),
		registry:    reg,
		credentials: creds,
	}
}

// WithTracer enables per-run and per-node tracing spans.
func (w *Walker) WithTracer(tracer trace.Tracer) *Walker {
	w.tracer = tracer

	return w
}

// WithPublisher enables best-effort node.finished events after each node.
func (w *Walker) WithPublisher(publisher eventbus.EventPublisher) *Walker {
	w.publisher = publisher

	return w
}

// Walk traverses the graph from its trigger node and returns the number of
// nodes visited. Node failures are recorded as outcomes and never abort the
// walk; only faults outside node execution (no trigger node, a revisited
// node) return an error, and those abort before or mid-run with no further
// nodes executed.
func (w *Walker) Walk(ctx context.Context, wf *models.Workflow, rc *models.RunContext) (int, error) {
	trigger := wf.TriggerNode()
	if trigger == nil {
		return 0, ErrNoTriggerNode
	}

	logger := w.logger.With("workflow_id", wf.ID, "run_id", rc.RunID)

	var span trace.Span

	if w.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, w.tracer, "run.walk",
			attribute.String(otelhelper.RunIDKey, rc.RunID),
			attribute.String(otelhelper.WorkflowIDKey, wf.ID),
			attribute.String(otelhelper.RunModeKey, string(rc.Mode)),
		)
		defer span.End()
	}

	g := buildGraph(wf, logger)

	visited := make(map[string]struct{}, len(wf.Nodes))
	stack := []string{trigger.ID}
	executed := 0

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[id]; seen {
			err := fmt.Errorf("%w: node %s reached twice", ErrCycleDetected, id)
			if span != nil {
				otelhelper.SetError(span, err, attribute.String(otelhelper.NodeIDKey, id))
			}

			return executed, err
		}

		visited[id] = struct{}{}

		node, ok := g.nodes[id]
		if !ok {
			continue
		}

		outcome := w.executeNode(ctx, node, rc)

		rc.Results[node.Name] = outcome

		if w.publisher != nil {
			err := w.publisher.Publish(ctx, wf.ID, events.NodeFinished{
				BaseEvent: events.NewBaseEvent(events.NodeFinishedEvent, wf.ID),
				RunID:     rc.RunID,
				NodeID:    node.ID,
				NodeName:  node.Name,
				Outcome:   outcome,
			})
			if err != nil {
				logger.Warn("failed to publish node.finished event", "node", node.Name, "error", err)
			}
		}

		if outcome.Success {
			if outcome.Data != nil {
				rc.Current = outcome.Data
			}

			rc.PreviousNode = node.Name
		} else {
			// Descendants keep running on the nearest prior successful data.
			logger.Warn("node failed, continuing with stale data",
				"node", node.Name, "error", outcome.Error)
		}

		executed++

		// Push branch groups in reverse so the first group is walked fully to
		// its leaves before the next group starts.
		groups := g.adjacency[id]
		for gi := len(groups) - 1; gi >= 0; gi-- {
			group := groups[gi]
			for ti := len(group) - 1; ti >= 0; ti-- {
				stack = append(stack, group[ti])
			}
		}
	}

	return executed, nil
}

func (w *Walker) executeNode(ctx context.Context, node *models.Node, rc *models.RunContext) models.NodeOutcome {
	if w.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, w.tracer, "node.execute",
			attribute.String(otelhelper.RunIDKey, rc.RunID),
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeNameKey, node.Name),
			attribute.String(otelhelper.NodeKindKey, node.Kind),
		)
		defer span.End()
	}

	if node.Disabled {
		return models.NodeOutcome{Success: true, Message: "node disabled, skipped"}
	}

	if err := w.registry.ValidateParameters(node); err != nil {
		return models.FailedOutcome(err.Error())
	}

	executor, err := w.registry.ExecutorFor(models.ParseKind(node.Kind))
	if err != nil {
		return models.FailedOutcome(err.Error())
	}

	credential, err := w.credentials.Resolve(ctx, node)
	if err != nil && !errors.Is(err, credentials.ErrCredentialMissing) {
		// A reference that cannot be resolved fails the node; a node with no
		// reference at all passes nil through, so executors that accept
		// inline secret overrides can still run.
		return models.FailedOutcome(fmt.Sprintf("failed to resolve credential for node %s: %s", node.Name, err))
	}

	w.logger.Debug("executing node", "node", node.Name, "kind", node.Kind, "run_id", rc.RunID)

	return executor.Execute(ctx, node, rc, credential)
}
